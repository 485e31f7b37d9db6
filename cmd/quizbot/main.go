package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jbpratt/quiz/internal/bot"
	"github.com/jbpratt/quiz/internal/config"
	"github.com/jbpratt/quiz/internal/quizbot"
	"github.com/jbpratt/quiz/internal/trivia"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dev := flag.Bool("dev", false, "use chat2")
	envFile := flag.String("env", ".env", "optional dotenv file with STRIMS_CHAT_TOKEN")
	lvl := zap.LevelFlag("v", zapcore.InfoLevel, "set the log level")

	flag.Parse()

	encoderCfg := zap.NewProductionEncoderConfig()
	atom := zap.NewAtomicLevelAt(*lvl)
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		atom,
	))

	defer func() {
		if err := logger.Sync(); err != nil {
			log.Fatal(err)
		}
	}()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal("failed to load env file", zap.Error(err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal(err.Error())
	}
	if *dev {
		cfg.Bot.URL = config.DevBotURL
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-c
		logger.Sugar().Infow("received signal, shutting down", "signal", s)
		cancel()
	}()

	url, jwt := os.Getenv("STRIMS_CHAT_WSS_URL"), os.Getenv("STRIMS_CHAT_TOKEN")
	if url == "" {
		url = cfg.Bot.URL
	}
	if jwt == "" {
		logger.Fatal("must provide $STRIMS_CHAT_TOKEN")
	}

	source, err := config.NewSource(ctx, logger.Sugar(), cfg.Source)
	if err != nil {
		logger.Fatal(err.Error())
	}

	b, err := bot.New(ctx, logger.Sugar(), bot.WebSocketDialer, url, jwt,
		bot.WithReconnect(),
		bot.WithIgnored(bot.KindNames, bot.KindJoin, bot.KindQuit, bot.KindViewerState, bot.KindPrivMsgSent),
	)
	if err != nil {
		logger.Fatal(err.Error())
	}

	qb := quizbot.New(logger.Sugar(), b, trivia.NewSession(logger.Sugar(), source), cfg.Bot.Prefix)
	qb.Register(b)

	if err = b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal(err.Error())
	}
	qb.Wait()
}
