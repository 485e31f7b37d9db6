package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jbpratt/quiz/internal/config"
	"github.com/jbpratt/quiz/internal/trivia"
	"github.com/jbpratt/quiz/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logPath := flag.String("log", "/tmp/quiz.log", "path to the log file")
	lvl := zap.LevelFlag("v", zapcore.InfoLevel, "set the log level (overrides log_level)")
	embedded := flag.Bool("embedded", false, "use the bundled question bank instead of opentdb")
	mode := flag.String("ui", "", "ui mode: auto|live|plain (overrides ui.mode)")
	noColor := flag.Bool("no-color", false, "disable colors")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *embedded {
		cfg.Source.Kind = config.SourceEmbedded
		cfg.Source.SessionToken = false
	}
	if *mode != "" {
		cfg.UI.Mode = *mode
	}
	if *noColor || os.Getenv("NO_COLOR") != "" {
		cfg.UI.NoColor = true
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			level = *lvl
		}
	})

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()

	encoderCfg := zap.NewProductionEncoderConfig()
	atom := zap.NewAtomicLevelAt(level)
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(logFile),
		atom,
	))

	defer func() {
		if err := logger.Sync(); err != nil {
			log.Fatal(err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-c
		logger.Sugar().Infow("received signal, shutting down", "signal", s)
		cancel()
	}()

	if err := run(ctx, logger.Sugar(), cfg); err != nil {
		logger.Sugar().Errorw("quiz exited", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.SugaredLogger, cfg config.Config) error {
	decision, err := ui.ResolveMode(cfg.UI.Mode, os.Stdout)
	if err != nil {
		return err
	}
	if decision.Warning != "" {
		fmt.Fprintln(os.Stderr, decision.Warning)
	}

	source, err := config.NewSource(ctx, logger, cfg.Source)
	if err != nil {
		return err
	}
	session := trivia.NewSession(logger, source)
	logger.Infow("starting quiz", "source", cfg.Source.Kind, "live", decision.UseLive)

	if decision.UseLive {
		return ui.RunLive(ctx, logger, session, os.Stdin, os.Stdout, ui.Options{NoColor: cfg.UI.NoColor})
	}
	return ui.NewPlain(logger, session, os.Stdin, os.Stdout).Run(ctx)
}
