// Package bot is a minimal client for the strims chat websocket protocol.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Conn is the subset of *websocket.Conn the bot uses.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, messageType websocket.MessageType, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

type Dialer func(ctx context.Context, url string, opts *websocket.DialOptions) (Conn, *http.Response, error)

func WebSocketDialer(ctx context.Context, url string, opts *websocket.DialOptions) (Conn, *http.Response, error) {
	return websocket.Dial(ctx, url, opts)
}

// Handler is called for every message of the kind it was registered for.
// Returning an error stops the bot.
type Handler func(ctx context.Context, msg *Msg) error

type Bot struct {
	logger    *zap.SugaredLogger
	dialer    Dialer
	url       string
	token     string
	reconnect bool
	ignored   []string
	handlers  map[string][]Handler

	mu       sync.Mutex
	conn     Conn
	lastSent string
}

type Option func(*Bot)

// WithReconnect redials instead of failing when a read errors.
func WithReconnect() Option {
	return func(b *Bot) { b.reconnect = true }
}

// WithIgnored drops frames of the given kinds before parsing.
func WithIgnored(kinds ...string) Option {
	return func(b *Bot) { b.ignored = append(b.ignored, kinds...) }
}

func New(ctx context.Context, logger *zap.SugaredLogger, dialer Dialer, url, jwt string, opts ...Option) (*Bot, error) {
	b := &Bot{
		logger:   logger,
		dialer:   dialer,
		url:      url,
		token:    jwt,
		handlers: map[string][]Handler{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.dial(ctx); err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return b, nil
}

func (b *Bot) dial(ctx context.Context) error {
	c, _, err := b.dialer(ctx, b.url, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Cookie": []string{fmt.Sprintf("jwt=%s", b.token)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", b.url, err)
	}

	b.mu.Lock()
	b.conn = c
	b.mu.Unlock()
	b.logger.Debugw("dialed server", "url", b.url)
	return nil
}

// Handle registers handlers for a frame kind such as KindMsg.
func (b *Bot) Handle(kind string, handlers ...Handler) {
	b.handlers[kind] = append(b.handlers[kind], handlers...)
}

// Send posts a message to the public chat.
func (b *Bot) Send(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// the server rejects a message identical to the previous one
	if text == b.lastSent {
		text += " ."
	}

	frame, err := encodeMsg(KindMsg, text, "")
	if err != nil {
		return err
	}
	if err = b.write(ctx, frame); err != nil {
		return fmt.Errorf("failed to send message %q: %w", text, err)
	}
	b.lastSent = text
	return nil
}

// Whisper sends a private message to user.
func (b *Bot) Whisper(ctx context.Context, user, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame, err := encodeMsg(KindPrivMsg, text, user)
	if err != nil {
		return err
	}
	if err = b.write(ctx, frame); err != nil {
		return fmt.Errorf("failed to whisper %q to %q: %w", text, user, err)
	}
	return nil
}

// write must be called with mu held.
func (b *Bot) write(ctx context.Context, frame string) error {
	b.logger.Debugw("sending frame", "frame", frame)
	if err := b.conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (b *Bot) currentConn() Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

// Run reads frames and dispatches them until ctx is canceled, the connection
// fails without reconnect, or a handler errors.
func (b *Bot) Run(ctx context.Context) error {
	defer func() {
		if err := b.Close(); err != nil {
			b.logger.Warnw("failed to close connection", "err", err)
		}
	}()

	b.logger.Info("bot is now running")
	frames := make(chan string)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(frames)
		for {
			_, data, err := b.currentConn().Read(egCtx)
			if err != nil {
				if egCtx.Err() != nil {
					return nil
				}
				if !b.reconnect {
					return fmt.Errorf("failed while reading message: %w", err)
				}
				b.logger.Warnw("read failed, reconnecting", "err", err)
				if err = b.dial(egCtx); err != nil {
					return err
				}
				continue
			}

			select {
			case frames <- string(data):
			case <-egCtx.Done():
				return nil
			}
		}
	})

	eg.Go(func() error {
		for raw := range frames {
			if err := b.dispatch(egCtx, raw); err != nil {
				return err
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("failure while running: %w", err)
	}
	return nil
}

func (b *Bot) dispatch(ctx context.Context, raw string) error {
	for _, kind := range b.ignored {
		if strings.HasPrefix(raw, kind+" ") {
			return nil
		}
	}

	msg, err := parseMsg(raw)
	if err != nil {
		b.logger.Infow("failed to parse message", "err", err)
		return nil
	}

	for _, h := range b.handlers[msg.Kind] {
		if err = h(ctx, msg); err != nil {
			return fmt.Errorf("%s handler: %w", strings.ToLower(msg.Kind), err)
		}
	}
	return nil
}

func (b *Bot) Close() error {
	b.logger.Info("closing chat connection")
	return b.currentConn().Close(websocket.StatusNormalClosure, "going away")
}
