// Package events publishes chat-turn events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/quillchat/chat-platform/pkg/logger"
)

const (
	// StreamName is the name of the chat-turns stream.
	StreamName = "CHAT_TURNS"

	// SubjectPrefix is the prefix for all chat-turn subjects.
	SubjectPrefix = "chat"
)

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// ChatTurnEvent is emitted after a chat turn has been persisted.
type ChatTurnEvent struct {
	Username           string    `json:"username"`
	ConversationNumber int       `json:"conversation_number"`
	Model              string    `json:"model"`
	PromptTokens       int       `json:"prompt_tokens"`
	ResponseTokens     int       `json:"response_tokens"`
	Timestamp          time.Time `json:"timestamp"`
}

// Publisher publishes chat-turn events. A nil *Publisher is a valid no-op,
// so event publishing stays optional.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes a NATS connection and ensures the chat-turns stream
// exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Persisted chat turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// TurnSubject returns the subject for one user's conversation.
func TurnSubject(username string, conversationNumber int) string {
	return fmt.Sprintf("%s.%s.%d", SubjectPrefix, username, conversationNumber)
}

// PublishTurn publishes a chat-turn event. Publish failures are logged and
// swallowed; events are advisory and must not fail the chat turn.
func (p *Publisher) PublishTurn(ctx context.Context, ev *ChatTurnEvent) {
	if p == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("failed to marshal chat-turn event")
		return
	}

	if _, err := p.js.Publish(ctx, TurnSubject(ev.Username, ev.ConversationNumber), data); err != nil {
		p.logger.Warn("failed to publish chat-turn event")
	}
}

// IsConnected reports whether the NATS connection is up.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
