// Package broker publishes coordinated responses to NATS so session
// observers (UIs, agent supervisors) can follow a conversation without
// polling.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coordd/internal/logging"
	"github.com/fyrsmithlabs/coordd/internal/template"
)

// ErrInvalidSessionID indicates a session ID that cannot form a valid
// NATS subject token.
var ErrInvalidSessionID = errors.New("invalid session id")

// sessionIDPattern restricts session IDs to safe subject characters.
// NATS treats "." as a token separator and "*"/">" as wildcards.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Config holds NATS connection settings.
type Config struct {
	// URL is the NATS server URL. Empty disables the broker.
	URL string `koanf:"url"`

	// SubjectPrefix is the root token of published subjects.
	// Default: "coordd"
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "coordd"
	}
}

// Enabled reports whether a broker should be constructed at all.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// publisher is the slice of *nats.Conn the broker needs.
type publisher interface {
	Publish(subj string, data []byte) error
}

// Broker publishes response events to per-session subjects
// ("<prefix>.session.<id>.response").
type Broker struct {
	conn   publisher
	prefix string
	logger *logging.Logger
}

// Connect dials NATS and returns a broker over the connection. The
// connection retries in the background, so a NATS outage at startup does
// not block coordd.
func Connect(config Config, logger *logging.Logger) (*Broker, *nats.Conn, error) {
	config.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}

	nc, err := nats.Connect(config.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS at %s: %w", config.URL, err)
	}

	logger.Info(context.Background(), "connected to NATS",
		zap.String("url", config.URL),
		zap.String("subject_prefix", config.SubjectPrefix),
	)

	return newBroker(nc, config.SubjectPrefix, logger), nc, nil
}

func newBroker(conn publisher, prefix string, logger *logging.Logger) *Broker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Broker{conn: conn, prefix: prefix, logger: logger}
}

// responseEvent is the published wire format.
type responseEvent struct {
	SessionID string            `json:"session_id"`
	Response  template.Response `json:"response"`
	Timestamp time.Time         `json:"timestamp"`
}

// PublishResponse publishes one coordinated response for the session.
// Publish failures are logged and swallowed: the broker is an observer
// channel, never part of the request's success.
func (b *Broker) PublishResponse(ctx context.Context, sessionID string, resp template.Response) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}

	data, err := json.Marshal(responseEvent{
		SessionID: sessionID,
		Response:  resp,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal response event: %w", err)
	}

	subject := fmt.Sprintf("%s.session.%s.response", b.prefix, sessionID)
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Warn(ctx, "response publish failed, observers will miss this event",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return nil
	}

	b.logger.Debug(ctx, "response published",
		zap.String("subject", subject),
		zap.String("intent", string(resp.Intent)),
	)
	return nil
}
