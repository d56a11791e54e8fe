package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-md-governance/internal/repository"
)

// ChangeCommand is the message sent to the master-data service when a change
// request receives final approval.
type ChangeCommand struct {
	ChangeType repository.ChangeType `json:"change_type"`
	ChangeKind repository.ChangeKind `json:"change_kind"`
	Payload    map[string]any        `json:"payload"`
	IssuedAt   time.Time             `json:"issued_at"`
}

// ChangeReply is the master-data service's acknowledgement.
type ChangeReply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// NATSChangeExecutor applies approved changes by request/reply to the
// master-data service on <prefix>.<change_type>.
type NATSChangeExecutor struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewNATSChangeExecutor creates an executor over an established connection.
func NewNATSChangeExecutor(conn *nats.Conn, subjectPrefix string, timeout time.Duration, log zerolog.Logger) *NATSChangeExecutor {
	return &NATSChangeExecutor{
		conn:    conn,
		prefix:  subjectPrefix,
		timeout: timeout,
		log:     log.With().Str("component", "change_executor").Logger(),
	}
}

// Subject returns the subject a change type is dispatched on.
func (e *NATSChangeExecutor) Subject(changeType repository.ChangeType) string {
	return fmt.Sprintf("%s.%s", e.prefix, strings.ToLower(string(changeType)))
}

// Execute sends the change and waits for the downstream acknowledgement.
func (e *NATSChangeExecutor) Execute(ctx context.Context, changeType repository.ChangeType, kind repository.ChangeKind, payload map[string]any) error {
	data, err := json.Marshal(&ChangeCommand{
		ChangeType: changeType,
		ChangeKind: kind,
		Payload:    payload,
		IssuedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal change command: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	subject := e.Subject(changeType)
	msg, err := e.conn.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return fmt.Errorf("dispatch change on %s: %w", subject, err)
	}

	var reply ChangeReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("decode change reply: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("master-data service refused change: %s", reply.Message)
	}

	e.log.Info().
		Str("subject", subject).
		Str("change_kind", string(kind)).
		Msg("change applied")
	return nil
}

// LogChangeExecutor records approved changes in the log only. It is used
// when no master-data service is configured.
type LogChangeExecutor struct {
	log zerolog.Logger
}

func NewLogChangeExecutor(log zerolog.Logger) *LogChangeExecutor {
	return &LogChangeExecutor{log: log.With().Str("component", "change_executor").Logger()}
}

func (e *LogChangeExecutor) Execute(_ context.Context, changeType repository.ChangeType, kind repository.ChangeKind, payload map[string]any) error {
	e.log.Info().
		Str("change_type", string(changeType)).
		Str("change_kind", string(kind)).
		Int("payload_fields", len(payload)).
		Msg("approved change recorded (no executor configured)")
	return nil
}
