// Package session ties one agent connection to one transcript. Conn owns the
// websocket; Session turns its events into transcript messages and turns user
// input into task requests.
package session

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"browserchat/internal/logging"
	"browserchat/internal/protocol"
	"browserchat/internal/transcript"
)

const (
	connectedText       = "Connected to browser agent!"
	disconnectedText    = "Disconnected from browser agent"
	connectionErrorText = "Connection error occurred"
)

// Transport is the outbound half of a connection. Conn satisfies it.
type Transport interface {
	Connected() bool
	Send(payload []byte) error
}

// Session is the single owner of a transcript and the connection feeding it.
// Handle and Submit must be called from one goroutine; the transcript may be
// read concurrently.
type Session struct {
	id        string
	transport Transport
	store     *transcript.Store
	connected bool
	log       *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

func WithStore(store *transcript.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

func New(transport Transport, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		transport: transport,
		store:     transcript.NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.With(logging.FieldSession, s.id, logging.FieldComponent, "session")
	return s
}

func (s *Session) ID() string { return s.id }

// Connected reports whether the session has seen the connection open and
// the transport still considers itself connected.
func (s *Session) Connected() bool {
	return s.connected && s.transport != nil && s.transport.Connected()
}

func (s *Session) Transcript() []transcript.Message { return s.store.All() }

func (s *Session) Store() *transcript.Store { return s.store }

// Handle applies one connection event and returns the messages it appended.
// Every frame yields at least one message, malformed or not.
func (s *Session) Handle(ev ConnEvent) []transcript.Message {
	switch ev.Kind {
	case ConnOpened:
		s.connected = true
		s.log.Info("session connected")
		return []transcript.Message{s.append(transcript.Message{Role: transcript.RoleSystem, Kind: transcript.KindPlain, Text: connectedText})}
	case ConnClosed:
		s.connected = false
		s.log.Info("session disconnected")
		return []transcript.Message{s.append(transcript.Message{Role: transcript.RoleSystem, Kind: transcript.KindPlain, Text: disconnectedText})}
	case ConnTransportError:
		s.log.Warn("transport error", logging.FieldError, ev.Err)
		return []transcript.Message{s.append(transcript.Message{Role: transcript.RoleError, Kind: transcript.KindError, Text: connectionErrorText})}
	case ConnFrame:
		event := protocol.Decode(ev.Frame)
		s.log.Debug("event decoded", logging.FieldEventType, string(event.Type), logging.FieldBytes, len(ev.Frame))
		classified := transcript.Classify(event)
		out := make([]transcript.Message, 0, len(classified))
		for _, msg := range classified {
			out = append(out, s.append(msg))
		}
		return out
	default:
		return nil
	}
}

// Submit sends raw as a task. It does nothing and returns false when raw is
// blank or the session is not connected. Otherwise the user message is
// recorded before the request goes out, and Submit returns true even if the
// write fails; the failure is recorded as an error message instead.
func (s *Session) Submit(raw string) bool {
	if strings.TrimSpace(raw) == "" || !s.Connected() {
		return false
	}
	s.append(transcript.Message{Role: transcript.RoleUser, Kind: transcript.KindPlain, Text: raw})

	req := protocol.TaskRequest{Task: raw, TaskType: transcript.InferTaskType(raw)}
	payload, err := req.Encode()
	if err == nil {
		err = s.transport.Send(payload)
	}
	if err != nil {
		s.log.Error("send task failed", logging.FieldTaskType, string(req.TaskType), logging.FieldError, err)
		s.append(transcript.Message{Role: transcript.RoleError, Kind: transcript.KindError, Text: fmt.Sprintf("Failed to send task: %v", err)})
		return true
	}
	s.log.Info("task sent", logging.FieldTaskType, string(req.TaskType), logging.FieldBytes, len(payload))
	return true
}

func (s *Session) append(msg transcript.Message) transcript.Message {
	stored := s.store.Append(msg)
	s.log.Debug("message appended",
		logging.FieldMessageID, stored.ID,
		logging.FieldRole, string(stored.Role),
		logging.FieldKind, string(stored.Kind),
	)
	return stored
}
