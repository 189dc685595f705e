// Package transcript holds the chat history model: the messages rendered by
// the view, the classifier that turns agent events into messages, and the
// append-only store.
package transcript

import (
	"time"

	"browserchat/internal/protocol"
)

// Role is who a message is attributed to.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
	RoleError  Role = "error"
)

// Kind selects how a message is rendered.
type Kind string

const (
	KindPlain      Kind = "plain"
	KindStatus     Kind = "status"
	KindAction     Kind = "action"
	KindCompletion Kind = "completion"
	KindResult     Kind = "result"
	KindProducts   Kind = "products"
	KindFormResult Kind = "form-result"
	KindError      Kind = "error"
)

// Message is one transcript entry. ID and CreatedAt are zero until the
// message is appended to a Store.
type Message struct {
	ID        uint64
	Role      Role
	Kind      Kind
	Text      string                // display text; header line for KindProducts
	Products  *protocol.ProductList // set only for KindProducts
	CreatedAt time.Time
}

// Timestamp is the display form of CreatedAt.
func (m Message) Timestamp() string {
	if m.CreatedAt.IsZero() {
		return "--:--:--"
	}
	return m.CreatedAt.Local().Format("15:04:05")
}

func (m Message) clone() Message {
	if m.Products != nil {
		list := m.Products.Clone()
		m.Products = &list
	}
	return m
}
