package chatclient

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	Pending State = iota
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownEntry = errors.New("chatclient: unknown outbox entry")
	ErrNotFailed    = errors.New("chatclient: only failed entries can be discarded")
)

// OutboxEntry is one optimistic send. Message is set once the server has
// stored it, Err once the send has failed.
type OutboxEntry struct {
	ClientID   string
	ReceiverID uuid.UUID
	Content    string
	State      State
	Message    *Message
	Err        error
}

// Outbox tracks messages shown to the user before the server has confirmed
// them. Entries are keyed by the correlation id sent as client_id.
type Outbox struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*OutboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{entries: make(map[string]*OutboxEntry)}
}

// Add records a pending send and returns its correlation id.
func (o *Outbox) Add(receiverID uuid.UUID, content string) string {
	clientID := uuid.NewString()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.entries[clientID] = &OutboxEntry{
		ClientID:   clientID,
		ReceiverID: receiverID,
		Content:    content,
		State:      Pending,
	}
	o.order = append(o.order, clientID)
	return clientID
}

func (o *Outbox) Confirm(clientID string, msg *Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[clientID]
	if !ok {
		return ErrUnknownEntry
	}
	e.State = Confirmed
	e.Message = msg
	e.Err = nil
	return nil
}

func (o *Outbox) Fail(clientID string, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[clientID]
	if !ok {
		return ErrUnknownEntry
	}
	e.State = Failed
	e.Err = err
	return nil
}

// Entries returns a snapshot in insertion order.
func (o *Outbox) Entries() []OutboxEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]OutboxEntry, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, *o.entries[id])
	}
	return out
}

// Discard drops a failed entry the user chose not to retry.
func (o *Outbox) Discard(clientID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.entries[clientID]
	if !ok {
		return ErrUnknownEntry
	}
	if e.State != Failed {
		return ErrNotFailed
	}

	delete(o.entries, clientID)
	for i, id := range o.order {
		if id == clientID {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return nil
}
