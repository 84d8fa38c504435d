// Package event is the synchronous, typed event bus resource controllers use
// to announce lifecycle steps.
package event

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind enumerates the lifecycle events controllers may dispatch.
type Kind int

const (
	OrderBeforeCreated Kind = iota + 1
	OrderAfterCreated
	OrderBeforeUpdate
	OrderAfterUpdated
	OrderBeforeDelete
	TransactionBeforeCreated
	TransactionAfterCreated
	TransactionBeforeUpdate
	TransactionAfterUpdated
	TransactionBeforeDelete
)

var kindNames = map[Kind]string{
	OrderBeforeCreated:       "order.before_created",
	OrderAfterCreated:        "order.after_created",
	OrderBeforeUpdate:        "order.before_update",
	OrderAfterUpdated:        "order.after_updated",
	OrderBeforeDelete:        "order.before_delete",
	TransactionBeforeCreated: "transaction.before_created",
	TransactionAfterCreated:  "transaction.after_created",
	TransactionBeforeUpdate:  "transaction.before_update",
	TransactionAfterUpdated:  "transaction.after_updated",
	TransactionBeforeDelete:  "transaction.before_delete",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := OrderBeforeCreated; k <= TransactionBeforeDelete; k++ {
		out = append(out, k)
	}
	return out
}

// Event is one dispatched lifecycle step. Entry is the persisted record the
// step concerns (nil before creation) and Input the submitted attributes.
type Event struct {
	ID         string
	Kind       Kind
	Entry      any
	Input      map[string]any
	OccurredAt time.Time
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New builds an event of kind k stamped with a fresh ULID.
func New(k Kind, entry any, input map[string]any) Event {
	now := time.Now()

	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()

	return Event{
		ID:         id.String(),
		Kind:       k,
		Entry:      entry,
		Input:      input,
		OccurredAt: now,
	}
}
