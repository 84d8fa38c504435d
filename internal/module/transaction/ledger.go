package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/event"
)

// Ledger records transaction occurrences into the history table.
type Ledger struct {
	repo   *Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger creates a ledger writing through repo.
func NewLedger(repo *Repository, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{repo: repo, logger: logger, now: time.Now}
}

// Record writes one active history row for t on behalf of author. The
// operation comes from the account of t; transactions without an account
// are debits.
func (l *Ledger) Record(ctx context.Context, t *domain.Transaction, author uint) (*domain.TransactionHistory, error) {
	operation := domain.OperationDebit
	if t.AccountID != 0 {
		account, err := l.repo.Account(ctx, t.AccountID)
		switch {
		case err == nil:
			if account.Operation != "" {
				operation = account.Operation
			}
		case !domain.IsNotFound(err):
			return nil, err
		}
	}

	h := &domain.TransactionHistory{
		TransactionID: t.ID,
		AccountID:     t.AccountID,
		Name:          t.Name,
		Value:         t.Value,
		Operation:     operation,
		Status:        domain.HistoryActive,
		TriggerDate:   l.now(),
		Author:        author,
	}
	if err := l.repo.RecordHistory(ctx, h); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "transaction recorded",
		slog.Uint64("transaction_id", uint64(t.ID)),
		slog.Uint64("history_id", uint64(h.ID)),
		slog.String("operation", operation),
	)
	return h, nil
}

// Subscriptions returns the bus subscriptions of the ledger. A created
// transaction that is due is recorded right away. An updated one is
// recorded only when the update made it due, so it has no history yet.
func (l *Ledger) Subscriptions() event.Subscriptions {
	return event.Subscriptions{
		event.TransactionAfterCreated: {l.onCreated},
		event.TransactionAfterUpdated: {l.onUpdated},
	}
}

func (l *Ledger) onCreated(ctx context.Context, e event.Event) error {
	t, ok := e.Entry.(*domain.Transaction)
	if !ok || !t.Due(l.now()) {
		return nil
	}
	_, err := l.Record(ctx, t, t.Author)
	return err
}

func (l *Ledger) onUpdated(ctx context.Context, e event.Event) error {
	t, ok := e.Entry.(*domain.Transaction)
	if !ok || !t.Due(l.now()) {
		return nil
	}
	recorded, err := l.repo.HasHistory(ctx, t.ID)
	if err != nil || recorded {
		return err
	}
	_, err = l.Record(ctx, t, t.Author)
	return err
}
