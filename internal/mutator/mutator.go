// Package mutator applies crafting currencies to items and keeps the
// append-only transaction log used for rollback and verification.
//
// A Mutator belongs to one crafting session. It does no locking: callers
// sharing one across goroutines must serialize access themselves.
package mutator

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/logger"
	"github.com/lawnchairsociety/crucible/internal/mods"
)

// Currency is the transform surface the mutator drives.
// *currency.Currency satisfies it.
type Currency interface {
	Name() string
	CanApply(item items.Item) bool
	Mutate(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error)
}

// Recorder persists transactions as they are logged.
type Recorder interface {
	Record(tx *Transaction) error
}

// NewTransactionID returns "txn_" followed by a random UUID.
func NewTransactionID() string {
	return "txn_" + uuid.NewString()
}

// Mutator applies currencies against a shared modifier pool.
type Mutator struct {
	pool   *mods.Pool
	roller *mods.Roller

	log  []*Transaction
	byID map[string]*Transaction

	recorder Recorder
	newID    func() string
	now      func() time.Time
}

// New creates a mutator with an empty log.
func New(pool *mods.Pool, roller *mods.Roller) *Mutator {
	return &Mutator{
		pool:   pool,
		roller: roller,
		byID:   make(map[string]*Transaction),
		newID:  NewTransactionID,
		now:    time.Now,
	}
}

// SetRecorder sets where transactions are persisted. nil disables recording.
func (m *Mutator) SetRecorder(r Recorder) {
	m.recorder = r
}

// SetIDGenerator replaces the transaction identifier source.
func (m *Mutator) SetIDGenerator(fn func() string) {
	m.newID = fn
}

// SetClock replaces the timestamp source.
func (m *Mutator) SetClock(fn func() time.Time) {
	m.now = fn
}

// Pool returns the modifier pool currencies roll from.
func (m *Mutator) Pool() *mods.Pool {
	return m.pool
}

// Apply applies c to item and returns the crafted item. The caller's item
// is never modified. On any error nothing is logged.
func (m *Mutator) Apply(c Currency, item items.Item) (items.Item, error) {
	if !c.CanApply(item) {
		return items.Item{}, &PreconditionError{Currency: c.Name(), ItemID: item.ID}
	}

	before := item.Clone()
	after, err := c.Mutate(item.Clone(), m.pool, m.roller)
	if err != nil {
		return items.Item{}, fmt.Errorf("%s on item %s: %w", c.Name(), item.ID, err)
	}

	tx := &Transaction{
		id:        m.newID(),
		currency:  c.Name(),
		timestamp: m.now(),
		before:    before,
		after:     after.Clone(),
	}
	if _, dup := m.byID[tx.id]; dup {
		return items.Item{}, fmt.Errorf("duplicate transaction id %q", tx.id)
	}
	if m.recorder != nil {
		if err := m.recorder.Record(tx); err != nil {
			return items.Item{}, fmt.Errorf("%w %s: %v", ErrRecordFailed, tx.id, err)
		}
	}

	m.log = append(m.log, tx)
	m.byID[tx.id] = tx
	logger.Debug("currency applied",
		"currency", tx.currency,
		"item", item.ID,
		"transaction", tx.id,
		"mods", len(after.ExplicitMods))
	return after, nil
}

// Rollback returns the pre-state of the given transaction. The log is left
// as it is.
func (m *Mutator) Rollback(transactionID string) (items.Item, error) {
	tx, ok := m.byID[transactionID]
	if !ok {
		return items.Item{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}
	logger.Debug("transaction rolled back", "transaction", transactionID, "currency", tx.currency)
	return tx.Before(), nil
}

// Verify reports whether item equals the post-state of the most recent
// transaction. An empty log verifies anything.
func (m *Mutator) Verify(item items.Item) bool {
	last := m.LastTransaction()
	if last == nil {
		return true
	}
	return items.Equal(last.after, item)
}

// Log returns the transactions in application order.
func (m *Mutator) Log() []*Transaction {
	out := make([]*Transaction, len(m.log))
	copy(out, m.log)
	return out
}

// Len returns the number of logged transactions.
func (m *Mutator) Len() int {
	return len(m.log)
}

// LastTransaction returns the most recent transaction, or nil.
func (m *Mutator) LastTransaction() *Transaction {
	if len(m.log) == 0 {
		return nil
	}
	return m.log[len(m.log)-1]
}

// Transaction looks a transaction up by id.
func (m *Mutator) Transaction(id string) (*Transaction, bool) {
	tx, ok := m.byID[id]
	return tx, ok
}
