package mutator

import (
	"time"

	"github.com/lawnchairsociety/crucible/internal/items"
)

// Transaction is one logged application. Its snapshots are private copies;
// accessors hand out clones so the log cannot be edited through them.
type Transaction struct {
	id        string
	currency  string
	timestamp time.Time
	before    items.Item
	after     items.Item
}

// ID returns the transaction identifier.
func (t *Transaction) ID() string {
	return t.id
}

// Currency returns the display name of the applied currency.
func (t *Transaction) Currency() string {
	return t.currency
}

// Timestamp returns when the currency was applied.
func (t *Transaction) Timestamp() time.Time {
	return t.timestamp
}

// Before returns a copy of the item as it was before the application.
func (t *Transaction) Before() items.Item {
	return t.before.Clone()
}

// After returns a copy of the item the application produced.
func (t *Transaction) After() items.Item {
	return t.after.Clone()
}

// Digest returns the fingerprint of the post-state.
func (t *Transaction) Digest() string {
	return items.Fingerprint(t.after)
}
