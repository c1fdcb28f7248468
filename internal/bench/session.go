// Package bench is one player's crafting bench: the item being worked on,
// the mutator that logs every currency applied to it, and a local undo stack.
package bench

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/crucible/internal/currency"
	"github.com/lawnchairsociety/crucible/internal/database"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/logger"
	"github.com/lawnchairsociety/crucible/internal/mutator"
)

// DefaultUndoDepth bounds the undo stack when no depth is configured.
const DefaultUndoDepth = 50

var (
	ErrNoItem          = errors.New("no item on the bench")
	ErrUnknownBase     = errors.New("unknown item base")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrUnknownRarity   = errors.New("unknown rarity")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNoJournal       = errors.New("no journal configured")
)

// Journal reads persisted transactions back.
type Journal interface {
	ListTransactions(itemID string) ([]database.Entry, error)
}

// Session holds the bench state. It is owned by a single connection.
type Session struct {
	mutator    *mutator.Mutator
	currencies *currency.Registry
	bases      *items.BaseCatalog
	ids        items.IDFunc
	journal    Journal

	item      *items.Item
	undo      []string
	undoDepth int

	// owner labels audit log lines, usually the remote address.
	owner string
}

// Option configures a Session.
type Option func(*Session)

// WithUndoDepth sets how many applications Undo can step back through.
func WithUndoDepth(n int) Option {
	return func(s *Session) { s.undoDepth = n }
}

// WithIDFunc sets the item identifier source.
func WithIDFunc(ids items.IDFunc) Option {
	return func(s *Session) { s.ids = ids }
}

// WithOwner sets the label used in audit log lines.
func WithOwner(owner string) Option {
	return func(s *Session) { s.owner = owner }
}

// WithJournal lets the bench list an item's persisted transactions.
func WithJournal(j Journal) Option {
	return func(s *Session) { s.journal = j }
}

// NewSession creates an empty bench.
func NewSession(m *mutator.Mutator, currencies *currency.Registry, bases *items.BaseCatalog, opts ...Option) *Session {
	s := &Session{
		mutator:    m,
		currencies: currencies,
		bases:      bases,
		ids:        items.NewID,
		undoDepth:  DefaultUndoDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Item returns a copy of the item on the bench.
func (s *Session) Item() (items.Item, bool) {
	if s.item == nil {
		return items.Item{}, false
	}
	return s.item.Clone(), true
}

// Place puts an existing item on the bench and clears the undo stack.
func (s *Session) Place(item items.Item) {
	placed := item.Clone()
	s.item = &placed
	s.undo = nil
}

// NewItem creates a fresh item from the named base and places it.
func (s *Session) NewItem(baseName, rarity string) (items.Item, error) {
	base, ok := s.bases.Find(baseName)
	if !ok {
		return items.Item{}, fmt.Errorf("%w: %s", ErrUnknownBase, baseName)
	}
	r := items.Common
	if rarity != "" {
		if r, ok = items.ParseRarity(rarity); !ok {
			return items.Item{}, fmt.Errorf("%w: %s", ErrUnknownRarity, rarity)
		}
	}

	item := items.New(base, r, s.ids)
	s.Place(item)
	logger.Debug("item created", "owner", s.owner, "item", item.ID, "base", base.Name, "rarity", r)
	return item.Clone(), nil
}

// Apply looks the currency up and applies it to the bench item.
func (s *Session) Apply(currencyName string) (items.Item, *mutator.Transaction, error) {
	if s.item == nil {
		return items.Item{}, nil, ErrNoItem
	}
	c := s.currencies.Find(currencyName)
	if c == nil {
		return items.Item{}, nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, currencyName)
	}

	next, err := s.mutator.Apply(c, *s.item)
	if err != nil {
		return items.Item{}, nil, err
	}
	tx := s.mutator.LastTransaction()
	s.item = &next
	s.pushUndo(tx.ID())

	logger.Always("currency applied",
		"owner", s.owner,
		"currency", c.Name(),
		"item", next.ID,
		"transaction", tx.ID(),
		"digest", tx.Digest())
	return next.Clone(), tx, nil
}

func (s *Session) pushUndo(id string) {
	if s.undoDepth <= 0 {
		return
	}
	s.undo = append(s.undo, id)
	if over := len(s.undo) - s.undoDepth; over > 0 {
		s.undo = s.undo[over:]
	}
}

// Rollback restores the pre-state of any logged transaction onto the bench.
// The undo stack is cleared since the bench no longer follows it.
func (s *Session) Rollback(transactionID string) (items.Item, error) {
	restored, err := s.mutator.Rollback(transactionID)
	if err != nil {
		return items.Item{}, err
	}
	s.Place(restored)
	logger.Info("transaction rolled back", "owner", s.owner, "transaction", transactionID, "item", restored.ID)
	return restored, nil
}

// Undo rolls back the most recent application still on the undo stack.
func (s *Session) Undo() (items.Item, string, error) {
	if len(s.undo) == 0 {
		return items.Item{}, "", ErrNothingToUndo
	}
	id := s.undo[len(s.undo)-1]
	restored, err := s.mutator.Rollback(id)
	if err != nil {
		return items.Item{}, "", err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.item = &restored
	return restored.Clone(), id, nil
}

// UndoDepth returns how many applications can currently be undone.
func (s *Session) UndoDepth() int {
	return len(s.undo)
}

// Verify checks the bench item against the mutator's last post-state.
func (s *Session) Verify() (bool, error) {
	if s.item == nil {
		return false, ErrNoItem
	}
	return s.mutator.Verify(*s.item), nil
}

// History returns the mutator's transactions in application order.
func (s *Session) History() []*mutator.Transaction {
	return s.mutator.Log()
}

// Currencies returns the currencies offered on this bench.
func (s *Session) Currencies() []*currency.Currency {
	return s.currencies.All()
}

// Usable returns the currencies that can be applied to the bench item.
func (s *Session) Usable() []*currency.Currency {
	if s.item == nil {
		return nil
	}
	var out []*currency.Currency
	for _, c := range s.currencies.All() {
		if c.CanApply(*s.item) {
			out = append(out, c)
		}
	}
	return out
}

// Bases returns the item bases available on this bench.
func (s *Session) Bases() []items.ItemBase {
	return s.bases.All()
}

// Journal returns the persisted transactions of the bench item, which may
// include ones applied in earlier sessions.
func (s *Session) Journal() ([]database.Entry, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	if s.item == nil {
		return nil, ErrNoItem
	}
	entries, err := s.journal.ListTransactions(s.item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}
