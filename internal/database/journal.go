package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/mutator"
)

var (
	// ErrTransactionExists is returned when a transaction id is recorded twice.
	ErrTransactionExists = errors.New("transaction already recorded")

	// ErrEntryNotFound is returned when a journal lookup fails.
	ErrEntryNotFound = errors.New("journal entry not found")

	// ErrDigestMismatch marks a stored post-state that no longer matches its
	// recorded digest.
	ErrDigestMismatch = errors.New("journal entry digest mismatch")
)

// Entry is one persisted transaction.
type Entry struct {
	Seq       int64
	ID        string
	ItemID    string
	Currency  string
	CreatedAt time.Time
	Before    items.Item
	After     items.Item
	Digest    string
}

// Record persists tx. It satisfies mutator.Recorder.
func (d *Database) Record(tx *mutator.Transaction) error {
	before, err := items.MarshalRecord(tx.Before())
	if err != nil {
		return fmt.Errorf("failed to encode pre-state: %w", err)
	}
	after := tx.After()
	afterJSON, err := items.MarshalRecord(after)
	if err != nil {
		return fmt.Errorf("failed to encode post-state: %w", err)
	}

	return d.insert(tx.ID(), after.ID, tx.Currency(), tx.Timestamp(), before, afterJSON, tx.Digest())
}

// insert appends one row with the next sequence number.
func (d *Database) insert(id, itemID, currency string, at time.Time, before, after []byte, digest string) error {
	_, err := d.db.Exec(d.qb.Build(`INSERT INTO crafting_transactions
			(seq, id, item_id, currency, created_at, before_item, after_item, digest)
		VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM crafting_transactions), ?, ?, ?, ?, ?, ?, ?)`),
		id, itemID, currency, at.UTC(), string(before), string(after), digest,
	)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrTransactionExists, id)
		}
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

const entryColumns = `seq, id, item_id, currency, created_at, before_item, after_item, digest`

// ListTransactions returns the journal for one item in application order.
func (d *Database) ListTransactions(itemID string) ([]Entry, error) {
	return d.queryEntries(`SELECT `+entryColumns+` FROM crafting_transactions WHERE item_id = ? ORDER BY seq`, itemID)
}

// AllTransactions returns every entry in journal order.
func (d *Database) AllTransactions() ([]Entry, error) {
	return d.queryEntries(`SELECT ` + entryColumns + ` FROM crafting_transactions ORDER BY seq`)
}

func (d *Database) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return entries, nil
}

// GetTransaction loads one entry by transaction id.
func (d *Database) GetTransaction(id string) (Entry, error) {
	row := d.db.QueryRow(d.qb.Build(
		`SELECT `+entryColumns+` FROM crafting_transactions WHERE id = ?`), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return e, err
}

// CountTransactions returns the number of journal entries.
func (d *Database) CountTransactions() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM crafting_transactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e             Entry
		before, after string
	)
	if err := s.Scan(&e.Seq, &e.ID, &e.ItemID, &e.Currency, &e.CreatedAt, &before, &after, &e.Digest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if e.Before, err = items.UnmarshalRecord([]byte(before)); err != nil {
		return Entry{}, err
	}
	if e.After, err = items.UnmarshalRecord([]byte(after)); err != nil {
		return Entry{}, err
	}
	if items.Fingerprint(e.After) != e.Digest {
		return Entry{}, fmt.Errorf("%w: %s", ErrDigestMismatch, e.ID)
	}
	return e, nil
}
