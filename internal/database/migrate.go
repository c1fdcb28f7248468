package database

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/logger"
)

// CopyStats reports what CopyJournal did.
type CopyStats struct {
	Copied  int
	Skipped int
}

// CopyJournal appends every entry of src to dst in journal order. Entries
// whose id already exists in dst are skipped, so an interrupted copy can be
// run again. Every source row is digest-checked on read; a mismatch aborts
// before anything is written. With dryRun nothing is written.
func CopyJournal(src, dst *Database, dryRun bool) (CopyStats, error) {
	var stats CopyStats

	entries, err := src.AllTransactions()
	if err != nil {
		return stats, fmt.Errorf("failed to read source journal: %w", err)
	}

	for _, e := range entries {
		exists, err := dst.hasTransaction(e.ID)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			continue
		}
		if dryRun {
			stats.Copied++
			continue
		}

		before, err := items.MarshalRecord(e.Before)
		if err != nil {
			return stats, fmt.Errorf("failed to encode pre-state of %s: %w", e.ID, err)
		}
		after, err := items.MarshalRecord(e.After)
		if err != nil {
			return stats, fmt.Errorf("failed to encode post-state of %s: %w", e.ID, err)
		}
		err = dst.insert(e.ID, e.ItemID, e.Currency, e.CreatedAt, before, after, e.Digest)
		if errors.Is(err, ErrTransactionExists) {
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Copied++
	}

	logger.Info("Journal copied",
		"from", src.Dialect().DriverName(),
		"to", dst.Dialect().DriverName(),
		"copied", stats.Copied,
		"skipped", stats.Skipped,
		"dry_run", dryRun)
	return stats, nil
}

func (d *Database) hasTransaction(id string) (bool, error) {
	var n int
	err := d.db.QueryRow(d.qb.Build(`SELECT COUNT(*) FROM crafting_transactions WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up transaction %s: %w", id, err)
	}
	return n > 0, nil
}
