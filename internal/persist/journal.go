package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/introspect"
)

// JournalEntry is the entropy one step was advanced with.
type JournalEntry struct {
	Step    uint64
	Entropy cosmos.Entropy
}

// JournalRepo records step entropy so that a snapshot plus the journal
// after it reproduces the simulation.
type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// WriteBatch writes entries in one transaction. Rewriting a step replaces
// its entropy.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		data, err := introspect.Marshal(e.Entropy)
		if err != nil {
			return fmt.Errorf("encode entropy of step %d: %w", e.Step, err)
		}
		batch.Queue(
			`INSERT INTO entropy_journal (step_number, entropy) VALUES ($1, $2)
			 ON CONFLICT (step_number) DO UPDATE SET entropy = EXCLUDED.entropy`,
			int64(e.Step), data,
		)
	}

	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("journal steps %d..%d: %w", entries[0].Step, entries[len(entries)-1].Step, err)
	}
	return nil
}

// LoadSince returns every entry at or after step, in step order.
func (r *JournalRepo) LoadSince(ctx context.Context, step uint64) ([]JournalEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT step_number, entropy FROM entropy_journal
		 WHERE step_number >= $1
		 ORDER BY step_number`, int64(step),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []JournalEntry
	for rows.Next() {
		var (
			n    int64
			data []byte
		)
		if err := rows.Scan(&n, &data); err != nil {
			return nil, err
		}
		e := JournalEntry{Step: uint64(n)}
		if err := introspect.Unmarshal(data, &e.Entropy); err != nil {
			return nil, fmt.Errorf("decode entropy of step %d: %w", n, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// TruncateBefore removes entries a snapshot at step already covers.
func (r *JournalRepo) TruncateBefore(ctx context.Context, step uint64) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM entropy_journal WHERE step_number < $1`, int64(step),
	)
	if err != nil {
		return 0, fmt.Errorf("truncate journal: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Replay advances c through entries. Steps without an entry advance with
// empty entropy. Entries older than the current step are skipped.
func Replay(c *cosmos.Cosmos, entries []JournalEntry) int {
	replayed := 0
	for _, e := range entries {
		if e.Step < c.StepNumber() {
			continue
		}
		for c.StepNumber() < e.Step {
			c.AdvanceDeterministicSchemata(cosmos.Entropy{}, nil, nil)
			replayed++
		}
		c.AdvanceDeterministicSchemata(e.Entropy, nil, nil)
		replayed++
	}
	return replayed
}
