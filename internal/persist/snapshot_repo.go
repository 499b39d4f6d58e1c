package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/topdown/cosmos/internal/cosmos"
)

// Snapshot is one serialized cosmos taken between steps.
type Snapshot struct {
	ID         int64
	StepNumber uint64 // step the snapshot resumes at
	Checksum   [32]byte
	Entities   int
	Data       []byte
	CreatedAt  time.Time
}

// TakeSnapshot serializes c. The checksum is the one Cosmos.Checksum
// reports for the same state.
func TakeSnapshot(c *cosmos.Cosmos) (Snapshot, error) {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return Snapshot{}, err
	}
	sum, err := c.Checksum()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		StepNumber: c.StepNumber(),
		Checksum:   sum,
		Entities:   c.EntitiesCount(),
		Data:       buf.Bytes(),
	}, nil
}

// Restore loads s into c and verifies the checksum of the result.
func (s *Snapshot) Restore(c *cosmos.Cosmos) error {
	if _, err := c.ReadFrom(bytes.NewReader(s.Data)); err != nil {
		return fmt.Errorf("restore snapshot %d: %w", s.ID, err)
	}
	sum, err := c.Checksum()
	if err != nil {
		return fmt.Errorf("checksum snapshot %d: %w", s.ID, err)
	}
	if sum != s.Checksum {
		return fmt.Errorf("snapshot %d at step %d: checksum mismatch", s.ID, s.StepNumber)
	}
	return nil
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Save(ctx context.Context, s Snapshot) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO cosmos_snapshots (step_number, checksum, entities, data)
		 VALUES ($1, $2, $3, $4)`,
		int64(s.StepNumber), s.Checksum[:], int32(s.Entities), s.Data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot at step %d: %w", s.StepNumber, err)
	}
	return nil
}

// LoadLatest returns the snapshot with the highest step number, or nil if
// there is none.
func (r *SnapshotRepo) LoadLatest(ctx context.Context) (*Snapshot, error) {
	var (
		s        Snapshot
		step     int64
		entities int32
		checksum []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, step_number, checksum, entities, data, created_at
		 FROM cosmos_snapshots
		 ORDER BY step_number DESC, id DESC
		 LIMIT 1`,
	).Scan(&s.ID, &step, &checksum, &entities, &s.Data, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	if len(checksum) != len(s.Checksum) {
		return nil, fmt.Errorf("snapshot %d: checksum has %d bytes", s.ID, len(checksum))
	}
	copy(s.Checksum[:], checksum)
	s.StepNumber = uint64(step)
	s.Entities = int(entities)
	return &s, nil
}

// Prune deletes all but the newest keep snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM cosmos_snapshots
		 WHERE id NOT IN (
		     SELECT id FROM cosmos_snapshots
		     ORDER BY step_number DESC, id DESC
		     LIMIT $1
		 )`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
