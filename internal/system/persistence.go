package system

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	coresys "github.com/topdown/cosmos/internal/core/system"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/persist"
)

// SnapshotSaver stores serialized cosmos snapshots.
type SnapshotSaver interface {
	Save(ctx context.Context, s persist.Snapshot) error
	Prune(ctx context.Context, keep int) (int64, error)
}

// JournalWriter stores the entropy of every step.
type JournalWriter interface {
	WriteBatch(ctx context.Context, entries []persist.JournalEntry) error
	TruncateBefore(ctx context.Context, step uint64) (int64, error)
}

// PersistenceSystem snapshots the cosmos every interval steps. Phase 4
// (Persist).
//
// Update only counts steps and records entropy: a snapshot taken inside
// the solver would miss the queued destructions and the step increment.
// The driver calls AfterStep once AdvanceDeterministicSchemata returns.
type PersistenceSystem struct {
	saver    SnapshotSaver
	journal  JournalWriter // nil disables the journal
	log      *zap.Logger
	interval int // snapshot every N steps
	keep     int

	tickCount    int
	due          bool
	pending      []persist.JournalEntry
	journalEvery int // flush the journal every N steps
	sinceFlush   int
}

func NewPersistenceSystem(saver SnapshotSaver, journal JournalWriter, log *zap.Logger, intervalSteps, keep int) *PersistenceSystem {
	return &PersistenceSystem{
		saver:        saver,
		journal:      journal,
		log:          log,
		interval:     intervalSteps,
		keep:         keep,
		journalEvery: 60,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(step *cosmos.Step) {
	if s.journal != nil {
		s.sinceFlush++
		if !step.Entropy.Empty() {
			s.pending = append(s.pending, persist.JournalEntry{
				Step:    step.Cosmos.StepNumber(),
				Entropy: step.Entropy,
			})
		}
	}
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.due = true
}

// AfterStep writes the snapshot marked due by Update, or flushes the
// journal once journalEvery steps have passed since the last flush.
func (s *PersistenceSystem) AfterStep(ctx context.Context, c *cosmos.Cosmos) {
	if s.due {
		s.due = false
		if err := s.SaveNow(ctx, c); err != nil {
			s.log.Error("snapshot failed", zap.Uint64("step", c.StepNumber()), zap.Error(err))
		}
		return
	}
	if s.journal != nil && s.sinceFlush >= s.journalEvery {
		s.sinceFlush = 0
		if err := s.flushJournal(ctx); err != nil {
			s.log.Error("journal flush failed", zap.Int("entries", len(s.pending)), zap.Error(err))
		}
	}
}

// SaveNow snapshots c immediately. Called for graceful shutdown.
func (s *PersistenceSystem) SaveNow(ctx context.Context, c *cosmos.Cosmos) error {
	start := time.Now()
	snap, err := persist.TakeSnapshot(c)
	if err != nil {
		return fmt.Errorf("take snapshot: %w", err)
	}

	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.saver.Save(saveCtx, snap); err != nil {
		return err
	}
	s.log.Info("snapshot saved",
		zap.Uint64("step", snap.StepNumber),
		zap.Int("entities", snap.Entities),
		zap.Int("bytes", len(snap.Data)),
		zap.Duration("took", time.Since(start)),
	)

	// The snapshot covers everything journaled so far.
	s.pending = s.pending[:0]
	s.sinceFlush = 0
	if s.journal != nil {
		if _, err := s.journal.TruncateBefore(saveCtx, snap.StepNumber); err != nil {
			s.log.Warn("journal truncate failed", zap.Error(err))
		}
	}
	if n, err := s.saver.Prune(saveCtx, s.keep); err != nil {
		s.log.Warn("snapshot prune failed", zap.Error(err))
	} else if n > 0 {
		s.log.Debug("snapshots pruned", zap.Int64("count", n))
	}
	return nil
}

// Flush writes buffered journal entries. Called for graceful shutdown when
// no final snapshot is wanted.
func (s *PersistenceSystem) Flush(ctx context.Context) error {
	return s.flushJournal(ctx)
}

func (s *PersistenceSystem) flushJournal(ctx context.Context) error {
	if s.journal == nil || len(s.pending) == 0 {
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.journal.WriteBatch(writeCtx, s.pending); err != nil {
		return err
	}
	s.pending = s.pending[:0]
	return nil
}
