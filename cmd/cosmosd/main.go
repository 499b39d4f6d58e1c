package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/topdown/cosmos/internal/config"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/data"
	"github.com/topdown/cosmos/internal/gui"
	"github.com/topdown/cosmos/internal/persist"
	"github.com/topdown/cosmos/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load environment and config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfgPath := "config/cosmos.toml"
	if p := os.Getenv("COSMOS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Create the cosmos and its flavours
	flavours, err := data.LoadFlavourTable(cfg.Cosmos.FlavoursPath)
	if err != nil {
		return fmt.Errorf("load flavours: %w", err)
	}
	c := newCosmos(cfg, log)
	if err := flavours.Register(c, data.Damping{Linear: cfg.Physics.LinearDamping, Angular: cfg.Physics.AngularDamping}); err != nil {
		return err
	}
	log.Info("flavours loaded", zap.Int("count", flavours.Count()))

	c.RegisterSystem(system.NewMovementSystem(log.Named("movement")))
	transfers := system.NewTransferSystem(log.Named("transfer"))
	c.RegisterSystem(transfers)
	c.RegisterSystem(system.NewPhysicsSystem(log.Named("physics")))

	// 4. Connect to PostgreSQL and run migrations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		snapshots *persist.SnapshotRepo
		journal   system.JournalWriter
		journalDB *persist.JournalRepo
	)
	if cfg.Database.Enabled {
		db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		version, err := persist.RunMigrations(ctx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied", zap.Int64("version", version))
		snapshots = persist.NewSnapshotRepo(db)
		if cfg.Persist.Journal {
			journalDB = persist.NewJournalRepo(db)
			journal = journalDB
		}
	}

	// 5. Resume from the latest snapshot, or spawn the scene
	restored := false
	if snapshots != nil && cfg.Persist.Restore {
		restored, err = restore(ctx, c, snapshots, journalDB, log)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	if !restored && cfg.Cosmos.ScenePath != "" {
		scene, err := data.LoadScene(cfg.Cosmos.ScenePath)
		if err != nil {
			return fmt.Errorf("load scene: %w", err)
		}
		named, err := data.SpawnScene(c, scene)
		if err != nil {
			return fmt.Errorf("spawn scene: %w", err)
		}
		log.Info("scene spawned", zap.Int("entities", c.EntitiesCount()), zap.Int("named", len(named)))
	}

	var persistence *system.PersistenceSystem
	if snapshots != nil {
		persistence = system.NewPersistenceSystem(snapshots, journal, log.Named("persist"), cfg.Persist.IntervalSteps, cfg.Persist.Keep)
		c.RegisterSystem(persistence)
	}

	// 6. Console input feeds the gui element system
	elements := gui.NewElementSystem(log.Named("gui"))
	commands := make(chan []string, 64)
	go readConsole(os.Stdin, commands)

	// 7. Start the step loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Cosmos.StepDuration())
	defer ticker.Stop()

	log.Info("step loop started",
		zap.Uint32("steps_per_second", cfg.Cosmos.StepsPerSecond),
		zap.Uint64("step", c.StepNumber()),
		zap.Bool("persistence", persistence != nil),
	)

	for {
		select {
		case <-ticker.C:
			c.AdvanceDeterministicSchemata(elements.GetAndClearPendingEvents(), nil, elements.ConsumeStep)
			elements.Resample(c)
			if persistence != nil {
				persistence.AfterStep(context.Background(), c)
			}
		case args, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if err := applyCommand(c, elements, transfers, args, log); err != nil {
				log.Warn("command rejected", zap.Strings("args", args), zap.Error(err))
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if persistence != nil {
				if err := persistence.SaveNow(context.Background(), c); err != nil {
					log.Error("final snapshot failed", zap.Error(err))
				}
			}
			log.Info("stopped", zap.Uint64("step", c.StepNumber()))
			return nil
		}
	}
}

func newCosmos(cfg *config.Config, log *zap.Logger) *cosmos.Cosmos {
	settings := cosmos.DefaultSettings()
	settings.DropImpulse = cfg.Physics.DropImpulse
	settings.DropOffsetRadius = cfg.Physics.DropOffsetRadius
	settings.SinceDroppedMs = cfg.Physics.SinceDroppedMs
	settings.RNGSeed = cfg.Cosmos.RNGSeed

	opts := []cosmos.Option{
		cosmos.WithLogger(log.Named("cosmos")),
		cosmos.WithSettings(settings),
		cosmos.WithDelta(cosmos.Delta{StepsPerSecond: cfg.Cosmos.StepsPerSecond}),
	}
	if cfg.Cosmos.MaxEntities > 0 {
		opts = append(opts, cosmos.WithMaxEntities(cfg.Cosmos.MaxEntities))
	}
	return cosmos.New(opts...)
}

// restore loads the latest snapshot and replays the journal written after
// it. It reports false when there is nothing to resume from.
func restore(ctx context.Context, c *cosmos.Cosmos, snapshots *persist.SnapshotRepo, journal *persist.JournalRepo, log *zap.Logger) (bool, error) {
	snap, err := snapshots.LoadLatest(ctx)
	if err != nil {
		return false, err
	}
	if snap == nil {
		log.Info("no snapshot to resume from")
		return false, nil
	}
	if err := snap.Restore(c); err != nil {
		return false, err
	}
	replayed := 0
	if journal != nil {
		entries, err := journal.LoadSince(ctx, snap.StepNumber)
		if err != nil {
			return false, fmt.Errorf("load journal: %w", err)
		}
		replayed = persist.Replay(c, entries)
	}
	log.Info("resumed from snapshot",
		zap.Int64("id", snap.ID),
		zap.Uint64("snapshot_step", snap.StepNumber),
		zap.Int("replayed_steps", replayed),
		zap.Int("entities", c.EntitiesCount()),
	)
	return true, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
