package system

import (
	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/core/event"
	coresys "github.com/topdown/cosmos/internal/core/system"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/inventory"
)

// TransferStats counts transfer outcomes since the system was created.
type TransferStats struct {
	Succeeded int
	Rejected  int
	Failed    int
}

// TransferSystem performs the item transfers requested during the step.
// Phase 1 (Logic).
type TransferSystem struct {
	log   *zap.Logger
	stats TransferStats
}

func NewTransferSystem(log *zap.Logger) *TransferSystem {
	return &TransferSystem{log: log}
}

func (s *TransferSystem) Phase() coresys.Phase { return coresys.PhaseLogic }

func (s *TransferSystem) Update(step *cosmos.Step) {
	for _, msg := range event.Drain[cosmos.TransferRequestMessage](step.Messages) {
		res, err := inventory.PerformTransfer(msg.Request, step)
		switch {
		case err != nil:
			s.stats.Failed++
			s.log.Warn("transfer failed",
				zap.Uint64("item", uint64(msg.Request.Item)),
				zap.Stringer("result", res.Type),
				zap.Error(err),
			)
		case res.Successful():
			s.stats.Succeeded++
		default:
			s.stats.Rejected++
		}
	}
}

func (s *TransferSystem) Stats() TransferStats { return s.stats }
