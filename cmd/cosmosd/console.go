package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/gui"
	"github.com/topdown/cosmos/internal/inventory"
	"github.com/topdown/cosmos/internal/system"
)

// readConsole sends every non-empty input line, split into words, to out.
// out is closed at end of input.
func readConsole(r io.Reader, out chan<- []string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if args := strings.Fields(sc.Text()); len(args) > 0 {
			out <- args
		}
	}
}

var intentByWord = map[string]cosmos.IntentKind{
	"up":      cosmos.IntentMoveUp,
	"down":    cosmos.IntentMoveDown,
	"left":    cosmos.IntentMoveLeft,
	"right":   cosmos.IntentMoveRight,
	"trigger": cosmos.IntentTrigger,
	"alt":     cosmos.IntentSecondaryTrigger,
}

// applyCommand runs one console command. Commands that change the
// simulation are queued as entropy for the next step.
//
//	press <entity> <up|down|left|right|trigger|alt> <on|off>
//	transfer <item> <container> <slot> [charges]
//	drop <item> [charges]
//	status
func applyCommand(c *cosmos.Cosmos, g *gui.ElementSystem, transfers *system.TransferSystem, args []string, log *zap.Logger) error {
	switch args[0] {
	case "press":
		if len(args) != 4 {
			return fmt.Errorf("usage: press <entity> <intent> <on|off>")
		}
		h, err := entityArg(c, args[1])
		if err != nil {
			return err
		}
		kind, ok := intentByWord[args[2]]
		if !ok {
			return fmt.Errorf("unknown intent %q", args[2])
		}
		g.QueueIntent(h.ID(), cosmos.Intent{Kind: kind, Pressed: args[3] == "on"})

	case "transfer":
		if len(args) != 4 && len(args) != 5 {
			return fmt.Errorf("usage: transfer <item> <container> <slot> [charges]")
		}
		item, err := entityArg(c, args[1])
		if err != nil {
			return err
		}
		container, err := entityArg(c, args[2])
		if err != nil {
			return err
		}
		fn, ok := component.ParseSlotFunction(strings.ToUpper(args[3]))
		if !ok {
			return fmt.Errorf("unknown slot %q", args[3])
		}
		quantity, err := quantityArg(args[4:])
		if err != nil {
			return err
		}
		r := cosmos.TransferRequest{
			Item:              item.ID(),
			TargetSlot:        cosmos.SlotID{Container: container.ID(), Function: fn},
			SpecifiedQuantity: quantity,
		}
		if res := inventory.QueryTransferResult(c, r); res.Type != inventory.SuccessfulTransfer && res.Type != inventory.UnmountBeforehand {
			return fmt.Errorf("transfer would fail: %s", res.Type)
		}
		g.QueueTransfer(r)

	case "drop":
		if len(args) != 2 && len(args) != 3 {
			return fmt.Errorf("usage: drop <item> [charges]")
		}
		item, err := entityArg(c, args[1])
		if err != nil {
			return err
		}
		quantity, err := quantityArg(args[2:])
		if err != nil {
			return err
		}
		g.QueueTransfer(cosmos.TransferRequest{Item: item.ID(), SpecifiedQuantity: quantity})

	case "status":
		sum, err := c.Checksum()
		if err != nil {
			return err
		}
		items, slots := g.Counts()
		stats := transfers.Stats()
		log.Info("status",
			zap.Uint64("step", c.StepNumber()),
			zap.Float64("time", c.Timestamp()),
			zap.Int("entities", c.EntitiesCount()),
			zap.String("checksum", hex.EncodeToString(sum[:8])),
			zap.Int("item_buttons", items),
			zap.Int("slot_buttons", slots),
			zap.Int("transfers_ok", stats.Succeeded),
			zap.Int("transfers_rejected", stats.Rejected),
			zap.Int("transfers_failed", stats.Failed),
		)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// entityArg resolves a specific name, or a raw entity id.
func entityArg(c *cosmos.Cosmos, s string) (cosmos.Handle, error) {
	if h := c.EntityNamed(s); h.Alive() {
		return h, nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		if h := c.Handle(ecs.EntityID(n)); h.Alive() {
			return h, nil
		}
	}
	return c.DeadHandle(), fmt.Errorf("no entity %q", s)
}

func quantityArg(rest []string) (int32, error) {
	if len(rest) == 0 {
		return cosmos.AllCharges, nil
	}
	n, err := strconv.ParseInt(rest[0], 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad charge count %q", rest[0])
	}
	return int32(n), nil
}
