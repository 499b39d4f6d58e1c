package cosmos_test

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/introspect"
)

func TestWriteReadRoundTrip(t *testing.T) {
	c, hs := populated(t)
	c.SetSpecificName(hs["rifle"], "old faithful")
	c.AdvanceDeterministicSchemata(cosmos.Entropy{}, nil, nil)

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want, err := c.Checksum()
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}

	restored := cosmos.New()
	if _, err := restored.ReadFrom(&buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := restored.Checksum()
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if got != want {
		t.Fatal("checksum changed across round trip")
	}
	if restored.StepNumber() != 1 || restored.EntitiesCount() != c.EntitiesCount() {
		t.Fatalf("step %d entities %d", restored.StepNumber(), restored.EntitiesCount())
	}
	if name := restored.Handle(hs["rifle"].ID()).Name(); name != "old faithful" {
		t.Errorf("specific name = %q", name)
	}
	if !reflect.DeepEqual(cacheView(c), cacheView(restored)) {
		t.Error("caches were not rebuilt to the same state")
	}
}

func TestReadFromGarbageLeavesStateUntouched(t *testing.T) {
	c, _ := populated(t)
	before, _ := c.Checksum()
	if _, err := c.ReadFrom(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Fatal("garbage accepted")
	}
	after, _ := c.Checksum()
	if before != after {
		t.Fatal("failed read changed the cosmos")
	}
}

func TestReadFromHugeLengthFails(t *testing.T) {
	c, _ := populated(t)
	before, _ := c.Checksum()
	_, err := c.ReadFrom(bytes.NewReader([]byte{1, 0xff, 0xff, 0xff, 0x7f}))
	if !errors.Is(err, introspect.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
	if after, _ := c.Checksum(); before != after {
		t.Fatal("failed read changed the cosmos")
	}
}

func TestChecksumTracksSimulation(t *testing.T) {
	a, ha := populated(t)
	b, hb := populated(t)

	sa, _ := a.Checksum()
	sb, _ := b.Checksum()
	if sa != sb {
		t.Fatal("identical construction, different checksums")
	}

	push := func(c *cosmos.Cosmos, soldier cosmos.Handle) {
		var in cosmos.Entropy
		in.AddIntent(soldier.ID(), cosmos.Intent{Kind: cosmos.IntentMoveRight, Pressed: true})
		c.AdvanceDeterministicSchemata(in, nil, nil)
	}
	push(a, ha["soldier"])
	push(b, hb["soldier"])
	sa, _ = a.Checksum()
	sb, _ = b.Checksum()
	if sa != sb {
		t.Fatal("same inputs diverged")
	}

	b.AdvanceDeterministicSchemata(cosmos.Entropy{}, nil, nil)
	sb, _ = b.Checksum()
	if sa == sb {
		t.Fatal("checksum ignores the step number")
	}
}

func TestFieldsExposeComponents(t *testing.T) {
	c, hs := populated(t)
	fields := c.Fields(hs["soldier"])

	for key, want := range map[string]string{
		"movement.MaxSpeed":                   "300",
		"rigid_body.Transform.Pos.X":          "10",
		"container.Slots[0].Function":         component.SlotPrimaryHand.String(),
		"item_slot_transfers.PickupTimeoutMs": "0",
	} {
		if got, ok := fields[key]; !ok || got != want {
			t.Errorf("%s = %q (present %v), want %q", key, got, ok, want)
		}
	}
	if _, ok := fields["substance"]; !ok {
		t.Error("marker component missing")
	}
	if _, ok := fields["item.Charges"]; ok {
		t.Error("soldier reports an item component")
	}
}
