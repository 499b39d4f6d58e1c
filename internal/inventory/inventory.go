// Package inventory moves items between container slots and the world.
//
// QueryTransferResult predicts the outcome of a request without touching
// the cosmos; PerformTransfer carries it out inside a step.
package inventory

import (
	"errors"

	"github.com/topdown/cosmos/internal/cosmos"
)

var (
	// ErrUnsupportedOperation is returned for requests whose resolution is
	// not implemented: replacing the sole item of a singleton slot, or a
	// mounted item that cannot be unmounted.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrCloneFailed          = errors.New("clone failed")
)

// Request moves Item into TargetSlot, or drops it when TargetSlot is unset.
type Request = cosmos.TransferRequest

// ResultType is the predicted or achieved outcome of a request.
type ResultType uint8

const (
	InvalidResult ResultType = iota
	InvalidSlotOrUnownedRoot
	NoSlotAvailable
	TooManyItems
	IncompatibleCategories
	InsufficientSpace
	TheSameSlot
	MountingConditionsNotMet
	UnmountBeforehand
	SuccessfulTransfer
)

var resultNames = [...]string{
	InvalidResult:            "INVALID_RESULT",
	InvalidSlotOrUnownedRoot: "INVALID_SLOT_OR_UNOWNED_ROOT",
	NoSlotAvailable:          "NO_SLOT_AVAILABLE",
	TooManyItems:             "TOO_MANY_ITEMS",
	IncompatibleCategories:   "INCOMPATIBLE_CATEGORIES",
	InsufficientSpace:        "INSUFFICIENT_SPACE",
	TheSameSlot:              "THE_SAME_SLOT",
	MountingConditionsNotMet: "MOUNTING_CONDITIONS_NOT_MET",
	UnmountBeforehand:        "UNMOUNT_BEFOREHAND",
	SuccessfulTransfer:       "SUCCESSFUL_TRANSFER",
}

func (t ResultType) String() string {
	if int(t) < len(resultNames) {
		return resultNames[t]
	}
	return "UNKNOWN"
}

// Result is the outcome of a request together with the number of charges
// that move.
type Result struct {
	Type               ResultType
	TransferredCharges uint32
}

func (r Result) Successful() bool { return r.Type == SuccessfulTransfer }
