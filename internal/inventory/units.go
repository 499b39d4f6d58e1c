package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/topdown/cosmos/internal/component"
)

// ToSpaceUnits converts a decimal amount of space units such as "12" or
// "0.5" into space atoms. At most three decimals are accepted.
func ToSpaceUnits(s string) (uint32, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("space units %q: empty", s)
	}
	if len(frac) > 3 {
		return 0, fmt.Errorf("space units %q: more than 3 decimals", s)
	}
	var atoms uint64
	if whole != "" {
		w, err := strconv.ParseUint(whole, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("space units %q: %w", s, err)
		}
		atoms = w * component.SpaceAtomsPerUnit
	}
	if frac != "" {
		f, err := strconv.ParseUint(frac+strings.Repeat("0", 3-len(frac)), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("space units %q: %w", s, err)
		}
		atoms += f
	}
	if atoms > 1<<32-1 {
		return 0, fmt.Errorf("space units %q: out of range", s)
	}
	return uint32(atoms), nil
}

// FormatSpaceUnits renders atoms as space units with two decimals.
func FormatSpaceUnits(atoms uint32) string {
	if atoms == 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(atoms)/component.SpaceAtomsPerUnit, 'f', 2, 64)
}
