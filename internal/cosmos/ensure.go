package cosmos

import "fmt"

// ensure panics when an invariant that only a programming error can break
// does not hold.
func ensure(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("cosmos: "+format, args...))
	}
}
