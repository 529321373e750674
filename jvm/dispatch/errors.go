package dispatch

import (
	"fmt"
	"strings"
)

// NoMatchError reports that no signature in the group accepts the supplied
// arguments. Distinct from AmbiguousError so callers can tell "nothing fits"
// from "too many fit".
type NoMatchError struct {
	Group string
	Args  []string // host-side type names of the attempted arguments
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no overload of %s accepts (%s)", e.Group, strings.Join(e.Args, ", "))
}

// AmbiguousError reports a tie between two or more candidates. The caller
// disambiguates by selecting an explicit signature.
type AmbiguousError struct {
	Group      string
	Signatures []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous call to %s: candidates %s", e.Group, strings.Join(e.Signatures, " and "))
}

func describeArgs(args []any) []string {
	described := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			described[i] = "nil"
		} else {
			described[i] = fmt.Sprintf("%T", a)
		}
	}
	return described
}
