package convert

// Quality ranks how good a single value-to-type conversion is. The scale is
// a total order; the resolver compares whole argument lists by counting
// Bad-or-worse entries first and summing qualities second.
type Quality int

const (
	// Fail means no conversion exists.
	Fail Quality = iota
	// Bad is a conversion that is representable but lossy or raising,
	// e.g. an out-of-range integral that will report overflow.
	Bad
	// Good is a meaningful implicit coercion.
	Good
	// Great is a near-exact match, e.g. subtype passthrough.
	Great
	// Perfect is an exact match with no coercion at all.
	Perfect
)

func (q Quality) String() string {
	switch q {
	case Fail:
		return "fail"
	case Bad:
		return "bad"
	case Good:
		return "good"
	case Great:
		return "great"
	case Perfect:
		return "perfect"
	}
	return "unknown"
}
