package dispatch

import (
	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/convert"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jbridge.dispatch")

// VarargElementPenalty is subtracted from the quality of a lone value
// matched as the single element of a variadic tail, so such a match never
// beats an equally good non-variadic match. The exact value is a tunable
// heuristic, not a contract.
const VarargElementPenalty = 1

type MatchKind int

const (
	NoMatch MatchKind = iota
	// Match covers non-variadic matches and variadic matches whose tail
	// is built element by element (possibly empty).
	Match
	// MatchDirectVarargArray passes the final argument as the pre-built
	// variadic array itself.
	MatchDirectVarargArray
	// AmbiguousVararg means both variadic interpretations of a single
	// trailing value succeeded. Fatal only if this candidate wins.
	AmbiguousVararg
)

// Candidate is the transient result of resolving one method against one
// argument tuple.
type Candidate struct {
	Method    *jvm.MethodDescriptor
	Kind      MatchKind
	Qualities []convert.Quality
	Convs     []convert.Conversion
}

func (c *Candidate) badOrWorse() int {
	count := 0
	for _, q := range c.Qualities {
		if q <= convert.Bad {
			count++
		}
	}
	return count
}

func (c *Candidate) qualitySum() int {
	sum := 0
	for _, q := range c.Qualities {
		sum += int(q)
	}
	return sum
}

func (c *Candidate) allPerfect() bool {
	for _, q := range c.Qualities {
		if q != convert.Perfect {
			return false
		}
	}
	return true
}

// ResolveOverload picks the best signature of group for the given host
// arguments. No-match and ambiguity are reported as distinct errors; ties
// are broken by the two-level comparator (fewer Bad-or-worse per-argument
// qualities, then higher quality sum).
func ResolveOverload(cat *convert.Catalog, group *jvm.MethodGroup, args []any) (*Candidate, error) {
	if len(args) == 0 {
		return resolveZeroArgs(group)
	}

	var best *Candidate
	tied := false
	var tiedWith *Candidate
	for _, m := range group.Methods {
		c := evaluate(cat, m, args)
		if c == nil || c.Kind == NoMatch {
			continue
		}
		switch compare(c, best) {
		case 1:
			best, tied = c, false
		case 0:
			tied, tiedWith = true, c
		}
		if best.allPerfect() && best.Kind != AmbiguousVararg {
			// nothing can be strictly better under the comparator
			break
		}
	}

	if best == nil {
		return nil, &NoMatchError{Group: group.Name, Args: describeArgs(args)}
	}
	if tied {
		return nil, &AmbiguousError{
			Group:      group.Name,
			Signatures: []string{best.Method.Signature(), tiedWith.Method.Signature()},
		}
	}
	if best.Kind == AmbiguousVararg {
		return nil, &AmbiguousError{
			Group: group.Name,
			Signatures: []string{
				best.Method.Signature() + " with a variadic tail element",
				best.Method.Signature() + " with the array passed directly",
			},
		}
	}
	log.Debugf("resolved %s for %d argument(s)", best.Method.Signature(), len(args))
	return best, nil
}

// compare returns 1 if a ranks strictly better than b, 0 on a true tie,
// -1 otherwise. A nil b loses to anything.
func compare(a, b *Candidate) int {
	if b == nil {
		return 1
	}
	abad, bbad := a.badOrWorse(), b.badOrWorse()
	if abad != bbad {
		if abad < bbad {
			return 1
		}
		return -1
	}
	asum, bsum := a.qualitySum(), b.qualitySum()
	if asum != bsum {
		if asum > bsum {
			return 1
		}
		return -1
	}
	return 0
}

// evaluate scans one candidate. The arity gate is hard: a candidate with an
// incompatible parameter count is never ranked.
func evaluate(cat *convert.Catalog, m *jvm.MethodDescriptor, args []any) *Candidate {
	if !m.Variadic {
		if len(args) != len(m.Params) {
			return nil
		}
		return evaluateFixed(cat, m, args)
	}
	if len(args) < len(m.Params)-1 {
		return nil
	}
	return evaluateVariadic(cat, m, args)
}

func evaluateFixed(cat *convert.Catalog, m *jvm.MethodDescriptor, args []any) *Candidate {
	c := &Candidate{
		Method:    m,
		Kind:      Match,
		Qualities: make([]convert.Quality, len(args)),
		Convs:     make([]convert.Conversion, len(args)),
	}
	for i, arg := range args {
		q, conv := cat.Best(arg, m.Params[i])
		if q == convert.Fail {
			return nil
		}
		c.Qualities[i], c.Convs[i] = q, conv
	}
	return c
}

func evaluateVariadic(cat *convert.Catalog, m *jvm.MethodDescriptor, args []any) *Candidate {
	fixedCount := len(m.Params) - 1
	tailParam := m.Params[fixedCount]
	component := tailParam.Component

	c := &Candidate{
		Method:    m,
		Kind:      Match,
		Qualities: make([]convert.Quality, len(args)),
		Convs:     make([]convert.Conversion, len(args)),
	}
	for i := 0; i < fixedCount; i++ {
		q, conv := cat.Best(args[i], m.Params[i])
		if q == convert.Fail {
			return nil
		}
		c.Qualities[i], c.Convs[i] = q, conv
	}

	tail := args[fixedCount:]
	switch len(tail) {
	case 0:
		// zero-length tail, synthesized at marshal time
		c.Qualities = c.Qualities[:fixedCount]
		c.Convs = c.Convs[:fixedCount]
		return c

	case 1:
		// try both readings of the lone trailing value
		elemQ, elemConv := cat.Best(tail[0], component)
		arrayQ, arrayConv := cat.Best(tail[0], tailParam)
		if elemQ > convert.Fail {
			elemQ -= VarargElementPenalty
			if elemQ < convert.Bad {
				elemQ = convert.Bad
			}
		}
		switch {
		case elemQ > convert.Fail && arrayQ > convert.Fail:
			c.Kind = AmbiguousVararg
			// rank by the better reading; marshalling never sees this
			if arrayQ >= elemQ {
				c.Qualities[fixedCount], c.Convs[fixedCount] = arrayQ, arrayConv
			} else {
				c.Qualities[fixedCount], c.Convs[fixedCount] = elemQ, elemConv
			}
		case arrayQ > convert.Fail:
			c.Kind = MatchDirectVarargArray
			c.Qualities[fixedCount], c.Convs[fixedCount] = arrayQ, arrayConv
		case elemQ > convert.Fail:
			c.Qualities[fixedCount], c.Convs[fixedCount] = elemQ, elemConv
		default:
			return nil
		}
		return c

	default:
		// two or more trailing values force the element reading
		for i, arg := range tail {
			q, conv := cat.Best(arg, component)
			if q == convert.Fail {
				return nil
			}
			c.Qualities[fixedCount+i], c.Convs[fixedCount+i] = q, conv
		}
		return c
	}
}

// resolveZeroArgs is the distinguished fast path for calls with no
// arguments: an exact zero-parameter candidate wins outright, otherwise a
// single one-parameter variadic candidate matches with a synthesized empty
// tail.
func resolveZeroArgs(group *jvm.MethodGroup) (*Candidate, error) {
	var variadics []*jvm.MethodDescriptor
	for _, m := range group.Methods {
		if !m.Variadic && len(m.Params) == 0 {
			return &Candidate{Method: m, Kind: Match}, nil
		}
		if m.Variadic && len(m.Params) == 1 {
			variadics = append(variadics, m)
		}
	}
	switch len(variadics) {
	case 0:
		return nil, &NoMatchError{Group: group.Name}
	case 1:
		return &Candidate{Method: variadics[0], Kind: Match}, nil
	default:
		sigs := make([]string, len(variadics))
		for i, m := range variadics {
			sigs[i] = m.Signature()
		}
		return nil, &AmbiguousError{Group: group.Name, Signatures: sigs}
	}
}
