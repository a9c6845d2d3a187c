package schema

import "strings"

// Strategy tries to place one field in a header row. It returns the column
// index and true on success.
type Strategy interface {
	Resolve(spec FieldSpec, header []string) (int, bool)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(spec FieldSpec, header []string) (int, bool)

// Resolve implements Strategy.
func (f StrategyFunc) Resolve(spec FieldSpec, header []string) (int, bool) {
	return f(spec, header)
}

var (
	// ExactMatch accepts the first header equal to a variant, ignoring case.
	ExactMatch Strategy = StrategyFunc(exactMatch)

	// SubstringMatch accepts the first header containing a variant, ignoring case.
	SubstringMatch Strategy = StrategyFunc(substringMatch)

	// Positional falls back to the spec's fixed column index when the header
	// is wide enough.
	Positional Strategy = StrategyFunc(positional)
)

// DefaultStrategies is the cascade used for untrusted exports.
var DefaultStrategies = []Strategy{ExactMatch, SubstringMatch, Positional}

func exactMatch(spec FieldSpec, header []string) (int, bool) {
	return firstHeader(spec, header, func(label, variant string) bool {
		return label == variant
	})
}

func substringMatch(spec FieldSpec, header []string) (int, bool) {
	return firstHeader(spec, header, strings.Contains)
}

func positional(spec FieldSpec, header []string) (int, bool) {
	if spec.Position < 0 || spec.Position >= len(header) {
		return 0, false
	}
	return spec.Position, true
}

// firstHeader scans headers in order and returns the first one that matches
// any variant. Both sides are lowercased and trimmed before comparing.
func firstHeader(spec FieldSpec, header []string, match func(label, variant string) bool) (int, bool) {
	for i, h := range header {
		label := normalize(h)
		if label == "" {
			continue
		}
		for _, v := range spec.Variants {
			if match(label, normalize(v)) {
				return i, true
			}
		}
	}
	return 0, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
