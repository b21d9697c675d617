package fixed

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse converts the textual boundary forms into a Fixed without any
// floating-point step. Accepted forms: "3", "-3/16", "2.5".
//
// Postcondition: Returns an error for malformed text or a zero denominator.
func Parse(s string) (Fixed, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("fixed: empty value")
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 32)
		if err != nil {
			return Zero, fmt.Errorf("fixed: invalid numerator in %q: %w", s, err)
		}
		d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 32)
		if err != nil {
			return Zero, fmt.Errorf("fixed: invalid denominator in %q: %w", s, err)
		}
		if d == 0 {
			return Zero, fmt.Errorf("fixed: zero denominator in %q", s)
		}
		return FromRatio(int(n), int(d)), nil
	}
	if whole, frac, ok := strings.Cut(s, "."); ok {
		if len(frac) == 0 || len(frac) > 6 {
			return Zero, fmt.Errorf("fixed: invalid decimal %q", s)
		}
		neg := strings.HasPrefix(whole, "-")
		digits := strings.TrimPrefix(whole, "-") + frac
		n, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return Zero, fmt.Errorf("fixed: invalid decimal %q: %w", s, err)
		}
		den := 1
		for range frac {
			den *= 10
		}
		if neg {
			n = -n
		}
		return FromRatio(int(n), den), nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return Zero, fmt.Errorf("fixed: invalid integer %q: %w", s, err)
	}
	return FromInt(int(n)), nil
}

// MustParse is Parse for package-level values and tests.
//
// Precondition: s must be a valid fixed literal.
func MustParse(s string) Fixed {
	f, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return f
}

// UnmarshalYAML accepts integer scalars and the string forms handled by Parse.
func (f *Fixed) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("fixed: line %d: expected scalar", node.Line)
	}
	v, err := Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = v
	return nil
}

// MarshalYAML emits the exact reduced ratio.
func (f Fixed) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}
