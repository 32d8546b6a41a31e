package climanager

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sharnoff/mfgnet"
)

// ValidationError is returned by the Parse functions when input is not acceptable. Its message
// is meant to be shown to the user, who will then be asked again.
type ValidationError struct {
	Input   string
	Message string
}

func (err *ValidationError) Error() string {
	return err.Message
}

func invalid(raw, format string, args ...interface{}) *ValidationError {
	return &ValidationError{raw, fmt.Sprintf(format, args...)}
}

// Constraint bounds the numbers accepted by the Parse functions. The zero value accepts
// anything.
type Constraint struct {
	Min, Max       float64
	HasMin, HasMax bool
	// whether Min or Max are themselves excluded
	MinExclusive, MaxExclusive bool

	// Default, if not empty, is parsed in place of empty input
	Default string
}

// These are the common Constraints.
var (
	Positive    = Constraint{Min: 0, HasMin: true, MinExclusive: true}
	NonNegative = Constraint{Min: 0, HasMin: true}
	// Fraction is the open interval (0, 1)
	Fraction = Constraint{Min: 0, Max: 1, HasMin: true, HasMax: true, MinExclusive: true, MaxExclusive: true}
	// Probability is [0, 1)
	Probability = Constraint{Min: 0, Max: 1, HasMin: true, HasMax: true, MaxExclusive: true}
)

// AtLeast returns a Constraint accepting values ≥ min.
func AtLeast(min float64) Constraint {
	return Constraint{Min: min, HasMin: true}
}

// Between returns a Constraint accepting values in [min, max].
func Between(min, max float64) Constraint {
	return Constraint{Min: min, Max: max, HasMin: true, HasMax: true}
}

// WithDefault returns a copy of the Constraint that uses def for empty input.
func (c Constraint) WithDefault(def string) Constraint {
	c.Default = def
	return c
}

func (c Constraint) describe() string {
	var parts []string
	if c.HasMin {
		if c.MinExclusive {
			parts = append(parts, fmt.Sprintf("greater than %g", c.Min))
		} else {
			parts = append(parts, fmt.Sprintf("at least %g", c.Min))
		}
	}
	if c.HasMax {
		if c.MaxExclusive {
			parts = append(parts, fmt.Sprintf("less than %g", c.Max))
		} else {
			parts = append(parts, fmt.Sprintf("at most %g", c.Max))
		}
	}

	return strings.Join(parts, " and ")
}

// check returns an error message if v is out of bounds, or "" if it isn't
func (c Constraint) check(v float64) string {
	if (c.HasMin && (v < c.Min || (c.MinExclusive && v == c.Min))) ||
		(c.HasMax && (v > c.Max || (c.MaxExclusive && v == c.Max))) {
		return "The value must be " + c.describe()
	}

	return ""
}

// input returns the trimmed raw input, replaced by the default if empty
func (c Constraint) input(raw string) (string, *ValidationError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if c.Default == "" {
			return "", invalid(raw, "Please enter a value")
		}
		return c.Default, nil
	}

	return raw, nil
}

// ParseInt parses a single integer within the Constraint.
func ParseInt(raw string, c Constraint) (int, error) {
	s, verr := c.input(raw)
	if verr != nil {
		return 0, verr
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid(raw, "Please enter an integer")
	} else if msg := c.check(float64(v)); msg != "" {
		return 0, invalid(raw, msg)
	}

	return v, nil
}

// ParseFloat parses a single number within the Constraint.
func ParseFloat(raw string, c Constraint) (float64, error) {
	s, verr := c.input(raw)
	if verr != nil {
		return 0, verr
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !math.IsInf(v, 0) {
		return 0, invalid(raw, "Please enter a number")
	} else if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(raw, "Please enter a finite number")
	} else if msg := c.check(v); msg != "" {
		return 0, invalid(raw, msg)
	}

	return v, nil
}

// ParseIntList parses comma-separated integers, each within the Constraint. If n > 0, exactly
// n values are required.
func ParseIntList(raw string, n int, c Constraint) ([]int, error) {
	s, verr := c.input(raw)
	if verr != nil {
		return nil, verr
	}

	fields := strings.Split(s, ",")
	if n > 0 && len(fields) != n {
		return nil, invalid(raw, "Please enter %d comma-separated values", n)
	}

	vs := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, invalid(raw, "Please enter comma-separated integers")
		} else if msg := c.check(float64(v)); msg != "" {
			return nil, invalid(raw, msg)
		}
		vs[i] = v
	}

	return vs, nil
}

// ParsePair parses two comma-separated integers, like "3,3", each within the Constraint.
func ParsePair(raw string, c Constraint) (mfgnet.Pair, error) {
	vs, err := ParseIntList(raw, 2, c)
	if err != nil {
		return mfgnet.Pair{}, err
	}

	return mfgnet.Pair{H: vs[0], W: vs[1]}, nil
}

// ParseYesNo accepts "y", "yes", "n", or "no", ignoring case.
func ParseYesNo(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, invalid(raw, "Please enter 'y' or 'n'")
	}
}

// ParseFlag accepts "1" or "0". Only the Default of the Constraint is used.
func ParseFlag(raw string, c Constraint) (bool, error) {
	s, verr := c.input(raw)
	if verr != nil {
		return false, verr
	}

	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, invalid(raw, "Please enter 1 or 0")
	}
}

// ParseChoice parses the number of one of n options, from 1 to n.
func ParseChoice(raw string, n int, c Constraint) (int, error) {
	c.Min, c.Max = 1, float64(n)
	c.HasMin, c.HasMax = true, true
	c.MinExclusive, c.MaxExclusive = false, false

	v, err := ParseInt(raw, c)
	if err != nil {
		return 0, invalid(raw, "Please enter a number from 1 to %d", n)
	}

	return v, nil
}
