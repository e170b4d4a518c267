package answer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Position selects which number ExtractNumber returns when there are several.
type Position int

const (
	// Last picks the last number in the text.
	Last Position = iota
	// First picks the first number in the text.
	First
)

// NumberType selects the number syntax ExtractNumber looks for.
type NumberType int

const (
	// Float matches integers and decimals such as "3", "-0.5" or ".25".
	Float NumberType = iota
	// Int matches integers only; "2.5" yields the numbers 2 and 5.
	Int
)

var (
	intPattern   = regexp.MustCompile(`[-+]?\d+`)
	floatPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)
)

type numberOptions struct {
	position   Position
	numberType NumberType
	rounding   bool
	hasDefault bool
	fallback   func(text string) (float64, error)
}

// NumberOption configures ExtractNumber.
type NumberOption func(*numberOptions) error

// WithPosition picks the first or the last number. Default Last.
func WithPosition(p Position) NumberOption {
	return func(o *numberOptions) error {
		if p != First && p != Last {
			return fmt.Errorf("answer: invalid position %d", p)
		}
		o.position = p
		return nil
	}
}

// WithType selects integer or decimal syntax. Default Float.
func WithType(t NumberType) NumberOption {
	return func(o *numberOptions) error {
		if t != Float && t != Int {
			return fmt.Errorf("answer: invalid number type %d", t)
		}
		o.numberType = t
		return nil
	}
}

// WithRounding parses decimals and rounds the result half to even, so
// 2.5 gives 2 and 3.5 gives 4.
func WithRounding() NumberOption {
	return func(o *numberOptions) error {
		o.rounding = true
		return nil
	}
}

// WithDefault sets what ExtractNumber returns when the text holds no number.
// d may be
//
//   - a number (any int, uint or float kind),
//   - func() float64,
//   - func(text string) float64,
//   - func(text string) (float64, error),
//   - an error, which is returned as is.
//
// A nil d means no default. Any other kind fails with ErrInvalidDefault.
func WithDefault(d any) NumberOption {
	return func(o *numberOptions) error {
		if d == nil {
			o.hasDefault = false
			o.fallback = nil
			return nil
		}
		fallback, err := defaultFunc(d)
		if err != nil {
			return err
		}
		o.hasDefault = true
		o.fallback = fallback
		return nil
	}
}

func defaultFunc(d any) (func(string) (float64, error), error) {
	switch v := d.(type) {
	case error:
		return func(string) (float64, error) { return 0, v }, nil
	case func() float64:
		return func(string) (float64, error) { return v(), nil }, nil
	case func(string) float64:
		return func(text string) (float64, error) { return v(text), nil }, nil
	case func(string) (float64, error):
		return v, nil
	case float64:
		return constant(v), nil
	case float32:
		return constant(float64(v)), nil
	case int:
		return constant(float64(v)), nil
	case int8:
		return constant(float64(v)), nil
	case int16:
		return constant(float64(v)), nil
	case int32:
		return constant(float64(v)), nil
	case int64:
		return constant(float64(v)), nil
	case uint:
		return constant(float64(v)), nil
	case uint8:
		return constant(float64(v)), nil
	case uint16:
		return constant(float64(v)), nil
	case uint32:
		return constant(float64(v)), nil
	case uint64:
		return constant(float64(v)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidDefault, d)
	}
}

func constant(f float64) func(string) (float64, error) {
	return func(string) (float64, error) { return f, nil }
}

// ExtractNumber returns a number found in text. By default it is the last
// decimal number; see the options for the other modes.
//
// When the text contains no number the default from WithDefault is applied.
// Without one the error wraps ErrNoNumber.
//
//	ExtractNumber("score: -12.5 out of 100", WithPosition(First))                 // -12.5
//	ExtractNumber("score: -12.5 out of 100", WithPosition(First), WithRounding()) // -12
func ExtractNumber(text string, opts ...NumberOption) (float64, error) {
	o := numberOptions{position: Last, numberType: Float}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return 0, err
		}
	}

	pattern := floatPattern
	if o.numberType == Int && !o.rounding {
		pattern = intPattern
	}

	if numbers := pattern.FindAllString(text, -1); len(numbers) > 0 {
		idx := len(numbers) - 1
		if o.position == First {
			idx = 0
		}
		if value, err := strconv.ParseFloat(numbers[idx], 64); err == nil {
			if o.rounding {
				value = math.RoundToEven(value)
			}
			return value, nil
		}
	}

	if !o.hasDefault {
		return 0, fmt.Errorf("%w in %q", ErrNoNumber, truncate(text, 80))
	}
	return o.fallback(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
