package answer

import (
	"errors"

	"github.com/samber/oops"
)

// CodeBadAnswer is the oops error code carried by bad-answer errors.
const CodeBadAnswer = "bad_ai_answer"

var (
	// ErrBadAnswer marks model output that does not have the expected shape.
	// Errors built by BadAnswer satisfy errors.Is(err, ErrBadAnswer).
	ErrBadAnswer = errors.New("bad AI answer")

	// ErrNoNumber is returned by ExtractNumber when the text holds no number
	// and no default was given.
	ErrNoNumber = errors.New("no number found")

	// ErrInvalidDefault is returned when WithDefault receives a value of an
	// unsupported kind.
	ErrInvalidDefault = errors.New("unsupported default")
)

// BadAnswer returns an ErrBadAnswer error coded CodeBadAnswer. kv are
// alternating key/value pairs attached as error context.
func BadAnswer(msg string, kv ...any) error {
	return oops.Code(CodeBadAnswer).With(kv...).Wrapf(ErrBadAnswer, "%s", msg)
}

// IsBadAnswer reports whether err is a bad-answer error.
func IsBadAnswer(err error) bool {
	return errors.Is(err, ErrBadAnswer)
}
