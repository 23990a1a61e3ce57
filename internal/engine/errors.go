package engine

import (
	"errors"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/renderer"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/video"
)

// Kind classifies a failed run.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindInvalidSpec
	KindEncodingFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindInvalidSpec:
		return "invalid spec"
	case KindEncodingFailure:
		return "encoding failure"
	default:
		return "unknown"
	}
}

// Error is returned by Run. Err keeps the package sentinel in its chain.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err by the sentinel it wraps.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch {
	case errors.Is(err, config.ErrInvalidSpec):
		return KindInvalidSpec
	case errors.Is(err, source.ErrInvalidImage), errors.Is(err, renderer.ErrInvalidImage):
		return KindInvalidInput
	case errors.Is(err, video.ErrEncodingFailure):
		return KindEncodingFailure
	default:
		return KindUnknown
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindOf(err), Err: err}
}
