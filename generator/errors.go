package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
)

// Kind classifies a pipeline failure independently of which gateway produced it.
type Kind string

const (
	KindConfiguration   Kind = "configuration_error"
	KindRateLimited     Kind = "rate_limited"
	KindPaymentRequired Kind = "payment_required"
	KindUpstream        Kind = "upstream_error"
	// KindParse and KindImageSynthesis are recovered inside the pipeline and never
	// reach a caller as a top-level error.
	KindParse           Kind = "parse_error"
	KindImageSynthesis  Kind = "image_synthesis_failure"
)

// Error is the single error type surfaced by the pipeline.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether the kind aborts the whole invocation.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfiguration, KindRateLimited, KindPaymentRequired, KindUpstream:
		return true
	}
	return false
}

func configError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Classify maps an upstream call failure onto the error taxonomy.
// Errors that are already classified pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimited, Message: "rate limits exceeded, please try again later", Err: err}
		case http.StatusPaymentRequired:
			return &Error{Kind: KindPaymentRequired, Message: "payment required, please add credits to the AI gateway workspace", Err: err}
		default:
			return &Error{Kind: KindUpstream, Message: fmt.Sprintf("AI gateway returned status %d", apiErr.StatusCode), Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUpstream, Message: "AI gateway request did not complete", Err: err}
	}
	return &Error{Kind: KindUpstream, Message: "AI gateway request failed", Err: err}
}

// KindOf returns the kind of a classified error, or KindUpstream for anything else.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUpstream
}

// HTTPStatus is the response status used for a top-level failure of the given kind.
func HTTPStatus(k Kind) int {
	switch k {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
