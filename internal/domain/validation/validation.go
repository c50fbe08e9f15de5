// Package validation is the precondition gate executed before every
// command and query handler. It checks input shape only and never touches
// the identity store.
package validation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// FieldError describes a single failed precondition.
type FieldError struct {
	Field   string
	Message string
}

// Error aggregates all precondition failures for one request.
type Error struct {
	Failures []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Func is an additional validator for a request. It returns the failures
// it found, or nil.
type Func func(ctx context.Context) []FieldError

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Check runs the struct-tag rules for req together with any extra
// validators. All validators run concurrently and are joined before the
// verdict; any failure aborts the operation with a *Error.
func Check(ctx context.Context, req any, extra ...Func) error {
	var (
		mu       sync.Mutex
		failures []FieldError
	)
	add := func(fs ...FieldError) {
		mu.Lock()
		failures = append(failures, fs...)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		add(structFailures(ctx, req)...)
		return nil
	})
	for _, fn := range extra {
		fn := fn
		g.Go(func() error {
			add(fn(ctx)...)
			return nil
		})
	}
	// Validators report failures instead of returning errors, so the
	// join never short-circuits.
	_ = g.Wait()

	if len(failures) == 0 {
		return nil
	}
	return &Error{Failures: failures}
}

func structFailures(ctx context.Context, req any) []FieldError {
	err := structValidator.StructCtx(ctx, req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Message: err.Error()}}
	}

	failures := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		failures = append(failures, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return failures
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s can't be empty.", fe.Field())
	case "min":
		return fmt.Sprintf("The %s must have at least %s elements.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("The %s can't have more than %s elements.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("The %s is not valid.", fe.Field())
	}
}
