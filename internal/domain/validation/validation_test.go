package validation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type createRoleRequest struct {
	Actor string
	Name  string `validate:"required"`
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr bool
		wantMsg string
	}{
		{
			name: "valid request",
			req:  createRoleRequest{Actor: "root", Name: "Auditors"},
		},
		{
			name:    "missing required field",
			req:     createRoleRequest{Actor: "root"},
			wantErr: true,
			wantMsg: "The Name can't be empty.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(context.Background(), tt.req)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if !strings.Contains(verr.Error(), tt.wantMsg) {
				t.Errorf("expected message %q, got %q", tt.wantMsg, verr.Error())
			}
		})
	}
}

func TestCheckRunsExtraValidators(t *testing.T) {
	extra := func(context.Context) []FieldError {
		return []FieldError{{Field: "Name", Message: "The Name is reserved."}}
	}

	err := Check(context.Background(), createRoleRequest{Actor: "root"}, extra)
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	// Both the struct rule and the extra validator contribute failures.
	if len(verr.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d: %v", len(verr.Failures), verr.Failures)
	}
}

func TestCheckJoinsAllValidatorsBeforeVerdict(t *testing.T) {
	ran := make(chan string, 2)
	slow := func(context.Context) []FieldError {
		ran <- "slow"
		return nil
	}
	failing := func(context.Context) []FieldError {
		ran <- "failing"
		return []FieldError{{Message: "nope"}}
	}

	err := Check(context.Background(), createRoleRequest{Actor: "root", Name: "ok"}, slow, failing)
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(ran) != 2 {
		t.Errorf("expected both validators to run, got %d", len(ran))
	}
}
