package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, fiber.StatusUnprocessableEntity},
		{KindPermissionDenied, fiber.StatusForbidden},
		{KindNotFound, fiber.StatusNotFound},
		{KindInvalidState, fiber.StatusConflict},
		{KindConflict, fiber.StatusConflict},
		{KindRateLimited, fiber.StatusTooManyRequests},
		{KindTransient, fiber.StatusServiceUnavailable},
		{KindInternal, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.StatusCode(); got != tt.want {
			t.Errorf("%s: StatusCode() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain error) = %v, want KindInternal", got)
	}

	err := NotFound("crop target not found")
	if got := KindOf(err); got != KindNotFound {
		t.Errorf("KindOf(NotFound) = %v, want KindNotFound", got)
	}

	// Kind survives wrapping.
	wrapped := fmt.Errorf("handler: %w", InvalidState("already approved"))
	if !IsKind(wrapped, KindInvalidState) {
		t.Errorf("IsKind(wrapped, KindInvalidState) = false, want true")
	}
}

func TestValidationFields(t *testing.T) {
	err := Validation("invalid input", map[string]string{"year": "out of range"})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Validation did not produce *Error")
	}
	if e.Fields["year"] != "out of range" {
		t.Errorf("Fields[year] = %q, want %q", e.Fields["year"], "out of range")
	}
}
