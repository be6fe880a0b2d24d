package llm

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  string
		want string
		cat  Category
	}{
		{"googleapi: Error 400: bad", "Invalid request. Please check your prompt and try again.", CategoryInvalidRequest},
		{"Error 401 unauthenticated", "Authentication failed. Please check your API key.", CategoryAuthentication},
		{"403 PERMISSION_DENIED", "Permission denied. You do not have permission to call the API.", CategoryPermission},
		{"404 model not found", "The requested resource was not found.", CategoryNotFound},
		{"Error 429: RESOURCE_EXHAUSTED", "Rate limit exceeded. Please try again later.", CategoryRateLimit},
		{"500 internal", "The service is temporarily unavailable. Please try again later.", CategoryUnavailable},
		{"503 overloaded", "The service is temporarily unavailable. Please try again later.", CategoryUnavailable},
		{"connection reset", "An unexpected error occurred: connection reset", CategoryUnexpected},
	}
	for _, tt := range tests {
		base := errors.New(tt.err)
		got := Normalize(base)
		if got.Error() != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.err, got.Error(), tt.want)
		}
		var e *Error
		if !errors.As(got, &e) || e.Category != tt.cat {
			t.Errorf("Normalize(%q) category = %v, want %s", tt.err, e, tt.cat)
		}
		if !errors.Is(got, base) {
			t.Errorf("Normalize(%q) lost the cause", tt.err)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	if Normalize(nil) != nil {
		t.Fatal("nil error normalized to non-nil")
	}
	once := Normalize(errors.New("429"))
	if twice := Normalize(once); twice != once {
		t.Fatal("normalized error was wrapped again")
	}
}

// "400" is checked before "500", so a message with both reads as a bad request.
func TestClassify_FirstMatchWins(t *testing.T) {
	t.Parallel()

	if got := Classify("upstream 500 after 400"); got != CategoryInvalidRequest {
		t.Fatalf("Classify = %s", got)
	}
}
