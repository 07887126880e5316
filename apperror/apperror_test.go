package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := WithBody(KindRemoteRejected, "API returned error", 429, "slow down", nil)
	wrapped := fmt.Errorf("send: %w", base)

	if got := KindOf(wrapped); got != KindRemoteRejected {
		t.Fatalf("KindOf = %q, want %q", got, KindRemoteRejected)
	}
	if !Is(wrapped, KindRemoteRejected) {
		t.Fatal("Is returned false for wrapped error")
	}
	if got := BodyOf(wrapped); got != "slow down" {
		t.Fatalf("BodyOf = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Fatalf("KindOf = %q, want empty", got)
	}
	if Is(nil, KindTransport) {
		t.Fatal("Is(nil) should be false")
	}
}

func TestErrorMessageKeepsBodyAndCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := WithBody(KindMalformedResponse, "failed to parse response", 200, "{\"cand", cause)

	msg := err.Error()
	for _, want := range []string{"malformed response", "unexpected end of JSON input", "{\"cand", "status 200"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}
