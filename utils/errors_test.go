package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := NotFound("no table for %s", "Odd 2024")
	kind, ok := KindOf(err)
	if !ok || kind != KindNotFound {
		t.Fatalf("KindOf = %v, %v", kind, ok)
	}

	// Wrapping keeps the kind reachable.
	wrapped := fmt.Errorf("loading table: %w", err)
	kind, ok = KindOf(wrapped)
	if !ok || kind != KindNotFound {
		t.Errorf("wrapped KindOf = %v, %v", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain errors carry no kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, 404},
		{KindAmbiguousState, 409},
		{KindInvalidFilename, 400},
		{KindInvalidData, 400},
		{KindDivisionByZero, 400},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.kind); got != tc.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk error")
	err := Wrap(KindInvalidData, cause, "cannot parse CSV")
	if !errors.Is(err, cause) {
		t.Error("wrapped cause must stay reachable via errors.Is")
	}
}
