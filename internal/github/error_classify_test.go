package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsAuthError(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		err  error
		want bool
	}{
		{name: "401 is auth", err: &statusError{StatusCode: http.StatusUnauthorized, Err: errors.New("bad credentials")}, want: true},
		{name: "403 forbidden is auth", err: &statusError{StatusCode: http.StatusForbidden, Err: errors.New("forbidden")}, want: true},
		{name: "403 rate limit is not auth", err: &statusError{StatusCode: http.StatusForbidden, Err: errors.New("API rate limit exceeded")}, want: false},
		{name: "429 is not auth", err: &statusError{StatusCode: http.StatusTooManyRequests, Err: errors.New("rate limit")}, want: false},
		{name: "text unauthorized is auth", err: errors.New("unauthorized"), want: true},
		{name: "text status 403 is auth", err: errors.New("http status 403: resource not accessible"), want: true},
		{name: "text rate limit is not auth", err: errors.New("status 403: API rate limit exceeded"), want: false},
		{name: "empty token is auth", err: fmt.Errorf("viewer: %w", ErrEmptyToken), want: true},
		{name: "bad credentials text", err: errors.New("Bad credentials"), want: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsAuthError(tc.err); got != tc.want {
				t.Fatalf("IsAuthError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !IsNotFound(fmt.Errorf("search: %w", ErrResourceNotFound)) {
		t.Fatal("IsNotFound(wrapped sentinel) = false, want true")
	}
	if !IsNotFound(&statusError{StatusCode: http.StatusNotFound, Err: errors.New("missing")}) {
		t.Fatal("IsNotFound(404) = false, want true")
	}
	if IsNotFound(&statusError{StatusCode: http.StatusInternalServerError, Err: errors.New("boom")}) {
		t.Fatal("IsNotFound(500) = true, want false")
	}
}

func TestIsNetworkError(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: true},
		{name: "net error", err: temporaryNetError{}, want: true},
		{name: "502", err: &statusError{StatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")}, want: true},
		{name: "401", err: &statusError{StatusCode: http.StatusUnauthorized, Err: errors.New("nope")}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNetworkError(tc.err); got != tc.want {
				t.Fatalf("IsNetworkError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
