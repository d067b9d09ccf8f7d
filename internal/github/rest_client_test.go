package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestRESTClientViewerAuthHeader(t *testing.T) {
	t.Parallel()

	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/user" {
			return notFoundResponse(r.URL.Path), nil
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Fatalf("Authorization header = %q, want %q", got, "Bearer token-123")
		}

		return mustJSONResponse(t, http.StatusOK, map[string]any{
			"login":      "octocat",
			"avatar_url": "https://avatars.test/octocat",
			"html_url":   "https://github.com/octocat",
		}), nil
	})

	client, err := newRESTClient(Config{
		HTTPClient:  clientHTTP,
		RESTBaseURL: "https://api.test/",
	})
	if err != nil {
		t.Fatalf("newRESTClient error = %v, want nil", err)
	}

	user, err := client.viewer(context.Background(), "token-123")
	if err != nil {
		t.Fatalf("viewer error = %v, want nil", err)
	}
	want := User{Login: "octocat", AvatarURL: "https://avatars.test/octocat", URL: "https://github.com/octocat"}
	if user != want {
		t.Fatalf("viewer = %+v, want %+v", user, want)
	}
}

func TestRESTClientViewerWrapsStatusError(t *testing.T) {
	t.Parallel()

	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		body, err := json.Marshal(map[string]any{
			"message": "Bad credentials",
		})
		if err != nil {
			t.Fatalf("marshal response body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Header: http.Header{
				"Content-Type": []string{"application/json"},
			},
			Body:    io.NopCloser(bytes.NewReader(body)),
			Request: r,
		}, nil
	})

	client, err := newRESTClient(Config{
		HTTPClient:  clientHTTP,
		RESTBaseURL: "https://api.test/",
	})
	if err != nil {
		t.Fatalf("newRESTClient error = %v, want nil", err)
	}

	_, err = client.viewer(context.Background(), "revoked")
	if err == nil {
		t.Fatal("viewer error = nil, want error")
	}

	var stErr *statusError
	if !errors.As(err, &stErr) {
		t.Fatalf("error type = %T, want *statusError", err)
	}
	if stErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status code = %d, want %d", stErr.StatusCode, http.StatusUnauthorized)
	}
	if !IsAuthError(err) {
		t.Fatalf("IsAuthError(%v) = false, want true", err)
	}
}

func TestRESTClientViewerRequiresToken(t *testing.T) {
	t.Parallel()

	client, err := newRESTClient(Config{RESTBaseURL: "https://api.test/"})
	if err != nil {
		t.Fatalf("newRESTClient error = %v, want nil", err)
	}
	if _, err := client.viewer(context.Background(), ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("viewer error = %v, want ErrEmptyToken", err)
	}
}
