package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/thread"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure reports err with the status it classifies to. Upstream
// failures are logged, local rejections are not.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Warn().Err(err).Int("status", status).Msg("request failed")
	}
	var cdErr *composer.CooldownError
	if errors.As(err, &cdErr) {
		w.Header().Set("Retry-After", strconv.Itoa(cdErr.Seconds()))
	}
	writeError(w, status, err.Error())
}

// readValues unifies form, multipart and JSON bodies with the query string.
// JSON scalars become strings and booleans become "1" or "0", matching the
// widget query parameter encoding.
func readValues(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.Form, nil
	}

	values := r.URL.Query()
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	for key, raw := range body {
		switch v := raw.(type) {
		case nil:
		case string:
			values.Set(key, v)
		case json.Number:
			values.Set(key, v.String())
		case bool:
			if v {
				values.Set(key, "1")
			} else {
				values.Set(key, "0")
			}
		default:
			return nil, fmt.Errorf("decode json body: field %q must be a scalar", key)
		}
	}
	return values, nil
}

func statusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if status, ok := statusFromLocalError(err); ok {
		return status
	}
	if status, ok := statusFromClassifiedError(err); ok {
		return status
	}
	if status, ok := statusFromWrappedStatus(err); ok {
		return status
	}

	return http.StatusBadGateway
}

func statusFromLocalError(err error) (int, bool) {
	var validationErr *config.ValidationError
	var conflictErr *config.ConflictError
	switch {
	case errors.Is(err, composer.ErrCoolingDown):
		return http.StatusTooManyRequests, true
	case errors.Is(err, composer.ErrGuestPostingDisabled):
		return http.StatusServiceUnavailable, true
	case errors.Is(err, composer.ErrAuthRequired), errors.Is(err, session.ErrInvalidCredential):
		return http.StatusUnauthorized, true
	case composer.IsRejection(err),
		errors.Is(err, reaction.ErrUnknownKind),
		errors.Is(err, thread.ErrMissingCategory),
		errors.As(err, &validationErr),
		errors.As(err, &conflictErr):
		return http.StatusBadRequest, true
	}
	return 0, false
}

func statusFromClassifiedError(err error) (int, bool) {
	if errors.Is(err, gh.ErrResourceNotFound) {
		return http.StatusNotFound, true
	}
	if gh.IsRateLimitError(err) {
		return http.StatusTooManyRequests, true
	}
	if gh.IsAuthError(err) {
		return authHTTPStatus(err), true
	}
	return 0, false
}

func authHTTPStatus(err error) int {
	if status, ok := gh.StatusCode(err); ok {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return status
		}
	}

	text := strings.ToLower(err.Error())
	if strings.Contains(text, "status 403") || strings.Contains(text, "forbidden") {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func statusFromWrappedStatus(err error) (int, bool) {
	status, ok := gh.StatusCode(err)
	if !ok {
		return 0, false
	}

	switch status {
	case http.StatusNotFound:
		return http.StatusNotFound, true
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, true
	case http.StatusUnauthorized, http.StatusForbidden:
		return status, true
	default:
		if status >= 500 && status <= 599 {
			return http.StatusBadGateway, true
		}
		return 0, false
	}
}
