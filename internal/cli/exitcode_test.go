package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	"github.com/johnqtcg/guescus/internal/parser"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/thread"
)

func TestResolveExitCode(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "success", err: nil, wantCode: ExitOK},
		{name: "validation error", err: config.NewValidationError("repo", "bad"), wantCode: ExitInvalidArguments},
		{name: "conflict error", err: config.NewConflictError("--token", "--nickname"), wantCode: ExitInvalidArguments},
		{name: "invalid github url", err: fmt.Errorf("parse: %w", parser.ErrInvalidGitHubURL), wantCode: ExitInvalidArguments},
		{name: "unknown reaction", err: fmt.Errorf("toggle: %w", reaction.ErrUnknownKind), wantCode: ExitInvalidArguments},
		{name: "missing category", err: fmt.Errorf("submit comment: %w", thread.ErrMissingCategory), wantCode: ExitInvalidArguments},
		{name: "auth error 401", err: errors.New("http status 401: bad credentials"), wantCode: ExitAuth},
		{name: "invalid credential", err: fmt.Errorf("sign in: %w", session.ErrInvalidCredential), wantCode: ExitAuth},
		{name: "auth required", err: composer.ErrAuthRequired, wantCode: ExitAuth},
		{name: "rate limit 403 should not be auth", err: errors.New("http status 403: API rate limit exceeded"), wantCode: ExitRuntime},
		{name: "cooldown", err: &composer.CooldownError{Remaining: 30 * time.Second}, wantCode: ExitRejected},
		{name: "empty text", err: composer.ErrEmptyText, wantCode: ExitRejected},
		{name: "guest posting disabled", err: fmt.Errorf("submit: %w", composer.ErrGuestPostingDisabled), wantCode: ExitGuestDisabled},
		{name: "generic error", err: errors.New("boom"), wantCode: ExitRuntime},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveExitCode(tc.err)
			if got != tc.wantCode {
				t.Fatalf("ResolveExitCode = %d, want %d", got, tc.wantCode)
			}
		})
	}
}
