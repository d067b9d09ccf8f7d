package cli

import (
	"errors"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/parser"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/term"
	"github.com/johnqtcg/guescus/internal/thread"
)

const (
	// ExitOK indicates the command completed successfully.
	ExitOK = 0
	// ExitRuntime indicates generic runtime failure.
	ExitRuntime = 1
	// ExitInvalidArguments indicates invalid arguments or configuration.
	ExitInvalidArguments = 2
	// ExitAuth indicates auth/authz failures.
	ExitAuth = 3
	// ExitRejected indicates the submission was refused locally (cooldown or validation).
	ExitRejected = 4
	// ExitGuestDisabled indicates guest posting has no shared credential.
	ExitGuestDisabled = 5
)

// ResolveExitCode maps a command error to a CLI exit code.
func ResolveExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, composer.ErrGuestPostingDisabled) {
		return ExitGuestDisabled
	}
	if composer.IsRejection(err) {
		return ExitRejected
	}

	var vErr *config.ValidationError
	if errors.As(err, &vErr) {
		return ExitInvalidArguments
	}

	var cErr *config.ConflictError
	if errors.As(err, &cErr) {
		return ExitInvalidArguments
	}
	if errors.Is(err, parser.ErrInvalidGitHubURL) ||
		errors.Is(err, parser.ErrInvalidRepo) ||
		errors.Is(err, term.ErrUnknownStrategy) ||
		errors.Is(err, term.ErrMissingTerm) ||
		errors.Is(err, reaction.ErrUnknownKind) ||
		errors.Is(err, thread.ErrMissingCategory) {
		return ExitInvalidArguments
	}

	if errors.Is(err, session.ErrInvalidCredential) || errors.Is(err, composer.ErrAuthRequired) || gh.IsAuthError(err) {
		return ExitAuth
	}

	return ExitRuntime
}
