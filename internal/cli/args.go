package cli

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/johnqtcg/guescus/internal/config"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/parser"
)

// Flag names shared by the thread commands.
const (
	flagConfig      = "config"
	flagToken       = "token"
	flagCooldown    = "cooldown-file"
	flagRepo        = "repo"
	flagRepoID      = "repo-id"
	flagCategory    = "category"
	flagCategoryID  = "category-id"
	flagTerm        = "term"
	flagNumber      = "number"
	flagStrict      = "strict"
	flagPageURL     = "page-url"
	flagReactions   = "reactions"
	flagNickname    = "nickname"
	flagWebsite     = "website"
	flagEmail       = "email"
	flagReplyTo     = "reply-to"
	flagReplyAuthor = "reply-author"
)

func threadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagRepo, Usage: "repository as `OWNER/NAME`"},
		&cli.StringFlag{Name: flagRepoID, Usage: "repository node id, required to create a discussion"},
		&cli.StringFlag{Name: flagCategory, Usage: "discussion category name used by the term search"},
		&cli.StringFlag{Name: flagCategoryID, Usage: "category node id, required to create a discussion"},
		&cli.StringFlag{Name: flagTerm, Usage: "term identifying the discussion"},
		&cli.StringFlag{Name: flagNumber, Usage: "discussion number or URL, bypasses the term search"},
		&cli.BoolFlag{Name: flagStrict, Usage: "only accept discussions carrying the term hash"},
		&cli.StringFlag{Name: flagPageURL, Usage: "host page URL recorded on new discussions"},
	}
}

// Args contains the validated inputs of one thread command.
type Args struct {
	Widget config.Widget
	// Token is the caller's personal credential, empty to post as a guest.
	Token string
	Guest *guest.Identity
}

// ValidateArgs builds the widget configuration from thread flags and checks
// flag combinations.
func ValidateArgs(c *cli.Context) (Args, error) {
	w := config.Widget{
		Repo:             strings.TrimSpace(c.String(flagRepo)),
		RepoID:           c.String(flagRepoID),
		Category:         c.String(flagCategory),
		CategoryID:       c.String(flagCategoryID),
		Term:             c.String(flagTerm),
		Strict:           c.Bool(flagStrict),
		PageURL:          c.String(flagPageURL),
		ReactionsEnabled: true,
	}

	if raw := strings.TrimSpace(c.String(flagNumber)); raw != "" {
		n, repo, err := parseNumberArg(raw)
		if err != nil {
			return Args{}, err
		}
		w.Number = n
		if w.Repo == "" {
			w.Repo = repo
		}
	}
	if w.Term == "" && w.Number == 0 {
		return Args{}, config.NewValidationError(flagTerm, "--term or --number is required")
	}
	if err := w.Validate(); err != nil {
		return Args{}, err
	}

	out := Args{Widget: w, Token: c.String(flagToken)}
	if c.IsSet(flagNickname) {
		if out.Token != "" {
			return Args{}, config.NewConflictError("--"+flagToken, "--"+flagNickname)
		}
		out.Guest = &guest.Identity{
			Nickname: c.String(flagNickname),
			Website:  c.String(flagWebsite),
			Email:    c.String(flagEmail),
		}
	}
	return out, nil
}

// parseNumberArg accepts a bare number or a discussion URL. A URL also
// names the repository.
func parseNumberArg(raw string) (int, string, error) {
	if n, err := parser.ParseNumber(raw); err == nil {
		return n, "", nil
	}
	ref, err := parser.New().Parse(raw)
	if err != nil {
		return 0, "", config.NewValidationError(flagNumber, "must be a discussion number or URL")
	}
	return ref.Number, ref.Repo.String(), nil
}
