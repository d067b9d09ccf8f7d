package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	"github.com/johnqtcg/guescus/internal/embed"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/summary"
	"github.com/johnqtcg/guescus/internal/term"
	"github.com/johnqtcg/guescus/internal/thread"
)

// cliClientKey keys the cooldown of the local user; the file store holds a
// single timestamp regardless.
const cliClientKey = "cli"

func (a *App) termCommand() *cli.Command {
	return &cli.Command{
		Name:      "term",
		Usage:     "Resolve the discussion term of a page",
		ArgsUsage: "PAGE_URL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mapping", Value: string(term.StrategyPathname), Usage: "pathname, url, title, og:title, specific or number"},
			&cli.StringFlag{Name: "title", Usage: "document title"},
			&cli.StringFlag{Name: "og-title", Usage: "og:title metadata value"},
			&cli.StringFlag{Name: flagTerm, Usage: "explicit term for the specific and number mappings"},
		},
		Action: func(c *cli.Context) error {
			strategy, err := term.ParseStrategy(c.String("mapping"))
			if err != nil {
				return err
			}
			page, err := pageFromArgs(c)
			if err != nil {
				return err
			}
			resolved, err := term.Resolve(strategy, page, c.String(flagTerm))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, resolved)
			return err
		},
	}
}

func pageFromArgs(c *cli.Context) (term.Page, error) {
	page := term.Page{Title: c.String("title"), OGTitle: c.String("og-title")}
	if c.NArg() == 0 {
		return page, nil
	}
	if c.NArg() > 1 {
		return term.Page{}, config.NewValidationError("url", "at most one page URL is allowed")
	}
	raw := c.Args().First()
	u, err := url.Parse(raw)
	if err != nil {
		return term.Page{}, config.NewValidationError("url", err.Error())
	}
	page.URL = raw
	page.Path = u.Path
	return page, nil
}

func (a *App) embedCommand() *cli.Command {
	return &cli.Command{
		Name:  "embed",
		Usage: "Print the script tag for a host page",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "origin", Usage: "public origin of the widget service (default: public_origin)"},
			&cli.StringFlag{Name: flagRepo, Usage: "repository as `OWNER/NAME`"},
			&cli.StringFlag{Name: flagRepoID, Usage: "repository node id"},
			&cli.StringFlag{Name: flagCategory, Usage: "discussion category name"},
			&cli.StringFlag{Name: flagCategoryID, Usage: "category node id"},
			&cli.StringFlag{Name: "mapping", Value: string(term.StrategyPathname), Usage: "term mapping strategy"},
			&cli.StringFlag{Name: flagTerm, Usage: "explicit term for the specific and number mappings"},
			&cli.StringFlag{Name: "theme", Value: config.DefaultTheme, Usage: "theme name or stylesheet URL"},
			&cli.BoolFlag{Name: flagReactions, Value: true, Usage: "show reactions"},
			&cli.BoolFlag{Name: "emit-metadata", Usage: "emit discussion metadata to the host"},
			&cli.BoolFlag{Name: flagStrict, Usage: "match discussions by term hash only"},
		},
		Action: func(c *cli.Context) error {
			origin := strings.TrimSpace(c.String("origin"))
			if origin == "" {
				cfg, err := a.loadConfig(c)
				if err != nil {
					return err
				}
				origin = cfg.PublicOrigin
			}
			if _, err := embed.Origin(origin); err != nil {
				return config.NewValidationError("origin", "an absolute http(s) origin is required")
			}

			attrs, err := embedAttrs(c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, embed.Snippet(origin, attrs))
			return err
		},
	}
}

func embedAttrs(c *cli.Context) (map[string]string, error) {
	w := config.Widget{Repo: c.String(flagRepo)}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	strategy, err := term.ParseStrategy(c.String("mapping"))
	if err != nil {
		return nil, err
	}
	if strategy.Explicit() && strings.TrimSpace(c.String(flagTerm)) == "" {
		return nil, config.NewValidationError(flagTerm, "required by the "+string(strategy)+" mapping")
	}

	attrs := map[string]string{
		config.ParamRepo:  w.Repo,
		embed.AttrMapping: string(strategy),
		config.ParamTheme: c.String("theme"),
	}
	set := func(key, value string) {
		if value != "" {
			attrs[key] = value
		}
	}
	flag := func(key string, on bool) {
		if on {
			attrs[key] = "1"
		} else {
			attrs[key] = "0"
		}
	}
	set(config.ParamRepoID, c.String(flagRepoID))
	set(config.ParamCategory, c.String(flagCategory))
	set(config.ParamCategoryID, c.String(flagCategoryID))
	set(embed.AttrTerm, c.String(flagTerm))
	flag(config.ParamReactionsEnabled, c.Bool(flagReactions))
	flag(config.ParamEmitMetadata, c.Bool("emit-metadata"))
	flag(config.ParamStrict, c.Bool(flagStrict))
	return attrs, nil
}

func (a *App) showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the discussion thread of a term",
		Flags: threadFlags(),
		Action: func(c *cli.Context) error {
			run, err := a.openThread(c)
			if err != nil {
				return err
			}
			d, err := run.store.Load(c.Context, run.readToken())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, FormatThread(thread.Decorate(d, a.now(), true, run.authors())))
			return err
		},
	}
}

func (a *App) postCommand() *cli.Command {
	flags := append(threadFlags(),
		&cli.StringFlag{Name: "text", Usage: "comment text; positional arguments are used when omitted"},
		&cli.StringFlag{Name: flagNickname, Usage: "post as a guest under this nickname"},
		&cli.StringFlag{Name: flagWebsite, Usage: "guest website link"},
		&cli.StringFlag{Name: flagEmail, Usage: "guest contact address"},
		&cli.StringFlag{Name: flagReplyTo, Usage: "comment id to reply to"},
		&cli.StringFlag{Name: flagReplyAuthor, Usage: "display name of the comment replied to"},
	)
	return &cli.Command{
		Name:      "post",
		Usage:     "Post a comment or reply, creating the discussion when needed",
		ArgsUsage: "[TEXT...]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			run, err := a.openThread(c)
			if err != nil {
				return err
			}

			draft := composer.Draft{Text: c.String("text"), Guest: run.args.Guest}
			if draft.Text == "" {
				draft.Text = strings.Join(c.Args().Slice(), " ")
			}
			if id := c.String(flagReplyTo); id != "" {
				draft.ReplyTo = &composer.ReplyTarget{ID: id, Author: c.String(flagReplyAuthor)}
			}

			cooldownStore, err := a.cooldownStore(c)
			if err != nil {
				return err
			}
			pipeline := composer.New(run.backend, composer.Options{
				Cooldown:    composer.NewGate(cooldownStore, run.cfg.Composer.Cooldown, a.now),
				NicknameMax: run.cfg.Composer.NicknameMax,
				Logger:      a.logger(run.cfg),
			})

			res, err := pipeline.Submit(c.Context, run.store, cliClientKey, composer.Credentials{
				User:  run.args.Token,
				Guest: run.cfg.GitHub.GuestToken,
			}, draft)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, FormatPost(res))
			return err
		},
	}
}

func (a *App) reactCommand() *cli.Command {
	flags := append(threadFlags(),
		&cli.StringFlag{Name: "comment", Usage: "comment id"},
		&cli.StringFlag{Name: "kind", Usage: "reaction kind or emoji, e.g. HEART"},
	)
	return &cli.Command{
		Name:  "react",
		Usage: "Toggle a reaction on a comment, as yourself or the shared guest account",
		Flags: flags,
		Action: func(c *cli.Context) error {
			run, err := a.openThread(c)
			if err != nil {
				return err
			}
			token := run.readToken()
			if token == "" {
				return fmt.Errorf("react: %w", composer.ErrAuthRequired)
			}
			kind, err := reaction.ParseKind(c.String("kind"))
			if err != nil {
				return err
			}
			if _, err := run.store.Load(c.Context, token); err != nil {
				return err
			}
			commentID := c.String("comment")
			comment, ok := run.store.Comment(commentID)
			if !ok {
				return config.NewValidationError("comment", fmt.Sprintf("comment %q is not in this discussion", commentID))
			}

			res, err := reaction.NewAggregator(run.backend).Toggle(c.Context, token, commentID, comment.ReactionGroups, kind)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, FormatReaction(res))
			return err
		},
	}
}

func (a *App) summarizeCommand() *cli.Command {
	flags := append(threadFlags(),
		&cli.StringFlag{Name: "suggest", Usage: "suggest a reply continuing this partial text instead of summarizing"},
	)
	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize a thread or suggest a reply",
		Flags: flags,
		Action: func(c *cli.Context) error {
			run, err := a.openThread(c)
			if err != nil {
				return err
			}
			d, err := run.store.Load(c.Context, run.readToken())
			if err != nil {
				return err
			}
			gen, err := a.generatorFactory.New(c.Context, run.cfg)
			if err != nil {
				return fmt.Errorf("build summary generator: %w", err)
			}
			svc := summary.NewService(gen, summary.Options{Logger: a.logger(run.cfg), Authors: run.authors()})

			var comments []gh.Comment
			if d != nil {
				comments = d.Comments
			}
			var res summary.Result
			if c.IsSet("suggest") {
				res = svc.Suggest(c.Context, comments, c.String("suggest"))
			} else {
				res = svc.Summarize(c.Context, comments)
			}
			_, err = fmt.Fprintln(a.stdout, res.Text)
			return err
		},
	}
}

type threadRun struct {
	cfg     config.Config
	args    Args
	backend gh.Backend
	store   *thread.Store
}

// readToken prefers the caller's own credential over the shared guest one.
func (r threadRun) readToken() string {
	if r.args.Token != "" {
		return r.args.Token
	}
	return r.cfg.GitHub.GuestToken
}

// authors trusts guest markers only from the configured guest account.
func (r threadRun) authors() guest.Resolver {
	return guest.Resolver{PosterLogin: r.cfg.GitHub.GuestLogin}
}

// openThread loads config and validates the thread flags shared by show,
// post, react and summarize.
func (a *App) openThread(c *cli.Context) (threadRun, error) {
	cfg, err := a.loadConfig(c)
	if err != nil {
		return threadRun{}, err
	}
	args, err := ValidateArgs(c)
	if err != nil {
		return threadRun{}, err
	}
	backend, err := a.backend(cfg)
	if err != nil {
		return threadRun{}, err
	}
	return threadRun{cfg: cfg, args: args, backend: backend, store: thread.NewStore(backend, args.Widget)}, nil
}
