// Package cli implements the guescus operator command line: resolve terms,
// render embed snippets, and read or write discussion threads.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/logging"
	"github.com/johnqtcg/guescus/internal/summary"
)

// Runner executes the CLI application flow.
type Runner interface {
	Run(ctx context.Context, args []string) int
}

// BackendFactory creates discussion backends from runtime config.
type BackendFactory interface {
	New(cfg config.Config) (gh.Backend, error)
}

// GeneratorFactory creates the summary generator from runtime config. A nil
// generator disables summarization.
type GeneratorFactory interface {
	New(ctx context.Context, cfg config.Config) (summary.Generator, error)
}

// AppDeps defines dependencies for CLI app construction.
type AppDeps struct {
	Loader           config.Loader
	BackendFactory   BackendFactory
	GeneratorFactory GeneratorFactory
	// Cooldown overrides the cooldown file store, mainly for tests.
	Cooldown composer.CooldownStore
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
}

// App holds the wired dependencies behind the urfave/cli command tree.
type App struct {
	loader           config.Loader
	backendFactory   BackendFactory
	generatorFactory GeneratorFactory
	cooldown         composer.CooldownStore
	now              func() time.Time
	stdout           io.Writer
	stderr           io.Writer
}

// NewApp creates a CLI runner with injected dependencies.
func NewApp(deps AppDeps) Runner {
	app := &App{
		loader:           deps.Loader,
		backendFactory:   deps.BackendFactory,
		generatorFactory: deps.GeneratorFactory,
		cooldown:         deps.Cooldown,
		now:              deps.Now,
		stdout:           deps.Stdout,
		stderr:           deps.Stderr,
	}
	app.setDefaults()
	return app
}

func (a *App) setDefaults() {
	if a.loader == nil {
		a.loader = config.NewLoader()
	}
	if a.backendFactory == nil {
		a.backendFactory = defaultBackendFactory{}
	}
	if a.generatorFactory == nil {
		a.generatorFactory = defaultGeneratorFactory{}
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
}

// Run executes the command line and returns an exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	err := a.command().RunContext(ctx, append([]string{"guescus"}, args...))
	if err != nil {
		writeErrorLine(a.stderr, err)
	}
	return ResolveExitCode(err)
}

func (a *App) command() *cli.App {
	commands := []*cli.Command{
		a.termCommand(),
		a.embedCommand(),
		a.showCommand(),
		a.postCommand(),
		a.reactCommand(),
		a.summarizeCommand(),
	}
	for _, cmd := range commands {
		cmd.OnUsageError = usageError
	}

	return &cli.App{
		Name:      "guescus",
		Usage:     "GitHub Discussions comments for any page, with guest posting",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagToken,
				Usage:   "personal GitHub token; omit to post as a guest",
				EnvVars: []string{config.EnvPrefix + "TOKEN"},
			},
			&cli.StringFlag{
				Name:  flagCooldown,
				Usage: "file holding the last post time (default: user config dir)",
			},
		},
		Commands:       commands,
		OnUsageError:   usageError,
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return config.NewValidationError("arguments", err.Error())
}

func (a *App) loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := a.loader.Load(c.String(flagConfig))
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (a *App) logger(cfg config.Config) zerolog.Logger {
	logger, err := logging.New(cfg.Log.Level, logging.FormatConsole, a.stderr)
	if err != nil {
		return zerolog.Nop()
	}
	return logger
}

func (a *App) backend(cfg config.Config) (gh.Backend, error) {
	backend, err := a.backendFactory.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("build backend: %w", err)
	}
	return backend, nil
}

func (a *App) cooldownStore(c *cli.Context) (composer.CooldownStore, error) {
	if a.cooldown != nil {
		return a.cooldown, nil
	}
	path := c.String(flagCooldown)
	if path == "" {
		var err error
		if path, err = composer.DefaultCooldownPath(); err != nil {
			return nil, fmt.Errorf("locate cooldown file: %w", err)
		}
	}
	return composer.NewFileCooldownStore(path), nil
}

type defaultBackendFactory struct{}

func (f defaultBackendFactory) New(cfg config.Config) (gh.Backend, error) {
	_ = f
	backend, err := gh.NewBackend(gh.Config{
		MaxRetries:  cfg.GitHub.MaxRetries,
		GraphQLURL:  cfg.GitHub.GraphQLURL,
		RESTBaseURL: cfg.GitHub.RESTBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return backend, nil
}

type defaultGeneratorFactory struct{}

func (f defaultGeneratorFactory) New(ctx context.Context, cfg config.Config) (summary.Generator, error) {
	_ = f
	return summary.NewGenerator(ctx, cfg.Summary)
}

func writeErrorLine(w io.Writer, err error) {
	if _, writeErr := fmt.Fprintf(w, "error: %v\n", err); writeErr != nil {
		return
	}
}
