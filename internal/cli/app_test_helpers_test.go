package cli

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/summary"
)

type fakeLoader struct {
	cfg     config.Config
	err     error
	gotPath string
}

func (f *fakeLoader) Load(path string) (config.Config, error) {
	f.gotPath = path
	if f.err != nil {
		return config.Config{}, f.err
	}
	return f.cfg, nil
}

type fakeBackend struct {
	mu         sync.Mutex
	discussion *gh.Discussion
	calls      []string
	tokens     []string
	nextID     int
	clock      *time.Time
}

func (f *fakeBackend) record(call, token string) {
	f.calls = append(f.calls, call)
	f.tokens = append(f.tokens, token)
}

func (f *fakeBackend) FindDiscussion(_ context.Context, token string, _ gh.DiscussionQuery) (*gh.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("find", token)
	if f.discussion == nil {
		return nil, gh.ErrResourceNotFound
	}
	clone := *f.discussion
	clone.Comments = append([]gh.Comment(nil), f.discussion.Comments...)
	return &clone, nil
}

func (f *fakeBackend) CreateDiscussion(_ context.Context, token string, in gh.CreateDiscussionInput) (*gh.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create:"+in.Term, token)
	f.discussion = &gh.Discussion{ID: "D_1", Number: 1, Title: in.Term, URL: "https://github.com/octo/blog/discussions/1"}
	clone := *f.discussion
	return &clone, nil
}

func (f *fakeBackend) AddComment(_ context.Context, token, discussionID, body string) (gh.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("comment:"+discussionID, token)
	return f.appendComment(body), nil
}

func (f *fakeBackend) AddReply(_ context.Context, token, discussionID, replyToID, body string) (gh.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reply:"+discussionID+":"+replyToID, token)
	return f.appendComment(body), nil
}

func (f *fakeBackend) appendComment(body string) gh.Comment {
	f.nextID++
	c := gh.Comment{
		ID:     fmt.Sprintf("C_%d", f.nextID),
		Author: &gh.User{Login: "guescus-bot"},
		Body:   body,
		URL:    fmt.Sprintf("https://github.com/octo/blog/discussions/1#c%d", f.nextID),
	}
	if f.clock != nil {
		c.CreatedAt = *f.clock
	}
	f.discussion.Comments = append(f.discussion.Comments, c)
	f.discussion.TotalCount++
	return c
}

func (f *fakeBackend) ToggleReaction(_ context.Context, token, subjectID string, kind gh.ReactionKind, remove bool) (gh.ReactionGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("react:%s:%s:remove=%v", subjectID, kind, remove), token)
	for i := range f.discussion.Comments {
		c := &f.discussion.Comments[i]
		if c.ID != subjectID {
			continue
		}
		for j := range c.ReactionGroups {
			g := &c.ReactionGroups[j]
			if g.Kind != kind {
				continue
			}
			if remove {
				g.Count--
			} else {
				g.Count++
			}
			g.ViewerHasReacted = !remove
			return *g, nil
		}
		g := gh.ReactionGroup{Kind: kind, Count: 1, ViewerHasReacted: true}
		c.ReactionGroups = append(c.ReactionGroups, g)
		return g, nil
	}
	return gh.ReactionGroup{}, gh.ErrResourceNotFound
}

func (f *fakeBackend) Viewer(_ context.Context, token string) (gh.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("viewer", token)
	return gh.User{Login: "octocat"}, nil
}

type fakeBackendFactory struct {
	backend *fakeBackend
	err     error
}

func (f *fakeBackendFactory) New(config.Config) (gh.Backend, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.backend, nil
}

type fakeGenerator struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

type fakeGeneratorFactory struct {
	gen summary.Generator
}

func (f fakeGeneratorFactory) New(context.Context, config.Config) (summary.Generator, error) {
	return f.gen, nil
}

type testApp struct {
	runner   Runner
	loader   *fakeLoader
	backend  *fakeBackend
	cooldown *composer.MemoryCooldownStore
	clock    *time.Time
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func testConfig() config.Config {
	return config.Config{
		PublicOrigin: "https://comments.example.com",
		Log:          config.LogConfig{Level: "error", Format: "json"},
		GitHub:       config.GitHubConfig{GuestToken: "guest-token", GuestLogin: "guescus-bot"},
		Composer:     config.ComposerConfig{Cooldown: 60 * time.Second, NicknameMax: 50},
	}
}

func newTestApp(cfg config.Config, gen summary.Generator) *testApp {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	ta := &testApp{
		loader:   &fakeLoader{cfg: cfg},
		backend:  &fakeBackend{clock: &now},
		cooldown: composer.NewMemoryCooldownStore(time.Hour),
		clock:    &now,
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	}
	ta.runner = NewApp(AppDeps{
		Loader:           ta.loader,
		BackendFactory:   &fakeBackendFactory{backend: ta.backend},
		GeneratorFactory: fakeGeneratorFactory{gen: gen},
		Cooldown:         ta.cooldown,
		Now:              func() time.Time { return *ta.clock },
		Stdout:           ta.stdout,
		Stderr:           ta.stderr,
	})
	return ta
}

func (ta *testApp) run(args ...string) int {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.runner.Run(context.Background(), args)
}
