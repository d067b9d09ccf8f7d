package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/metrics"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/summary"
)

const (
	testGuestToken = "guest-token"
	testUserToken  = "user-token"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var errUpstream = errors.New("http status 500: upstream timeout")

type fakeWebBackend struct {
	mu         sync.Mutex
	discussion *gh.Discussion
	findErr    error
	calls      []string
	tokens     []string
	nextID     int
}

func (f *fakeWebBackend) record(call, token string) {
	f.calls = append(f.calls, call)
	f.tokens = append(f.tokens, token)
}

func (f *fakeWebBackend) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), append([]string(nil), f.tokens...)
}

func (f *fakeWebBackend) FindDiscussion(_ context.Context, token string, _ gh.DiscussionQuery) (*gh.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("find", token)
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.discussion == nil {
		return nil, gh.ErrResourceNotFound
	}
	clone := *f.discussion
	clone.Comments = make([]gh.Comment, len(f.discussion.Comments))
	for i, c := range f.discussion.Comments {
		c.ReactionGroups = append([]gh.ReactionGroup(nil), c.ReactionGroups...)
		clone.Comments[i] = c
	}
	return &clone, nil
}

func (f *fakeWebBackend) CreateDiscussion(_ context.Context, token string, in gh.CreateDiscussionInput) (*gh.Discussion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create:"+in.Term, token)
	f.discussion = &gh.Discussion{ID: "D_1", Number: 1, Title: in.Term, URL: "https://github.com/octo/blog/discussions/1"}
	clone := *f.discussion
	return &clone, nil
}

func (f *fakeWebBackend) AddComment(_ context.Context, token, discussionID, body string) (gh.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("comment:"+discussionID, token)
	return f.appendComment(body), nil
}

func (f *fakeWebBackend) AddReply(_ context.Context, token, discussionID, replyToID, body string) (gh.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reply:"+discussionID+":"+replyToID, token)
	f.nextID++
	c := gh.Comment{ID: fmt.Sprintf("R_%d", f.nextID), Author: &gh.User{Login: "octocat"}, Body: body, CreatedAt: testNow}
	for i := range f.discussion.Comments {
		if f.discussion.Comments[i].ID == replyToID {
			f.discussion.Comments[i].Replies = append(f.discussion.Comments[i].Replies, c)
		}
	}
	return c, nil
}

func (f *fakeWebBackend) appendComment(body string) gh.Comment {
	f.nextID++
	c := gh.Comment{
		ID:        fmt.Sprintf("C_%d", f.nextID),
		Author:    &gh.User{Login: "guescus-bot"},
		Body:      body,
		CreatedAt: testNow,
		URL:       fmt.Sprintf("https://github.com/octo/blog/discussions/1#c%d", f.nextID),
	}
	f.discussion.Comments = append(f.discussion.Comments, c)
	f.discussion.TotalCount++
	return c
}

func (f *fakeWebBackend) ToggleReaction(_ context.Context, token, subjectID string, kind gh.ReactionKind, remove bool) (gh.ReactionGroup, error) {
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

func (f *fakeWebBackend) Viewer(_ context.Context, token string) (gh.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("viewer", token)
	if token == testGuestToken {
		return gh.User{Login: "guescus-bot"}, nil
	}
	if token != testUserToken {
		return gh.User{}, errors.New("http status 401: Bad credentials")
	}
	return gh.User{Login: "octocat", AvatarURL: "https://avatars.example/octocat.png", URL: "https://github.com/octocat"}, nil
}

type fakeWebGenerator struct {
	out string
	err error
}

func (f *fakeWebGenerator) Generate(context.Context, string) (string, error) {
	return f.out, f.err
}

type testServer struct {
	handler  http.Handler
	backend  *fakeWebBackend
	sessions *session.Manager
	registry *prometheus.Registry
	cookies  []*http.Cookie
}

type testOptions struct {
	guestToken string
	cooldown   time.Duration
	guestRate  config.GuestRateConfig
	generator  summary.Generator
	discussion *gh.Discussion
}

func newTestServer(t *testing.T, opts testOptions) *testServer {
	t.Helper()

	backend := &fakeWebBackend{discussion: opts.discussion}
	registry := prometheus.NewRegistry()
	recorder, err := metrics.New(registry)
	if err != nil {
		t.Fatalf("metrics.New() error = %v", err)
	}

	var gate *composer.Gate
	if opts.cooldown > 0 {
		gate = composer.NewGate(composer.NewMemoryCooldownStore(opts.cooldown), opts.cooldown, func() time.Time { return testNow })
	}
	sessions := session.NewManager(backend, time.Hour)

	var svc *summary.Service
	if opts.generator != nil {
		svc = summary.NewService(opts.generator, summary.Options{OnFallback: recorder.SummaryFallback})
	}

	tmpl, err := loadTemplate()
	if err != nil {
		t.Fatalf("loadTemplate() error = %v", err)
	}

	handler := newWebHandler(webDeps{
		backend:    backend,
		pipeline:   composer.New(backend, composer.Options{Cooldown: gate, Logger: zerolog.Nop()}),
		sessions:   sessions,
		summary:    svc,
		limiter:    newGuestLimiter(opts.guestRate),
		metrics:    recorder,
		gatherer:   registry,
		tmpl:       tmpl,
		guestToken: opts.guestToken,
		authors:    guest.Resolver{PosterLogin: "guescus-bot"},
		logger:     zerolog.Nop(),
		now:        func() time.Time { return testNow },
	})

	return &testServer{handler: handler, backend: backend, sessions: sessions, registry: registry}
}

// do sends a request carrying the cookies collected so far and keeps any
// cookies the response sets.
func (s *testServer) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.keepCookies(rec.Result().Cookies())
	return rec
}

func (s *testServer) keepCookies(set []*http.Cookie) {
	for _, c := range set {
		kept := s.cookies[:0]
		for _, old := range s.cookies {
			if old.Name != c.Name {
				kept = append(kept, old)
			}
		}
		s.cookies = kept
		if c.MaxAge >= 0 && c.Value != "" {
			s.cookies = append(s.cookies, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
}

func (s *testServer) signIn(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/session", url.Values{fieldToken: {testUserToken}})
	if rec.Code != http.StatusOK {
		t.Fatalf("sign in status = %d, body=%q", rec.Code, rec.Body.String())
	}
}

func widgetQuery(extra ...string) string {
	q := url.Values{}
	q.Set(config.ParamRepo, "octo/blog")
	q.Set(config.ParamRepoID, "R_1")
	q.Set(config.ParamCategoryID, "DIC_1")
	q.Set(config.ParamCategory, "Announcements")
	q.Set(config.ParamTerm, "posts/hello")
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q.Encode()
}

func guestForm(text string) url.Values {
	return url.Values{
		fieldText:     {text},
		fieldNickname: {"Alice"},
		fieldWebsite:  {"https://alice.dev"},
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func assertMetric(t *testing.T, s *testServer, name, expected string) {
	t.Helper()
	if err := testutil.GatherAndCompare(s.registry, strings.NewReader(expected), name); err != nil {
		t.Fatalf("metric %s mismatch: %v", name, err)
	}
}

func assertSubmissions(t *testing.T, s *testServer, series ...string) {
	t.Helper()
	expected := "# HELP guescus_submissions_total Comment submissions by outcome and author kind.\n" +
		"# TYPE guescus_submissions_total counter\n" +
		strings.Join(series, "\n") + "\n"
	assertMetric(t, s, "guescus_submissions_total", expected)
}
