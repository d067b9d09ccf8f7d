package thread

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
)

type fakeBackend struct {
	discussion *gh.Discussion
	findErr    error
	createErr  error
	queries    []gh.DiscussionQuery
	creates    []gh.CreateDiscussionInput
}

func (f *fakeBackend) FindDiscussion(_ context.Context, _ string, q gh.DiscussionQuery) (*gh.Discussion, error) {
	f.queries = append(f.queries, q)
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.discussion == nil {
		return nil, fmt.Errorf("search: %w", gh.ErrResourceNotFound)
	}
	return f.discussion, nil
}

func (f *fakeBackend) CreateDiscussion(_ context.Context, _ string, in gh.CreateDiscussionInput) (*gh.Discussion, error) {
	f.creates = append(f.creates, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &gh.Discussion{ID: "D_new", Number: 1, Title: in.Term}, nil
}

func testWidget() config.Widget {
	return config.Widget{
		Repo:       "octo/blog",
		RepoID:     "R_1",
		Category:   "Comments",
		CategoryID: "DIC_1",
		Term:       "t1",
		Strict:     true,
		PageURL:    "https://example.com/t1",
	}
}

func TestStoreLoadMissingDiscussionIsEmptyState(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	store := NewStore(backend, testWidget())
	if store.Loaded() {
		t.Fatal("new store reports loaded")
	}

	d, err := store.Load(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Load error = %v, want nil", err)
	}
	if d != nil || store.Discussion() != nil {
		t.Fatalf("Load = %+v, want nil discussion", d)
	}
	if !store.Loaded() {
		t.Fatal("empty state after Load should count as loaded")
	}

	want := []gh.DiscussionQuery{{Owner: "octo", Repo: "blog", Category: "Comments", Term: "t1", Strict: true}}
	if diff := cmp.Diff(want, backend.queries); diff != "" {
		t.Fatalf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name   string
		widget config.Widget
		token  string
		field  string
	}{
		{name: "no credential", widget: testWidget(), token: "", field: "credential"},
		{name: "no repo", widget: config.Widget{Term: "t"}, token: "tok", field: "repo"},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			backend := &fakeBackend{}
			_, err := NewStore(backend, tc.widget).Load(context.Background(), tc.token)
			var vErr *config.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tc.field {
				t.Fatalf("Load error = %v, want ValidationError on %s", err, tc.field)
			}
			if len(backend.queries) != 0 {
				t.Fatal("backend was queried despite a config error")
			}
		})
	}
}

func TestStoreLoadSurfacesBackendErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("network down")
	store := NewStore(&fakeBackend{findErr: boom}, testWidget())
	if _, err := store.Load(context.Background(), "tok"); !errors.Is(err, boom) {
		t.Fatalf("Load error = %v, want boom", err)
	}
}

func TestStoreCreateSubstitutesDiscussion(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	store := NewStore(backend, testWidget())

	d, err := store.Create(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Create error = %v, want nil", err)
	}
	if store.Discussion() != d || d.ID != "D_new" {
		t.Fatalf("store discussion = %+v, want created D_new", store.Discussion())
	}

	want := []gh.CreateDiscussionInput{{RepositoryID: "R_1", CategoryID: "DIC_1", Term: "t1", PageURL: "https://example.com/t1"}}
	if diff := cmp.Diff(want, backend.creates); diff != "" {
		t.Fatalf("creates mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreCreateRequiresCategory(t *testing.T) {
	t.Parallel()

	w := testWidget()
	w.CategoryID = ""
	backend := &fakeBackend{}
	if _, err := NewStore(backend, w).Create(context.Background(), "tok"); !errors.Is(err, ErrMissingCategory) {
		t.Fatalf("Create error = %v, want ErrMissingCategory", err)
	}
	if len(backend.creates) != 0 {
		t.Fatal("backend create was called without category")
	}
}

func TestStoreSetReactionsAndReplyParent(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{discussion: &gh.Discussion{
		ID: "D_1",
		Comments: []gh.Comment{
			{ID: "C1", Replies: []gh.Comment{{ID: "R1"}}},
			{ID: "C2"},
		},
	}}
	store := NewStore(backend, testWidget())
	if _, err := store.Load(context.Background(), "tok"); err != nil {
		t.Fatalf("Load error = %v, want nil", err)
	}

	groups := []gh.ReactionGroup{{Kind: gh.ReactionHeart, Count: 1, ViewerHasReacted: true}}
	if !store.SetReactions("R1", groups) {
		t.Fatal("SetReactions(R1) = false, want true")
	}
	reply, ok := store.Comment("R1")
	if !ok || len(reply.ReactionGroups) != 1 {
		t.Fatalf("Comment(R1) = %+v, want patched groups", reply)
	}
	if len(backend.discussion.Comments[0].Replies[0].ReactionGroups) != 0 {
		t.Fatal("SetReactions mutated the backend's tree")
	}
	if store.SetReactions("missing", groups) {
		t.Fatal("SetReactions(missing) = true, want false")
	}

	tcs := map[string]string{"C1": "C1", "R1": "C1", "C2": "C2"}
	for id, want := range tcs {
		got, ok := store.ReplyParent(id)
		if !ok || got != want {
			t.Fatalf("ReplyParent(%s) = (%q, %v), want %q", id, got, ok, want)
		}
	}
	if _, ok := store.ReplyParent("nope"); ok {
		t.Fatal("ReplyParent(nope) = ok, want not found")
	}
}
