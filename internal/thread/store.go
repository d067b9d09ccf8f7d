// Package thread owns the in-memory view of one discussion: loading it by
// term, creating it lazily, and rebuilding it from the backend after every
// mutation.
package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
)

// ErrMissingCategory indicates a discussion cannot be created because the
// repository or category identifiers are absent from the configuration.
var ErrMissingCategory = errors.New("cannot create discussion: missing repoId or categoryId in configuration")

// Backend is the subset of the discussion backend the store needs.
type Backend interface {
	FindDiscussion(ctx context.Context, token string, q gh.DiscussionQuery) (*gh.Discussion, error)
	CreateDiscussion(ctx context.Context, token string, in gh.CreateDiscussionInput) (*gh.Discussion, error)
}

// Store holds the discussion for one widget configuration. A nil discussion
// is the empty state: nothing has been posted for the term yet.
type Store struct {
	backend Backend
	widget  config.Widget

	mu         sync.RWMutex
	discussion *gh.Discussion
	loaded     bool
}

// NewStore constructs a store for widget.
func NewStore(backend Backend, widget config.Widget) *Store {
	return &Store{backend: backend, widget: widget}
}

// Widget returns the configuration the store was built with.
func (s *Store) Widget() config.Widget {
	return s.widget
}

// Discussion returns the current discussion, nil when none exists.
func (s *Store) Discussion() *gh.Discussion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discussion
}

// Loaded reports whether the store has fetched or created its discussion at
// least once. Before that, a nil Discussion means "unknown", not "empty".
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load fetches the discussion for the configured term and replaces the held
// tree wholesale. A missing discussion is not an error: Load returns nil.
func (s *Store) Load(ctx context.Context, token string) (*gh.Discussion, error) {
	if token == "" {
		return nil, config.NewValidationError("credential", "no token available; set GITHUB_TOKEN for guest access or sign in")
	}
	if err := s.widget.Validate(); err != nil {
		return nil, err
	}
	q, err := s.query()
	if err != nil {
		return nil, err
	}

	d, err := s.backend.FindDiscussion(ctx, token, q)
	if err != nil {
		if gh.IsNotFound(err) {
			s.replace(nil)
			return nil, nil
		}
		return nil, fmt.Errorf("load discussion: %w", err)
	}
	s.replace(d)
	return d, nil
}

// Reload is Load after a mutation.
func (s *Store) Reload(ctx context.Context, token string) (*gh.Discussion, error) {
	return s.Load(ctx, token)
}

// Create creates the discussion for the configured term and substitutes it
// locally, so callers can attach comments before the next reload.
func (s *Store) Create(ctx context.Context, token string) (*gh.Discussion, error) {
	if !s.widget.CanCreate() {
		return nil, ErrMissingCategory
	}

	d, err := s.backend.CreateDiscussion(ctx, token, gh.CreateDiscussionInput{
		RepositoryID: s.widget.RepoID,
		CategoryID:   s.widget.CategoryID,
		Term:         s.widget.Term,
		PageURL:      s.widget.PageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create discussion: %w", err)
	}
	if d == nil || d.ID == "" {
		return nil, fmt.Errorf("create discussion: backend returned no discussion")
	}
	s.replace(d)
	return d, nil
}

// SetReactions patches one comment's reaction groups in place. It is the
// provisional half of a reaction toggle; the next reload supersedes it.
func (s *Store) SetReactions(commentID string, groups []gh.ReactionGroup) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discussion == nil {
		return false
	}

	updated := cloneDiscussion(s.discussion)
	c := findComment(updated.Comments, commentID)
	if c == nil {
		return false
	}
	c.ReactionGroups = groups
	s.discussion = updated
	return true
}

// Comment returns the comment or reply with id.
func (s *Store) Comment(id string) (gh.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.discussion == nil {
		return gh.Comment{}, false
	}
	c := findComment(s.discussion.Comments, id)
	if c == nil {
		return gh.Comment{}, false
	}
	return *c, true
}

// ReplyParent maps a reply target to the top-level comment replies attach
// to. Replying to a reply threads under that reply's parent.
func (s *Store) ReplyParent(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.discussion == nil {
		return "", false
	}
	for _, top := range s.discussion.Comments {
		if top.ID == id {
			return top.ID, true
		}
		if findComment(top.Replies, id) != nil {
			return top.ID, true
		}
	}
	return "", false
}

func (s *Store) replace(d *gh.Discussion) {
	s.mu.Lock()
	s.discussion = d
	s.loaded = true
	s.mu.Unlock()
}

func (s *Store) query() (gh.DiscussionQuery, error) {
	repo, err := s.widget.RepoRef()
	if err != nil {
		return gh.DiscussionQuery{}, err
	}
	return gh.DiscussionQuery{
		Owner:    repo.Owner,
		Repo:     repo.Name,
		Category: s.widget.Category,
		Term:     s.widget.Term,
		Number:   s.widget.Number,
		Strict:   s.widget.Strict,
	}, nil
}

func findComment(comments []gh.Comment, id string) *gh.Comment {
	for i := range comments {
		if comments[i].ID == id {
			return &comments[i]
		}
		if found := findComment(comments[i].Replies, id); found != nil {
			return found
		}
	}
	return nil
}

func cloneDiscussion(d *gh.Discussion) *gh.Discussion {
	out := *d
	out.Comments = cloneComments(d.Comments)
	return &out
}

func cloneComments(in []gh.Comment) []gh.Comment {
	if in == nil {
		return nil
	}
	out := make([]gh.Comment, len(in))
	for i, c := range in {
		c.ReactionGroups = append([]gh.ReactionGroup(nil), c.ReactionGroups...)
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}
