package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultMaxRetries is the default retry count for GitHub read requests.
	DefaultMaxRetries = 3
	// DefaultInitialBackoff is the first retry delay.
	DefaultInitialBackoff = 2 * time.Second
)

// ErrResourceNotFound indicates the requested GitHub resource does not exist.
var ErrResourceNotFound = errors.New("github resource not found")

// ErrEmptyToken indicates a call was issued without a credential.
var ErrEmptyToken = errors.New("github token is empty")

// Backend is the discussion storage contract. Every call carries the credential
// it runs under, either the shared guest credential or a signed-in user's token.
type Backend interface {
	FindDiscussion(ctx context.Context, token string, q DiscussionQuery) (*Discussion, error)
	CreateDiscussion(ctx context.Context, token string, in CreateDiscussionInput) (*Discussion, error)
	AddComment(ctx context.Context, token, discussionID, body string) (Comment, error)
	AddReply(ctx context.Context, token, discussionID, replyToID, body string) (Comment, error)
	ToggleReaction(ctx context.Context, token, subjectID string, kind ReactionKind, remove bool) (ReactionGroup, error)
	Viewer(ctx context.Context, token string) (User, error)
}

// Config configures the GitHub backend client.
type Config struct {
	HTTPClient     *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	RESTBaseURL    string
	GraphQLURL     string
}

// WithDefaults fills missing optional values with package defaults.
func (c Config) WithDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	return c
}

// NewBackend constructs a Backend over the GitHub GraphQL and REST APIs.
func NewBackend(cfg Config) (Backend, error) {
	cfg = cfg.WithDefaults()
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid MaxRetries %d", cfg.MaxRetries)
	}
	if cfg.InitialBackoff < 0 {
		return nil, fmt.Errorf("invalid InitialBackoff %s", cfg.InitialBackoff)
	}

	restClient, err := newRESTClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create REST client: %w", err)
	}

	return &client{
		cfg:  cfg,
		rest: restClient,
		gql:  newGraphQLClient(cfg),
	}, nil
}
