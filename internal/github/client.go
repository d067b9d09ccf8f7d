package github

import (
	"context"
	"fmt"
)

type client struct {
	cfg  Config
	rest *restClient
	gql  *graphQLClient
}

func (c *client) FindDiscussion(ctx context.Context, token string, q DiscussionQuery) (*Discussion, error) {
	var (
		out *Discussion
		err error
	)
	err = doWithRetry(ctx, c.cfg.MaxRetries, c.cfg.InitialBackoff, nil, func() error {
		out, err = c.findDiscussion(ctx, token, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find discussion for term %q: %w", q.Term, err)
	}
	return out, nil
}

func (c *client) Viewer(ctx context.Context, token string) (User, error) {
	var (
		out User
		err error
	)
	err = doWithRetry(ctx, c.cfg.MaxRetries, c.cfg.InitialBackoff, nil, func() error {
		out, err = c.rest.viewer(ctx, token)
		return err
	})
	if err != nil {
		return User{}, fmt.Errorf("fetch viewer: %w", err)
	}
	return out, nil
}

// Mutations are issued once. Retrying a create or add call after an
// ambiguous failure could post the same content twice.

func (c *client) CreateDiscussion(ctx context.Context, token string, in CreateDiscussionInput) (*Discussion, error) {
	out, err := c.createDiscussion(ctx, token, in)
	if err != nil {
		return nil, fmt.Errorf("create discussion for term %q: %w", in.Term, err)
	}
	return out, nil
}

func (c *client) AddComment(ctx context.Context, token, discussionID, body string) (Comment, error) {
	out, err := c.addDiscussionComment(ctx, token, discussionID, "", body)
	if err != nil {
		return Comment{}, fmt.Errorf("add comment to discussion %q: %w", discussionID, err)
	}
	return out, nil
}

func (c *client) AddReply(ctx context.Context, token, discussionID, replyToID, body string) (Comment, error) {
	out, err := c.addDiscussionComment(ctx, token, discussionID, replyToID, body)
	if err != nil {
		return Comment{}, fmt.Errorf("add reply to comment %q: %w", replyToID, err)
	}
	return out, nil
}

func (c *client) ToggleReaction(ctx context.Context, token, subjectID string, kind ReactionKind, remove bool) (ReactionGroup, error) {
	out, err := c.toggleReaction(ctx, token, subjectID, kind, remove)
	if err != nil {
		return ReactionGroup{}, fmt.Errorf("toggle %s reaction on %q: %w", kind, subjectID, err)
	}
	return out, nil
}
