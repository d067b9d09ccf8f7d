package github

import (
	"context"
	"fmt"
)

func (c *client) createDiscussion(ctx context.Context, token string, in CreateDiscussionInput) (*Discussion, error) {
	query := `mutation CreateDiscussion($input:CreateDiscussionInput!) {
  createDiscussion(input:$input) {
    discussion { id number title url }
  }
}`

	var payload struct {
		CreateDiscussion struct {
			Discussion *struct {
				ID     string `json:"id"`
				Number int    `json:"number"`
				Title  string `json:"title"`
				URL    string `json:"url"`
			} `json:"discussion"`
		} `json:"createDiscussion"`
	}
	err := c.gql.Query(ctx, token, query, map[string]any{
		"input": map[string]any{
			"repositoryId": in.RepositoryID,
			"categoryId":   in.CategoryID,
			"title":        in.Term,
			"body":         DiscussionBody(in.PageURL, in.Term),
		},
	}, &payload)
	if err != nil {
		return nil, err
	}

	created := payload.CreateDiscussion.Discussion
	if created == nil || created.ID == "" {
		return nil, fmt.Errorf("create discussion response is missing the discussion")
	}
	return &Discussion{
		ID:     created.ID,
		Number: created.Number,
		Title:  created.Title,
		URL:    created.URL,
	}, nil
}

func (c *client) addDiscussionComment(ctx context.Context, token, discussionID, replyToID, body string) (Comment, error) {
	query := `mutation AddDiscussionComment($input:AddDiscussionCommentInput!) {
  addDiscussionComment(input:$input) {
    comment {
      ` + commentFields + `
    }
  }
}`

	input := map[string]any{
		"discussionId": discussionID,
		"body":         body,
	}
	if replyToID != "" {
		input["replyToId"] = replyToID
	}

	var payload struct {
		AddDiscussionComment struct {
			Comment *commentPayload `json:"comment"`
		} `json:"addDiscussionComment"`
	}
	if err := c.gql.Query(ctx, token, query, map[string]any{"input": input}, &payload); err != nil {
		return Comment{}, err
	}
	if payload.AddDiscussionComment.Comment == nil {
		return Comment{}, fmt.Errorf("add comment response is missing the comment")
	}
	return mapComment(*payload.AddDiscussionComment.Comment), nil
}

type reactionSubjectPayload struct {
	Subject struct {
		ReactionGroups []reactionGroupPayload `json:"reactionGroups"`
	} `json:"subject"`
}

func (c *client) toggleReaction(ctx context.Context, token, subjectID string, kind ReactionKind, remove bool) (ReactionGroup, error) {
	field := "addReaction"
	inputType := "AddReactionInput"
	if remove {
		field = "removeReaction"
		inputType = "RemoveReactionInput"
	}

	query := fmt.Sprintf(`mutation ToggleReaction($input:%s!) {
  %s(input:$input) {
    subject {
      ... on DiscussionComment {
        reactionGroups { content users { totalCount } viewerHasReacted }
      }
    }
  }
}`, inputType, field)

	var payload struct {
		AddReaction    *reactionSubjectPayload `json:"addReaction"`
		RemoveReaction *reactionSubjectPayload `json:"removeReaction"`
	}
	err := c.gql.Query(ctx, token, query, map[string]any{
		"input": map[string]any{
			"subjectId": subjectID,
			"content":   string(kind),
		},
	}, &payload)
	if err != nil {
		return ReactionGroup{}, err
	}

	subject := payload.AddReaction
	if remove {
		subject = payload.RemoveReaction
	}
	if subject == nil {
		return ReactionGroup{}, fmt.Errorf("%s response is missing the subject", field)
	}

	for _, group := range mapReactionGroups(subject.Subject.ReactionGroups) {
		if group.Kind == kind {
			return group, nil
		}
	}
	return ReactionGroup{Kind: kind}, nil
}
