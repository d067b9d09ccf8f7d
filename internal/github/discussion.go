package github

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const searchPageSize = 20

// TermHash returns the hex SHA-1 of a term. Discussions created by the widget
// carry it in their body so strict lookups can match without relying on titles.
func TermHash(term string) string {
	sum := sha1.Sum([]byte(term))
	return hex.EncodeToString(sum[:])
}

// DiscussionBody renders the body of a discussion created for a term.
func DiscussionBody(pageURL, term string) string {
	var b strings.Builder
	if pageURL != "" {
		fmt.Fprintf(&b, "# %s\n\n%s\n\n", term, pageURL)
	}
	fmt.Fprintf(&b, "<!-- sha1: %s -->", TermHash(term))
	return b.String()
}

func hashMarker(term string) string {
	return "sha1: " + TermHash(term)
}

func (c *client) findDiscussion(ctx context.Context, token string, q DiscussionQuery) (*Discussion, error) {
	var (
		id  string
		err error
	)
	if q.Number > 0 {
		id, err = c.discussionIDByNumber(ctx, token, q)
	} else {
		id, err = c.discussionIDByTerm(ctx, token, q)
	}
	if err != nil {
		return nil, err
	}
	return c.loadThread(ctx, token, id)
}

func (c *client) discussionIDByNumber(ctx context.Context, token string, q DiscussionQuery) (string, error) {
	query := `query DiscussionByNumber($owner:String!, $repo:String!, $number:Int!) {
  repository(owner:$owner, name:$repo) {
    discussion(number:$number) { id }
  }
}`

	var payload struct {
		Repository *struct {
			Discussion *struct {
				ID string `json:"id"`
			} `json:"discussion"`
		} `json:"repository"`
	}
	err := c.gql.Query(ctx, token, query, map[string]any{
		"owner":  q.Owner,
		"repo":   q.Repo,
		"number": q.Number,
	}, &payload)
	if err != nil {
		return "", fmt.Errorf("query discussion #%d: %w", q.Number, err)
	}
	if payload.Repository == nil || payload.Repository.Discussion == nil {
		return "", fmt.Errorf("discussion #%d missing: %w", q.Number, ErrResourceNotFound)
	}
	return payload.Repository.Discussion.ID, nil
}

func (c *client) discussionIDByTerm(ctx context.Context, token string, q DiscussionQuery) (string, error) {
	query := `query SearchDiscussion($query:String!, $first:Int!) {
  search(type:DISCUSSION, first:$first, query:$query) {
    nodes {
      ... on Discussion { id title body }
    }
  }
}`

	var payload struct {
		Search struct {
			Nodes []searchNode `json:"nodes"`
		} `json:"search"`
	}
	err := c.gql.Query(ctx, token, query, map[string]any{
		"query": searchQuery(q),
		"first": searchPageSize,
	}, &payload)
	if err != nil {
		return "", fmt.Errorf("search discussions: %w", err)
	}

	node, ok := selectDiscussion(payload.Search.Nodes, q)
	if !ok {
		return "", fmt.Errorf("no discussion matches term %q: %w", q.Term, ErrResourceNotFound)
	}
	return node.ID, nil
}

type searchNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func searchQuery(q DiscussionQuery) string {
	parts := []string{fmt.Sprintf("repo:%s/%s", q.Owner, q.Repo)}
	if q.Category != "" {
		parts = append(parts, "category:"+strconv.Quote(q.Category))
	}
	if q.Strict {
		parts = append(parts, "in:body", TermHash(q.Term))
	} else {
		parts = append(parts, "in:title", strconv.Quote(q.Term))
	}
	return strings.Join(parts, " ")
}

// selectDiscussion picks the search hit for a term. Strict lookups only accept
// the hash marker; otherwise an exact title wins over the first fuzzy hit.
func selectDiscussion(nodes []searchNode, q DiscussionQuery) (searchNode, bool) {
	var candidates []searchNode
	for _, node := range nodes {
		if node.ID != "" {
			candidates = append(candidates, node)
		}
	}

	if q.Strict {
		marker := hashMarker(q.Term)
		for _, node := range candidates {
			if strings.Contains(node.Body, marker) {
				return node, true
			}
		}
		return searchNode{}, false
	}

	for _, node := range candidates {
		if node.Title == q.Term {
			return node, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return searchNode{}, false
}

const commentFields = `id
          body
          createdAt
          url
          author { login avatarUrl url }
          reactionGroups { content users { totalCount } viewerHasReacted }`

func (c *client) loadThread(ctx context.Context, token, discussionID string) (*Discussion, error) {
	query := `query DiscussionThread($id:ID!, $after:String) {
  node(id:$id) {
    ... on Discussion {
      id
      number
      title
      url
      comments(first:100, after:$after) {
        totalCount
        nodes {
          ` + commentFields + `
          replies(first:100) {
            nodes {
              ` + commentFields + `
            }
            pageInfo { hasNextPage endCursor }
          }
        }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

	var result *Discussion
	err := c.gql.QueryPaginated(ctx, token, query, map[string]any{"id": discussionID}, func(page json.RawMessage) (bool, string, error) {
		var payload threadPayload
		if err := json.Unmarshal(page, &payload); err != nil {
			return false, "", fmt.Errorf("decode discussion thread payload: %w", err)
		}
		node := payload.Node
		if node == nil || node.ID == "" {
			return false, "", fmt.Errorf("discussion node %q missing: %w", discussionID, ErrResourceNotFound)
		}

		if result == nil {
			result = &Discussion{
				ID:         node.ID,
				Number:     node.Number,
				Title:      node.Title,
				URL:        node.URL,
				TotalCount: node.Comments.TotalCount,
			}
		}

		for _, in := range node.Comments.Nodes {
			comment, err := c.mapThreadComment(ctx, token, in)
			if err != nil {
				return false, "", fmt.Errorf("map discussion comment %q: %w", in.ID, err)
			}
			result.Comments = append(result.Comments, comment)
		}

		return node.Comments.PageInfo.HasNextPage, node.Comments.PageInfo.EndCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load discussion thread: %w", err)
	}
	return result, nil
}

func (c *client) mapThreadComment(ctx context.Context, token string, in threadCommentPayload) (Comment, error) {
	out := mapComment(in.commentPayload)
	for _, reply := range in.Replies.Nodes {
		out.Replies = append(out.Replies, mapComment(reply))
	}

	if in.Replies.PageInfo.HasNextPage {
		extra, err := c.fetchReplies(ctx, token, in.ID, in.Replies.PageInfo.EndCursor)
		if err != nil {
			return Comment{}, fmt.Errorf("fetch additional replies: %w", err)
		}
		out.Replies = append(out.Replies, extra...)
	}
	return out, nil
}

func (c *client) fetchReplies(ctx context.Context, token, commentID, initialCursor string) ([]Comment, error) {
	query := `query DiscussionReplies($commentID:ID!, $after:String) {
  node(id:$commentID) {
    ... on DiscussionComment {
      replies(first:100, after:$after) {
        nodes {
          ` + commentFields + `
        }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

	var out []Comment
	variables := map[string]any{
		"commentID": commentID,
		"after":     initialCursor,
	}
	err := c.gql.QueryPaginated(ctx, token, query, variables, func(page json.RawMessage) (bool, string, error) {
		var payload repliesPayload
		if err := json.Unmarshal(page, &payload); err != nil {
			return false, "", fmt.Errorf("decode discussion replies payload: %w", err)
		}
		if payload.Node == nil {
			return false, "", fmt.Errorf("reply node missing for comment %q: %w", commentID, ErrResourceNotFound)
		}
		for _, reply := range payload.Node.Replies.Nodes {
			out = append(out, mapComment(reply))
		}
		return payload.Node.Replies.PageInfo.HasNextPage, payload.Node.Replies.PageInfo.EndCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query discussion replies: %w", err)
	}
	return out, nil
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type authorPayload struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	URL       string `json:"url"`
}

type reactionGroupPayload struct {
	Content string `json:"content"`
	Users   struct {
		TotalCount int `json:"totalCount"`
	} `json:"users"`
	ViewerHasReacted bool `json:"viewerHasReacted"`
}

type commentPayload struct {
	ID             string                 `json:"id"`
	Body           string                 `json:"body"`
	CreatedAt      time.Time              `json:"createdAt"`
	URL            string                 `json:"url"`
	Author         *authorPayload         `json:"author"`
	ReactionGroups []reactionGroupPayload `json:"reactionGroups"`
}

type threadCommentPayload struct {
	commentPayload
	Replies struct {
		Nodes    []commentPayload `json:"nodes"`
		PageInfo pageInfo         `json:"pageInfo"`
	} `json:"replies"`
}

type threadPayload struct {
	Node *struct {
		ID       string `json:"id"`
		Number   int    `json:"number"`
		Title    string `json:"title"`
		URL      string `json:"url"`
		Comments struct {
			TotalCount int                    `json:"totalCount"`
			Nodes      []threadCommentPayload `json:"nodes"`
			PageInfo   pageInfo               `json:"pageInfo"`
		} `json:"comments"`
	} `json:"node"`
}

type repliesPayload struct {
	Node *struct {
		Replies struct {
			Nodes    []commentPayload `json:"nodes"`
			PageInfo pageInfo         `json:"pageInfo"`
		} `json:"replies"`
	} `json:"node"`
}

func mapComment(in commentPayload) Comment {
	out := Comment{
		ID:             in.ID,
		Body:           in.Body,
		CreatedAt:      in.CreatedAt,
		URL:            in.URL,
		ReactionGroups: mapReactionGroups(in.ReactionGroups),
	}
	if in.Author != nil {
		out.Author = &User{
			Login:     in.Author.Login,
			AvatarURL: in.Author.AvatarURL,
			URL:       in.Author.URL,
		}
	}
	return out
}

// mapReactionGroups keeps one group per known kind. Kinds outside the
// supported set (CONFUSED) are dropped.
func mapReactionGroups(in []reactionGroupPayload) []ReactionGroup {
	known := make(map[ReactionKind]bool, len(ReactionKinds))
	for _, kind := range ReactionKinds {
		known[kind] = true
	}

	seen := make(map[ReactionKind]bool, len(in))
	out := make([]ReactionGroup, 0, len(in))
	for _, group := range in {
		kind := ReactionKind(group.Content)
		if !known[kind] || seen[kind] {
			continue
		}
		seen[kind] = true
		out = append(out, ReactionGroup{
			Kind:             kind,
			Count:            group.Users.TotalCount,
			ViewerHasReacted: group.ViewerHasReacted,
		})
	}
	return out
}
