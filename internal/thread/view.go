package thread

import (
	"time"

	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/reaction"
)

// EmptyStateText is shown when a term has no comments yet.
const EmptyStateText = "No comments yet. Start the conversation!"

// View is a discussion decorated for display.
type View struct {
	Exists     bool          `json:"exists"`
	ID         string        `json:"id,omitempty"`
	Number     int           `json:"number,omitempty"`
	URL        string        `json:"url,omitempty"`
	TotalCount int           `json:"totalCount"`
	Comments   []CommentView `json:"comments"`
}

// Empty reports whether the empty state should be rendered.
func (v View) Empty() bool {
	return !v.Exists || v.TotalCount == 0 && len(v.Comments) == 0
}

// CommentView is a comment with its effective author resolved.
type CommentView struct {
	ID        string           `json:"id"`
	Author    guest.Author     `json:"author"`
	Body      string           `json:"body"`
	Segments  []Segment        `json:"-"`
	CreatedAt time.Time        `json:"createdAt"`
	Age       string           `json:"age"`
	URL       string           `json:"url,omitempty"`
	Reactions []reaction.Group `json:"reactions,omitempty"`
	Palette   []reaction.Group `json:"-"`
	IsReply   bool             `json:"isReply"`
	Replies   []CommentView    `json:"replies,omitempty"`
}

// Decorate builds the display tree for d. A nil discussion yields the empty
// view. authors decides which comments may show a guest identity.
func Decorate(d *gh.Discussion, now time.Time, reactionsEnabled bool, authors guest.Resolver) View {
	if d == nil {
		return View{}
	}
	return View{
		Exists:     true,
		ID:         d.ID,
		Number:     d.Number,
		URL:        d.URL,
		TotalCount: d.TotalCount,
		Comments:   decorateComments(d.Comments, now, reactionsEnabled, false, authors),
	}
}

func decorateComments(in []gh.Comment, now time.Time, reactionsEnabled, isReply bool, authors guest.Resolver) []CommentView {
	if len(in) == 0 {
		return nil
	}
	out := make([]CommentView, 0, len(in))
	for _, c := range in {
		author, body := authors.Resolve(c.Body, c.Author)
		view := CommentView{
			ID:        c.ID,
			Author:    author,
			Body:      body,
			Segments:  Linkify(body),
			CreatedAt: c.CreatedAt,
			Age:       RelativeTime(c.CreatedAt, now),
			URL:       c.URL,
			IsReply:   isReply,
			Replies:   decorateComments(c.Replies, now, reactionsEnabled, true, authors),
		}
		if reactionsEnabled {
			view.Reactions = reaction.Visible(c.ReactionGroups)
			view.Palette = reaction.Palette(c.ReactionGroups)
		}
		out = append(out, view)
	}
	return out
}
