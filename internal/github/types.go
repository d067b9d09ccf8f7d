package github

import "time"

// ReactionKind is one value of the closed GitHub reaction set supported by the widget.
type ReactionKind string

const (
	ReactionThumbsUp   ReactionKind = "THUMBS_UP"
	ReactionThumbsDown ReactionKind = "THUMBS_DOWN"
	ReactionHeart      ReactionKind = "HEART"
	ReactionHooray     ReactionKind = "HOORAY"
	ReactionLaugh      ReactionKind = "LAUGH"
	ReactionRocket     ReactionKind = "ROCKET"
	ReactionEyes       ReactionKind = "EYES"
)

// ReactionKinds lists the supported kinds in display order.
var ReactionKinds = []ReactionKind{
	ReactionThumbsUp,
	ReactionThumbsDown,
	ReactionHeart,
	ReactionHooray,
	ReactionLaugh,
	ReactionRocket,
	ReactionEyes,
}

// User is the minimal identity of a GitHub account.
type User struct {
	Login     string
	AvatarURL string
	URL       string
}

// ReactionGroup is the per-kind reaction tally on one comment.
type ReactionGroup struct {
	Kind             ReactionKind
	Count            int
	ViewerHasReacted bool
}

// Comment is one discussion comment and its ordered replies.
// Author is nil when the account was deleted.
type Comment struct {
	ID             string
	Author         *User
	Body           string
	CreatedAt      time.Time
	URL            string
	ReactionGroups []ReactionGroup
	Replies        []Comment
}

// Discussion is one GitHub discussion with its top-level comments in creation order.
type Discussion struct {
	ID         string
	Number     int
	Title      string
	URL        string
	TotalCount int
	Comments   []Comment
}

// DiscussionQuery locates the discussion for a page term.
type DiscussionQuery struct {
	Owner    string
	Repo     string
	Category string
	Term     string
	// Number selects a discussion directly and bypasses the term search when positive.
	Number int
	Strict bool
}

// CreateDiscussionInput describes a new discussion keyed by term.
type CreateDiscussionInput struct {
	RepositoryID string
	CategoryID   string
	Term         string
	PageURL      string
}
