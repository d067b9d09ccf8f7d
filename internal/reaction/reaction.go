// Package reaction aggregates per-comment reaction tallies and toggles them
// against the discussion backend.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gh "github.com/johnqtcg/guescus/internal/github"
)

// ErrUnknownKind indicates a reaction outside the supported closed set.
var ErrUnknownKind = errors.New("unknown reaction kind")

var emoji = map[gh.ReactionKind]string{
	gh.ReactionThumbsUp:   "👍",
	gh.ReactionThumbsDown: "👎",
	gh.ReactionHeart:      "❤️",
	gh.ReactionHooray:     "🎉",
	gh.ReactionLaugh:      "😂",
	gh.ReactionRocket:     "🚀",
	gh.ReactionEyes:       "👀",
}

// Group is a reaction tally ready for display.
type Group struct {
	Kind    gh.ReactionKind `json:"kind"`
	Emoji   string          `json:"emoji"`
	Count   int             `json:"count"`
	Reacted bool            `json:"reacted"`
}

// ParseKind accepts a kind name in any case, or its emoji.
func ParseKind(raw string) (gh.ReactionKind, error) {
	trimmed := strings.TrimSpace(raw)
	candidate := gh.ReactionKind(strings.ToUpper(trimmed))
	for _, kind := range gh.ReactionKinds {
		if kind == candidate || emoji[kind] == trimmed {
			return kind, nil
		}
	}
	return "", fmt.Errorf("parse reaction %q: %w", raw, ErrUnknownKind)
}

// Emoji returns the display glyph of kind.
func Emoji(kind gh.ReactionKind) string {
	return emoji[kind]
}

// Palette returns the full closed set in display order with the current
// tallies. It backs the always-visible "add reaction" control.
func Palette(groups []gh.ReactionGroup) []Group {
	byKind := index(groups)
	out := make([]Group, 0, len(gh.ReactionKinds))
	for _, kind := range gh.ReactionKinds {
		g := byKind[kind]
		out = append(out, Group{Kind: kind, Emoji: emoji[kind], Count: g.Count, Reacted: g.ViewerHasReacted})
	}
	return out
}

// Visible returns the tallies that are shown on a comment: those with a
// nonzero count or the viewer's own reaction.
func Visible(groups []gh.ReactionGroup) []Group {
	var out []Group
	for _, g := range Palette(groups) {
		if g.Count > 0 || g.Reacted {
			out = append(out, g)
		}
	}
	return out
}

// Apply returns a copy of groups with kind flipped for the viewer and its
// count moved by one. Counts never go below zero.
func Apply(groups []gh.ReactionGroup, kind gh.ReactionKind) ([]gh.ReactionGroup, gh.ReactionGroup) {
	out := make([]gh.ReactionGroup, 0, len(groups)+1)
	var flipped gh.ReactionGroup
	found := false
	for _, g := range groups {
		if g.Kind == kind && !found {
			g = flip(g)
			flipped = g
			found = true
		}
		out = append(out, g)
	}
	if !found {
		flipped = flip(gh.ReactionGroup{Kind: kind})
		out = append(out, flipped)
	}
	return out, flipped
}

func flip(g gh.ReactionGroup) gh.ReactionGroup {
	if g.ViewerHasReacted {
		g.ViewerHasReacted = false
		if g.Count > 0 {
			g.Count--
		}
		return g
	}
	g.ViewerHasReacted = true
	g.Count++
	return g
}

func index(groups []gh.ReactionGroup) map[gh.ReactionKind]gh.ReactionGroup {
	out := make(map[gh.ReactionKind]gh.ReactionGroup, len(groups))
	for _, g := range groups {
		if _, ok := out[g.Kind]; !ok {
			out[g.Kind] = g
		}
	}
	return out
}

func known(kind gh.ReactionKind) bool {
	_, ok := emoji[kind]
	return ok
}

// Backend is the subset of the discussion backend a toggle needs.
type Backend interface {
	ToggleReaction(ctx context.Context, token, subjectID string, kind gh.ReactionKind, remove bool) (gh.ReactionGroup, error)
}

// Aggregator toggles reactions for the viewer.
type Aggregator struct {
	backend Backend
}

// NewAggregator constructs an Aggregator over backend.
func NewAggregator(backend Backend) *Aggregator {
	return &Aggregator{backend: backend}
}

// Result carries both phases of a toggle.
type Result struct {
	// Optimistic is the comment's groups with the flip applied locally.
	Optimistic []gh.ReactionGroup
	// Remote is the tally the backend reported after the mutation.
	Remote gh.ReactionGroup
	// Removed reports whether the viewer's reaction was withdrawn.
	Removed bool
}

// Toggle flips the viewer's reaction of kind on a comment whose current
// groups are given. The reaction is removed when the viewer already has it
// and added otherwise.
func (a *Aggregator) Toggle(ctx context.Context, token, commentID string, current []gh.ReactionGroup, kind gh.ReactionKind) (Result, error) {
	if !known(kind) {
		return Result{}, fmt.Errorf("toggle reaction %q: %w", kind, ErrUnknownKind)
	}
	if commentID == "" {
		return Result{}, fmt.Errorf("toggle reaction: comment id is empty")
	}

	remove := index(current)[kind].ViewerHasReacted
	optimistic, _ := Apply(current, kind)

	remote, err := a.backend.ToggleReaction(ctx, token, commentID, kind, remove)
	if err != nil {
		return Result{}, fmt.Errorf("toggle reaction: %w", err)
	}
	return Result{Optimistic: optimistic, Remote: remote, Removed: remove}, nil
}
