package cli

import (
	"fmt"
	"strings"

	"github.com/johnqtcg/guescus/internal/composer"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/thread"
)

// FormatThread renders a decorated discussion as indented plain text.
func FormatThread(v thread.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d Comments", v.TotalCount)
	if v.URL != "" {
		fmt.Fprintf(&b, " url=%s", v.URL)
	}
	b.WriteString("\n")
	if v.Empty() {
		b.WriteString(thread.EmptyStateText)
		return b.String()
	}
	for _, c := range v.Comments {
		writeComment(&b, c, 0)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeComment(b *strings.Builder, c thread.CommentView, depth int) {
	indent := strings.Repeat("  ", depth)
	name := c.Author.Name
	if c.Author.Guest {
		name += " [Guest]"
	}
	fmt.Fprintf(b, "%s- %s (%s) id=%s\n", indent, name, c.Age, c.ID)
	for _, line := range strings.Split(c.Body, "\n") {
		fmt.Fprintf(b, "%s    %s\n", indent, line)
	}
	if tally := formatGroups(c.Reactions); tally != "" {
		fmt.Fprintf(b, "%s    %s\n", indent, tally)
	}
	for _, r := range c.Replies {
		writeComment(b, r, depth+1)
	}
}

func formatGroups(groups []reaction.Group) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		part := fmt.Sprintf("%s %d", g.Emoji, g.Count)
		if g.Reacted {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

// FormatPost renders the status line of a submission.
func FormatPost(res composer.Result) string {
	if res.Dropped {
		return "DROPPED"
	}
	line := fmt.Sprintf("OK id=%s url=%s", res.Comment.ID, res.Comment.URL)
	if res.Created {
		line += " created=true"
	}
	if res.ReloadErr != nil {
		line += fmt.Sprintf(" reload_error=%q", res.ReloadErr.Error())
	}
	return line
}

// FormatReaction renders the outcome of a toggle with the authoritative tally.
func FormatReaction(res reaction.Result) string {
	action := "added"
	if res.Removed {
		action = "removed"
	}
	return fmt.Sprintf("OK %s %s count=%d", action, reactionLabel(res.Remote.Kind), res.Remote.Count)
}

func reactionLabel(kind gh.ReactionKind) string {
	if e := reaction.Emoji(kind); e != "" {
		return e + " " + string(kind)
	}
	return string(kind)
}
