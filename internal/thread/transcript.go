package thread

import (
	"fmt"
	"strings"

	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
)

// Transcript flattens comments and their replies into plain text for the
// summarizer, one block per top-level comment.
func Transcript(comments []gh.Comment, authors guest.Resolver) string {
	blocks := make([]string, 0, len(comments))
	for _, c := range comments {
		var b strings.Builder
		author, body := authors.Resolve(c.Body, c.Author)
		fmt.Fprintf(&b, "%s: %s", author.Name, body)
		writeReplies(&b, c.Replies, 1, authors)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func writeReplies(b *strings.Builder, replies []gh.Comment, depth int, authors guest.Resolver) {
	indent := strings.Repeat("  ", depth)
	for _, r := range replies {
		author, body := authors.Resolve(r.Body, r.Author)
		fmt.Fprintf(b, "\n%s- Reply by %s: %s", indent, author.Name, body)
		writeReplies(b, r.Replies, depth+1, authors)
	}
}

// RecentTranscript renders the last n top-level comments, one per line, as
// context for reply suggestions.
func RecentTranscript(comments []gh.Comment, n int, authors guest.Resolver) string {
	if n > 0 && len(comments) > n {
		comments = comments[len(comments)-n:]
	}
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		author, body := authors.Resolve(c.Body, c.Author)
		lines = append(lines, fmt.Sprintf("%s: %s", author.Name, body))
	}
	return strings.Join(lines, "\n")
}
