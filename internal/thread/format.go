package thread

import (
	"fmt"
	"regexp"
	"time"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Segment is one run of comment text, either plain or a detected link.
type Segment struct {
	Text string
	Link bool
}

// Linkify splits text into plain and link segments. Only bare http(s)
// addresses are detected; no markdown is interpreted.
func Linkify(text string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: text[last:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], Link: true})
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// RelativeTime renders t relative to now for comment headers.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	default:
		return t.Format("Jan 2, 2006")
	}
}
