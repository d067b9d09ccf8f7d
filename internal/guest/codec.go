// Package guest carries a guest's self-declared identity inside comments
// that are physically posted by the shared service credential.
package guest

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	markerOpen   = "<sub>Guest posting by **"
	markerClose  = "</sub>"
	nameClose    = "**"
	linkSep      = " • "
	websiteLabel = "[Website]"
	emailLabel   = "[Email]"

	reservedChars = "*<>\r\n"
)

// markerPattern only matches a marker that ends the body, so marker text
// pasted earlier in a comment is left as ordinary text.
var markerPattern = regexp.MustCompile(`(?s)\s*<sub>Guest posting by \*\*([^*<>\r\n]+)\*\*( \[Website\]\(([^)\s]*)\))?(?: • \[Email\]\(mailto:([^)\s]*)\))?</sub>\s*$`)

// Identity is what a guest declares about themselves.
type Identity struct {
	Nickname string
	Website  string
	Email    string
}

// Encode appends the guest marker for id to text. The comment text stays first.
func Encode(text string, id Identity) string {
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(markerOpen)
	b.WriteString(id.Nickname)
	b.WriteString(nameClose)
	if id.Website != "" {
		fmt.Fprintf(&b, " %s(%s)", websiteLabel, id.Website)
	}
	if id.Email != "" {
		fmt.Fprintf(&b, "%s%s(mailto:%s)", linkSep, emailLabel, id.Email)
	}
	b.WriteString(markerClose)
	return b.String()
}

// Decode extracts a trailing guest marker from body. It returns the declared
// identity, the body with the marker removed and trimmed, and whether a marker
// was found. Without a marker, body is returned unchanged.
func Decode(body string) (Identity, string, bool) {
	m := markerPattern.FindStringSubmatchIndex(body)
	if m == nil {
		return Identity{}, body, false
	}

	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return body[m[2*i]:m[2*i+1]]
	}
	id := Identity{
		Nickname: group(1),
		Website:  group(3),
		Email:    group(4),
	}
	if id.Nickname == "" {
		return Identity{}, body, false
	}
	return id, strings.TrimSpace(body[:m[0]]), true
}

// HasReservedChars reports whether a nickname uses characters the marker is
// built from. Such nicknames cannot be decoded back unambiguously.
func HasReservedChars(nickname string) bool {
	return strings.ContainsAny(nickname, reservedChars)
}
