// Package term derives the lookup key that ties a host page to one discussion.
package term

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Strategy names how a host page is mapped to a term.
type Strategy string

const (
	StrategyPathname Strategy = "pathname"
	StrategyURL      Strategy = "url"
	StrategyTitle    Strategy = "title"
	StrategyOGTitle  Strategy = "og:title"
	StrategySpecific Strategy = "specific"
	StrategyNumber   Strategy = "number"
)

// IndexTerm is used for the site root.
const IndexTerm = "index"

var (
	// ErrUnknownStrategy indicates a mapping name outside the supported set.
	ErrUnknownStrategy = errors.New("unknown term mapping")
	// ErrMissingTerm indicates an explicit strategy was chosen without a value.
	ErrMissingTerm = errors.New("explicit term is empty")
)

var extensionPattern = regexp.MustCompile(`\.\w+$`)

// Page is the host page state a term is computed from.
type Page struct {
	// URL is the full current address.
	URL string
	// Path is the address path, including the leading slash.
	Path string
	// Title is the document title.
	Title string
	// OGTitle is the og:title metadata value, empty when the page has none.
	OGTitle string
}

// ParseStrategy validates a mapping name. An empty name selects pathname.
func ParseStrategy(raw string) (Strategy, error) {
	s := Strategy(strings.TrimSpace(raw))
	switch s {
	case "":
		return StrategyPathname, nil
	case StrategyPathname, StrategyURL, StrategyTitle, StrategyOGTitle, StrategySpecific, StrategyNumber:
		return s, nil
	default:
		return "", fmt.Errorf("parse mapping %q: %w", raw, ErrUnknownStrategy)
	}
}

// Explicit reports whether the strategy takes its term from the caller
// rather than from page state.
func (s Strategy) Explicit() bool {
	return s == StrategySpecific || s == StrategyNumber
}

// Resolve computes the term for page. explicit is only consulted by the
// specific and number strategies, which pass it through unchanged.
func Resolve(strategy Strategy, page Page, explicit string) (string, error) {
	switch strategy {
	case StrategyPathname, "":
		return PathTerm(page.Path), nil
	case StrategyURL:
		return page.URL, nil
	case StrategyTitle:
		return page.Title, nil
	case StrategyOGTitle:
		if page.OGTitle != "" {
			return page.OGTitle, nil
		}
		return page.Title, nil
	case StrategySpecific, StrategyNumber:
		if explicit == "" {
			return "", fmt.Errorf("resolve %s term: %w", strategy, ErrMissingTerm)
		}
		return explicit, nil
	default:
		return "", fmt.Errorf("resolve term: %w", ErrUnknownStrategy)
	}
}

// PathTerm maps an address path to a term: the leading slash and a trailing
// file extension are dropped, and the root maps to IndexTerm.
func PathTerm(path string) string {
	if len(path) < 2 {
		return IndexTerm
	}
	trimmed := strings.TrimPrefix(path, "/")
	return extensionPattern.ReplaceAllString(trimmed, "")
}
