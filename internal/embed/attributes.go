// Package embed implements the host page and iframe contract: host
// attributes become iframe query parameters, and the iframe reports its
// height back through origin-checked messages.
package embed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/johnqtcg/guescus/internal/config"
	"github.com/johnqtcg/guescus/internal/term"
)

// Attribute names the loader treats specially. Every other attribute is
// copied into the iframe query unchanged.
const (
	AttrMapping = "mapping"
	AttrTerm    = "term"
)

// ErrInvalidOrigin indicates a script source without a usable origin.
var ErrInvalidOrigin = errors.New("invalid origin")

// BuildQuery translates host-page attributes into iframe query parameters.
// The term is resolved from page with the configured mapping.
func BuildQuery(attrs map[string]string, page term.Page) (url.Values, error) {
	strategy, err := term.ParseStrategy(attrs[AttrMapping])
	if err != nil {
		return nil, fmt.Errorf("build iframe query: %w", err)
	}
	resolved, err := term.Resolve(strategy, page, attrs[AttrTerm])
	if err != nil {
		return nil, fmt.Errorf("build iframe query: %w", err)
	}

	q := url.Values{}
	for key, value := range attrs {
		if key == AttrMapping || key == AttrTerm {
			continue
		}
		q.Set(key, value)
	}
	q.Set(config.ParamTerm, resolved)
	q.Set(config.ParamPageURL, page.URL)
	if strategy == term.StrategyNumber {
		q.Set(config.ParamNumber, resolved)
	}
	return q, nil
}

// Origin returns scheme://host of a script source address.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse script source %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("script source %q: %w", rawURL, ErrInvalidOrigin)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// IframeURL is the widget address served from origin.
func IframeURL(origin string, q url.Values) string {
	return strings.TrimRight(origin, "/") + "/?" + q.Encode()
}
