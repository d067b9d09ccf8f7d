// Package parser normalizes repository slugs and discussion URLs.
package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRepo indicates a repository slug is not owner/name.
	ErrInvalidRepo = errors.New("invalid repository")
	// ErrInvalidGitHubURL indicates an input URL is not a GitHub discussion URL.
	ErrInvalidGitHubURL = errors.New("invalid GitHub URL")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// String returns the owner/name slug.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// DiscussionRef points at one discussion by number.
type DiscussionRef struct {
	Repo   Repo
	Number int
	URL    string
}

// ParseRepo parses an owner/name slug.
func ParseRepo(slug string) (Repo, error) {
	segments := splitPathSegments(strings.TrimSpace(slug))
	if len(segments) != 2 {
		return Repo{}, fmt.Errorf("parse repository %q: %w", slug, invalidRepo("must be owner/name"))
	}
	owner, name := segments[0], segments[1]
	if !namePattern.MatchString(owner) || !namePattern.MatchString(name) {
		return Repo{}, fmt.Errorf("parse repository %q: %w", slug, invalidRepo("owner and name must be non-empty GitHub names"))
	}
	return Repo{Owner: owner, Name: name}, nil
}

// URLParser parses a raw GitHub discussion URL into a normalized reference.
type URLParser interface {
	Parse(rawURL string) (DiscussionRef, error)
}

// New creates the default URL parser implementation.
func New() URLParser {
	return &defaultParser{}
}

type defaultParser struct{}

func (p *defaultParser) Parse(rawURL string) (DiscussionRef, error) {
	_ = p

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return DiscussionRef{}, fmt.Errorf("parse URL %q: %w", rawURL, err)
	}

	host := strings.ToLower(parsedURL.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return DiscussionRef{}, fmt.Errorf("validate URL host %q: %w", host, invalid("unsupported host"))
	}

	segments := splitPathSegments(parsedURL.Path)
	if len(segments) != 4 || segments[2] != "discussions" {
		return DiscussionRef{}, fmt.Errorf("parse URL path %q: %w", parsedURL.Path, invalid("path must be /{owner}/{repo}/discussions/{number}"))
	}

	repo, err := ParseRepo(segments[0] + "/" + segments[1])
	if err != nil {
		return DiscussionRef{}, fmt.Errorf("validate owner/repo: %w", invalid(err.Error()))
	}
	number, err := ParseNumber(segments[3])
	if err != nil {
		return DiscussionRef{}, fmt.Errorf("validate discussion number: %w", invalid(err.Error()))
	}

	return DiscussionRef{
		Repo:   repo,
		Number: number,
		URL:    fmt.Sprintf("https://github.com/%s/discussions/%d", repo, number),
	}, nil
}

// ParseNumber parses a positive discussion number.
func ParseNumber(raw string) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || number <= 0 {
		return 0, fmt.Errorf("discussion number %q must be a positive integer", raw)
	}
	return number, nil
}

func splitPathSegments(rawPath string) []string {
	trimmed := strings.Trim(rawPath, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func invalidRepo(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRepo, reason)
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidGitHubURL, reason)
}
