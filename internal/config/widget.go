package config

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/johnqtcg/guescus/internal/parser"
)

const (
	// DefaultTerm is used when the iframe is opened without a term.
	DefaultTerm = "Welcome to Gist-Cus"
	// DefaultTheme is used when the iframe is opened without a theme.
	DefaultTheme = "light"

	themeBaseURL = "https://giscus.app/themes/"
)

// Widget query parameter names, shared with the host loader.
const (
	ParamRepo             = "repo"
	ParamRepoID           = "repoId"
	ParamCategory         = "category"
	ParamCategoryID       = "categoryId"
	ParamTerm             = "term"
	ParamNumber           = "number"
	ParamTheme            = "theme"
	ParamReactionsEnabled = "reactionsEnabled"
	ParamEmitMetadata     = "emitMetadata"
	ParamStrict           = "strict"
	ParamPageURL          = "pageUrl"
)

// Widget is the per-session configuration of one embedded thread. It is
// built once when the iframe loads and passed explicitly from there on.
type Widget struct {
	Repo             string
	RepoID           string
	Category         string
	CategoryID       string
	Term             string
	Number           int
	Theme            string
	ReactionsEnabled bool
	EmitMetadata     bool
	Strict           bool
	PageURL          string
}

// WidgetFromQuery builds the configuration from iframe query parameters.
func WidgetFromQuery(q url.Values) Widget {
	w := Widget{
		Repo:             strings.TrimSpace(q.Get(ParamRepo)),
		RepoID:           q.Get(ParamRepoID),
		Category:         q.Get(ParamCategory),
		CategoryID:       q.Get(ParamCategoryID),
		Term:             q.Get(ParamTerm),
		Theme:            q.Get(ParamTheme),
		ReactionsEnabled: q.Get(ParamReactionsEnabled) == "1",
		EmitMetadata:     q.Get(ParamEmitMetadata) == "1",
		Strict:           q.Get(ParamStrict) == "1",
		PageURL:          q.Get(ParamPageURL),
	}
	if n, err := parser.ParseNumber(q.Get(ParamNumber)); err == nil {
		w.Number = n
	}
	if w.Term == "" {
		w.Term = DefaultTerm
	}
	if w.Theme == "" {
		w.Theme = DefaultTheme
	}
	return w
}

// Query encodes the configuration back into iframe query parameters.
func (w Widget) Query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	flag := func(key string, on bool) {
		if on {
			q.Set(key, "1")
		} else {
			q.Set(key, "0")
		}
	}

	set(ParamRepo, w.Repo)
	set(ParamRepoID, w.RepoID)
	set(ParamCategory, w.Category)
	set(ParamCategoryID, w.CategoryID)
	set(ParamTerm, w.Term)
	if w.Number > 0 {
		q.Set(ParamNumber, strconv.Itoa(w.Number))
	}
	set(ParamTheme, w.Theme)
	flag(ParamReactionsEnabled, w.ReactionsEnabled)
	flag(ParamEmitMetadata, w.EmitMetadata)
	flag(ParamStrict, w.Strict)
	set(ParamPageURL, w.PageURL)
	return q
}

// Validate checks the identifiers every lookup needs.
func (w Widget) Validate() error {
	if w.Repo == "" {
		return NewValidationError(ParamRepo, "missing 'repo' parameter")
	}
	if _, err := parser.ParseRepo(w.Repo); err != nil {
		return NewValidationError(ParamRepo, err.Error())
	}
	return nil
}

// RepoRef returns the parsed repository.
func (w Widget) RepoRef() (parser.Repo, error) {
	repo, err := parser.ParseRepo(w.Repo)
	if err != nil {
		return parser.Repo{}, NewValidationError(ParamRepo, err.Error())
	}
	return repo, nil
}

// CanCreate reports whether a discussion can be created for this widget.
func (w Widget) CanCreate() bool {
	return w.RepoID != "" && w.CategoryID != ""
}

// ThemeURL resolves the theme reference to a stylesheet address. Absolute
// addresses are kept, names map to the hosted theme set.
func (w Widget) ThemeURL() string {
	theme := w.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	if strings.HasPrefix(theme, "http") {
		return theme
	}
	return themeBaseURL + url.PathEscape(theme) + ".css"
}
