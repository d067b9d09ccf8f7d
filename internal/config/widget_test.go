package config

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWidgetFromQueryDefaults(t *testing.T) {
	t.Parallel()

	w := WidgetFromQuery(url.Values{"repo": {"octo/blog"}})
	want := Widget{Repo: "octo/blog", Term: DefaultTerm, Theme: DefaultTheme}
	if diff := cmp.Diff(want, w); diff != "" {
		t.Fatalf("widget mismatch (-want +got):\n%s", diff)
	}
}

func TestWidgetFromQueryFlags(t *testing.T) {
	t.Parallel()

	q := url.Values{
		"repo":             {"octo/blog"},
		"repoId":           {"R_1"},
		"category":         {"Comments"},
		"categoryId":       {"DIC_1"},
		"term":             {"blog/post-1"},
		"number":           {"12"},
		"theme":            {"dark"},
		"reactionsEnabled": {"1"},
		"emitMetadata":     {"true"},
		"strict":           {"1"},
		"pageUrl":          {"https://example.com/blog/post-1.html"},
	}
	w := WidgetFromQuery(q)
	want := Widget{
		Repo:             "octo/blog",
		RepoID:           "R_1",
		Category:         "Comments",
		CategoryID:       "DIC_1",
		Term:             "blog/post-1",
		Number:           12,
		Theme:            "dark",
		ReactionsEnabled: true,
		EmitMetadata:     false,
		Strict:           true,
		PageURL:          "https://example.com/blog/post-1.html",
	}
	if diff := cmp.Diff(want, w); diff != "" {
		t.Fatalf("widget mismatch (-want +got):\n%s", diff)
	}

	again := WidgetFromQuery(w.Query())
	if diff := cmp.Diff(w, again); diff != "" {
		t.Fatalf("query round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWidgetValidate(t *testing.T) {
	t.Parallel()

	var vErr *ValidationError
	if err := (Widget{}).Validate(); !errors.As(err, &vErr) || vErr.Field != "repo" {
		t.Fatalf("Validate(empty) = %v, want repo ValidationError", err)
	}
	if err := (Widget{Repo: "not-a-slug"}).Validate(); !errors.As(err, &vErr) {
		t.Fatalf("Validate(bad slug) = %v, want ValidationError", err)
	}
	if err := (Widget{Repo: "octo/blog"}).Validate(); err != nil {
		t.Fatalf("Validate(valid) = %v, want nil", err)
	}
	if (Widget{RepoID: "R"}).CanCreate() || !(Widget{RepoID: "R", CategoryID: "C"}).CanCreate() {
		t.Fatal("CanCreate classification is wrong")
	}
}

func TestWidgetThemeURL(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		theme string
		want  string
	}{
		{theme: "", want: "https://giscus.app/themes/light.css"},
		{theme: "dark", want: "https://giscus.app/themes/dark.css"},
		{theme: "https://cdn.example.com/custom.css", want: "https://cdn.example.com/custom.css"},
	}
	for _, tc := range tcs {
		if got := (Widget{Theme: tc.theme}).ThemeURL(); got != tc.want {
			t.Fatalf("ThemeURL(%q) = %q, want %q", tc.theme, got, tc.want)
		}
	}
}
