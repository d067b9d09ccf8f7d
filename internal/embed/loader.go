package embed

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/johnqtcg/guescus/internal/config"
	"github.com/johnqtcg/guescus/internal/term"
)

// LoaderPath is where the host loader script is served.
const LoaderPath = "/client.js"

type loaderValues struct {
	LoaderPath     string
	AttrMapping    string
	AttrTerm       string
	DefaultMapping string
	IndexTerm      string
	ParamTerm      string
	ParamPageURL   string
	ParamNumber    string
	ResizeType     string
}

var loaderTemplate = template.Must(template.New("loader").Parse(`(function () {
  var script = document.currentScript;
  if (!script) {
    var scripts = document.querySelectorAll('script[src*="{{.LoaderPath}}"]');
    script = scripts.length > 0 ? scripts[scripts.length - 1] : null;
  }
  if (!script) {
    console.error("guescus: could not identify the loader script tag");
    return;
  }

  var attrs = script.dataset;
  var mapping = attrs.{{.AttrMapping}} || "{{.DefaultMapping}}";
  var term = attrs.{{.AttrTerm}};

  switch (mapping) {
    case "pathname":
      term = location.pathname.length < 2 ? "{{.IndexTerm}}" : location.pathname.substring(1).replace(/\.\w+$/, "");
      break;
    case "url":
      term = location.href;
      break;
    case "title":
      term = document.title;
      break;
    case "og:title":
      var meta = document.querySelector('meta[property="og:title"]');
      term = meta ? meta.content : document.title;
      break;
    case "specific":
    case "number":
      break;
    default:
      console.error("guescus: unknown mapping " + mapping);
      return;
  }

  var params = new URLSearchParams();
  Object.keys(attrs).forEach(function (key) {
    if (key !== "{{.AttrMapping}}" && key !== "{{.AttrTerm}}") {
      params.set(key, attrs[key]);
    }
  });
  params.set("{{.ParamTerm}}", term || "");
  params.set("{{.ParamPageURL}}", location.href);
  if (mapping === "number") {
    params.set("{{.ParamNumber}}", term || "");
  }

  var origin;
  try {
    origin = new URL(script.src).origin;
  } catch (e) {
    console.error("guescus: invalid script source");
    return;
  }

  var iframe = document.createElement("iframe");
  iframe.src = origin + "/?" + params.toString();
  iframe.title = "Comments";
  iframe.style.width = "100%";
  iframe.style.border = "none";
  iframe.style.minHeight = "150px";
  iframe.setAttribute("scrolling", "no");

  window.addEventListener("message", function (event) {
    if (event.origin !== origin) return;
    var data = event.data;
    if (!data || data.type !== "{{.ResizeType}}" || !(data.height > 0)) return;
    iframe.style.height = data.height + "px";
  });

  if (document.head.contains(script)) {
    document.addEventListener("DOMContentLoaded", function () {
      document.body.appendChild(iframe);
    });
  } else {
    script.insertAdjacentElement("afterend", iframe);
  }
})();
`))

// LoaderScript renders the host loader. It resolves terms with the same
// rules as term.Resolve and only honours resize messages from the iframe origin.
func LoaderScript() ([]byte, error) {
	var buf bytes.Buffer
	err := loaderTemplate.Execute(&buf, loaderValues{
		LoaderPath:     LoaderPath,
		AttrMapping:    AttrMapping,
		AttrTerm:       AttrTerm,
		DefaultMapping: string(term.StrategyPathname),
		IndexTerm:      term.IndexTerm,
		ParamTerm:      config.ParamTerm,
		ParamPageURL:   config.ParamPageURL,
		ParamNumber:    config.ParamNumber,
		ResizeType:     string(TypeResize),
	})
	if err != nil {
		return nil, fmt.Errorf("render loader script: %w", err)
	}
	return buf.Bytes(), nil
}

// Snippet renders the script tag an integrator pastes into a host page.
// Attribute keys use the dataset spelling (repoId) and are written as
// data-* attributes (data-repo-id).
func Snippet(origin string, attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, `<script src="%s%s"`, strings.TrimRight(origin, "/"), LoaderPath)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n        data-%s=\"%s\"", kebab(k), html.EscapeString(attrs[k]))
	}
	b.WriteString("\n        async>\n</script>")
	return b.String()
}

func kebab(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
