package main

import (
	"errors"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	"github.com/johnqtcg/guescus/internal/embed"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/metrics"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/summary"
	"github.com/johnqtcg/guescus/internal/thread"
	webassets "github.com/johnqtcg/guescus/web"
)

// Page banners.
const (
	bannerMissingRepo  = "Configuration Error: Missing 'repo' parameter."
	bannerMissingToken = "Configuration Error: No Token available. If hosting, set GITHUB_TOKEN."
	bannerLoadFailed   = "Failed to load discussion."
)

type webDeps struct {
	backend     gh.Backend
	pipeline    *composer.Pipeline
	sessions    *session.Manager
	summary     *summary.Service
	limiter     *guestLimiter
	metrics     *metrics.Recorder
	gatherer    prometheus.Gatherer
	tmpl        *template.Template
	guestToken  string
	authors     guest.Resolver
	nicknameMax int
	logger      zerolog.Logger
	now         func() time.Time
}

type webHandler struct {
	backend     gh.Backend
	pipeline    *composer.Pipeline
	sessions    *session.Manager
	summary     *summary.Service
	reactions   *reaction.Aggregator
	limiter     *guestLimiter
	metrics     *metrics.Recorder
	tmpl        *template.Template
	guestToken  string
	authors     guest.Resolver
	nicknameMax int
	now         func() time.Time
}

type pageData struct {
	Widget         config.Widget
	Query          string
	ThemeURL       string
	Error          string
	View           thread.View
	EmptyText      string
	Viewer         *gh.User
	GuestEnabled   bool
	SummaryEnabled bool
	Cooldown       int
	NicknameMax    int
}

func newWebHandler(deps webDeps) http.Handler {
	tmpl := deps.tmpl
	if tmpl == nil {
		tmpl = template.Must(template.New("widget").Parse(defaultWidgetTemplate))
	}
	now := deps.now
	if now == nil {
		now = time.Now
	}
	nicknameMax := deps.nicknameMax
	if nicknameMax <= 0 {
		nicknameMax = composer.DefaultNicknameMax
	}
	summarySvc := deps.summary
	if summarySvc == nil {
		summarySvc = summary.NewService(nil, summary.Options{Logger: deps.logger, Authors: deps.authors})
	}
	gatherer := deps.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &webHandler{
		backend:     deps.backend,
		pipeline:    deps.pipeline,
		sessions:    deps.sessions,
		summary:     summarySvc,
		reactions:   reaction.NewAggregator(deps.backend),
		limiter:     deps.limiter,
		metrics:     deps.metrics,
		tmpl:        tmpl,
		guestToken:  deps.guestToken,
		authors:     deps.authors,
		nicknameMax: nicknameMax,
		now:         now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog(deps.logger), recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get(embed.LoaderPath, h.handleLoader)
	if static, err := fs.Sub(webassets.FS, "static"); err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	r.Group(func(r chi.Router) {
		r.Use(withClient)
		r.Get("/", h.handleWidget)
		r.Route("/api", func(r chi.Router) {
			r.Post("/comments", h.handleSubmit)
			r.Post("/reactions", h.handleReaction)
			r.Post("/session", h.handleSignIn)
			r.Delete("/session", h.handleSignOut)
			r.Get("/cooldown", h.handleCooldown)
			r.Post("/summary", h.handleSummary)
			r.Post("/suggest", h.handleSuggest)
		})
	})

	return r
}

func (h *webHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *webHandler) handleLoader(w http.ResponseWriter, _ *http.Request) {
	script, err := embed.LoaderScript()
	if err != nil {
		http.Error(w, "render loader failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := w.Write(script); err != nil {
		http.Error(w, "write response failed", http.StatusInternalServerError)
	}
}

// handleWidget renders the iframe page. The widget configuration is built
// here from the query string and travels with every later API call.
func (h *webHandler) handleWidget(w http.ResponseWriter, r *http.Request) {
	widget := config.WidgetFromQuery(r.URL.Query())
	data := pageData{
		Widget:         widget,
		Query:          widget.Query().Encode(),
		ThemeURL:       widget.ThemeURL(),
		EmptyText:      thread.EmptyStateText,
		GuestEnabled:   h.guestToken != "",
		SummaryEnabled: h.summary.Enabled(),
		Cooldown:       h.cooldownSeconds(r),
		NicknameMax:    h.nicknameMax,
	}

	sess, signedIn := h.currentSession(r)
	if signedIn {
		viewer := sess.User
		data.Viewer = &viewer
	}

	if err := widget.Validate(); err != nil {
		data.Error = bannerMissingRepo
		h.render(w, data)
		return
	}

	store := thread.NewStore(h.backend, widget)
	d, err := store.Load(r.Context(), h.readToken(sess))
	if err != nil {
		data.Error = pageBanner(err)
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("load discussion")
	}
	data.View = thread.Decorate(d, h.now(), widget.ReactionsEnabled, h.authors)
	h.render(w, data)
}

func (h *webHandler) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		http.Error(w, "render template failed", http.StatusInternalServerError)
	}
}

func pageBanner(err error) string {
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Field == config.ParamRepo {
			return bannerMissingRepo
		}
		return bannerMissingToken
	}
	if err.Error() == "" {
		return bannerLoadFailed
	}
	return err.Error()
}

// currentSession returns the signed-in viewer behind the session cookie.
func (h *webHandler) currentSession(r *http.Request) (session.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return session.Session{}, false
	}
	return h.sessions.Get(c.Value)
}

// readToken picks the credential for reads: the viewer's own, else the
// shared guest credential.
func (h *webHandler) readToken(sess session.Session) string {
	if sess.Token != "" {
		return sess.Token
	}
	return h.guestToken
}

func (h *webHandler) cooldownSeconds(r *http.Request) int {
	return int(math.Ceil(h.pipeline.Remaining(r.Context(), clientKey(r)).Seconds()))
}
