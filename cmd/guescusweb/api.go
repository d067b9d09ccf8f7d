package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/johnqtcg/guescus/internal/composer"
	"github.com/johnqtcg/guescus/internal/config"
	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/metrics"
	"github.com/johnqtcg/guescus/internal/reaction"
	"github.com/johnqtcg/guescus/internal/session"
	"github.com/johnqtcg/guescus/internal/thread"
)

// Submission form fields.
const (
	fieldText        = "text"
	fieldHoneypot    = "website_url2"
	fieldNickname    = "nickname"
	fieldWebsite     = "website"
	fieldEmail       = "email"
	fieldReplyTo     = "replyTo"
	fieldReplyAuthor = "replyAuthor"
	fieldCommentID   = "commentId"
	fieldKind        = "kind"
	fieldToken       = "token"
)

type submitResponse struct {
	Created    bool         `json:"created"`
	CommentID  string       `json:"commentId"`
	CommentURL string       `json:"commentUrl,omitempty"`
	Discussion *thread.View `json:"discussion,omitempty"`
	Warning    string       `json:"warning,omitempty"`
}

type reactionResponse struct {
	CommentID  string           `json:"commentId"`
	Kind       gh.ReactionKind  `json:"kind"`
	Removed    bool             `json:"removed"`
	Optimistic []reaction.Group `json:"optimistic"`
	Count      int              `json:"count"`
	Discussion *thread.View     `json:"discussion,omitempty"`
	Warning    string           `json:"warning,omitempty"`
}

type sessionResponse struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

type cooldownResponse struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

// requestWidget reads the request values and the widget configuration
// they carry.
func requestWidget(w http.ResponseWriter, r *http.Request) (config.Widget, url.Values, bool) {
	values, err := readValues(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return config.Widget{}, nil, false
	}
	widget := config.WidgetFromQuery(values)
	if err := widget.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return config.Widget{}, nil, false
	}
	return widget, values, true
}

// handleSubmit posts a comment or reply.
func (h *webHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	widget, values, ok := requestWidget(w, r)
	if !ok {
		return
	}
	logger := zerolog.Ctx(r.Context())

	draft := composer.Draft{
		Text:     values.Get(fieldText),
		Honeypot: values.Get(fieldHoneypot),
	}
	if id := values.Get(fieldReplyTo); id != "" {
		draft.ReplyTo = &composer.ReplyTarget{ID: id, Author: values.Get(fieldReplyAuthor)}
	}

	creds := composer.Credentials{Guest: h.guestToken}
	sess, signedIn := h.currentSession(r)
	if signedIn {
		creds.User = sess.Token
	} else if values.Has(fieldNickname) {
		draft.Guest = &guest.Identity{
			Nickname: values.Get(fieldNickname),
			Website:  values.Get(fieldWebsite),
			Email:    values.Get(fieldEmail),
		}
	}

	key := clientKey(r)
	if err := h.pipeline.Check(r.Context(), key, creds, draft); err != nil {
		h.metrics.Submission(submitFailureOutcome(err), !signedIn)
		writeFailure(w, r, err)
		return
	}

	if !signedIn && draft.Honeypot == "" && !h.limiter.Allow(clientIP(r)) {
		h.metrics.GuestThrottled()
		h.metrics.Submission(metrics.OutcomeRejected, true)
		w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfter()))
		writeError(w, http.StatusTooManyRequests, "too many guest comments from this address, try again later")
		return
	}

	store := thread.NewStore(h.backend, widget)
	res, err := h.pipeline.Submit(r.Context(), store, key, creds, draft)
	if err != nil {
		h.metrics.Submission(submitFailureOutcome(err), !signedIn)
		writeFailure(w, r, err)
		return
	}
	if res.Dropped {
		h.metrics.Submission(metrics.OutcomeDropped, !signedIn)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	outcome := metrics.OutcomePosted
	if res.Created {
		outcome = metrics.OutcomeCreated
	}
	h.metrics.Submission(outcome, !signedIn)
	logger.Info().Bool("guest", !signedIn).Bool("created", res.Created).Str("comment_id", res.Comment.ID).Msg("comment posted")

	resp := submitResponse{
		Created:    res.Created,
		CommentID:  res.Comment.ID,
		CommentURL: res.Comment.URL,
	}
	if res.ReloadErr != nil {
		resp.Warning = "comment posted, but refreshing the thread failed: " + res.ReloadErr.Error()
	} else {
		view := thread.Decorate(res.Discussion, h.now(), widget.ReactionsEnabled, h.authors)
		resp.Discussion = &view
	}
	writeJSON(w, http.StatusCreated, resp)
}

func submitFailureOutcome(err error) string {
	if composer.IsRejection(err) || errors.Is(err, composer.ErrAuthRequired) || errors.Is(err, composer.ErrGuestPostingDisabled) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}

// handleReaction toggles a reaction on a comment under the active
// credential: the viewer's own token, else the shared guest token.
func (h *webHandler) handleReaction(w http.ResponseWriter, r *http.Request) {
	widget, values, ok := requestWidget(w, r)
	if !ok {
		return
	}
	if !widget.ReactionsEnabled {
		writeError(w, http.StatusBadRequest, "reactions are disabled for this widget")
		return
	}
	sess, _ := h.currentSession(r)
	token := h.readToken(sess)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "sign in with GitHub to react")
		return
	}

	kind, err := reaction.ParseKind(values.Get(fieldKind))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	commentID := strings.TrimSpace(values.Get(fieldCommentID))
	if commentID == "" {
		writeError(w, http.StatusBadRequest, "missing commentId")
		return
	}

	store := thread.NewStore(h.backend, widget)
	if _, err := store.Load(r.Context(), token); err != nil {
		writeFailure(w, r, err)
		return
	}
	comment, found := store.Comment(commentID)
	if !found {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	res, err := h.reactions.Toggle(r.Context(), token, commentID, comment.ReactionGroups, kind)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	store.SetReactions(commentID, res.Optimistic)
	h.metrics.Reaction(string(kind), res.Removed)

	resp := reactionResponse{
		CommentID:  commentID,
		Kind:       kind,
		Removed:    res.Removed,
		Optimistic: reaction.Visible(res.Optimistic),
		Count:      res.Remote.Count,
	}
	d, err := store.Reload(r.Context(), token)
	if err != nil {
		resp.Warning = "reaction saved, but refreshing the thread failed: " + err.Error()
	} else {
		view := thread.Decorate(d, h.now(), widget.ReactionsEnabled, h.authors)
		resp.Discussion = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSignIn opens a session for a personal access token.
func (h *webHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessions.SignIn(r.Context(), values.Get(fieldToken))
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredential) {
			writeError(w, http.StatusUnauthorized, "Invalid Token")
			return
		}
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("sign in")
		writeError(w, statusFromError(err), "Failed to login with token")
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		h.sessions.SignOut(c.Value)
	}
	setCookie(w, r, sessionCookie, sess.ID, 0)
	h.metrics.Sessions(h.sessions.Count())
	zerolog.Ctx(r.Context()).Info().Str("login", sess.User.Login).Msg("signed in")
	writeJSON(w, http.StatusOK, sessionResponse{Login: sess.User.Login, AvatarURL: sess.User.AvatarURL})
}

// handleSignOut discards the current session.
func (h *webHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		h.sessions.SignOut(c.Value)
	}
	setCookie(w, r, sessionCookie, "", -1)
	h.metrics.Sessions(h.sessions.Count())
	w.WriteHeader(http.StatusNoContent)
}

// handleCooldown reports how long the client must wait before posting.
func (h *webHandler) handleCooldown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cooldownResponse{RemainingSeconds: h.cooldownSeconds(r)})
}

// handleSummary summarizes the thread. Generator failures return fallback
// wording with status 200.
func (h *webHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	widget, _, ok := requestWidget(w, r)
	if !ok {
		return
	}
	comments, ok := h.loadComments(w, r, widget)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.summary.Summarize(r.Context(), comments))
}

// handleSuggest proposes a completion for the draft text.
func (h *webHandler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	widget, values, ok := requestWidget(w, r)
	if !ok {
		return
	}
	comments, ok := h.loadComments(w, r, widget)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.summary.Suggest(r.Context(), comments, values.Get(fieldText)))
}

func (h *webHandler) loadComments(w http.ResponseWriter, r *http.Request, widget config.Widget) ([]gh.Comment, bool) {
	sess, _ := h.currentSession(r)
	store := thread.NewStore(h.backend, widget)
	d, err := store.Load(r.Context(), h.readToken(sess))
	if err != nil {
		writeFailure(w, r, err)
		return nil, false
	}
	if d == nil {
		return nil, true
	}
	return d.Comments, true
}
