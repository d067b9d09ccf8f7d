// Package composer turns a draft into the ordered sequence of backend calls
// that publishes it: ensure the discussion exists, post, then reload.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
)

// DefaultNicknameMax bounds guest nicknames in runes.
const DefaultNicknameMax = 50

// State is one step of a submission attempt.
type State string

const (
	StateIdle               State = "idle"
	StateValidating         State = "validating"
	StateEnsuringDiscussion State = "ensuring_discussion"
	StatePosting            State = "posting"
	StateReloading          State = "reloading"
	StateRejected           State = "rejected"
)

// ReplyTarget is the comment a draft answers.
type ReplyTarget struct {
	ID     string
	Author string
}

// Label renders the reply indicator shown above the composer.
func (r ReplyTarget) Label() string {
	return "Replying to " + r.Author
}

// Draft is one submission attempt.
type Draft struct {
	Text string
	// Honeypot is a field humans never see. Any value marks a bot.
	Honeypot string
	// Guest carries the declared identity when posting without a session.
	Guest   *guest.Identity
	ReplyTo *ReplyTarget
}

// Credentials holds the tokens a submission may run under.
type Credentials struct {
	// User is the signed-in viewer's token, empty for guests.
	User string
	// Guest is the shared service credential, empty when guest posting is off.
	Guest string
}

// Store is the discussion owner the pipeline sequences against. A store that
// has not been loaded yet is loaded under the posting credential once the
// draft has passed validation.
type Store interface {
	Loaded() bool
	Load(ctx context.Context, token string) (*gh.Discussion, error)
	Discussion() *gh.Discussion
	Create(ctx context.Context, token string) (*gh.Discussion, error)
	Reload(ctx context.Context, token string) (*gh.Discussion, error)
	ReplyParent(id string) (string, bool)
}

// Poster issues comment mutations.
type Poster interface {
	AddComment(ctx context.Context, token, discussionID, body string) (gh.Comment, error)
	AddReply(ctx context.Context, token, discussionID, replyToID, body string) (gh.Comment, error)
}

// Result describes a finished submission.
type Result struct {
	// Dropped is set when the honeypot tripped. Nothing was sent.
	Dropped bool
	// Posted is set once the comment exists remotely. The draft and reply
	// target should be cleared.
	Posted  bool
	Created bool
	Comment gh.Comment
	// Discussion is the reloaded tree, nil if ReloadErr is set.
	Discussion *gh.Discussion
	// ReloadErr is a failed refresh after a successful post.
	ReloadErr error
	// Trace lists the states the attempt passed through.
	Trace []State
}

// Options configures a Pipeline.
type Options struct {
	Cooldown    *Gate
	NicknameMax int
	Logger      zerolog.Logger
}

// Pipeline runs submissions. It holds no per-submission state, so
// overlapping submissions from one client are not serialized; the cooldown
// is what keeps them apart in practice.
type Pipeline struct {
	poster      Poster
	cooldown    *Gate
	nicknameMax int
	logger      zerolog.Logger
}

// New constructs a Pipeline.
func New(poster Poster, opts Options) *Pipeline {
	if opts.NicknameMax <= 0 {
		opts.NicknameMax = DefaultNicknameMax
	}
	return &Pipeline{
		poster:      poster,
		cooldown:    opts.Cooldown,
		nicknameMax: opts.NicknameMax,
		logger:      opts.Logger,
	}
}

// Submit publishes draft for the client identified by key. Rejections and
// backend failures return an error and leave the draft for a retry.
func (p *Pipeline) Submit(ctx context.Context, store Store, key string, creds Credentials, draft Draft) (Result, error) {
	res := Result{Trace: []State{StateIdle}}
	step := func(s State) {
		res.Trace = append(res.Trace, s)
		p.logger.Debug().Str("client", key).Str("state", string(s)).Msg("submission state")
	}
	reject := func(err error) (Result, error) {
		step(StateRejected)
		return res, err
	}

	if draft.Honeypot != "" {
		step(StateRejected)
		res.Dropped = true
		p.logger.Info().Str("client", key).Msg("dropped submission with honeypot value")
		return res, nil
	}

	if err := p.checkCooldown(ctx, key); err != nil {
		return reject(err)
	}

	step(StateValidating)
	token, body, err := p.prepare(creds, draft)
	if err != nil {
		return reject(err)
	}

	ensuring := !store.Loaded()
	if ensuring {
		step(StateEnsuringDiscussion)
		if _, err := store.Load(ctx, token); err != nil {
			return p.abort(res, err)
		}
	}
	discussion := store.Discussion()
	if discussion == nil {
		if !ensuring {
			step(StateEnsuringDiscussion)
		}
		discussion, err = store.Create(ctx, token)
		if err != nil {
			return p.abort(res, err)
		}
		res.Created = true
	}

	step(StatePosting)
	if draft.ReplyTo != nil {
		parent := draft.ReplyTo.ID
		if top, ok := store.ReplyParent(parent); ok {
			parent = top
		}
		res.Comment, err = p.poster.AddReply(ctx, token, discussion.ID, parent, body)
	} else {
		res.Comment, err = p.poster.AddComment(ctx, token, discussion.ID, body)
	}
	if err != nil {
		return p.abort(res, err)
	}
	res.Posted = true

	if err := p.cooldown.Mark(ctx, key); err != nil {
		p.logger.Warn().Err(err).Str("client", key).Msg("record post time")
	}

	step(StateReloading)
	res.Discussion, res.ReloadErr = store.Reload(ctx, token)
	if res.ReloadErr != nil {
		p.logger.Warn().Err(res.ReloadErr).Str("client", key).Msg("reload after post")
	}

	step(StateIdle)
	return res, nil
}

// Check applies the local admission rules to draft without any backend call:
// the cooldown window and draft validation. A draft with a honeypot value
// passes; Submit drops it.
func (p *Pipeline) Check(ctx context.Context, key string, creds Credentials, draft Draft) error {
	if draft.Honeypot != "" {
		return nil
	}
	if err := p.checkCooldown(ctx, key); err != nil {
		return err
	}
	_, _, err := p.prepare(creds, draft)
	return err
}

// checkCooldown returns a *CooldownError inside the window. A failing
// cooldown store is logged and lets the post through.
func (p *Pipeline) checkCooldown(ctx context.Context, key string) error {
	err := p.cooldown.Check(ctx, key)
	if err == nil {
		return nil
	}
	var cdErr *CooldownError
	if errors.As(err, &cdErr) {
		return err
	}
	p.logger.Warn().Err(err).Str("client", key).Msg("cooldown check failed; allowing post")
	return nil
}

// Remaining exposes the cooldown countdown for key.
func (p *Pipeline) Remaining(ctx context.Context, key string) time.Duration {
	remaining, err := p.cooldown.Remaining(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("client", key).Msg("read cooldown")
		return 0
	}
	return remaining
}

func (p *Pipeline) abort(res Result, err error) (Result, error) {
	res.Trace = append(res.Trace, StateIdle)
	return res, fmt.Errorf("submit comment: %w", err)
}

// prepare picks the credential and renders the body. A signed-in viewer
// posts as themselves; otherwise the shared credential is substituted and
// the guest marker appended.
func (p *Pipeline) prepare(creds Credentials, draft Draft) (string, string, error) {
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return "", "", ErrEmptyText
	}

	if creds.User != "" {
		return creds.User, text, nil
	}
	if draft.Guest == nil {
		return "", "", ErrAuthRequired
	}

	id := guest.Identity{
		Nickname: strings.TrimSpace(draft.Guest.Nickname),
		Website:  contactLink(draft.Guest.Website),
		Email:    contactLink(draft.Guest.Email),
	}
	switch {
	case id.Nickname == "":
		return "", "", ErrNicknameRequired
	case utf8.RuneCountInString(id.Nickname) > p.nicknameMax:
		return "", "", fmt.Errorf("%w: at most %d characters", ErrNicknameTooLong, p.nicknameMax)
	case guest.HasReservedChars(id.Nickname):
		return "", "", ErrNicknameInvalid
	}
	if creds.Guest == "" {
		return "", "", ErrGuestPostingDisabled
	}
	return creds.Guest, guest.Encode(text, id), nil
}

// contactLink drops link values that would break out of the marker's
// markdown link syntax.
func contactLink(raw string) string {
	v := strings.TrimSpace(raw)
	if strings.ContainsAny(v, " \t\r\n()<>[]") {
		return ""
	}
	return v
}
