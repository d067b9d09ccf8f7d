// Package summary produces thread summaries and reply suggestions from an
// LLM. Every failure degrades to fixed wording; nothing here returns an error
// to the caller.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	gh "github.com/johnqtcg/guescus/internal/github"
	"github.com/johnqtcg/guescus/internal/guest"
	"github.com/johnqtcg/guescus/internal/thread"
)

// User-facing wording.
const (
	NoCommentsText         = "No comments to summarize."
	EmptySummaryText       = "Could not generate summary."
	SummaryFallbackText    = "Unable to summarize at this time. Please check API configuration."
	SuggestionFallbackText = "No suggestion available right now."
)

// SuggestionContext is how many recent top-level comments a suggestion sees.
const SuggestionContext = 5

const defaultTimeout = 30 * time.Second

// Operations reported to Options.OnFallback.
const (
	OpSummarize = "summarize"
	OpSuggest   = "suggest"
)

// Generator completes a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the text to show and whether it is substitute wording.
type Result struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Options configures a Service.
type Options struct {
	Logger  zerolog.Logger
	Timeout time.Duration
	// Authors resolves guest identities in transcripts.
	Authors guest.Resolver
	// OnFallback is called with the operation name whenever a fallback is served.
	OnFallback func(op string)
}

// Service guards a Generator with a timeout and a circuit breaker.
type Service struct {
	gen        Generator
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	logger     zerolog.Logger
	authors    guest.Resolver
	onFallback func(op string)
}

// NewService wraps gen. A nil gen serves fallbacks only.
func NewService(gen Generator, opts Options) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		gen: gen,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "summary",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		timeout:    timeout,
		logger:     opts.Logger,
		authors:    opts.Authors,
		onFallback: opts.OnFallback,
	}
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.gen != nil
}

// Summarize condenses the thread into three bullet points.
func (s *Service) Summarize(ctx context.Context, comments []gh.Comment) Result {
	transcript := thread.Transcript(comments, s.authors)
	if transcript == "" {
		return Result{Text: NoCommentsText}
	}

	prompt := fmt.Sprintf("Summarize the following discussion thread concisely in 3 bullet points:\n\n%s", transcript)
	text, ok := s.generate(ctx, OpSummarize, prompt)
	if !ok {
		return Result{Text: SummaryFallbackText, Fallback: true}
	}
	if text == "" {
		return Result{Text: EmptySummaryText}
	}
	return Result{Text: text}
}

// Suggest proposes a completion for partial given the most recent comments.
func (s *Service) Suggest(ctx context.Context, comments []gh.Comment, partial string) Result {
	if len(comments) == 0 {
		return Result{Text: SuggestionFallbackText, Fallback: true}
	}

	prompt := fmt.Sprintf(`You are a helpful assistant in a comment section.
Based on the recent conversation:
%s

The user is typing: "%s"

Suggest a polite, constructive completion or full response for the user. Keep it under 50 words.`,
		thread.RecentTranscript(comments, SuggestionContext, s.authors), partial)

	text, ok := s.generate(ctx, OpSuggest, prompt)
	if !ok || text == "" {
		return Result{Text: SuggestionFallbackText, Fallback: true}
	}
	return Result{Text: text}
}

func (s *Service) generate(ctx context.Context, op, prompt string) (string, bool) {
	if !s.Enabled() {
		s.fallback(op, nil)
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.gen.Generate(ctx, prompt)
	})
	if err != nil {
		s.fallback(op, err)
		return "", false
	}
	text, _ := out.(string)
	return text, true
}

func (s *Service) fallback(op string, err error) {
	if err != nil {
		s.logger.Warn().Err(err).Str("op", op).Str("breaker", s.breaker.State().String()).Msg("summary backend failed")
	}
	if s.onFallback != nil {
		s.onFallback(op)
	}
}
