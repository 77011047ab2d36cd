package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eip-explainer/internal/domain"
)

const (
	summaryMaxTokens   = 500
	summaryTemperature = 0.7
)

// Completer is the black-box completion engine.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, params domain.CompletionParams) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Summarizer turns proposal text into an explanation for one mode.
type Summarizer struct {
	llm Completer
}

func NewSummarizer(llm Completer) (*Summarizer, error) {
	if llm == nil {
		return nil, errors.New("usecase: completer must not be nil")
	}
	return &Summarizer{llm: llm}, nil
}

// Summarize makes exactly one completion call. Any failure, including an
// empty answer, is a GENERATION_ERROR.
func (s *Summarizer) Summarize(ctx context.Context, content string, mode domain.Mode) (string, error) {
	instruction, ok := instructionFor(mode)
	if !ok {
		return "", newError(ErrorGeneration, "unknown_mode", fmt.Errorf("mode %d", int(mode)))
	}

	out, err := s.llm.Complete(ctx, buildSummaryMessages(instruction, content), domain.CompletionParams{
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return "", newError(ErrorGeneration, "openai_rate_limited", err)
		}
		return "", newError(ErrorGeneration, "openai_error", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", newError(ErrorGeneration, "empty_completion", nil)
	}
	slog.Debug("usecase: summary generated", "mode", mode.String(), "chars", len(out))
	return out, nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
