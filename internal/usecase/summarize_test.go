package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"eip-explainer/internal/domain"
	"eip-explainer/internal/integrations/openai"
)

type capturingLLM struct {
	answer   string
	err      error
	calls    int
	messages []domain.ChatMessage
	params   domain.CompletionParams
}

func (c *capturingLLM) Complete(_ context.Context, msgs []domain.ChatMessage, params domain.CompletionParams) (string, error) {
	c.calls++
	c.messages = msgs
	c.params = params
	return c.answer, c.err
}

func newTestSummarizer(t *testing.T, llm Completer) *Summarizer {
	t.Helper()
	s, err := NewSummarizer(llm)
	require.NoError(t, err)
	return s
}

func expectUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

func TestNewSummarizer_ValidatesDependency(t *testing.T) {
	_, err := NewSummarizer(nil)
	require.Error(t, err)
}

func TestSummarize_BuildsModePrompt(t *testing.T) {
	cases := []struct {
		mode domain.Mode
		want string
	}{
		{domain.ModeSimple, "Explain this EIP in simple terms"},
		{domain.ModeDetailed, "Provide a comprehensive explanation"},
		{domain.ModeTechnical, "Give a technical explanation"},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			llm := &capturingLLM{answer: "  explained  "}
			out, err := newTestSummarizer(t, llm).Summarize(context.Background(), "EIP body", tc.mode)
			require.NoError(t, err)
			require.Equal(t, "explained", out)
			require.Equal(t, 1, llm.calls)

			require.Len(t, llm.messages, 2)
			require.Equal(t, "system", llm.messages[0].Role)
			require.Contains(t, llm.messages[0].Content, "expert in Ethereum Improvement Proposals")
			require.Equal(t, "user", llm.messages[1].Role)
			require.Contains(t, llm.messages[1].Content, tc.want)
			require.Contains(t, llm.messages[1].Content, "\n\nEIP Content:\nEIP body")
			require.Equal(t, domain.CompletionParams{MaxTokens: 500, Temperature: 0.7}, llm.params)
		})
	}
}

func TestSummarize_EmptyCompletionIsGenerationError(t *testing.T) {
	_, err := newTestSummarizer(t, &capturingLLM{answer: " \n "}).Summarize(context.Background(), "x", domain.ModeSimple)
	expectUsecaseError(t, err, ErrorGeneration, "empty_completion")
}

func TestSummarize_EngineErrors(t *testing.T) {
	llm := &capturingLLM{err: &openai.HTTPStatusError{StatusCode: http.StatusTooManyRequests}}
	_, err := newTestSummarizer(t, llm).Summarize(context.Background(), "x", domain.ModeDetailed)
	expectUsecaseError(t, err, ErrorGeneration, "openai_rate_limited")
	require.Equal(t, 1, llm.calls, "no retry")

	llm = &capturingLLM{err: errors.New("connection reset")}
	_, err = newTestSummarizer(t, llm).Summarize(context.Background(), "x", domain.ModeDetailed)
	expectUsecaseError(t, err, ErrorGeneration, "openai_error")
}

func TestSummarize_ZeroModeNeverReachesEngine(t *testing.T) {
	llm := &capturingLLM{answer: "x"}
	_, err := newTestSummarizer(t, llm).Summarize(context.Background(), "x", domain.Mode(0))
	expectUsecaseError(t, err, ErrorGeneration, "unknown_mode")
	require.Zero(t, llm.calls)
}

func TestInstructionFor_CoversEveryMode(t *testing.T) {
	for _, m := range domain.Modes {
		text, ok := instructionFor(m)
		require.True(t, ok, m.String())
		require.NotEmpty(t, text)
	}
	_, ok := instructionFor(domain.Mode(len(domain.Modes) + 1))
	require.False(t, ok)
}
