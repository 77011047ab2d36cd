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
	appTitle         = "EIP Explainer"
	errorTitle       = "Error"
	topicInputPrompt = "Enter EIP number (e.g. 1559)"
)

// ContentResolver fetches the text for a topic identifier.
type ContentResolver interface {
	Resolve(ctx context.Context, topicID string) (domain.ResolvedContent, error)
}

// SummaryDispatcher produces an explanation of content in the given mode.
type SummaryDispatcher interface {
	Summarize(ctx context.Context, content string, mode domain.Mode) (string, error)
}

// ExplainService is the interaction state machine. It keeps no state of its
// own: everything it needs arrives in the event.
type ExplainService struct {
	resolver   ContentResolver
	summarizer SummaryDispatcher
}

func NewExplainService(r ContentResolver, s SummaryDispatcher) (*ExplainService, error) {
	if r == nil {
		return nil, errors.New("usecase: content resolver must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: summary dispatcher must not be nil")
	}
	return &ExplainService{resolver: r, summarizer: s}, nil
}

// Transition computes the next frame for ev. It never fails; upstream errors
// become retry presentations and are not retried here.
func (s *ExplainService) Transition(ctx context.Context, ev domain.InboundEvent) domain.Presentation {
	if ev.State == nil {
		return topicPrompt()
	}
	prev := *ev.State

	switch prev.Stage {
	case domain.StageAwaitingTopic, domain.StageDone:
		topic := ""
		if ev.InputText != nil {
			topic = strings.TrimSpace(*ev.InputText)
		}
		if topic == "" || prev.Stage == domain.StageDone {
			return topicPrompt()
		}
		return s.resolveTopic(ctx, topic)

	case domain.StageAwaitingMode:
		if ev.ButtonIndex == nil || !prev.Consistent() {
			return InvalidState()
		}
		mode, ok := domain.ModeFromIndex(*ev.ButtonIndex)
		if !ok {
			return InvalidState()
		}
		return s.summarize(ctx, prev, mode)
	}
	return InvalidState()
}

func (s *ExplainService) resolveTopic(ctx context.Context, topic string) domain.Presentation {
	content, err := s.resolver.Resolve(ctx, topic)
	if err != nil {
		uerr := newError(ErrorNotFound, "content_unavailable", err)
		slog.Warn("usecase: topic could not be resolved", "topic", topic, "err", uerr)
		return topicNotFound()
	}
	slog.Info("usecase: topic resolved", "topic", topic, "source", string(content.Source), "chars", len(content.Text))
	return modeSelection(topic, content.Text)
}

func (s *ExplainService) summarize(ctx context.Context, prev domain.InteractionState, mode domain.Mode) domain.Presentation {
	summary, err := s.summarizer.Summarize(ctx, prev.ResolvedContent, mode)
	if err != nil {
		var uerr *Error
		if !errors.As(err, &uerr) {
			uerr = newError(ErrorGeneration, "summarizer_error", err)
		}
		slog.Error("usecase: summary generation failed", "topic", prev.TopicID, "mode", mode.String(), "reason", uerr.Reason, "err", uerr)
		return generationFailed(prev)
	}
	return domain.Presentation{
		Title:       fmt.Sprintf("%s (%s)", topicTitle(prev.TopicID), mode.String()),
		Description: summary,
		Choices:     []domain.Choice{{Label: "Try Another EIP"}},
		State:       domain.StartState(),
		Outcome:     domain.OutcomeSummarized,
	}
}

func topicTitle(topic string) string {
	return "EIP-" + topic
}

func modeChoices() []domain.Choice {
	choices := make([]domain.Choice, 0, len(domain.Modes))
	for _, m := range domain.Modes {
		choices = append(choices, domain.Choice{Label: m.Label()})
	}
	return choices
}

func topicPrompt() domain.Presentation {
	return domain.Presentation{
		Title:       appTitle,
		Description: "Enter an EIP number to learn more about it",
		Choices:     []domain.Choice{{Label: "Enter EIP Number", Role: domain.RoleInput}},
		InputPrompt: topicInputPrompt,
		State:       domain.StartState(),
		Outcome:     domain.OutcomePrompt,
	}
}

func modeSelection(topic, content string) domain.Presentation {
	return domain.Presentation{
		Title:       topicTitle(topic),
		Description: "Choose how you would like this EIP explained:",
		Choices:     modeChoices(),
		State:       domain.ModeSelectState(topic, content),
		Outcome:     domain.OutcomeResolved,
	}
}

func topicNotFound() domain.Presentation {
	return domain.Presentation{
		Title:       errorTitle,
		Description: "EIP not found. Please try again with a valid EIP number.",
		Choices:     []domain.Choice{{Label: "Try Again", Role: domain.RoleInput}},
		InputPrompt: topicInputPrompt,
		State:       domain.StartState(),
		Outcome:     domain.OutcomeNotFound,
	}
}

// generationFailed offers the modes again with the content still attached.
func generationFailed(prev domain.InteractionState) domain.Presentation {
	return domain.Presentation{
		Title:       errorTitle,
		Description: "Failed to generate summary. Please try again.",
		Choices:     modeChoices(),
		State:       prev,
		Outcome:     domain.OutcomeGenerationFailed,
	}
}

// InvalidState is shown for any stage/input combination the machine does not accept.
func InvalidState() domain.Presentation {
	return domain.Presentation{
		Title:       errorTitle,
		Description: "Invalid state. Please start over.",
		Choices:     []domain.Choice{{Label: "Start Over"}},
		State:       domain.StartState(),
		Outcome:     domain.OutcomeInvalidState,
	}
}

// Unexpected is shown when the request could not be processed at all.
func Unexpected() domain.Presentation {
	return domain.Presentation{
		Title:       errorTitle,
		Description: "An unexpected error occurred. Please try again.",
		Choices:     []domain.Choice{{Label: "Start Over"}},
		State:       domain.StartState(),
		Outcome:     domain.OutcomeUnexpected,
	}
}
