package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"eip-explainer/internal/domain"
	"eip-explainer/internal/viewmodel"
)

type scriptedService struct {
	events  []domain.InboundEvent
	replies []domain.Presentation
}

func (s *scriptedService) Transition(_ context.Context, ev domain.InboundEvent) domain.Presentation {
	s.events = append(s.events, ev)
	p := s.replies[0]
	s.replies = s.replies[1:]
	return p
}

func TestRunAsk_PostsFrameCallbacks(t *testing.T) {
	svc := &scriptedService{replies: []domain.Presentation{
		{Outcome: domain.OutcomeResolved, State: domain.ModeSelectState("1559", "EIP text")},
		{Outcome: domain.OutcomeSummarized, Description: "A base fee is burned.", State: domain.StartState()},
	}}
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), svc, &out, "01559", domain.ModeTechnical))
	require.Equal(t, "EIP-1559 (Technical)\n\nA base fee is burned.\n", out.String())

	require.Len(t, svc.events, 2)
	require.Equal(t, "1559", *svc.events[0].InputText)
	require.Equal(t, domain.StageAwaitingTopic, svc.events[0].State.Stage)
	require.Equal(t, 3, *svc.events[1].ButtonIndex)
	require.Equal(t, domain.ModeSelectState("1559", "EIP text"), *svc.events[1].State)
}

func TestRunAsk_InvalidNumberNeverCallsService(t *testing.T) {
	svc := &scriptedService{}
	err := runAsk(context.Background(), svc, &bytes.Buffer{}, "abc", domain.ModeSimple)
	require.ErrorIs(t, err, viewmodel.ErrInvalidNumber)
	require.Empty(t, svc.events)
}

func TestRunAsk_SurfacesFrameErrors(t *testing.T) {
	svc := &scriptedService{replies: []domain.Presentation{
		{Outcome: domain.OutcomeNotFound, Description: "EIP not found. Please try again with a valid EIP number."},
	}}
	err := runAsk(context.Background(), svc, &bytes.Buffer{}, "99999", domain.ModeSimple)
	require.EqualError(t, err, "EIP not found. Please try again with a valid EIP number.")

	svc = &scriptedService{replies: []domain.Presentation{
		{Outcome: domain.OutcomeResolved, State: domain.ModeSelectState("20", "text")},
		{Outcome: domain.OutcomeGenerationFailed, Description: "Failed to generate summary. Please try again."},
	}}
	err = runAsk(context.Background(), svc, &bytes.Buffer{}, "20", domain.ModeDetailed)
	require.EqualError(t, err, "Failed to generate summary. Please try again.")
}
