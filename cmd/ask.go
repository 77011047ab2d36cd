package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"eip-explainer/handler"
	"eip-explainer/internal/domain"
	"eip-explainer/internal/viewmodel"
)

var askCmd = &cobra.Command{
	Use:   "ask <eip-number>",
	Short: "Explain one EIP in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("mode")
		mode, ok := domain.ParseMode(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return fmt.Errorf("unknown mode %q: want simple, detailed or technical", name)
		}
		service, err := buildService(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return runAsk(cmd.Context(), service, cmd.OutOrStdout(), args[0], mode)
	},
}

func init() {
	askCmd.Flags().String("mode", domain.ModeSimple.String(), "simple, detailed or technical")
}

// runAsk walks the page flow: submit the number, pick the mode, show the
// explanation. Each step posts the same callbacks a frame client would.
func runAsk(ctx context.Context, service handler.FrameService, w io.Writer, number string, mode domain.Mode) error {
	m := viewmodel.New()
	if err := m.Submit(number); err != nil {
		return err
	}

	topic := m.Number()
	start := domain.StartState()
	p := service.Transition(ctx, domain.InboundEvent{InputText: &topic, State: &start})
	if p.Outcome != domain.OutcomeResolved {
		return errors.New(p.Description)
	}

	if err := m.SelectMode(mode); err != nil {
		return err
	}
	index := m.Mode().Index()
	selected := p.State
	p = service.Transition(ctx, domain.InboundEvent{ButtonIndex: &index, State: &selected})
	if p.Outcome != domain.OutcomeSummarized {
		return errors.New(p.Description)
	}

	_, err := fmt.Fprintf(w, "%s (%s)\n\n%s\n", m.TopicTitle(), m.Mode().Label(), p.Description)
	return err
}
