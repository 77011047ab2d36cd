package usecase

import (
	"strings"

	"eip-explainer/internal/domain"
)

const systemInstruction = "You are an expert in Ethereum Improvement Proposals (EIPs). " +
	"Your task is to explain EIPs clearly and accurately based on the requested level of detail."

// modeTemplates is indexed by domain.Mode; slot 0 is the invalid zero mode.
var modeTemplates = [...]string{
	domain.ModeSimple: "Explain this EIP in simple terms that a non-technical person can understand. " +
		"Focus on the main purpose and impact:",
	domain.ModeDetailed: "Provide a comprehensive explanation of this EIP, including its purpose, motivation, " +
		"and main changes. Include relevant context but avoid deep technical details:",
	domain.ModeTechnical: "Give a technical explanation of this EIP, including specific implementation details, " +
		"technical changes, and potential implications for developers:",
}

func instructionFor(mode domain.Mode) (string, bool) {
	if mode < domain.ModeSimple || int(mode) >= len(modeTemplates) {
		return "", false
	}
	return modeTemplates[mode], true
}

func buildSummaryMessages(instruction, content string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: strings.Join([]string{
			instruction,
			"",
			"EIP Content:",
			content,
		}, "\n")},
	}
}
