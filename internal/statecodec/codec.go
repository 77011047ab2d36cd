// Package statecodec turns an InteractionState into the compact text carried
// in a frame and back. Decoding treats the input as untrusted and falls back
// to the start state on any problem.
package statecodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eip-explainer/internal/domain"
)

// ErrInvalidState is returned by Parse for blobs that do not describe a state.
var ErrInvalidState = errors.New("statecodec: invalid state")

// Legacy page names used by the first frame clients.
const (
	legacyPageInput      = "input"
	legacyPageModeSelect = "mode-select"
)

type wireState struct {
	Stage           string `json:"stage,omitempty"`
	TopicID         string `json:"topicId,omitempty"`
	ResolvedContent string `json:"resolvedContent,omitempty"`
}

// looseState accepts both the current keys and the legacy ones. Values are
// kept raw so a wrongly typed field is detected instead of aborting the whole
// document.
type looseState struct {
	Stage           json.RawMessage `json:"stage"`
	TopicID         json.RawMessage `json:"topicId"`
	ResolvedContent json.RawMessage `json:"resolvedContent"`

	Page    json.RawMessage `json:"page"`
	EIP     json.RawMessage `json:"eip"`
	Content json.RawMessage `json:"content"`
}

// Encode returns the compact JSON form of s.
func Encode(s domain.InteractionState) string {
	b, err := json.Marshal(wireState{
		Stage:           string(s.Stage),
		TopicID:         s.TopicID,
		ResolvedContent: s.ResolvedContent,
	})
	if err != nil {
		// wireState only holds strings; Marshal cannot fail.
		return `{"stage":"AwaitingTopic"}`
	}
	return string(b)
}

// Decode never fails: absent, empty or unparseable input yields the start state.
func Decode(raw json.RawMessage) domain.InteractionState {
	s, err := Parse(raw)
	if err != nil {
		if len(bytes.TrimSpace(raw)) > 0 {
			slog.Debug("statecodec: discarding caller state", "err", err)
		}
		return domain.StartState()
	}
	return s
}

// Parse is the strict form of Decode. raw may be a JSON object or a JSON
// string holding the object.
func Parse(raw json.RawMessage) (domain.InteractionState, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.InteractionState{}, fmt.Errorf("%w: empty", ErrInvalidState)
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return domain.InteractionState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" || inner[0] != '{' {
			return domain.InteractionState{}, fmt.Errorf("%w: string does not hold an object", ErrInvalidState)
		}
		raw = json.RawMessage(inner)
	}
	if raw[0] != '{' {
		return domain.InteractionState{}, fmt.Errorf("%w: not an object", ErrInvalidState)
	}

	var l looseState
	if err := json.Unmarshal(raw, &l); err != nil {
		return domain.InteractionState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	stage, err := stringField(l.Stage, "stage")
	if err != nil {
		return domain.InteractionState{}, err
	}
	topic, err := stringField(l.TopicID, "topicId")
	if err != nil {
		return domain.InteractionState{}, err
	}
	content, err := stringField(l.ResolvedContent, "resolvedContent")
	if err != nil {
		return domain.InteractionState{}, err
	}

	if stage == "" {
		page, err := stringField(l.Page, "page")
		if err != nil {
			return domain.InteractionState{}, err
		}
		switch page {
		case legacyPageInput:
			stage = string(domain.StageAwaitingTopic)
		case legacyPageModeSelect:
			stage = string(domain.StageAwaitingMode)
		case "":
			return domain.InteractionState{}, fmt.Errorf("%w: missing stage", ErrInvalidState)
		default:
			return domain.InteractionState{}, fmt.Errorf("%w: unknown page %q", ErrInvalidState, page)
		}
		if topic == "" {
			if topic, err = stringField(l.EIP, "eip"); err != nil {
				return domain.InteractionState{}, err
			}
		}
		if content == "" {
			if content, err = stringField(l.Content, "content"); err != nil {
				return domain.InteractionState{}, err
			}
		}
	}

	st := domain.Stage(stage)
	if !st.Valid() {
		return domain.InteractionState{}, fmt.Errorf("%w: unknown stage %q", ErrInvalidState, stage)
	}
	return domain.InteractionState{
		Stage:           st,
		TopicID:         strings.TrimSpace(topic),
		ResolvedContent: content,
	}, nil
}

// stringField decodes an optional string; null and absent both read as "".
func stringField(raw json.RawMessage, name string) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: field %s is not a string", ErrInvalidState, name)
	}
	return s, nil
}
