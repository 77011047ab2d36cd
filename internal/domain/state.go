package domain

// Stage is one of the discrete points in the interaction flow.
type Stage string

const (
	StageAwaitingTopic Stage = "AwaitingTopic"
	StageAwaitingMode  Stage = "AwaitingMode"
	StageDone          Stage = "Done"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageAwaitingTopic, StageAwaitingMode, StageDone:
		return true
	}
	return false
}

// InteractionState is the only state that survives between callbacks. It is
// echoed back by the caller and never stored server-side.
//
// ResolvedContent is set if and only if Stage is StageAwaitingMode, and TopicID
// is set whenever Stage is not StageAwaitingTopic.
type InteractionState struct {
	Stage           Stage
	TopicID         string
	ResolvedContent string
}

// StartState is the state of a fresh session.
func StartState() InteractionState {
	return InteractionState{Stage: StageAwaitingTopic}
}

// ModeSelectState carries a resolved topic forward to mode selection.
func ModeSelectState(topicID, content string) InteractionState {
	return InteractionState{
		Stage:           StageAwaitingMode,
		TopicID:         topicID,
		ResolvedContent: content,
	}
}

// Consistent reports whether the state satisfies the stage/field invariants.
func (s InteractionState) Consistent() bool {
	switch s.Stage {
	case StageAwaitingTopic:
		return s.ResolvedContent == ""
	case StageAwaitingMode:
		return s.TopicID != "" && s.ResolvedContent != ""
	case StageDone:
		return s.TopicID != "" && s.ResolvedContent == ""
	}
	return false
}

// InboundEvent is the input of one callback. A nil field means the caller did
// not send it; a nil State means the session is starting.
type InboundEvent struct {
	ButtonIndex *int
	InputText   *string
	State       *InteractionState
}
