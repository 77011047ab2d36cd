package domain

// ChoiceRole is the action a frame button performs.
type ChoiceRole string

const (
	RolePost  ChoiceRole = "post"
	RoleLink  ChoiceRole = "link"
	RoleMint  ChoiceRole = "mint"
	RoleInput ChoiceRole = "input"
)

// Choice is a single button. An empty Role leaves the client default (post).
type Choice struct {
	Label string
	Role  ChoiceRole
}

// Image is an explicit frame image.
type Image struct {
	URL         string
	AspectRatio string
}

// Outcome tags how a transition ended. It is used for logs, metrics and the
// audit trail and never reaches the caller.
type Outcome string

const (
	OutcomePrompt           Outcome = "prompt"
	OutcomeResolved         Outcome = "resolved"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeSummarized       Outcome = "summarized"
	OutcomeGenerationFailed Outcome = "generation_failed"
	OutcomeInvalidState     Outcome = "invalid_state"
	OutcomeUnexpected       Outcome = "unexpected"
)

// Presentation is everything needed to render the next frame.
type Presentation struct {
	Title       string
	Description string
	Choices     []Choice
	InputPrompt string
	Image       *Image
	State       InteractionState
	Outcome     Outcome
}
