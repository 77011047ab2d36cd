package domain

// ContentSource names the upstream that produced resolved content.
type ContentSource string

const (
	SourcePrimary  ContentSource = "primary"
	SourceFallback ContentSource = "fallback"
)

// MaxContentBytes bounds resolved text. The text travels in the frame state
// and comes back in the next callback, so inbound limits are derived from it.
const MaxContentBytes = 512 << 10

// ResolvedContent is the plain-text body of a proposal.
type ResolvedContent struct {
	Text   string
	Source ContentSource
}
