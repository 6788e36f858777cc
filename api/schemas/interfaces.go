package schemas

import "context"

// -- Page Interface --

// ElementQuery describes one in-page element lookup. Exactly one of Ref or
// Selector is set; TextContains optionally narrows selector matches by text
// content (this is how the non-standard :contains() pseudo-selector is
// honored without passing it to a native query engine).
type ElementQuery struct {
	Ref          PageRef
	Selector     string
	TextContains string
}

// Candidate is one element matched by an ElementQuery, with the identifying
// text fields the executor ranks on.
type Candidate struct {
	Ref         PageRef
	TagName     string
	Text        string
	AriaLabel   string
	Name        string
	Placeholder string
	Value       string
}

// Page is the hard boundary to the live DOM. The browser package provides the
// only production implementation (chromedp); everything above it is tested
// against fakes. All methods tolerate concurrent page mutation by other
// scripts; callers must treat any returned ref as instantly perishable.
type Page interface {
	// CollectCandidates scans the document and every attached shadow root for
	// interactive elements, tags each with a fresh ref, and returns the raw
	// records. It does not filter: visibility and dedup happen in the
	// extractor.
	CollectCandidates(ctx context.Context) ([]RawCandidate, error)

	// ResolveQuery finds live elements for a query. A Ref query returns at
	// most one candidate (none if the node has left the document).
	ResolveQuery(ctx context.Context, q ElementQuery) ([]Candidate, error)

	// PerformClick scrolls the element into view and dispatches the full
	// pointerdown/pointerup/click sequence, plus change+blur for form
	// members.
	PerformClick(ctx context.Context, ref PageRef) error

	// PerformType focuses, clears, sets the value, and dispatches the
	// input/change pair plus the key-event set. It fails descriptively when
	// the target has no usable value property.
	PerformType(ctx context.Context, ref PageRef, value string) error

	// PerformSetSelect sets selectedIndex on a <select> and dispatches
	// change.
	PerformSetSelect(ctx context.Context, ref PageRef, index int) error

	// PerformClear focuses, empties the value, and dispatches input/change.
	PerformClear(ctx context.Context, ref PageRef) error

	// OuterHTML returns the serialized element, used for option parsing on
	// <select> targets.
	OuterHTML(ctx context.Context, ref PageRef) (string, error)

	// ObserveState samples the observable side-effect surface of the page.
	ObserveState(ctx context.Context) (PageState, error)

	// InstallMutationWatch installs a MutationObserver (childList, subtree,
	// and a narrow attribute filter) backing the snapshot cache.
	InstallMutationWatch(ctx context.Context) error

	// ConsumeMutationFlag reports whether the page mutated since the last
	// call and resets the flag.
	ConsumeMutationFlag(ctx context.Context) (bool, error)
}

// -- LLM Client Schemas & Interface --

// ModelTier selects a model by a preference for speed versus capability.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierPowerful ModelTier = "powerful"
)

// GenerationOptions controls the text generation process.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
	MaxTokens       int     `json:"max_tokens"`
}

// GenerationRequest encapsulates a complete request to the LLM.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient is the provider-agnostic interface to a language model. The
// planner treats it as a fallible, latency-bearing dependency whose output
// may be arbitrary prose.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Close() error
}
