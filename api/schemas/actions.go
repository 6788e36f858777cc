package schemas

import (
	"fmt"
	"strings"
)

// ActionType enumerates the interactions the executor can perform.
type ActionType string

const (
	ActionClick  ActionType = "click"
	ActionTypeIn ActionType = "type"
	ActionSelect ActionType = "select"
	ActionClear  ActionType = "clear"
)

// KnownAction reports whether t is one of the supported action types.
func KnownAction(t ActionType) bool {
	switch t {
	case ActionClick, ActionTypeIn, ActionSelect, ActionClear:
		return true
	}
	return false
}

// NeedsValue reports whether the action type requires a value payload.
func (t ActionType) NeedsValue() bool {
	return t == ActionTypeIn || t == ActionSelect
}

// Locator addresses one element on the page using exactly one of three
// schemes: a snapshot element id, a structural selector, or a semantic
// (role, name) pair. Resolution priority is role+name, then element id, then
// selector.
type Locator struct {
	ElementID string `json:"elementId,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Role      string `json:"role,omitempty"`
	Name      string `json:"name,omitempty"`
}

// IsRoleName reports whether the locator carries a semantic role+name pair.
func (l Locator) IsRoleName() bool { return l.Role != "" }

// IsElementID reports whether the locator is a snapshot element id.
func (l Locator) IsElementID() bool { return l.ElementID != "" }

// IsSelector reports whether the locator is a structural selector.
func (l Locator) IsSelector() bool { return l.Selector != "" }

// IsZero reports whether no addressing scheme is present at all.
func (l Locator) IsZero() bool {
	return l.ElementID == "" && l.Selector == "" && l.Role == ""
}

// String renders the locator for diagnostics.
func (l Locator) String() string {
	var parts []string
	if l.Role != "" {
		parts = append(parts, fmt.Sprintf("role=%q name=%q", l.Role, l.Name))
	}
	if l.ElementID != "" {
		parts = append(parts, fmt.Sprintf("id=%q", l.ElementID))
	}
	if l.Selector != "" {
		parts = append(parts, fmt.Sprintf("selector=%q", l.Selector))
	}
	if len(parts) == 0 {
		return "<empty locator>"
	}
	return strings.Join(parts, " ")
}

// ActionDescriptor is one instruction for the executor. It is created by the
// planner client from the oracle's reply, consumed exactly once, and never
// persisted.
type ActionDescriptor struct {
	Type   ActionType `json:"type"`
	Target Locator    `json:"target"`
	// Value is required for type and select, absent otherwise.
	Value string `json:"value,omitempty"`
	// OccurrenceIndex disambiguates when the locator matches several
	// elements; zero means first match.
	OccurrenceIndex int `json:"occurrenceIndex,omitempty"`
}

// ExecResult reports the outcome of a single executed action.
type ExecResult struct {
	Success       bool      `json:"success"`
	VisibleChange bool      `json:"visibleChange"`
	Warning       string    `json:"warning,omitempty"`
	Error         string    `json:"error,omitempty"`
	Code          ErrorCode `json:"code,omitempty"`
}

// PageState captures the observable side-effect surface of the page before
// and after an action: anything that moves here counts as a visible change
// once it crosses the materiality thresholds.
type PageState struct {
	URL            string  `json:"url"`
	DocumentLength int     `json:"documentLength"`
	ActiveElement  string  `json:"activeElement"`
	ScrollX        float64 `json:"scrollX"`
	ScrollY        float64 `json:"scrollY"`
	DialogCount    int     `json:"dialogCount"`
	ModalCount     int     `json:"modalCount"`
}
