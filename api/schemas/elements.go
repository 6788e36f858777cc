package schemas

// ElementKind classifies an interactive element into the small vocabulary the
// planner reasons about. The kind is derived from the tag name (and input type)
// at snapshot time.
type ElementKind string

const (
	KindInput      ElementKind = "input"
	KindTextarea   ElementKind = "textarea"
	KindButton     ElementKind = "button"
	KindSelect     ElementKind = "select"
	KindLink       ElementKind = "link"
	KindAriaWidget ElementKind = "ariaWidget"
)

// ElementDescriptor is a point-in-time record of one visible interactive
// element. Descriptors are immutable once produced and safe to serialize: they
// carry no live DOM handles. The `id` is unique within a single snapshot only;
// it is not stable across snapshots.
type ElementDescriptor struct {
	ID          string      `json:"id"`
	Kind        ElementKind `json:"kind"`
	Subtype     string      `json:"subtype,omitempty"`
	Text        string      `json:"text,omitempty"`
	Value       string      `json:"value,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Name        string      `json:"name,omitempty"`
	DOMID       string      `json:"domId,omitempty"`
	Classes     string      `json:"classes,omitempty"`
	Role        string      `json:"role,omitempty"`
	Label       string      `json:"label,omitempty"`
	Visible     bool        `json:"visible"`
	// RoleExplicit distinguishes an author-written role attribute from a
	// role inferred from the tag. Locating ranks explicit matches first;
	// the planner does not need the distinction, so it stays off the wire.
	RoleExplicit bool `json:"-"`
}

// PageRef is an opaque handle to a live element inside the page (a tagging
// token the browser layer attaches to the node). Refs must never cross the
// serialization boundary to the planner; they live only in the extractor's
// private snapshot map and in calls into the Page interface.
type PageRef string

// RawCandidate is the unfiltered per-element record produced by the in-page
// scan. Classification, visibility filtering, role inference, and label
// resolution all happen in Go on top of these fields.
type RawCandidate struct {
	Ref            PageRef
	Tag            string // lowercase tag name
	InputType      string // concrete type for <input>, empty otherwise
	Attrs          map[string]string
	Text           string
	LabelFor       string // text of a <label for=...> pointing at the element
	WrapLabel      string // text of a wrapping <label>
	AriaLabelledBy string // resolved text of aria-labelledby targets
	Editable       bool   // contenteditable
	Width          float64
	Height         float64
	Display        string
	Visibility     string
	Opacity        float64
}

// Rendered reports whether the candidate passes the visibility test: non-zero
// box, not display:none, not visibility:hidden, not fully transparent.
func (r RawCandidate) Rendered() bool {
	return r.Width > 0 && r.Height > 0 &&
		r.Display != "none" && r.Visibility != "hidden" && r.Opacity != 0
}
