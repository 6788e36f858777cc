// internal/extractor/extractor.go
package extractor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
)

// maxTextLen bounds how much element text one descriptor carries into the
// planner payload.
const maxTextLen = 120

// Snapshot is one consistent view of the page's actionable elements. The ref
// table maps snapshot element ids back to live page handles; it is private so
// callers cannot hold page handles past the snapshot's lifetime.
type Snapshot struct {
	Elements []schemas.ElementDescriptor
	TakenAt  time.Time

	mu          sync.Mutex
	refs        map[string]schemas.PageRef
	invalidated bool
}

// Resolve maps a snapshot element id to its live page handle.
func (s *Snapshot) Resolve(id string) (schemas.PageRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated {
		return "", false
	}
	ref, ok := s.refs[id]
	return ref, ok
}

// Invalidate marks the snapshot stale. Any later Resolve fails, which callers
// surface as a stale reference.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = true
}

// Stale reports whether the snapshot has been invalidated.
func (s *Snapshot) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// Extractor turns raw page candidates into planner-facing element descriptors.
type Extractor struct {
	page   schemas.Page
	cfg    config.ExtractorConfig
	logger *zap.Logger
}

// New creates an Extractor over one page.
func New(page schemas.Page, cfg config.ExtractorConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		page:   page,
		cfg:    cfg,
		logger: logger.Named("extractor"),
	}
}

// Snapshot collects the page's current actionable elements. Extraction never
// fails the caller: on any page error it logs and returns an empty snapshot,
// so a broken page degrades to "nothing actionable" instead of killing the task.
func (e *Extractor) Snapshot(ctx context.Context) *Snapshot {
	raw, err := e.page.CollectCandidates(ctx)
	if err != nil {
		e.logger.Warn("Element collection failed; returning empty snapshot", zap.Error(err))
		return &Snapshot{TakenAt: time.Now(), refs: map[string]schemas.PageRef{}}
	}
	return e.build(raw)
}

// build classifies, labels, dedupes, and numbers the raw candidates.
func (e *Extractor) build(raw []schemas.RawCandidate) *Snapshot {
	snap := &Snapshot{
		TakenAt: time.Now(),
		refs:    make(map[string]schemas.PageRef, len(raw)),
	}

	seen := make(map[schemas.PageRef]bool, len(raw))
	for _, cand := range raw {
		if cand.Ref == "" || seen[cand.Ref] {
			continue
		}
		seen[cand.Ref] = true

		kind, subtype, ok := classify(cand)
		if !ok {
			continue
		}
		// Invisible elements never reach the snapshot; the planner only
		// ever sees elements that can actually be acted on.
		if !cand.Rendered() {
			continue
		}
		if len(snap.Elements) >= e.cfg.MaxElements {
			e.logger.Debug("Snapshot element cap reached; dropping remainder",
				zap.Int("cap", e.cfg.MaxElements))
			break
		}

		role, explicit := resolveRole(cand, subtype)
		id := fmt.Sprintf("element_%d", len(snap.Elements)+1)
		desc := schemas.ElementDescriptor{
			ID:           id,
			Kind:         kind,
			Subtype:      subtype,
			Text:         collapseText(cand.Text),
			Value:        cand.Attrs["value"],
			Placeholder:  cand.Attrs["placeholder"],
			Name:         cand.Attrs["name"],
			DOMID:        cand.Attrs["id"],
			Classes:      cand.Attrs["class"],
			Role:         role,
			RoleExplicit: explicit,
			Label:        resolveLabel(cand),
			Visible:      true,
		}
		snap.Elements = append(snap.Elements, desc)
		snap.refs[id] = cand.Ref
	}

	e.logger.Debug("Snapshot built",
		zap.Int("candidates", len(raw)),
		zap.Int("elements", len(snap.Elements)))
	return snap
}

// classify maps a raw candidate to an element kind. The bool result is false
// for candidates that are not actionable at all (hidden inputs, bare divs).
func classify(c schemas.RawCandidate) (schemas.ElementKind, string, bool) {
	switch strings.ToLower(c.Tag) {
	case "input":
		t := strings.ToLower(c.InputType)
		if t == "" {
			t = "text"
		}
		switch t {
		case "hidden":
			return "", "", false
		case "button", "submit", "reset", "image":
			return schemas.KindButton, t, true
		default:
			return schemas.KindInput, t, true
		}
	case "textarea":
		return schemas.KindTextarea, "", true
	case "button":
		return schemas.KindButton, "", true
	case "select":
		return schemas.KindSelect, "", true
	case "a":
		if c.Attrs["href"] == "" {
			return "", "", false
		}
		return schemas.KindLink, "", true
	}

	if c.Editable {
		return schemas.KindTextarea, "contenteditable", true
	}
	if role := strings.ToLower(c.Attrs["role"]); widgetRoles[role] {
		return schemas.KindAriaWidget, role, true
	}
	return "", "", false
}

// resolveLabel picks the accessible name for a candidate. Explicit label
// associations win over ARIA attributes, matching what a screen reader
// announces for form controls.
func resolveLabel(c schemas.RawCandidate) string {
	for _, s := range []string{c.LabelFor, c.WrapLabel, c.AriaLabelledBy, c.Attrs["aria-label"]} {
		if t := collapseText(s); t != "" {
			return t
		}
	}
	if t := collapseText(c.Attrs["placeholder"]); t != "" {
		return t
	}
	if t := collapseText(c.Text); t != "" {
		return t
	}
	return collapseText(c.Attrs["name"])
}

// resolveRole prefers the author's explicit role attribute over the implicit
// role inferred from the tag. The bool reports which of the two it was, since
// role+name locating ranks explicit-role matches first.
func resolveRole(c schemas.RawCandidate, subtype string) (string, bool) {
	if role := strings.ToLower(c.Attrs["role"]); role != "" {
		return role, true
	}
	return inferRole(c.Tag, subtype), false
}

// collapseText normalizes whitespace and bounds the length of user-visible text.
func collapseText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxTextLen {
		s = s[:maxTextLen] + "..."
	}
	return s
}
