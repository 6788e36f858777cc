// internal/executor/locator.go
package executor

import (
	"context"
	"regexp"
	"strings"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/extractor"
)

// containsRegex matches the jQuery-style :contains("text") selector suffix the
// oracle sometimes emits. It is not valid CSS, so it is split off and matched
// against element text separately.
var containsRegex = regexp.MustCompile(`^(.*?):contains\(["']?(.*?)["']?\)$`)

// locate resolves an action's target to a live page handle. Resolution
// priority is the semantic role+name pair, then the snapshot element id, then
// the structural selector.
func (ex *Executor) locate(ctx context.Context, target schemas.Locator, occurrence int, snap *extractor.Snapshot) (schemas.PageRef, error) {
	switch {
	case target.IsRoleName():
		return ex.locateByRoleName(target, occurrence, snap)
	case target.IsElementID():
		return locateByID(target.ElementID, snap)
	case target.IsSelector():
		return ex.locateBySelector(ctx, target, occurrence)
	default:
		return "", &ElementNotFoundError{Locator: target}
	}
}

// rolePool holds name-ranked candidates for one role-match tier.
type rolePool struct {
	exact   []string
	partial []string
}

func (p rolePool) ranked() []string { return append(p.exact, p.partial...) }

// locateByRoleName matches against the snapshot's descriptors. Elements whose
// role attribute was written by the author form the first pool; elements that
// only carry the role implicitly via their tag are the fallback when no
// explicit-role element matches. Within a pool, exact matches on text, label,
// name, or placeholder rank ahead of case-sensitive substring matches;
// occurrence indexes into the ranked list.
func (ex *Executor) locateByRoleName(target schemas.Locator, occurrence int, snap *extractor.Snapshot) (schemas.PageRef, error) {
	if snap == nil || snap.Stale() {
		return "", &StaleReferenceError{ElementID: target.String()}
	}

	var explicit, implicit rolePool
	for _, el := range snap.Elements {
		if !strings.EqualFold(el.Role, target.Role) {
			continue
		}
		pool := &implicit
		if el.RoleExplicit {
			pool = &explicit
		}
		switch matchName(el, target.Name) {
		case matchExact:
			pool.exact = append(pool.exact, el.ID)
		case matchSubstring:
			pool.partial = append(pool.partial, el.ID)
		}
	}

	ranked := explicit.ranked()
	if len(ranked) == 0 {
		ranked = implicit.ranked()
	}
	if occurrence < 0 || occurrence >= len(ranked) {
		return "", &ElementNotFoundError{Locator: target}
	}
	return locateByID(ranked[occurrence], snap)
}

type nameMatch int

const (
	matchNone nameMatch = iota
	matchSubstring
	matchExact
)

// matchName compares a locator name against the fields an accessible name can
// come from. An empty locator name matches any element of the role.
func matchName(el schemas.ElementDescriptor, name string) nameMatch {
	if name == "" {
		return matchExact
	}
	fields := []string{el.Text, el.Label, el.Name, el.Placeholder}
	for _, f := range fields {
		if f != "" && f == name {
			return matchExact
		}
	}
	for _, f := range fields {
		if f != "" && strings.Contains(f, name) {
			return matchSubstring
		}
	}
	return matchNone
}

// locateByID maps a snapshot element id to its page handle. A miss on a stale
// snapshot is a stale reference; a miss on a live snapshot means the oracle
// invented the id.
func locateByID(id string, snap *extractor.Snapshot) (schemas.PageRef, error) {
	if snap == nil || snap.Stale() {
		return "", &StaleReferenceError{ElementID: id}
	}
	ref, ok := snap.Resolve(id)
	if !ok {
		return "", &ElementNotFoundError{Locator: schemas.Locator{ElementID: id}}
	}
	return ref, nil
}

// locateBySelector asks the page to resolve a structural selector, peeling
// off a :contains() suffix into a text filter first.
func (ex *Executor) locateBySelector(ctx context.Context, target schemas.Locator, occurrence int) (schemas.PageRef, error) {
	query := schemas.ElementQuery{Selector: target.Selector}
	if m := containsRegex.FindStringSubmatch(target.Selector); m != nil {
		query.Selector = strings.TrimSpace(m[1])
		if query.Selector == "" {
			query.Selector = "*"
		}
		query.TextContains = m[2]
	}

	candidates, err := ex.page.ResolveQuery(ctx, query)
	if err != nil {
		return "", err
	}
	if occurrence < 0 || occurrence >= len(candidates) {
		return "", &ElementNotFoundError{Locator: target}
	}
	return candidates[occurrence].Ref, nil
}
