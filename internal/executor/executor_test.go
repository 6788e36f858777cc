// internal/executor/executor_test.go
package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/config"
	"github.com/voxweb/voxweb/internal/extractor"
	"github.com/voxweb/voxweb/internal/mocks"
)

// loginCandidates is a small login form used across the tests.
func loginCandidates() []schemas.RawCandidate {
	shown := func(c schemas.RawCandidate) schemas.RawCandidate {
		c.Width, c.Height, c.Display, c.Visibility, c.Opacity = 100, 20, "block", "visible", 1
		return c
	}
	return []schemas.RawCandidate{
		shown(schemas.RawCandidate{Ref: "ref-user", Tag: "input", InputType: "text", LabelFor: "Username", Attrs: map[string]string{"name": "user"}}),
		shown(schemas.RawCandidate{Ref: "ref-pass", Tag: "input", InputType: "password", LabelFor: "Password", Attrs: map[string]string{"name": "pass"}}),
		shown(schemas.RawCandidate{Ref: "ref-login", Tag: "button", Text: "Log In"}),
		shown(schemas.RawCandidate{Ref: "ref-login2", Tag: "button", Text: "Log In with SSO"}),
		shown(schemas.RawCandidate{Ref: "ref-country", Tag: "select", Attrs: map[string]string{"name": "country"}}),
	}
}

// snapshotFor builds a real snapshot over the fake page's candidates.
func snapshotFor(t *testing.T, page *mocks.FakePage) *extractor.Snapshot {
	t.Helper()
	ext := extractor.New(page, config.ExtractorConfig{MaxElements: 100}, zap.NewNop())
	snap := ext.Snapshot(context.Background())
	require.NotEmpty(t, snap.Elements)
	return snap
}

func newTestSetup(t *testing.T) (*Executor, *mocks.FakePage, *extractor.Snapshot) {
	t.Helper()
	page := &mocks.FakePage{
		CollectCandidatesFn: func(ctx context.Context) ([]schemas.RawCandidate, error) {
			return loginCandidates(), nil
		},
	}
	snap := snapshotFor(t, page)
	return New(page, zap.NewNop()), page, snap
}

// -- Validation --

func TestExecuteRejectsBadActions(t *testing.T) {
	ex, _, snap := newTestSetup(t)
	ctx := context.Background()

	res := ex.Execute(ctx, schemas.ActionDescriptor{Type: "hover", Target: schemas.Locator{ElementID: "element_1"}}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeActionUnsupported, res.Code)

	res = ex.Execute(ctx, schemas.ActionDescriptor{Type: schemas.ActionTypeIn, Target: schemas.Locator{ElementID: "element_1"}}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeInvalidParameters, res.Code, "type without a value is invalid")

	res = ex.Execute(ctx, schemas.ActionDescriptor{Type: schemas.ActionClick}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeInvalidParameters, res.Code, "empty locator is invalid")
}

// -- Locator resolution --

func TestLocateByElementID(t *testing.T) {
	ex, page, snap := newTestSetup(t)
	ctx := context.Background()

	var clicked schemas.PageRef
	page.PerformClickFn = func(ctx context.Context, ref schemas.PageRef) error {
		clicked = ref
		return nil
	}

	res := ex.Execute(ctx, schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{ElementID: "element_3"},
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.PageRef("ref-login"), clicked)
}

func TestLocateUnknownElementID(t *testing.T) {
	ex, _, snap := newTestSetup(t)

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{ElementID: "element_99"},
	}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeElementNotFound, res.Code)
}

func TestLocateOnStaleSnapshot(t *testing.T) {
	ex, _, snap := newTestSetup(t)
	snap.Invalidate()

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{ElementID: "element_3"},
	}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeStaleReference, res.Code)
}

func TestLocateByRoleName(t *testing.T) {
	ex, page, snap := newTestSetup(t)
	ctx := context.Background()

	var clicked schemas.PageRef
	page.PerformClickFn = func(ctx context.Context, ref schemas.PageRef) error {
		clicked = ref
		return nil
	}

	// Exact match beats the substring match ("Log In" vs "Log In with SSO").
	res := ex.Execute(ctx, schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{Role: "button", Name: "Log In"},
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.PageRef("ref-login"), clicked)

	// occurrenceIndex walks the ranked match list.
	res = ex.Execute(ctx, schemas.ActionDescriptor{
		Type:            schemas.ActionClick,
		Target:          schemas.Locator{Role: "button", Name: "Log In"},
		OccurrenceIndex: 1,
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.PageRef("ref-login2"), clicked)
}

// When a locator carries both a role+name pair and a selector, the pair wins
// and the selector is never consulted.
func TestRoleNameOutranksSelector(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	var clicked schemas.PageRef
	page.PerformClickFn = func(ctx context.Context, ref schemas.PageRef) error {
		clicked = ref
		return nil
	}
	page.ResolveQueryFn = func(ctx context.Context, q schemas.ElementQuery) ([]schemas.Candidate, error) {
		return []schemas.Candidate{{Ref: "ref-country"}}, nil
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type: schemas.ActionClick,
		Target: schemas.Locator{
			Role:     "button",
			Name:     "Log In",
			Selector: `select[name="country"]`,
		},
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.PageRef("ref-login"), clicked)
	assert.Equal(t, 0, page.CallCount("ResolveQuery"))
}

// An author-written role attribute outranks a role inferred from the tag,
// even when the inferred match comes earlier in the page.
func TestExplicitRoleOutranksInferredRole(t *testing.T) {
	shown := func(c schemas.RawCandidate) schemas.RawCandidate {
		c.Width, c.Height, c.Display, c.Visibility, c.Opacity = 100, 20, "block", "visible", 1
		return c
	}
	page := &mocks.FakePage{
		CollectCandidatesFn: func(ctx context.Context) ([]schemas.RawCandidate, error) {
			return []schemas.RawCandidate{
				shown(schemas.RawCandidate{Ref: "ref-plain", Tag: "button", Text: "Save"}),
				shown(schemas.RawCandidate{Ref: "ref-aria", Tag: "div", Text: "Save", Attrs: map[string]string{"role": "button"}}),
			}, nil
		},
	}
	snap := snapshotFor(t, page)
	ex := New(page, zap.NewNop())

	var clicked schemas.PageRef
	page.PerformClickFn = func(ctx context.Context, ref schemas.PageRef) error {
		clicked = ref
		return nil
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{Role: "button", Name: "Save"},
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.PageRef("ref-aria"), clicked)

	// With no explicit matches left, the inferred tag role is the fallback.
	res = ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:            schemas.ActionClick,
		Target:          schemas.Locator{Role: "button", Name: "Save"},
		OccurrenceIndex: 1,
	}, snap)
	assert.False(t, res.Success, "explicit matches form their own pool; the plain button is not occurrence 1 of it")

	res = ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{Role: "textbox", Name: "Save"},
	}, snap)
	assert.False(t, res.Success)
}

func TestLocateByRoleNameNoMatch(t *testing.T) {
	ex, _, snap := newTestSetup(t)

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{Role: "button", Name: "Sign Out"},
	}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeElementNotFound, res.Code)
}

func TestLocateBySelectorWithContains(t *testing.T) {
	ex, page, snap := newTestSetup(t)
	ctx := context.Background()

	var gotQuery schemas.ElementQuery
	page.ResolveQueryFn = func(ctx context.Context, q schemas.ElementQuery) ([]schemas.Candidate, error) {
		gotQuery = q
		return []schemas.Candidate{{Ref: "ref-login"}}, nil
	}

	res := ex.Execute(ctx, schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{Selector: `button:contains("Log In")`},
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "button", gotQuery.Selector)
	assert.Equal(t, "Log In", gotQuery.TextContains)
}

// -- Interaction outcomes --

func TestClickReportsVisibleChange(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	states := []schemas.PageState{
		{URL: "https://example.com/login", DocumentLength: 5000},
		{URL: "https://example.com/home", DocumentLength: 9000},
	}
	idx := 0
	page.ObserveStateFn = func(ctx context.Context) (schemas.PageState, error) {
		s := states[idx]
		if idx < len(states)-1 {
			idx++
		}
		return s, nil
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{ElementID: "element_3"},
	}, snap)
	require.True(t, res.Success)
	assert.True(t, res.VisibleChange)
	assert.Empty(t, res.Warning)
}

func TestNoopClickSucceedsWithWarning(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	page.ObserveStateFn = func(ctx context.Context) (schemas.PageState, error) {
		return schemas.PageState{URL: "https://example.com", DocumentLength: 5000}, nil
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{ElementID: "element_3"},
	}, snap)
	require.True(t, res.Success)
	assert.False(t, res.VisibleChange)
	assert.Contains(t, res.Warning, "no observable change")
}

func TestTypeDelegatesValue(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	var gotRef schemas.PageRef
	var gotValue string
	page.PerformTypeFn = func(ctx context.Context, ref schemas.PageRef, value string) error {
		gotRef, gotValue = ref, value
		return nil
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionTypeIn,
		Target: schemas.Locator{ElementID: "element_1"},
		Value:  "alice",
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, schemas.PageRef("ref-user"), gotRef)
	assert.Equal(t, "alice", gotValue)
}

func TestSelectMatchesOptionAndSetsIndex(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	page.OuterHTMLFn = func(ctx context.Context, ref schemas.PageRef) (string, error) {
		return `<select name="country">
			<option value="">Choose...</option>
			<option value="de">Germany</option>
			<option value="fr">France</option>
		</select>`, nil
	}
	var gotIndex int
	page.PerformSetSelectFn = func(ctx context.Context, ref schemas.PageRef, index int) error {
		gotIndex = index
		return nil
	}

	// Matching by visible text, not value attribute.
	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionSelect,
		Target: schemas.Locator{ElementID: "element_5"},
		Value:  "France",
	}, snap)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 2, gotIndex)
}

func TestSelectUnknownOptionFails(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	page.OuterHTMLFn = func(ctx context.Context, ref schemas.PageRef) (string, error) {
		return `<select><option value="a">A</option></select>`, nil
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionSelect,
		Target: schemas.Locator{ElementID: "element_5"},
		Value:  "Z",
	}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeExecutionFailure, res.Code)
	assert.Contains(t, res.Error, "no selectable option")
}

func TestPerformFailureIsReported(t *testing.T) {
	ex, page, snap := newTestSetup(t)

	page.PerformClickFn = func(ctx context.Context, ref schemas.PageRef) error {
		return errors.New("node detached during dispatch")
	}

	res := ex.Execute(context.Background(), schemas.ActionDescriptor{
		Type:   schemas.ActionClick,
		Target: schemas.Locator{ElementID: "element_3"},
	}, snap)
	assert.False(t, res.Success)
	assert.Equal(t, schemas.ErrCodeExecutionFailure, res.Code)
	assert.Contains(t, res.Error, "node detached")
}
