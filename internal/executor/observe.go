// internal/executor/observe.go
package executor

import "github.com/voxweb/voxweb/api/schemas"

// Materiality thresholds for the before/after page state diff. Changes below
// these are treated as noise (live tickers, ad rotations) rather than an
// effect of the executed action.
const (
	docLengthThreshold = 100 // characters of serialized document delta
	scrollThreshold    = 50  // pixels on either axis
)

// statesDiffer reports whether two page observations differ materially.
// URL, focus, dialog, and modal changes always count; document length and
// scroll position must cross their thresholds.
func statesDiffer(before, after schemas.PageState) bool {
	if before.URL != after.URL {
		return true
	}
	if before.ActiveElement != after.ActiveElement {
		return true
	}
	if before.DialogCount != after.DialogCount || before.ModalCount != after.ModalCount {
		return true
	}
	if absInt(after.DocumentLength-before.DocumentLength) > docLengthThreshold {
		return true
	}
	if absFloat(after.ScrollX-before.ScrollX) > scrollThreshold ||
		absFloat(after.ScrollY-before.ScrollY) > scrollThreshold {
		return true
	}
	return false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
