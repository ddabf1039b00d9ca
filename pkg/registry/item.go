package registry

import (
	"github.com/fwdaemon/devregistry/internal/loop"
	"github.com/fwdaemon/devregistry/pkg/core"
)

// item is one registration record. It has no public operations — the
// Registry alone constructs and destroys items.
type item struct {
	device core.Device

	// pendingRemoval is non-nil iff a removal has been requested on this
	// item and no subsequent add or re-removal has superseded it.
	pendingRemoval *loop.Timer
}

// cancelPending stops any running removal timer and clears the handle. It
// is idempotent: calling it on an item with no pending timer is a no-op.
func (it *item) cancelPending() {
	if it.pendingRemoval != nil {
		it.pendingRemoval.Stop()
		it.pendingRemoval = nil
	}
}

// candidateIDs returns the identifiers find_by_id should prefix-match
// against: the primary id, plus the equivalent id when present.
func candidateIDs(d core.Device) []string {
	ids := []string{d.ID()}
	if eq, ok := d.EquivalentID(); ok && eq != "" {
		ids = append(ids, eq)
	}
	return ids
}
