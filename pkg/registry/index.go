package registry

import (
	"fmt"

	"github.com/fwdaemon/devregistry/pkg/core"
)

// findByGUID performs a linear scan over items, returning the first whose
// device reports HasGUID(guid). GUID uniqueness across devices is not the
// registry's concern — callers should not depend on which item wins if a
// GUID happens to collide.
func findByGUID(items []*item, guid string) (core.Device, error) {
	for _, it := range items {
		if it.device.HasGUID(guid) {
			return it.device, nil
		}
	}
	return nil, fmt.Errorf("GUID %s was not found: %w", guid, core.ErrNotFound)
}

// findByID supports abbreviated identifiers: q is treated as a prefix of
// length L against every candidate id (the device's own id plus its
// equivalent id, when present). An item matches if any of its candidates
// has q as a prefix. Two or more distinct items matching is ambiguous —
// note that an item whose id *and* equivalent id both prefix-match q only
// counts once, so it alone is never ambiguous (see spec.md §4.B.2 / §9.1).
func findByID(items []*item, q string) (core.Device, error) {
	var match *item
	ambiguous := false

	for _, it := range items {
		if itemMatchesID(it, q) {
			if match != nil {
				ambiguous = true
			}
			match = it
		}
	}

	if match == nil {
		return nil, fmt.Errorf("device ID %s was not found: %w", q, core.ErrNotFound)
	}
	if ambiguous {
		return nil, fmt.Errorf("device ID %s was not unique: %w", q, core.ErrNotUnique)
	}
	return match.device, nil
}

func itemMatchesID(it *item, q string) bool {
	l := len(q)
	for _, candidate := range candidateIDs(it.device) {
		if len(candidate) >= l && candidate[:l] == q {
			return true
		}
	}
	return false
}
