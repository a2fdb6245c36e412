// Package reconcile computes the delta between current and desired cart
// contents. The platform has no quantity-update endpoint, so a quantity
// change becomes remove-every-instance followed by one add at the new
// quantity. Removals are applied before adds to keep the cart from
// transiently holding both copies of a changed item.
package reconcile

// CurrentItem is one tracked instance in the cart. A catalog item added
// twice appears as two instances with distinct InstanceIDs.
type CurrentItem struct {
	CatalogID  string // Menu item identifier
	InstanceID string // Per-add identifier the removal endpoint needs
	Quantity   int
}

// DesiredItem is one entry of the target cart state, keyed by catalog item.
type DesiredItem struct {
	CatalogID string
	Quantity  int
}

// CartDiff describes the mutations needed to reconcile cart items.
// Apply ToRemove before ToAdd.
type CartDiff struct {
	ToRemove []string      // Instance IDs to remove
	ToAdd    []DesiredItem // Catalog items to (re-)add at their target quantity
}

// IsEmpty returns true if no cart changes are needed.
func (d *CartDiff) IsEmpty() bool {
	return len(d.ToRemove) == 0 && len(d.ToAdd) == 0
}

// DiffCartItems computes the mutations turning current into desired.
// Matching is by CatalogID; instance quantities for the same catalog item
// are summed before comparison. Output order follows input order, so the
// result is deterministic.
func DiffCartItems(current []CurrentItem, desired []DesiredItem) *CartDiff {
	diff := &CartDiff{}

	currentQty := make(map[string]int)
	instancesByID := make(map[string][]string)
	for _, item := range current {
		currentQty[item.CatalogID] += item.Quantity
		instancesByID[item.CatalogID] = append(instancesByID[item.CatalogID], item.InstanceID)
	}

	desiredQty := make(map[string]int)
	for _, item := range desired {
		desiredQty[item.CatalogID] += item.Quantity
	}

	// Walk desired in input order: new items are plain adds, quantity
	// changes replace every existing instance.
	seen := make(map[string]bool)
	for _, item := range desired {
		if seen[item.CatalogID] {
			continue
		}
		seen[item.CatalogID] = true

		target := desiredQty[item.CatalogID]
		have, exists := currentQty[item.CatalogID]
		if !exists {
			diff.ToAdd = append(diff.ToAdd, DesiredItem{CatalogID: item.CatalogID, Quantity: target})
			continue
		}
		if have != target {
			diff.ToRemove = append(diff.ToRemove, instancesByID[item.CatalogID]...)
			diff.ToAdd = append(diff.ToAdd, DesiredItem{CatalogID: item.CatalogID, Quantity: target})
		}
	}

	// Anything current but not desired goes away.
	removed := make(map[string]bool)
	for _, item := range current {
		if _, wanted := desiredQty[item.CatalogID]; wanted || removed[item.CatalogID] {
			continue
		}
		removed[item.CatalogID] = true
		diff.ToRemove = append(diff.ToRemove, instancesByID[item.CatalogID]...)
	}

	return diff
}
