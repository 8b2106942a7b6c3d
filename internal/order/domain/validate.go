package order

// ValidateForSave checks the save-time invariants of an order against its
// group and the group's other orders. Violations surface as
// *ValidationError and are never persisted.
func ValidateForSave(o *Order, g *OrderGroup, siblings []Order) error {
	if o == nil {
		return ErrNilOrder
	}
	if g == nil {
		return ErrNilGroup
	}
	if o.StartDate.After(o.EndDate) {
		return &ValidationError{OrderID: o.ID, Reason: "start date must be on or before end date"}
	}
	if o.StartDate.Before(g.StartDate) {
		return &ValidationError{OrderID: o.ID, Reason: "start date must be on or after order group start date"}
	}
	if g.HasEndDate() && o.EndDate.After(g.EndDate) {
		return &ValidationError{OrderID: o.ID, Reason: "end date must be on or before order group end date"}
	}

	for i := range siblings {
		sibling := &siblings[i]
		if sibling.ID == o.ID {
			continue
		}
		if sibling.StartDate.Before(o.EndDate) && sibling.EndDate.After(o.StartDate) {
			return &ValidationError{OrderID: o.ID, Reason: "date range overlaps another order in the group"}
		}
		if !sibling.IsSubmitted() && !o.IsSubmitted() {
			return &ValidationError{OrderID: o.ID, Reason: "only one unsubmitted order per order group"}
		}
	}
	return nil
}
