package order

// SequenceContext describes an order's position within its group's
// sequence, computed once from the ordered sibling list.
type SequenceContext struct {
	// Count is the number of orders in the group, this one included.
	Count int
	// First reports whether the order is first in creation order.
	First bool
}

// NewSequenceContext derives the position of an order within its
// siblings, which must be ordered by creation.
func NewSequenceContext(o *Order, siblings []Order) SequenceContext {
	ctx := SequenceContext{Count: len(siblings)}
	if o == nil {
		return ctx
	}
	found := false
	for i := range siblings {
		if siblings[i].ID == o.ID {
			found = true
			if i == 0 {
				ctx.First = true
			}
			break
		}
	}
	if !found {
		// The order is not yet persisted among its siblings.
		ctx.Count++
		ctx.First = len(siblings) == 0
	}
	return ctx
}

// Classify determines the order's type from its position in the group
// sequence. Rules are evaluated in precedence order, first match wins.
func Classify(o *Order, g *OrderGroup, seq SequenceContext, autoRenew bool) Type {
	if o == nil || g == nil {
		return TypeUnclassified
	}

	startsAtGroupStart := o.StartDate.Equal(g.StartDate)
	endsAtGroupEnd := g.HasEndDate() && o.EndDate.Equal(g.EndDate)
	singleDay := o.StartDate.Equal(o.EndDate)
	groupSingleDay := g.HasEndDate() && g.StartDate.Equal(g.EndDate)

	// DELIVERY: a single-day first order at the group start that is not
	// also the group's final day, unless the whole group is one day.
	if startsAtGroupStart && singleDay && seq.First && (!endsAtGroupEnd || groupSingleDay) {
		return TypeDelivery
	}

	// ONE_TIME: the only order, spanning the full group range, on a
	// product that does not auto-renew.
	if seq.Count == 1 && startsAtGroupStart && endsAtGroupEnd && !autoRenew {
		return TypeOneTime
	}

	// REMOVAL: ends at the group end with other orders before it. A
	// first order here still classifies as DELIVERY.
	if endsAtGroupEnd && seq.Count > 1 {
		if seq.First {
			return TypeDelivery
		}
		return TypeRemoval
	}

	// SWAP: a non-final order in an open-ended, non-renewing group.
	if seq.Count > 1 && !g.HasEndDate() && !autoRenew {
		return TypeSwap
	}

	if autoRenew {
		return TypeAutoRenewal
	}

	return TypeUnclassified
}
