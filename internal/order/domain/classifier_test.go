package order

import (
	"testing"
	"time"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2026, time.March, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestNewSequenceContext(t *testing.T) {
	first := Order{ID: "o1", StartDate: day(1), EndDate: day(1)}
	second := Order{ID: "o2", StartDate: day(2), EndDate: day(10)}

	t.Run("persisted first order", func(t *testing.T) {
		seq := NewSequenceContext(&first, []Order{first, second})
		if seq.Count != 2 {
			t.Fatalf("count = %d, want 2", seq.Count)
		}
		if !seq.First {
			t.Fatal("expected first")
		}
	})

	t.Run("persisted later order", func(t *testing.T) {
		seq := NewSequenceContext(&second, []Order{first, second})
		if seq.Count != 2 {
			t.Fatalf("count = %d, want 2", seq.Count)
		}
		if seq.First {
			t.Fatal("expected not first")
		}
	})

	t.Run("unpersisted order counts itself", func(t *testing.T) {
		draft := Order{ID: "o3"}
		seq := NewSequenceContext(&draft, []Order{first, second})
		if seq.Count != 3 {
			t.Fatalf("count = %d, want 3", seq.Count)
		}
		if seq.First {
			t.Fatal("expected not first")
		}
	})

	t.Run("unpersisted order with no siblings is first", func(t *testing.T) {
		draft := Order{ID: "o1"}
		seq := NewSequenceContext(&draft, nil)
		if seq.Count != 1 {
			t.Fatalf("count = %d, want 1", seq.Count)
		}
		if !seq.First {
			t.Fatal("expected first")
		}
	})
}

func TestClassify(t *testing.T) {
	closedGroup := &OrderGroup{ID: "g1", StartDate: day(1), EndDate: day(29)}
	openGroup := &OrderGroup{ID: "g2", StartDate: day(1)}

	cases := []struct {
		name      string
		order     *Order
		group     *OrderGroup
		seq       SequenceContext
		autoRenew bool
		want      Type
	}{
		{
			name:  "single day first order at group start is delivery",
			order: &Order{ID: "o1", StartDate: day(1), EndDate: day(1)},
			group: closedGroup,
			seq:   SequenceContext{Count: 3, First: true},
			want:  TypeDelivery,
		},
		{
			name:  "sole full range order is one time",
			order: &Order{ID: "o1", StartDate: day(1), EndDate: day(29)},
			group: closedGroup,
			seq:   SequenceContext{Count: 1, First: true},
			want:  TypeOneTime,
		},
		{
			name:      "sole full range order on renewing product is auto renewal",
			order:     &Order{ID: "o1", StartDate: day(1), EndDate: day(29)},
			group:     closedGroup,
			seq:       SequenceContext{Count: 1, First: true},
			autoRenew: true,
			want:      TypeAutoRenewal,
		},
		{
			name:  "later order ending at group end is removal",
			order: &Order{ID: "o3", StartDate: day(20), EndDate: day(29)},
			group: closedGroup,
			seq:   SequenceContext{Count: 3},
			want:  TypeRemoval,
		},
		{
			name:  "first order ending at group end stays delivery",
			order: &Order{ID: "o1", StartDate: day(1), EndDate: day(29)},
			group: closedGroup,
			seq:   SequenceContext{Count: 3, First: true},
			want:  TypeDelivery,
		},
		{
			name:  "mid sequence order in open group is swap",
			order: &Order{ID: "o2", StartDate: day(5), EndDate: day(12)},
			group: openGroup,
			seq:   SequenceContext{Count: 2},
			want:  TypeSwap,
		},
		{
			name:      "mid sequence order on renewing open group is auto renewal",
			order:     &Order{ID: "o2", StartDate: day(5), EndDate: day(12)},
			group:     openGroup,
			seq:       SequenceContext{Count: 2},
			autoRenew: true,
			want:      TypeAutoRenewal,
		},
		{
			name:  "partial range later order in closed group is unclassified",
			order: &Order{ID: "o2", StartDate: day(5), EndDate: day(12)},
			group: closedGroup,
			seq:   SequenceContext{Count: 2},
			want:  TypeUnclassified,
		},
		{
			name:  "nil order is unclassified",
			order: nil,
			group: closedGroup,
			want:  TypeUnclassified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.order, tc.group, tc.seq, tc.autoRenew)
			if got != tc.want {
				t.Fatalf("Classify() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifySingleDayGroup(t *testing.T) {
	group := &OrderGroup{ID: "g1", StartDate: day(1), EndDate: day(1)}
	o := &Order{ID: "o1", StartDate: day(1), EndDate: day(1)}
	got := Classify(o, group, SequenceContext{Count: 1, First: true}, false)
	if got != TypeDelivery {
		t.Fatalf("Classify() = %s, want %s", got, TypeDelivery)
	}
}
