package split

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func testItems(t *testing.T) []LineItem {
	return []LineItem{
		{SourceIndex: 0, BackendItemID: "itm-1", Name: "Coffee", UnitPrice: dec(t, "4.50"), Quantity: 2},
		{SourceIndex: 1, Name: "Bagel", UnitPrice: dec(t, "3.25"), Quantity: 1},
		{SourceIndex: 2, BackendItemID: "itm-3", Name: "Juice", UnitPrice: dec(t, "5.00"), Quantity: 1},
	}
}

func TestCompute(t *testing.T) {
	items := testItems(t)
	keys := BuildKeys(items)

	alice := Participant{ID: "p-alice", Name: "Alice", IsSelf: true}
	bob := Participant{ID: "p-bob", Name: "Bob", DisplayOrder: 1}
	carol := Participant{ID: "p-carol", Name: "Carol", DisplayOrder: 2}

	tests := []struct {
		name         string
		assign       func(t *testing.T, a *Assignments)
		participants []Participant
		validate     func(t *testing.T, shares []PersonShare)
	}{
		{
			name: "even split conserves the total",
			assign: func(t *testing.T, a *Assignments) {
				a.AssignAll([]string{alice.ID, bob.ID})
			},
			participants: []Participant{alice, bob},
			validate: func(t *testing.T, shares []PersonShare) {
				// 9.00 + 3.25 + 5.00 = 17.25 across two people.
				for _, s := range shares {
					if !s.TotalOwed.Equal(dec(t, "8.63")) && !s.TotalOwed.Equal(dec(t, "8.62")) {
						t.Fatalf("share %s owes %s", s.Name, s.TotalOwed)
					}
				}
				sum := shares[0].TotalOwed.Add(shares[1].TotalOwed)
				if sum.Sub(dec(t, "17.25")).Abs().GreaterThan(dec(t, "0.01")) {
					t.Fatalf("totals drifted: %s", sum)
				}
			},
		},
		{
			name: "unassigned items contribute to nobody",
			assign: func(t *testing.T, a *Assignments) {
				if err := a.Assign("itm-1", alice.ID); err != nil {
					t.Fatal(err)
				}
			},
			participants: []Participant{alice, bob},
			validate: func(t *testing.T, shares []PersonShare) {
				if !shares[0].TotalOwed.Equal(dec(t, "9.00")) {
					t.Fatalf("alice owes %s, want 9.00", shares[0].TotalOwed)
				}
				if !shares[1].TotalOwed.IsZero() || shares[1].ItemCount != 0 {
					t.Fatalf("bob should owe nothing, got %s", shares[1].TotalOwed)
				}
			},
		},
		{
			name: "rounds half away from zero at the total only",
			assign: func(t *testing.T, a *Assignments) {
				// Juice 5.00 across three people: 1.666... each.
				if err := a.Assign("itm-3", alice.ID); err != nil {
					t.Fatal(err)
				}
				if err := a.Assign("itm-3", bob.ID); err != nil {
					t.Fatal(err)
				}
				if err := a.Assign("itm-3", carol.ID); err != nil {
					t.Fatal(err)
				}
			},
			participants: []Participant{alice, bob, carol},
			validate: func(t *testing.T, shares []PersonShare) {
				for _, s := range shares {
					if !s.TotalOwed.Equal(dec(t, "1.67")) {
						t.Fatalf("%s owes %s, want 1.67", s.Name, s.TotalOwed)
					}
				}
			},
		},
		{
			name:         "empty assignments yield zero rows for everyone",
			assign:       func(t *testing.T, a *Assignments) {},
			participants: []Participant{alice, bob},
			validate: func(t *testing.T, shares []PersonShare) {
				if len(shares) != 2 {
					t.Fatalf("got %d shares, want 2", len(shares))
				}
				for _, s := range shares {
					if !s.TotalOwed.IsZero() {
						t.Fatalf("%s owes %s, want 0", s.Name, s.TotalOwed)
					}
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assignments := NewAssignments(keys.Keys())
			tc.assign(t, assignments)
			shares := Compute(items, keys, assignments, tc.participants)
			if len(shares) != len(tc.participants) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tc.participants))
			}
			tc.validate(t, shares)
		})
	}
}

func TestComputeQuantityMultipliesPrice(t *testing.T) {
	items := []LineItem{{SourceIndex: 0, Name: "Soda", UnitPrice: dec(t, "1.99"), Quantity: 3}}
	keys := BuildKeys(items)
	assignments := NewAssignments(keys.Keys())
	assignments.AssignAll([]string{"p-1"})

	shares := Compute(items, keys, assignments, []Participant{{ID: "p-1", Name: "Solo", IsSelf: true}})
	if !shares[0].TotalOwed.Equal(dec(t, "5.97")) {
		t.Fatalf("owes %s, want 5.97", shares[0].TotalOwed)
	}
	if !shares[0].Items[0].Price.Equal(dec(t, "5.97")) {
		t.Fatalf("line price %s, want 5.97", shares[0].Items[0].Price)
	}
}

func TestComputeDeterministic(t *testing.T) {
	items := testItems(t)
	keys := BuildKeys(items)
	assignments := NewAssignments(keys.Keys())
	assignments.AssignAll([]string{"p-a", "p-b"})
	participants := []Participant{
		{ID: "p-a", Name: "A", IsSelf: true},
		{ID: "p-b", Name: "B", DisplayOrder: 1},
	}

	first := Compute(items, keys, assignments, participants)
	for i := 0; i < 10; i++ {
		again := Compute(items, keys, assignments, participants)
		for j := range first {
			if !first[j].TotalOwed.Equal(again[j].TotalOwed) {
				t.Fatalf("run %d: share %d changed from %s to %s", i, j, first[j].TotalOwed, again[j].TotalOwed)
			}
		}
	}
}
