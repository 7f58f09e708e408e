package models

import "testing"

func TestOrderStateAtLeast(t *testing.T) {
	cases := []struct {
		state, other OrderState
		want         bool
	}{
		{StatePaid, StatePaid, true},
		{StateShipping, StatePaid, true},
		{StateDelivered, StatePending, true},
		{StatePending, StatePaid, false},
		{StateCancelled, StatePending, false},
		{StateCancelled, StatePaid, false},
	}
	for _, c := range cases {
		if got := c.state.AtLeast(c.other); got != c.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", c.state, c.other, got, c.want)
		}
	}
}

func TestOrderStateTerminal(t *testing.T) {
	if !StateDelivered.Terminal() || !StateCancelled.Terminal() {
		t.Error("DELIVERED and CANCELLED must be terminal")
	}
	if StatePending.Terminal() || StatePaid.Terminal() || StateShipping.Terminal() {
		t.Error("non-final states must not be terminal")
	}
}

func TestCostConsistent(t *testing.T) {
	ok := Cost{Products: 25000, ShippingFees: 3000, Total: 28000}
	if !ok.Consistent() {
		t.Error("expected cost to be consistent")
	}

	discounted := Cost{Products: 25000, ShippingFees: 3000, DiscountProducts: 5000, Total: 23000}
	if !discounted.Consistent() {
		t.Error("expected discounted cost to be consistent")
	}

	bad := Cost{Products: 25000, ShippingFees: 3000, Total: 20000}
	if bad.Consistent() {
		t.Error("expected tampered cost to be inconsistent")
	}
}

func TestStagedOrderValidate(t *testing.T) {
	valid := StagedOrder{
		Kind: PurchaseCart,
		Items: []StagedLineItem{
			{ProductID: "1", ProductName: "Monstera", UnitPrice: 10000, Quantity: 2},
			{ProductID: "2", ProductName: "Fern", UnitPrice: 5000, Quantity: 1},
		},
		TotalAmount: 28000,
		ShippingFee: 3000,
		CartLineIDs: []string{"c1", "c2"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid staged order rejected: %v", err)
	}
	if got := valid.ComputedTotal(); got != 28000 {
		t.Fatalf("ComputedTotal = %d, want 28000", got)
	}

	badQty := valid
	badQty.Items = []StagedLineItem{{ProductID: "1", ProductName: "Monstera", UnitPrice: 10000, Quantity: 0}}
	if err := badQty.Validate(); err == nil {
		t.Error("expected zero quantity to be rejected")
	}

	noLines := valid
	noLines.CartLineIDs = nil
	if err := noLines.Validate(); err == nil {
		t.Error("expected cart purchase without line ids to be rejected")
	}

	badTotal := valid
	badTotal.TotalAmount = 20000
	if err := badTotal.Validate(); err == nil {
		t.Error("expected mismatched total to be rejected")
	}
}
