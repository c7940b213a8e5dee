package game

import (
	"reflect"
	"testing"
)

func TestBuyProperty(t *testing.T) {
	g := newTestGame("Alice", "Bob")

	id, ok := g.PropertyID("Old Kent Road")
	if !ok {
		t.Fatal("Old Kent Road not on board")
	}

	r := BuyProperty(0, id, 60).Apply(g)
	if !r.OK {
		t.Fatalf("Buy failed: %s", r.Message)
	}
	if g.Players[0].Cash != 140 {
		t.Errorf("Cash = %d, want 140", g.Players[0].Cash)
	}
	if g.Properties[id].Owner != 0 || !g.Players[0].Properties.Has(id) {
		t.Error("Ownership not recorded on both sides")
	}
	if g.PPI != 1.0 {
		t.Errorf("PPI = %v, want 1.0 after guide-price sale", g.PPI)
	}
	if g.Players[1].Cash != 200 {
		t.Error("Buying must not touch other players")
	}

	// The slot is taken now, whatever Bob offers.
	r = BuyProperty(1, id, 120).Apply(g)
	if r.OK || r.Message != "Property not available" {
		t.Errorf("Expected rejection with 'Property not available', got %+v", r)
	}
}

func TestBuyProperty_InsufficientCash(t *testing.T) {
	g := newTestGame("Alice")

	before := g.Copy()
	r := BuyProperty(0, 0, 500).Apply(g)
	if r.OK {
		t.Fatal("Expected buy to fail on insufficient cash")
	}
	if !reflect.DeepEqual(g, before) {
		t.Error("Rejected transaction must not mutate state")
	}
}

func TestSellProperty_UsesPriceIndex(t *testing.T) {
	g := newTestGame("Alice")
	give(g, 0, 0)
	g.PPI = 1.5

	r := SellProperty(0, 0).Apply(g)
	if !r.OK {
		t.Fatalf("Sell failed: %s", r.Message)
	}
	if g.Players[0].Cash != 200+90 {
		t.Errorf("Cash = %d, want 290", g.Players[0].Cash)
	}
	if g.Properties[0].Owner != NoOwner || g.Players[0].Properties.Has(0) {
		t.Error("Property did not return to the bank")
	}
}

func TestMortgageAndUnmortgage(t *testing.T) {
	g := newTestGame("Alice")
	give(g, 0, 0) // guide price 60

	r := Mortgage(0, 0).Apply(g)
	if !r.OK {
		t.Fatalf("Mortgage failed: %s", r.Message)
	}
	if !g.Properties[0].Mortgaged || g.Properties[0].MortgageAmount != 30 {
		t.Errorf("Mortgage state = %+v, want mortgaged for 30", g.Properties[0])
	}
	if g.Players[0].Cash != 230 {
		t.Errorf("Cash = %d, want 230", g.Players[0].Cash)
	}

	if r := Mortgage(0, 0).Apply(g); r.OK {
		t.Error("Expected second mortgage to fail")
	}

	r = Unmortgage(0, 0).Apply(g)
	if !r.OK {
		t.Fatalf("Unmortgage failed: %s", r.Message)
	}
	// 10% fee on the mortgage amount.
	if g.Players[0].Cash != 230-33 {
		t.Errorf("Cash = %d, want 197", g.Players[0].Cash)
	}
	if g.Properties[0].Mortgaged {
		t.Error("Property still mortgaged")
	}
}

func TestPassGo(t *testing.T) {
	g := newTestGame("Alice")
	p := &g.Players[0]
	p.SecuredDebt = 1000 // interest 50 at 5%

	r := PassGo(0).Apply(g)
	if !r.OK {
		t.Fatalf("PassGo failed: %s", r.Message)
	}
	if p.Cash != 200+200-50 {
		t.Errorf("Cash = %d, want 350", p.Cash)
	}
}

func TestPassGo_CannotCoverInterest(t *testing.T) {
	g := newTestGame("Alice")
	p := &g.Players[0]
	p.Cash = 0
	p.Salary = 10
	p.SecuredDebt = 1000 // interest 50

	r := PassGo(0).Apply(g)
	if r.OK || r.Message != "Not enough funds to pay interest" {
		t.Errorf("Expected interest rejection, got %+v", r)
	}
	if p.Cash != 0 {
		t.Error("Rejected pass-go must not touch cash")
	}
}

func TestSecuredDebtCeiling(t *testing.T) {
	g := newTestGame("Alice")

	if r := TakeOutSecuredDebt(0, 1001).Apply(g); r.OK {
		t.Error("Expected 1001 over the 1000 ceiling to fail")
	}

	r := TakeOutSecuredDebt(0, 1000).Apply(g)
	if !r.OK {
		t.Fatalf("TakeOutSecuredDebt failed: %s", r.Message)
	}
	if g.Players[0].SecuredDebt != 1000 || g.Players[0].Cash != 1200 {
		t.Errorf("Got debt %d cash %d, want 1000/1200", g.Players[0].SecuredDebt, g.Players[0].Cash)
	}
}

func TestPayOffDebt(t *testing.T) {
	g := newTestGame("Alice")
	g.Players[0].UnsecuredDebt = 100
	g.Players[0].Cash = 100

	if r := PayOffUnsecuredDebt(0, 150).Apply(g); r.OK || r.Message != "Cannot overpay debt" {
		t.Errorf("Expected overpay rejection, got %+v", r)
	}

	r := PayOffUnsecuredDebt(0, 100).Apply(g)
	if !r.OK {
		t.Fatalf("PayOff failed: %s", r.Message)
	}
	if g.Players[0].UnsecuredDebt != 0 || g.Players[0].Cash != 0 {
		t.Errorf("Got debt %d cash %d, want 0/0", g.Players[0].UnsecuredDebt, g.Players[0].Cash)
	}
}

func ownGroup(g *Game, playerID int, set PropertySet) {
	for _, id := range set.IDs() {
		give(g, playerID, id)
	}
}

func TestBuildHouses_Distribution(t *testing.T) {
	g := newTestGame("Alice")
	ownGroup(g, 0, LightBlue) // ids 2,3,4; house price 50
	g.Players[0].Cash = 1000

	r := BuildHouses(0, LightBlue, 3).Apply(g)
	if !r.OK {
		t.Fatalf("Build failed: %s", r.Message)
	}
	for _, id := range LightBlue.IDs() {
		if g.Properties[id].Houses != 1 {
			t.Errorf("Property %d has %d houses, want 1", id, g.Properties[id].Houses)
		}
	}
	if g.Players[0].Cash != 1000-150 {
		t.Errorf("Cash = %d, want 850", g.Players[0].Cash)
	}

	// Two more land on the higher-indexed properties first.
	if r := BuildHouses(0, LightBlue, 2).Apply(g); !r.OK {
		t.Fatalf("Build failed: %s", r.Message)
	}
	if g.Properties[2].Houses != 1 || g.Properties[3].Houses != 2 || g.Properties[4].Houses != 2 {
		t.Errorf("Houses = %d/%d/%d, want 1/2/2",
			g.Properties[2].Houses, g.Properties[3].Houses, g.Properties[4].Houses)
	}

	// Selling walks the same spread backwards.
	if r := SellHouses(0, LightBlue, 2).Apply(g); !r.OK {
		t.Fatalf("Sell failed: %s", r.Message)
	}
	for _, id := range LightBlue.IDs() {
		if g.Properties[id].Houses != 1 {
			t.Errorf("Property %d has %d houses after selling, want 1", id, g.Properties[id].Houses)
		}
	}
	if g.Players[0].Cash != 850-100+50 {
		t.Errorf("Cash = %d, want 800", g.Players[0].Cash)
	}
}

func TestBuildHouses_Preconditions(t *testing.T) {
	g := newTestGame("Alice")
	g.Players[0].Cash = 10000

	if r := BuildHouses(0, Stations, 1).Apply(g); r.OK || r.Message != "Can't build on stations" {
		t.Errorf("Expected station rejection, got %+v", r)
	}
	if r := BuildHouses(0, Utilities, 1).Apply(g); r.OK || r.Message != "Can't build on utilities" {
		t.Errorf("Expected utility rejection, got %+v", r)
	}

	give(g, 0, Brown.IDs()[0])
	if r := BuildHouses(0, Brown, 1).Apply(g); r.OK {
		t.Error("Expected rejection without the whole group")
	}

	give(g, 0, Brown.IDs()[1])
	if r := BuildHouses(0, Brown, 11).Apply(g); r.OK {
		t.Error("Expected rejection past 5 houses per property")
	}
	if r := BuildHouses(0, Brown, 10).Apply(g); !r.OK {
		t.Errorf("Build to the limit failed: %s", r.Message)
	}
}

func TestPayRepairs(t *testing.T) {
	g := newTestGame("Alice")
	ownGroup(g, 0, Brown)
	g.Properties[Brown.IDs()[0]].Houses = 2
	g.Properties[Brown.IDs()[1]].Houses = 5 // hotel
	g.Players[0].Cash = 500

	r := PayRepairs(0, 25, 100).Apply(g)
	if !r.OK {
		t.Fatalf("PayRepairs failed: %s", r.Message)
	}
	if g.Players[0].Cash != 500-2*25-100 {
		t.Errorf("Cash = %d, want 350", g.Players[0].Cash)
	}
}

func TestTransfer(t *testing.T) {
	g := newTestGame("Alice", "Bob")
	ownGroup(g, 0, Brown)
	g.Players[0].Cash = 100

	g.Properties[Brown.IDs()[0]].Houses = 1
	if r := Transfer(0, 1, 0, Brown).Apply(g); r.OK || r.Message != "Cannot transfer properties with houses on them" {
		t.Errorf("Expected houses rejection, got %+v", r)
	}
	g.Properties[Brown.IDs()[0]].Houses = 0

	r := Transfer(0, 1, 50, Brown).Apply(g)
	if !r.OK {
		t.Fatalf("Transfer failed: %s", r.Message)
	}
	if g.Players[0].Cash != 50 || g.Players[1].Cash != 250 {
		t.Errorf("Cash = %d/%d, want 50/250", g.Players[0].Cash, g.Players[1].Cash)
	}
	if g.Players[0].Properties != 0 || g.Players[1].Properties != Brown {
		t.Error("Property sets not transferred")
	}
	for _, id := range Brown.IDs() {
		if g.Properties[id].Owner != 1 {
			t.Errorf("Property %d owner = %d, want 1", id, g.Properties[id].Owner)
		}
	}
}

func TestConcedeToPlayer(t *testing.T) {
	g := newTestGame("Alice", "Bob")
	ownGroup(g, 0, Brown)
	g.Players[0].Cash = 75

	r := ConcedeToPlayer(0, 1).Apply(g)
	if !r.OK {
		t.Fatalf("Concede failed: %s", r.Message)
	}
	if g.Players[0].Cash != 0 || g.Players[0].Properties != 0 {
		t.Error("Loser keeps assets")
	}
	if g.Players[1].Cash != 275 || g.Players[1].Properties != Brown {
		t.Error("Victor did not receive the estate")
	}
	if len(g.Players) != 2 {
		t.Error("Conceding must not shrink the roster")
	}
}

func TestConcedeToBank(t *testing.T) {
	g := newTestGame("Alice")
	ownGroup(g, 0, Brown)
	g.Players[0].SecuredDebt = 300

	r := ConcedeToBank(0).Apply(g)
	if !r.OK {
		t.Fatalf("Concede failed: %s", r.Message)
	}
	if g.Players[0].Cash != 0 || g.Players[0].Properties != 0 {
		t.Error("Player assets not cleared")
	}
	for _, id := range Brown.IDs() {
		if g.Properties[id].Owner != NoOwner {
			t.Errorf("Property %d still owned", id)
		}
	}
	// Debts survive a concession to the bank.
	if g.Players[0].SecuredDebt != 300 {
		t.Errorf("SecuredDebt = %d, want 300", g.Players[0].SecuredDebt)
	}
}

func TestInterestTransactions(t *testing.T) {
	g := newTestGame("Alice")

	if r := RaiseInterest().Apply(g); !r.OK {
		t.Fatalf("Raise failed: %s", r.Message)
	}
	if g.SecuredInterest != 6 || g.UnsecuredInterest != 26 {
		t.Errorf("Rates = %d/%d, want 6/26", g.SecuredInterest, g.UnsecuredInterest)
	}

	for i := 0; i < 30; i++ {
		if r := LowerInterest().Apply(g); !r.OK {
			t.Fatalf("Lower failed: %s", r.Message)
		}
	}
	if g.SecuredInterest != 1 || g.UnsecuredInterest != 1 {
		t.Errorf("Rates = %d/%d, want floor of 1/1", g.SecuredInterest, g.UnsecuredInterest)
	}
}

func TestRejectedTransactionsLeaveStateUntouched(t *testing.T) {
	g := newTestGame("Alice", "Bob")
	give(g, 1, 5)
	g.Players[0].Cash = 10

	rejected := []Transaction{
		BuyProperty(0, 5, 5),        // owned by Bob
		SellProperty(0, 6),          // not owned
		Mortgage(0, 6),              // not owned
		Unmortgage(1, 5),            // not mortgaged
		BuildHouses(0, Brown, 1),    // group not owned
		PayToBank(0, 100),           // not enough cash
		TakeOutUnsecuredDebt(0, 300),
		PayOffSecuredDebt(0, 10),
		Transfer(1, 0, 500, 0),
	}

	for _, tx := range rejected {
		before := g.Copy()
		if r := tx.Apply(g); r.OK {
			t.Errorf("Transaction %+v unexpectedly succeeded", tx)
		}
		if !reflect.DeepEqual(g, before) {
			t.Errorf("Transaction %+v mutated state on rejection", tx)
		}
	}
}
