package game

import (
	"fmt"
	"sort"
)

// Kind identifies a transaction variant.
type Kind int

const (
	KindRaiseInterest Kind = iota
	KindLowerInterest
	KindPassGo
	KindBuyProperty
	KindSellProperty
	KindMortgage
	KindUnmortgage
	KindBuildHouses
	KindSellHouses
	KindPayRepairs
	KindPayToBank
	KindPayToPlayer
	KindTransfer
	KindTakeOutSecuredDebt
	KindTakeOutUnsecuredDebt
	KindPayOffSecuredDebt
	KindPayOffUnsecuredDebt
	KindConcedeToPlayer
	KindConcedeToBank
)

// Transaction is a named state-mutating operation: a kind plus its
// parameters, interpreted by Validate and Apply. Representing transactions
// as plain values keeps them inspectable and loggable.
//
// Field use varies by kind; constructors below are the supported surface.
type Transaction struct {
	Kind     Kind
	Player   int
	ToPlayer int
	Property int
	Set      PropertySet
	Amount   int

	CostPerHouse int
	CostPerHotel int
}

func RaiseInterest() Transaction {
	return Transaction{Kind: KindRaiseInterest}
}

func LowerInterest() Transaction {
	return Transaction{Kind: KindLowerInterest}
}

func PassGo(player int) Transaction {
	return Transaction{Kind: KindPassGo, Player: player}
}

func BuyProperty(player, property, price int) Transaction {
	return Transaction{Kind: KindBuyProperty, Player: player, Property: property, Amount: price}
}

func SellProperty(player, property int) Transaction {
	return Transaction{Kind: KindSellProperty, Player: player, Property: property}
}

func Mortgage(player, property int) Transaction {
	return Transaction{Kind: KindMortgage, Player: player, Property: property}
}

func Unmortgage(player, property int) Transaction {
	return Transaction{Kind: KindUnmortgage, Player: player, Property: property}
}

func BuildHouses(player int, set PropertySet, number int) Transaction {
	return Transaction{Kind: KindBuildHouses, Player: player, Set: set, Amount: number}
}

func SellHouses(player int, set PropertySet, number int) Transaction {
	return Transaction{Kind: KindSellHouses, Player: player, Set: set, Amount: number}
}

func PayRepairs(player, costPerHouse, costPerHotel int) Transaction {
	return Transaction{Kind: KindPayRepairs, Player: player, CostPerHouse: costPerHouse, CostPerHotel: costPerHotel}
}

func PayToBank(player, amount int) Transaction {
	return Transaction{Kind: KindPayToBank, Player: player, Amount: amount}
}

func PayToPlayer(player, amount int) Transaction {
	return Transaction{Kind: KindPayToPlayer, Player: player, Amount: amount}
}

func Transfer(fromPlayer, toPlayer, amount int, properties PropertySet) Transaction {
	return Transaction{Kind: KindTransfer, Player: fromPlayer, ToPlayer: toPlayer, Amount: amount, Set: properties}
}

func TakeOutSecuredDebt(player, amount int) Transaction {
	return Transaction{Kind: KindTakeOutSecuredDebt, Player: player, Amount: amount}
}

func TakeOutUnsecuredDebt(player, amount int) Transaction {
	return Transaction{Kind: KindTakeOutUnsecuredDebt, Player: player, Amount: amount}
}

func PayOffSecuredDebt(player, amount int) Transaction {
	return Transaction{Kind: KindPayOffSecuredDebt, Player: player, Amount: amount}
}

func PayOffUnsecuredDebt(player, amount int) Transaction {
	return Transaction{Kind: KindPayOffUnsecuredDebt, Player: player, Amount: amount}
}

func ConcedeToPlayer(loser, victor int) Transaction {
	return Transaction{Kind: KindConcedeToPlayer, Player: loser, ToPlayer: victor}
}

func ConcedeToBank(player int) Transaction {
	return Transaction{Kind: KindConcedeToBank, Player: player}
}

// Validate runs the transaction's precondition check without mutating g.
func (t Transaction) Validate(g *Game) Result {
	switch t.Kind {
	case KindRaiseInterest:
		return canRaiseInterest(g)
	case KindLowerInterest:
		return canLowerInterest(g)
	case KindPassGo:
		return canPassGo(g, t.Player)
	case KindBuyProperty:
		return canBuyProperty(g, t.Player, t.Property, t.Amount)
	case KindSellProperty:
		return canSellProperty(g, t.Player, t.Property)
	case KindMortgage:
		return canMortgage(g, t.Player, t.Property)
	case KindUnmortgage:
		return canUnmortgage(g, t.Player, t.Property)
	case KindBuildHouses:
		return canBuildHouses(g, t.Player, t.Set, t.Amount)
	case KindSellHouses:
		return canSellHouses(g, t.Player, t.Set, t.Amount)
	case KindPayRepairs:
		return canPayRepairs(g, t.Player, t.CostPerHouse, t.CostPerHotel)
	case KindPayToBank:
		return canPayToBank(g, t.Player, t.Amount)
	case KindPayToPlayer:
		return canPayToPlayer(g, t.Player, t.Amount)
	case KindTransfer:
		return canTransfer(g, t.Player, t.ToPlayer, t.Amount, t.Set)
	case KindTakeOutSecuredDebt:
		return canTakeOutSecuredDebt(g, t.Player, t.Amount)
	case KindTakeOutUnsecuredDebt:
		return canTakeOutUnsecuredDebt(g, t.Player, t.Amount)
	case KindPayOffSecuredDebt:
		return canPayOffSecuredDebt(g, t.Player, t.Amount)
	case KindPayOffUnsecuredDebt:
		return canPayOffUnsecuredDebt(g, t.Player, t.Amount)
	case KindConcedeToPlayer:
		return canConcedeToPlayer(g, t.Player, t.ToPlayer)
	case KindConcedeToBank:
		return canConcedeToBank(g, t.Player)
	}
	panic("game: unknown transaction kind")
}

// Apply re-validates the transaction and, on success, applies its effects
// to g as a single in-memory update. On failure g is untouched.
func (t Transaction) Apply(g *Game) Result {
	switch t.Kind {
	case KindRaiseInterest:
		return applyRaiseInterest(g)
	case KindLowerInterest:
		return applyLowerInterest(g)
	case KindPassGo:
		return applyPassGo(g, t.Player)
	case KindBuyProperty:
		return applyBuyProperty(g, t.Player, t.Property, t.Amount)
	case KindSellProperty:
		return applySellProperty(g, t.Player, t.Property)
	case KindMortgage:
		return applyMortgage(g, t.Player, t.Property)
	case KindUnmortgage:
		return applyUnmortgage(g, t.Player, t.Property)
	case KindBuildHouses:
		return applyBuildHouses(g, t.Player, t.Set, t.Amount)
	case KindSellHouses:
		return applySellHouses(g, t.Player, t.Set, t.Amount)
	case KindPayRepairs:
		return applyPayRepairs(g, t.Player, t.CostPerHouse, t.CostPerHotel)
	case KindPayToBank:
		return applyPayToBank(g, t.Player, t.Amount)
	case KindPayToPlayer:
		return applyPayToPlayer(g, t.Player, t.Amount)
	case KindTransfer:
		return applyTransfer(g, t.Player, t.ToPlayer, t.Amount, t.Set)
	case KindTakeOutSecuredDebt:
		return applyTakeOutSecuredDebt(g, t.Player, t.Amount)
	case KindTakeOutUnsecuredDebt:
		return applyTakeOutUnsecuredDebt(g, t.Player, t.Amount)
	case KindPayOffSecuredDebt:
		return applyPayOffSecuredDebt(g, t.Player, t.Amount)
	case KindPayOffUnsecuredDebt:
		return applyPayOffUnsecuredDebt(g, t.Player, t.Amount)
	case KindConcedeToPlayer:
		return applyConcedeToPlayer(g, t.Player, t.ToPlayer)
	case KindConcedeToBank:
		return applyConcedeToBank(g, t.Player)
	}
	panic("game: unknown transaction kind")
}

// Precondition checks ---------------------------------------------------------

func mustNonNegative(amount int, what string) {
	if amount < 0 {
		panic("game: negative " + what)
	}
}

func checkCash(g *Game, playerID, amount int) Result {
	if amount > g.Players[playerID].Cash {
		return failure(g.Players[playerID].Name + " doesn't have enough cash")
	}
	return Result{OK: true}
}

func checkOwnership(g *Game, playerID, propertyID int) Result {
	if g.Properties[propertyID].Owner != playerID {
		return failure("Property is not owned by " + g.Players[playerID].Name)
	}
	return Result{OK: true}
}

func canRaiseInterest(g *Game) Result {
	return Result{OK: true}
}

func canLowerInterest(g *Game) Result {
	return Result{OK: true}
}

func canPassGo(g *Game, playerID int) Result {
	g.mustPlayer(playerID)

	p := &g.Players[playerID]
	if p.Cash+p.Salary < InterestToPay(g, playerID) {
		return failure("Not enough funds to pay interest")
	}
	return Result{OK: true}
}

func canBuyProperty(g *Game, playerID, propertyID, price int) Result {
	g.mustPlayer(playerID)
	mustPropertyID(propertyID)
	mustNonNegative(price, "price")

	if g.Properties[propertyID].Owner != NoOwner {
		return failure("Property not available")
	}
	return checkCash(g, playerID, price)
}

func canSellProperty(g *Game, playerID, propertyID int) Result {
	g.mustPlayer(playerID)
	mustPropertyID(propertyID)

	return checkOwnership(g, playerID, propertyID)
}

func canMortgage(g *Game, playerID, propertyID int) Result {
	g.mustPlayer(playerID)
	mustPropertyID(propertyID)

	if r := checkOwnership(g, playerID, propertyID); !r.OK {
		return r
	}
	if g.Properties[propertyID].Mortgaged {
		return failure("Property is already mortgaged")
	}
	return Result{OK: true}
}

func canUnmortgage(g *Game, playerID, propertyID int) Result {
	g.mustPlayer(playerID)
	mustPropertyID(propertyID)

	if r := checkOwnership(g, playerID, propertyID); !r.OK {
		return r
	}
	if !g.Properties[propertyID].Mortgaged {
		return failure("Cannot unmortgage - property is not mortgaged")
	}
	toPay := int(float64(g.Properties[propertyID].MortgageAmount) * unmortgageFeeFactor)
	return checkCash(g, playerID, toPay)
}

func canBuildHouses(g *Game, playerID int, set PropertySet, number int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(number, "house count")

	if set == Stations {
		return failure("Can't build on stations")
	}
	if set == Utilities {
		return failure("Can't build on utilities")
	}
	if !g.Players[playerID].Properties.Contains(set) {
		return failure(g.Players[playerID].Name + " doesn't own all properties in set")
	}

	housePrice := g.Properties[set.LowestID()].HousePrice
	if r := checkCash(g, playerID, housePrice*number); !r.OK {
		return r
	}

	maxHouses := set.Count() * 5
	built := totalHouses(g, set)
	if built+number > maxHouses {
		return failure(fmt.Sprintf("%d already built, maximum is %d", built, maxHouses))
	}
	return Result{OK: true}
}

func canSellHouses(g *Game, playerID int, set PropertySet, number int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(number, "house count")

	if !g.Players[playerID].Properties.Contains(set) {
		return failure(g.Players[playerID].Name + " doesn't own all properties in set")
	}
	built := totalHouses(g, set)
	if built-number < 0 {
		return failure(fmt.Sprintf("Can only remove %d houses", built))
	}
	return Result{OK: true}
}

func canPayRepairs(g *Game, playerID, costPerHouse, costPerHotel int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(costPerHouse, "repair cost")
	mustNonNegative(costPerHotel, "repair cost")

	return checkCash(g, playerID, repairsBill(g, playerID, costPerHouse, costPerHotel))
}

func canPayToBank(g *Game, playerID, amount int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(amount, "amount")

	return checkCash(g, playerID, amount)
}

func canPayToPlayer(g *Game, playerID, amount int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(amount, "amount")

	return Result{OK: true}
}

func canTransfer(g *Game, fromPlayer, toPlayer, amount int, properties PropertySet) Result {
	g.mustPlayer(fromPlayer)
	g.mustPlayer(toPlayer)
	mustNonNegative(amount, "amount")

	if !g.Players[fromPlayer].Properties.Contains(properties) {
		return failure(g.Players[fromPlayer].Name + " doesn't own all of those properties")
	}
	if totalHouses(g, properties) > 0 {
		return failure("Cannot transfer properties with houses on them")
	}
	return checkCash(g, fromPlayer, amount)
}

func canTakeOutSecuredDebt(g *Game, playerID, amount int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(amount, "amount")

	if g.Players[playerID].SecuredDebt+amount > MaxSecuredDebt(g, playerID) {
		return failure(g.Players[playerID].Name + " cannot take out that much secured debt")
	}
	return Result{OK: true}
}

func canTakeOutUnsecuredDebt(g *Game, playerID, amount int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(amount, "amount")

	if g.Players[playerID].UnsecuredDebt+amount > MaxUnsecuredDebt(g, playerID) {
		return failure(g.Players[playerID].Name + " cannot take out that much unsecured debt")
	}
	return Result{OK: true}
}

func canPayOffSecuredDebt(g *Game, playerID, amount int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(amount, "amount")

	if g.Players[playerID].SecuredDebt < amount {
		return failure("Cannot overpay debt")
	}
	return checkCash(g, playerID, amount)
}

func canPayOffUnsecuredDebt(g *Game, playerID, amount int) Result {
	g.mustPlayer(playerID)
	mustNonNegative(amount, "amount")

	if g.Players[playerID].UnsecuredDebt < amount {
		return failure("Cannot overpay debt")
	}
	return checkCash(g, playerID, amount)
}

func canConcedeToPlayer(g *Game, loser, victor int) Result {
	g.mustPlayer(loser)
	g.mustPlayer(victor)

	if totalHouses(g, g.Players[loser].Properties) > 0 {
		return failure("Cannot transfer properties with houses on them")
	}
	return Result{OK: true}
}

func canConcedeToBank(g *Game, playerID int) Result {
	g.mustPlayer(playerID)
	return Result{OK: true}
}

// Effects ---------------------------------------------------------------------

const unmortgageFeeFactor = 1.1

func applyRaiseInterest(g *Game) Result {
	if r := canRaiseInterest(g); !r.OK {
		return r
	}
	g.RaiseInterest()
	return success(fmt.Sprintf("Interest raised to %d%%/%d%%", g.SecuredInterest, g.UnsecuredInterest))
}

func applyLowerInterest(g *Game) Result {
	if r := canLowerInterest(g); !r.OK {
		return r
	}
	g.LowerInterest()
	return success(fmt.Sprintf("Interest lowered to %d%%/%d%%", g.SecuredInterest, g.UnsecuredInterest))
}

func applyPassGo(g *Game, playerID int) Result {
	if r := canPassGo(g, playerID); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	interest := InterestToPay(g, playerID)
	p.Cash += p.Salary
	p.Cash -= interest
	return success(fmt.Sprintf("%s passed go, collecting %d and paying %d interest", p.Name, p.Salary, interest))
}

func applyBuyProperty(g *Game, playerID, propertyID, price int) Result {
	if r := canBuyProperty(g, playerID, propertyID, price); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	prop := &g.Properties[propertyID]

	prop.Owner = playerID
	p.Properties |= Single(propertyID)
	p.Cash -= price
	g.PPI = UpdatePPI(g.PPI, price, prop.GuidePrice)

	return success(fmt.Sprintf("%s bought %s for %d", p.Name, prop.Name, price))
}

func applySellProperty(g *Game, playerID, propertyID int) Result {
	if r := canSellProperty(g, playerID, propertyID); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	prop := &g.Properties[propertyID]

	prop.Owner = NoOwner
	p.Properties &^= Single(propertyID)

	price := int(g.PPI * float64(prop.GuidePrice))
	p.Cash += price

	return success(fmt.Sprintf("%s sold %s for %d", p.Name, prop.Name, price))
}

func applyMortgage(g *Game, playerID, propertyID int) Result {
	if r := canMortgage(g, playerID, propertyID); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	prop := &g.Properties[propertyID]

	amount := int(float64(prop.GuidePrice) * g.PPI / 2.0)
	prop.SetMortgaged(amount)
	p.Cash += amount

	return success(fmt.Sprintf("%s mortgaged %s for %d", p.Name, prop.Name, amount))
}

func applyUnmortgage(g *Game, playerID, propertyID int) Result {
	if r := canUnmortgage(g, playerID, propertyID); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	prop := &g.Properties[propertyID]

	toPay := int(float64(prop.MortgageAmount) * unmortgageFeeFactor)
	p.Cash -= toPay
	prop.ClearMortgage()

	return success(fmt.Sprintf("%s unmortgaged %s for %d", p.Name, prop.Name, toPay))
}

func applyBuildHouses(g *Game, playerID int, set PropertySet, number int) Result {
	if r := canBuildHouses(g, playerID, set, number); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	housePrice := g.Properties[set.LowestID()].HousePrice

	p.Cash -= number * housePrice

	// Spread development evenly: fewest houses first, ties broken toward the
	// higher (more valuable) board index.
	ids := set.IDs()
	sort.Slice(ids, func(a, b int) bool {
		if g.Properties[ids[a]].Houses != g.Properties[ids[b]].Houses {
			return g.Properties[ids[a]].Houses < g.Properties[ids[b]].Houses
		}
		return ids[a] > ids[b]
	})
	for i := 0; number > 0; i = (i + 1) % len(ids) {
		g.Properties[ids[i]].Houses++
		number--
	}

	return success(fmt.Sprintf("%s built houses for %d", p.Name, housePrice))
}

func applySellHouses(g *Game, playerID int, set PropertySet, number int) Result {
	if r := canSellHouses(g, playerID, set, number); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	housePrice := g.Properties[set.LowestID()].HousePrice

	p.Cash += (number * housePrice) / 2

	// Reverse of the building order: most houses first, ties broken toward
	// the lower board index.
	ids := set.IDs()
	sort.Slice(ids, func(a, b int) bool {
		if g.Properties[ids[a]].Houses != g.Properties[ids[b]].Houses {
			return g.Properties[ids[a]].Houses > g.Properties[ids[b]].Houses
		}
		return ids[a] < ids[b]
	})
	for i := 0; number > 0; i = (i + 1) % len(ids) {
		g.Properties[ids[i]].Houses--
		number--
	}

	return success(fmt.Sprintf("%s sold houses at %d each", p.Name, housePrice/2))
}

func applyPayRepairs(g *Game, playerID, costPerHouse, costPerHotel int) Result {
	if r := canPayRepairs(g, playerID, costPerHouse, costPerHotel); !r.OK {
		return r
	}
	bill := repairsBill(g, playerID, costPerHouse, costPerHotel)
	g.Players[playerID].Cash -= bill

	return success(fmt.Sprintf("%s paid %d in repairs", g.Players[playerID].Name, bill))
}

func applyPayToBank(g *Game, playerID, amount int) Result {
	if r := canPayToBank(g, playerID, amount); !r.OK {
		return r
	}
	g.Players[playerID].Cash -= amount
	return success(fmt.Sprintf("%s paid %d to the bank", g.Players[playerID].Name, amount))
}

func applyPayToPlayer(g *Game, playerID, amount int) Result {
	if r := canPayToPlayer(g, playerID, amount); !r.OK {
		return r
	}
	g.Players[playerID].Cash += amount
	return success(fmt.Sprintf("%s received %d from the bank", g.Players[playerID].Name, amount))
}

func applyTransfer(g *Game, fromPlayer, toPlayer, amount int, properties PropertySet) Result {
	if r := canTransfer(g, fromPlayer, toPlayer, amount, properties); !r.OK {
		return r
	}
	from := &g.Players[fromPlayer]
	to := &g.Players[toPlayer]

	from.Cash -= amount
	to.Cash += amount

	from.Properties ^= properties
	to.Properties ^= properties
	for _, id := range properties.IDs() {
		g.Properties[id].Owner = toPlayer
	}

	return success(fmt.Sprintf("%s transferred %d and %d properties to %s",
		from.Name, amount, properties.Count(), to.Name))
}

func applyTakeOutSecuredDebt(g *Game, playerID, amount int) Result {
	if r := canTakeOutSecuredDebt(g, playerID, amount); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	p.SecuredDebt += amount
	p.Cash += amount
	return success(fmt.Sprintf("%s took out %d of secured debt", p.Name, amount))
}

func applyTakeOutUnsecuredDebt(g *Game, playerID, amount int) Result {
	if r := canTakeOutUnsecuredDebt(g, playerID, amount); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	p.UnsecuredDebt += amount
	p.Cash += amount
	return success(fmt.Sprintf("%s took out %d of unsecured debt", p.Name, amount))
}

func applyPayOffSecuredDebt(g *Game, playerID, amount int) Result {
	if r := canPayOffSecuredDebt(g, playerID, amount); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	p.SecuredDebt -= amount
	p.Cash -= amount
	return success(fmt.Sprintf("%s paid off %d of secured debt", p.Name, amount))
}

func applyPayOffUnsecuredDebt(g *Game, playerID, amount int) Result {
	if r := canPayOffUnsecuredDebt(g, playerID, amount); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	p.UnsecuredDebt -= amount
	p.Cash -= amount
	return success(fmt.Sprintf("%s paid off %d of unsecured debt", p.Name, amount))
}

func applyConcedeToPlayer(g *Game, loser, victor int) Result {
	if r := canConcedeToPlayer(g, loser, victor); !r.OK {
		return r
	}
	// The loser stays in the roster with a zeroed holding so that player ids
	// in earlier snapshots stay valid.
	if r := applyTransfer(g, loser, victor, g.Players[loser].Cash, g.Players[loser].Properties); !r.OK {
		return r
	}
	return success(fmt.Sprintf("%s conceded to %s", g.Players[loser].Name, g.Players[victor].Name))
}

func applyConcedeToBank(g *Game, playerID int) Result {
	if r := canConcedeToBank(g, playerID); !r.OK {
		return r
	}
	p := &g.Players[playerID]
	p.Cash = 0
	for _, id := range p.Properties.IDs() {
		g.Properties[id].Owner = NoOwner
	}
	p.Properties = 0
	return success(fmt.Sprintf("%s conceded to the bank", p.Name))
}

func totalHouses(g *Game, set PropertySet) int {
	sum := 0
	for _, id := range set.IDs() {
		sum += g.Properties[id].Houses
	}
	return sum
}

// A hotel (five houses) is billed at the hotel rate, anything less at the
// per-house rate.
func repairsBill(g *Game, playerID, costPerHouse, costPerHotel int) int {
	bill := 0
	for _, id := range g.Players[playerID].Properties.IDs() {
		if g.Properties[id].Houses == 5 {
			bill += costPerHotel
		} else {
			bill += g.Properties[id].Houses * costPerHouse
		}
	}
	return bill
}
