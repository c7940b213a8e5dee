package game

// NoOwner marks a property as bank-owned.
const NoOwner = -1

// Property is one slot on the board. GuidePrice, HousePrice, Set and Rents
// are fixed at construction; Houses, Owner and the mortgage state mutate
// through transactions only.
//
// Rents holds rent at 0..5 houses for color groups. Stations reuse the first
// four entries as rent for owning 1..4 stations; utilities reuse the first
// two, scaled by the utility multiplier.
type Property struct {
	Name       string
	GuidePrice int
	HousePrice int
	Set        PropertySet
	Rents      [6]int

	Houses         int
	Owner          int
	Mortgaged      bool
	MortgageAmount int
}

// SetMortgaged marks the property mortgaged for the given amount. The
// property must not already be mortgaged.
func (p *Property) SetMortgaged(amount int) {
	if p.Mortgaged {
		panic("game: property already mortgaged")
	}
	p.Mortgaged = true
	p.MortgageAmount = amount
}

// ClearMortgage lifts the mortgage. MortgageAmount is meaningless afterwards.
func (p *Property) ClearMortgage() {
	p.Mortgaged = false
}

// Player is one participant. Players are appended only, never removed, so a
// player's index in Game.Players is a stable id. A bankrupt player is zeroed
// out in place.
type Player struct {
	Name   string
	Salary int

	Cash          int
	SecuredDebt   int
	UnsecuredDebt int
	Properties    PropertySet
}

const (
	startingCash   = 200
	startingSalary = 200
)

// NewPlayer returns a player with the standard starting cash and salary.
func NewPlayer(name string) Player {
	return Player{
		Name:   name,
		Salary: startingSalary,
		Cash:   startingCash,
	}
}

// Result is the uniform outcome of every validation and mutation: a success
// flag plus a human-readable message (outcome description on success,
// diagnostic on failure).
type Result struct {
	OK      bool
	Message string
}

func success(message string) Result {
	return Result{OK: true, Message: message}
}

func failure(message string) Result {
	return Result{OK: false, Message: message}
}
