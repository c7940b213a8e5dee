package game

// Information queries over the game state. All are side-effect free.

const (
	utilityRentMultiplier = 7
	maxUnsecuredDebt      = 200
)

// ExpectedRent returns the rent the property would currently charge.
// Mortgaged and unowned properties charge nothing. Stations charge by the
// number of stations the owner holds, utilities likewise with a multiplier.
// A color-group property charges its tiered rent, doubled when the owner
// holds the whole group and none of it is developed.
func ExpectedRent(g *Game, propertyID int) int {
	mustPropertyID(propertyID)
	p := &g.Properties[propertyID]

	if p.Mortgaged || p.Owner == NoOwner {
		return 0
	}

	ownedInSet := (g.Players[p.Owner].Properties & p.Set).Count()
	if ownedInSet == 0 {
		return 0
	}

	switch p.Set {
	case Stations:
		return p.Rents[ownedInSet-1]
	case Utilities:
		return utilityRentMultiplier * p.Rents[ownedInSet-1]
	}

	ownsAll := ownedInSet == p.Set.Count()
	if p.Houses == 0 && ownsAll {
		return 2 * p.Rents[0]
	}
	return p.Rents[p.Houses]
}

// AssetValue returns the market value of everything the player owns: the
// sum of guide prices scaled by the price index.
func AssetValue(g *Game, playerID int) int {
	g.mustPlayer(playerID)

	sum := 0
	for _, id := range g.Players[playerID].Properties.IDs() {
		sum += g.Properties[id].GuidePrice
	}
	return int(float64(sum) * g.PPI)
}

// ExpectedIncome returns the rent the player would collect if every owned
// property were landed on once.
func ExpectedIncome(g *Game, playerID int) int {
	g.mustPlayer(playerID)

	sum := 0
	for _, id := range g.Players[playerID].Properties.IDs() {
		sum += ExpectedRent(g, id)
	}
	return sum
}

// InterestToPay returns the interest charge due when the player passes go.
func InterestToPay(g *Game, playerID int) int {
	g.mustPlayer(playerID)
	p := &g.Players[playerID]

	return int(float64(p.SecuredDebt)*float64(g.SecuredInterest)/100.0 +
		float64(p.UnsecuredDebt)*float64(g.UnsecuredInterest)/100.0)
}

// MaxSecuredDebt is the ceiling on a player's total secured borrowing:
// five salaries plus whichever is smaller of three expected incomes and
// the player's asset value.
func MaxSecuredDebt(g *Game, playerID int) int {
	g.mustPlayer(playerID)

	income := 3 * ExpectedIncome(g, playerID)
	assets := AssetValue(g, playerID)
	if assets < income {
		income = assets
	}
	return 5*g.Players[playerID].Salary + income
}

// MaxUnsecuredDebt is the fixed ceiling on unsecured borrowing.
func MaxUnsecuredDebt(g *Game, playerID int) int {
	g.mustPlayer(playerID)
	return maxUnsecuredDebt
}

// UpdatePPI folds one negotiated sale into the price index.
func UpdatePPI(oldPPI float64, boughtFor, guidePrice int) float64 {
	return 0.5*oldPPI + 0.5*float64(boughtFor)/float64(guidePrice)
}
