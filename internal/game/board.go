package game

// Game is the aggregate state of one session: the player roster, the fixed
// board, the two interest rates and the price index. It has no shared
// mutable substructure, so Copy produces a fully independent snapshot.
type Game struct {
	Players    []Player
	Properties [BoardSize]Property

	// PPI tracks market valuation relative to guide price as an exponential
	// moving average, updated on every bank sale.
	PPI float64

	SecuredInterest   int
	UnsecuredInterest int
}

const (
	initialSecuredInterest   = 5
	initialUnsecuredInterest = 25
	minimumInterest          = 1
)

// NewGame returns a fresh game with the canonical board and no players.
func NewGame() *Game {
	return &Game{
		Properties: canonicalBoard(),
		PPI:        1.0,

		SecuredInterest:   initialSecuredInterest,
		UnsecuredInterest: initialUnsecuredInterest,
	}
}

// Copy deep-copies the whole game for snapshotting.
func (g *Game) Copy() *Game {
	c := *g
	c.Players = append([]Player(nil), g.Players...)
	return &c
}

// AddPlayer appends a player to the roster and returns their id. Ids are
// stable for the life of the game.
func (g *Game) AddPlayer(name string) int {
	g.Players = append(g.Players, NewPlayer(name))
	return len(g.Players) - 1
}

// FindPlayer returns the id of the named player, or -1.
func (g *Game) FindPlayer(name string) int {
	for id := range g.Players {
		if g.Players[id].Name == name {
			return id
		}
	}
	return -1
}

// PropertyID resolves a property name to its board index.
func (g *Game) PropertyID(name string) (int, bool) {
	for id := range g.Properties {
		if g.Properties[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// RaiseInterest bumps both rates by one point.
func (g *Game) RaiseInterest() {
	g.SecuredInterest++
	g.UnsecuredInterest++
}

// LowerInterest drops both rates by one point, independently floored at 1.
func (g *Game) LowerInterest() {
	if g.SecuredInterest > minimumInterest {
		g.SecuredInterest--
	}
	if g.UnsecuredInterest > minimumInterest {
		g.UnsecuredInterest--
	}
}

func (g *Game) mustPlayer(id int) {
	if id < 0 || id >= len(g.Players) {
		panic("game: player id out of range")
	}
}

func prop(name string, guide, house int, set PropertySet, rents [6]int) Property {
	return Property{
		Name:       name,
		GuidePrice: guide,
		HousePrice: house,
		Set:        set,
		Rents:      rents,
		Owner:      NoOwner,
	}
}

func canonicalBoard() [BoardSize]Property {
	return [BoardSize]Property{
		prop("Old Kent Road", 60, 50, Brown, [6]int{2, 10, 30, 90, 160, 250}),
		prop("Whitechapel Road", 60, 50, Brown, [6]int{4, 20, 60, 180, 360, 450}),

		prop("The Angel Islington", 100, 50, LightBlue, [6]int{6, 30, 90, 270, 400, 550}),
		prop("Euston Road", 100, 50, LightBlue, [6]int{6, 30, 90, 270, 400, 550}),
		prop("Pentonville Road", 120, 50, LightBlue, [6]int{8, 40, 100, 300, 450, 600}),

		prop("Pall Mall", 140, 100, Pink, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Whitehall", 140, 100, Pink, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Northumberland Avenue", 160, 100, Pink, [6]int{12, 60, 180, 500, 700, 900}),

		prop("Bow Street", 140, 100, Orange, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Marlborough Street", 140, 100, Orange, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Vine Street", 160, 100, Orange, [6]int{12, 60, 180, 500, 700, 900}),

		prop("Strand", 140, 100, Red, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Fleet Street", 140, 100, Red, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Trafalgar Square", 160, 100, Red, [6]int{12, 60, 180, 500, 700, 900}),

		prop("Leicester Square", 140, 100, Yellow, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Coventry Street", 140, 100, Yellow, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Piccadilly", 160, 100, Yellow, [6]int{12, 60, 180, 500, 700, 900}),

		prop("Regent Street", 140, 100, Green, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Oxford Street", 140, 100, Green, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Bond Street", 160, 100, Green, [6]int{12, 60, 180, 500, 700, 900}),

		prop("Park Lane", 140, 100, DarkBlue, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Mayfair", 160, 100, DarkBlue, [6]int{12, 60, 180, 500, 700, 900}),

		prop("Kings Cross Station", 200, 0, Stations, [6]int{25, 50, 100, 200, 0, 0}),
		prop("Marylebone Station", 200, 0, Stations, [6]int{25, 50, 100, 200, 0, 0}),
		prop("Fenchurch St. Station", 200, 0, Stations, [6]int{25, 50, 100, 200, 0, 0}),
		prop("Liverpool St. Station", 200, 0, Stations, [6]int{25, 50, 100, 200, 0, 0}),

		prop("Electric Company", 150, 0, Utilities, [6]int{10, 50, 150, 450, 625, 750}),
		prop("Water Works", 150, 0, Utilities, [6]int{12, 60, 180, 500, 700, 900}),
	}
}
