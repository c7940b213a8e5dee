package game

import "math/bits"

// PropertySet is a fixed-width membership set over the 28 board positions.
// Bit i corresponds to the property at index i in the canonical board order.
type PropertySet uint32

// Named groups partitioning the board. The eight color groups cover the
// buildable properties; stations and utilities have their own rent rules.
const (
	Brown     PropertySet = 0b0000000000000000000000000011
	LightBlue PropertySet = 0b0000000000000000000000011100
	Pink      PropertySet = 0b0000000000000000000011100000
	Orange    PropertySet = 0b0000000000000000011100000000
	Red       PropertySet = 0b0000000000000011100000000000
	Yellow    PropertySet = 0b0000000000011100000000000000
	Green     PropertySet = 0b0000000011100000000000000000
	DarkBlue  PropertySet = 0b0000001100000000000000000000
	Stations  PropertySet = 0b0011110000000000000000000000
	Utilities PropertySet = 0b1100000000000000000000000000
)

// BoardSize is the number of properties on the board.
const BoardSize = 28

// Single returns the set containing only property id.
func Single(id int) PropertySet {
	mustPropertyID(id)
	return 1 << uint(id)
}

// Has reports whether property id is a member of the set.
func (s PropertySet) Has(id int) bool {
	mustPropertyID(id)
	return s&(1<<uint(id)) != 0
}

// Count returns the number of properties in the set.
func (s PropertySet) Count() int {
	return bits.OnesCount32(uint32(s))
}

// Contains reports whether every member of other is also in s.
func (s PropertySet) Contains(other PropertySet) bool {
	return s&other == other
}

// IDs returns the member property indices in ascending order.
func (s PropertySet) IDs() []int {
	ids := make([]int, 0, s.Count())
	for id := 0; id < BoardSize; id++ {
		if s&(1<<uint(id)) != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// LowestID returns the smallest member index. The set must not be empty.
func (s PropertySet) LowestID() int {
	if s == 0 {
		panic("game: LowestID on empty PropertySet")
	}
	return bits.TrailingZeros32(uint32(s))
}

var groupNames = map[string]PropertySet{
	"brown":     Brown,
	"lightblue": LightBlue,
	"pink":      Pink,
	"orange":    Orange,
	"red":       Red,
	"yellow":    Yellow,
	"green":     Green,
	"darkblue":  DarkBlue,
	"stations":  Stations,
	"utilities": Utilities,
}

// GroupByName resolves a color-group name to its PropertySet.
func GroupByName(name string) (PropertySet, bool) {
	set, ok := groupNames[name]
	return set, ok
}

func mustPropertyID(id int) {
	if id < 0 || id >= BoardSize {
		panic("game: property id out of range")
	}
}
