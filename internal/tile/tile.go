package tile

import (
	"fmt"
	"math/rand"

	appErr "mahjong-service/pkg/errors"
)

type Suit string

const (
	SuitCharacters Suit = "characters"
	SuitBamboo     Suit = "bamboo"
	SuitCircles    Suit = "circles"
	SuitHonor      Suit = "honor"
)

// Tile is an immutable tile identity. Two tiles are equal iff suit and rank
// match; individual copies carry no identity of their own.
type Tile struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%s-%d", t.Suit, t.Rank)
}

// Valid reports whether the suit/rank pair is inside the tile domain:
// ranks 1-9 for the three numbered suits, 1-7 for honors.
func Valid(t Tile) bool {
	switch t.Suit {
	case SuitCharacters, SuitBamboo, SuitCircles:
		return t.Rank >= 1 && t.Rank <= 9
	case SuitHonor:
		return t.Rank >= 1 && t.Rank <= 7
	default:
		return false
	}
}

// Encode maps a tile to its compact integer code:
// characters 1-9, bamboo 11-19, circles 21-29, honor 31-37.
func Encode(t Tile) (int, error) {
	if !Valid(t) {
		return 0, appErr.ErrInvalidTileCode
	}
	switch t.Suit {
	case SuitCharacters:
		return t.Rank, nil
	case SuitBamboo:
		return t.Rank + 10, nil
	case SuitCircles:
		return t.Rank + 20, nil
	default:
		return t.Rank + 30, nil
	}
}

// Decode is the inverse of Encode. Codes outside the defined ranges
// (0, 10, 20, 30, 38, negatives, ...) fail with ErrInvalidTileCode.
func Decode(code int) (Tile, error) {
	switch {
	case code >= 1 && code <= 9:
		return Tile{Suit: SuitCharacters, Rank: code}, nil
	case code >= 11 && code <= 19:
		return Tile{Suit: SuitBamboo, Rank: code - 10}, nil
	case code >= 21 && code <= 29:
		return Tile{Suit: SuitCircles, Rank: code - 20}, nil
	case code >= 31 && code <= 37:
		return Tile{Suit: SuitHonor, Rank: code - 30}, nil
	default:
		return Tile{}, appErr.ErrInvalidTileCode
	}
}

// NewDrawPile builds the 108-tile wall for the bloody-end variant:
// characters, bamboo and circles ranks 1-9, four copies each, no honors.
// The pile is uniformly shuffled.
func NewDrawPile() []Tile {
	pile := make([]Tile, 0, 108)
	for _, suit := range []Suit{SuitCharacters, SuitBamboo, SuitCircles} {
		for rank := 1; rank <= 9; rank++ {
			for i := 0; i < 4; i++ {
				pile = append(pile, Tile{Suit: suit, Rank: rank})
			}
		}
	}
	rand.Shuffle(len(pile), func(i, j int) {
		pile[i], pile[j] = pile[j], pile[i]
	})
	return pile
}

type CodeInfo struct {
	Code    int    `json:"code"`
	Suit    Suit   `json:"suit"`
	Rank    int    `json:"rank"`
	Display string `json:"display"`
}

var honorNames = []string{"东", "南", "西", "北", "中", "发", "白"}

var suitDisplay = map[Suit]string{
	SuitCharacters: "万",
	SuitBamboo:     "条",
	SuitCircles:    "筒",
}

// CodeTable lists every valid code with its display name, honors included.
func CodeTable() []CodeInfo {
	table := make([]CodeInfo, 0, 34)
	for _, suit := range []Suit{SuitCharacters, SuitBamboo, SuitCircles} {
		for rank := 1; rank <= 9; rank++ {
			code, _ := Encode(Tile{Suit: suit, Rank: rank})
			table = append(table, CodeInfo{
				Code:    code,
				Suit:    suit,
				Rank:    rank,
				Display: fmt.Sprintf("%d%s", rank, suitDisplay[suit]),
			})
		}
	}
	for rank := 1; rank <= 7; rank++ {
		table = append(table, CodeInfo{
			Code:    rank + 30,
			Suit:    SuitHonor,
			Rank:    rank,
			Display: honorNames[rank-1],
		})
	}
	return table
}
