// Package program implements the immutable algebra of a timing control
// program: atomic operations, lanes, and morphisms, together with the three
// composition operators. Values here are frozen once constructed; every
// operator returns a new value rather than mutating its operands.
package program

import "fmt"

// ChannelKind distinguishes the two physical output families this compiler
// targets.
type ChannelKind uint8

const (
	TTL ChannelKind = iota
	RWG
)

func (k ChannelKind) String() string {
	switch k {
	case TTL:
		return "TTL"
	case RWG:
		return "RWG"
	default:
		return "unknown"
	}
}

// Board is a stable, user-chosen identifier for a physical card. Boards are
// values: two Boards with the same ID are the same board.
type Board struct {
	ID string
}

// Channel identifies a single hardware line: a (board, local index, kind)
// triple. Channels are values and freely shareable.
type Channel struct {
	Board Board
	Index int
	Kind  ChannelKind
}

// NewChannel constructs a Channel on the given board.
func NewChannel(board string, index int, kind ChannelKind) Channel {
	return Channel{Board: Board{ID: board}, Index: index, Kind: kind}
}

func (c Channel) String() string {
	return fmt.Sprintf("%s/%d/%s", c.Board.ID, c.Index, c.Kind)
}
