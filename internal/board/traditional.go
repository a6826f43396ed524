package board

import "sync"

// rowSpec describes one row of the traditional board: it spans columns
// [colLo, colHi] inclusive, and occupies the square index range
// starting at base.
type rowSpec struct {
	row        int
	colLo, colHi int
	base       int
}

// The traditional board is a 26-square, 180-degree symmetric shape: two
// full eight-wide rows forming the rail-adjacent edges (these are the
// 16 anchorable squares, numbered first so anchor_idx equals square
// index directly) and two narrower five-wide inset rows in the middle.
//
//	row 0: cols 0-7  (anchorable, squares  0- 7)
//	row 3: cols 0-7  (anchorable, squares  8-15)
//	row 1: cols 1-5  (squares 16-20)
//	row 2: cols 2-6  (squares 21-25)
var traditionalRows = [4]rowSpec{
	{row: 0, colLo: 0, colHi: 7, base: 0},
	{row: 3, colLo: 0, colHi: 7, base: 8},
	{row: 1, colLo: 1, colHi: 5, base: 16},
	{row: 2, colLo: 2, colHi: 6, base: 21},
}

func traditionalSquareAt(row, col int) (int, bool) {
	for _, r := range traditionalRows {
		if r.row == row && col >= r.colLo && col <= r.colHi {
			return r.base + (col - r.colLo), true
		}
	}
	return 0, false
}

func buildTraditionalSpec() Spec {
	const squares = 26

	coords := make([]Coord, squares)
	for _, r := range traditionalRows {
		for col := r.colLo; col <= r.colHi; col++ {
			idx, _ := traditionalSquareAt(r.row, col)
			coords[idx] = Coord{Row: r.row, Col: col}
		}
	}

	topology := make([][4]uint32, squares)
	for s := 0; s < squares; s++ {
		c := coords[s]
		topology[s][Left] = traditionalNeighbor(c.Row, c.Col-1, c.Row, c.Col, Left)
		topology[s][Right] = traditionalNeighbor(c.Row, c.Col+1, c.Row, c.Col, Right)
		topology[s][Up] = traditionalNeighbor(c.Row-1, c.Col, c.Row, c.Col, Up)
		topology[s][Down] = traditionalNeighbor(c.Row+1, c.Col, c.Row, c.Col, Down)
	}

	var placement0, placement1 []int
	for s := 0; s < squares; s++ {
		switch coords[s].Row {
		case 0, 1:
			placement0 = append(placement0, s)
		case 2, 3:
			placement1 = append(placement1, s)
		}
	}

	return Spec{
		Name:              "traditional",
		Squares:           squares,
		AnchorableSquares: 16,
		Pushers:           2,
		Pawns:             3,
		Topology:          topology,
		SquareToCoord:     coords,
		Placement0:        placement0,
		Placement1:        placement1,
		AllowedMoves:      []int{0, 1, 2},
	}
}

// traditionalNeighbor resolves the neighbor in direction dir of the
// square at (fromRow, fromCol), given the candidate coordinate
// (row, col) it would land on. The board's outer long edges (above
// row 0, below row 3) are RAIL; every other edge, including the
// notches where the narrower middle rows fall short of the outer
// rows' width, is VOID.
func traditionalNeighbor(row, col, fromRow, fromCol int, dir Dir) uint32 {
	if dir == Up && fromRow == 0 {
		return RAIL
	}
	if dir == Down && fromRow == 3 {
		return RAIL
	}
	if idx, ok := traditionalSquareAt(row, col); ok {
		return uint32(idx)
	}
	return VOID
}

var (
	traditionalOnce  sync.Once
	traditionalBoard *Board
)

// Traditional returns the process-wide singleton for the traditional
// 26-square Push Fight board, building it on first use.
func Traditional() *Board {
	traditionalOnce.Do(func() {
		traditionalBoard = New(buildTraditionalSpec())
	})
	return traditionalBoard
}
