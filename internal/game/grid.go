// internal/game/grid.go
//
// Grid data model and the expansion rule.
//
// A Grid is a rectangular, row-major block of cells that only ever grows.
// All operations return a fresh Grid; rows of the receiver are never
// written, so a State snapshot handed to a reader stays valid forever.

package game

// Edge names one side of the grid.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Cell holds an optional letter and the tile backing it.
// Tile is only meaningful when Letter is non-empty.
type Cell struct {
	Letter string `json:"letter,omitempty"`
	Tile   TileID `json:"tile,omitempty"`
}

// Empty reports whether the cell has no letter.
func (c Cell) Empty() bool { return c.Letter == "" }

// Grid is a Rows x Cols block of cells.
type Grid struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

// NewGrid allocates an empty rows x cols grid.
// Non-positive sizes are clamped to 1 so the cursor always has a home.
func NewGrid(rows, cols int) Grid {
	rows, cols = max(rows, 1), max(cols, 1)
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return Grid{Rows: rows, Cols: cols, Cells: cells}
}

// InBounds reports whether p addresses a cell of g.
func (g Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.Rows && p.Col >= 0 && p.Col < g.Cols
}

// At returns the cell at p, or the zero Cell when p is out of bounds.
func (g Grid) At(p Position) Cell {
	if !g.InBounds(p) {
		return Cell{}
	}
	return g.Cells[p.Row][p.Col]
}

// With returns a copy of g with the cell at p replaced.
// Only the touched row is copied; the other rows are shared, which is safe
// because no Grid method writes into an existing row.
func (g Grid) With(p Position, c Cell) Grid {
	if !g.InBounds(p) {
		return g
	}
	cells := make([][]Cell, g.Rows)
	copy(cells, g.Cells)
	row := make([]Cell, g.Cols)
	copy(row, g.Cells[p.Row])
	row[p.Col] = c
	cells[p.Row] = row
	return Grid{Rows: g.Rows, Cols: g.Cols, Cells: cells}
}

// Expand grows g by one row or column on edge e.
//
// Existing cells keep their letters; inserting at the top or left shifts
// every old coordinate by +1 on that axis, inserting at the bottom or right
// leaves them unchanged. The returned offset is the shift applied to old
// coordinates and must be added to any Position that referred to g.
func (g Grid) Expand(e Edge) (Grid, Position) {
	rows, cols := g.Rows, g.Cols
	var off Position
	switch e {
	case EdgeTop:
		rows++
		off.Row = 1
	case EdgeBottom:
		rows++
	case EdgeLeft:
		cols++
		off.Col = 1
	case EdgeRight:
		cols++
	default:
		return g, off
	}

	out := NewGrid(rows, cols)
	for r := 0; r < g.Rows; r++ {
		copy(out.Cells[r+off.Row][off.Col:], g.Cells[r])
	}
	return out, off
}

// Bounds returns the bounding box of all filled cells as top-left and
// bottom-right corners (inclusive). ok is false for an empty grid.
func (g Grid) Bounds() (lo, hi Position, ok bool) {
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if g.Cells[r][c].Empty() {
				continue
			}
			if !ok {
				lo, hi, ok = Position{r, c}, Position{r, c}, true
				continue
			}
			lo.Col = min(lo.Col, c)
			hi.Row = r
			hi.Col = max(hi.Col, c)
		}
	}
	return lo, hi, ok
}

// Filled counts non-empty cells.
func (g Grid) Filled() int {
	n := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if !c.Empty() {
				n++
			}
		}
	}
	return n
}
