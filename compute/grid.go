package compute

// Grid is the CPU-backend spatial hash: per-cell counts plus a fixed-capacity
// ring of slot indices. Entries beyond MaxPerCell are dropped and counted;
// the count value itself keeps growing so saturation is observable.
type Grid struct {
	p      *Params
	Counts []int32
	Data   []int32
	Drops  int64
}

// NewGrid allocates a grid for the given kernel constants.
func NewGrid(p *Params) *Grid {
	return &Grid{
		p:      p,
		Counts: make([]int32, p.CellCount()),
		Data:   make([]int32, int(p.CellCount())*int(p.MaxPerCell)),
	}
}

// Clear zeroes every cell count (kernel mode 0).
func (g *Grid) Clear() {
	for i := range g.Counts {
		g.Counts[i] = 0
	}
}

// Insert adds a slot at a position (kernel mode 1). Overflow past MaxPerCell
// is silently dropped; nearby forces just underestimate locally.
func (g *Grid) Insert(slot int32, x, y float32) {
	cell := g.p.CellIndex(x, y)
	idx := g.Counts[cell]
	g.Counts[cell]++
	if idx < g.p.MaxPerCell {
		g.Data[cell*g.p.MaxPerCell+idx] = slot
	} else {
		g.Drops++
	}
}

// CellEntries returns the stored slots for a cell (drops excluded).
func (g *Grid) CellEntries(cell int32) []int32 {
	n := g.Counts[cell]
	if n > g.p.MaxPerCell {
		n = g.p.MaxPerCell
	}
	base := cell * g.p.MaxPerCell
	return g.Data[base : base+n]
}
