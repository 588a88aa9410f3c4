package control

// GridDirty reports whether the grid needs redrawing since the last
// RenderGrid.
func (c *Controller) GridDirty() bool {
	return c.gridDirty
}

// ArcDirty reports whether the arc needs redrawing since the last RenderArc.
func (c *Controller) ArcDirty() bool {
	return c.arcDirty
}

// RenderGrid is called from the hardware layer's LED refresh cycle. It clears
// the dirty flag and lets the engine draw if it knows how; otherwise it is a
// no-op.
func (c *Controller) RenderGrid() {
	c.gridDirty = false
	if r, ok := c.engine.(GridRenderer); ok {
		r.RenderGrid(c.hw, c.store.Session())
	}
}

// RenderArc is the arc counterpart of RenderGrid.
func (c *Controller) RenderArc() {
	c.arcDirty = false
	if r, ok := c.engine.(ArcRenderer); ok {
		r.RenderArc(c.hw, c.store.Session())
	}
}
