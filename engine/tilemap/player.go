package tilemap

import "math"

// Player is the field avatar: an axis-aligned box moved in pixels.
type Player struct {
	X, Y          float64
	Width, Height float64
	// Speed is in pixels per second.
	Speed float64
}

// NewPlayer places a 16x16 player at (x, y) moving 100 px/s.
func NewPlayer(x, y float64) *Player {
	return &Player{X: x, Y: y, Width: 16, Height: 16, Speed: 100}
}

// Move steps the player along (dx, dy) for dt seconds. Diagonal input is
// normalized. The step is taken only if all four corners of the moved box
// are free; there is no sliding along walls. It reports whether the
// player moved.
func (p *Player) Move(m *Map, dx, dy, dt float64) bool {
	if dx == 0 && dy == 0 {
		return false
	}
	n := math.Hypot(dx, dy)
	dx, dy = dx/n, dy/n

	nx := p.X + dx*p.Speed*dt
	ny := p.Y + dy*p.Speed*dt
	right := nx + p.Width - 1
	bottom := ny + p.Height - 1
	if m.IsObstacle(nx, ny) || m.IsObstacle(right, ny) ||
		m.IsObstacle(nx, bottom) || m.IsObstacle(right, bottom) {
		return false
	}
	p.X, p.Y = nx, ny
	return true
}

// Center returns the middle of the player's box.
func (p *Player) Center() (float64, float64) {
	return p.X + p.Width/2, p.Y + p.Height/2
}

// Tile returns the tile under the player's center.
func (p *Player) Tile(m *Map) (int, int) {
	return m.TileAt(p.Center())
}
