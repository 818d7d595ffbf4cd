// Package tilemap loads grid maps and answers collision and event queries
// for the field scene.
//
// Two layer names are reserved: any non-zero cell of "collision" is a
// wall, and any non-zero cell of "events" names a tile-event id. Every
// other layer is visual only.
package tilemap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"sort"
	"strconv"
)

// ErrBadMap is returned for maps that cannot be decoded or whose layer
// data does not match the declared size.
var ErrBadMap = errors.New("bad map")

// FlipMask covers the editor's flip flags in the high bits of a gid.
const FlipMask uint32 = 0xE0000000

const (
	CollisionLayer = "collision"
	EventsLayer    = "events"

	defaultTileSize = 16
)

// Layer is one row-major grid of gids.
type Layer struct {
	Name    string
	Width   int
	Height  int
	Visible bool
	Data    []uint32
}

// Tileset maps a gid range starting at FirstGID to an image atlas.
type Tileset struct {
	Name       string
	FirstGID   uint32
	Image      string
	TileWidth  int
	TileHeight int
	Columns    int
	TileCount  int
}

// Map is a decoded tilemap.
type Map struct {
	Width      int
	Height     int
	TileWidth  int
	TileHeight int
	Layers     []*Layer
	// Tilesets are sorted by FirstGID.
	Tilesets   []Tileset
	Properties map[string]string
}

type jsonMap struct {
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	TileWidth   *int           `json:"tilewidth"`
	TileHeight  *int           `json:"tileheight"`
	TileWidthC  *int           `json:"tileWidth"`
	TileHeightC *int           `json:"tileHeight"`
	Properties  []jsonProperty `json:"properties"`
	Layers      []struct {
		Name    string   `json:"name"`
		Type    string   `json:"type"`
		Width   int      `json:"width"`
		Height  int      `json:"height"`
		Visible *bool    `json:"visible"`
		Data    []uint32 `json:"data"`
	} `json:"layers"`
	Tilesets []struct {
		Name       string `json:"name"`
		FirstGID   uint32 `json:"firstgid"`
		Image      string `json:"image"`
		TileWidth  int    `json:"tilewidth"`
		TileHeight int    `json:"tileheight"`
		Columns    int    `json:"columns"`
		TileCount  int    `json:"tilecount"`
	} `json:"tilesets"`
}

type jsonProperty struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// firstOf returns the first non-nil size, or the default.
func firstOf(vals ...*int) int {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return defaultTileSize
}

// Parse decodes a JSON tilemap. tilewidth/tileheight fall back to
// tileWidth/tileHeight and then to 16.
func Parse(data []byte) (*Map, error) {
	var raw jsonMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMap, err)
	}
	m := &Map{
		Width:      raw.Width,
		Height:     raw.Height,
		TileWidth:  firstOf(raw.TileWidth, raw.TileWidthC),
		TileHeight: firstOf(raw.TileHeight, raw.TileHeightC),
		Properties: make(map[string]string, len(raw.Properties)),
	}
	for _, p := range raw.Properties {
		m.Properties[p.Name] = fmt.Sprint(p.Value)
	}
	for _, l := range raw.Layers {
		if l.Type != "" && l.Type != "tilelayer" {
			continue
		}
		m.Layers = append(m.Layers, &Layer{
			Name:    l.Name,
			Width:   l.Width,
			Height:  l.Height,
			Visible: l.Visible == nil || *l.Visible,
			Data:    l.Data,
		})
	}
	for _, ts := range raw.Tilesets {
		m.Tilesets = append(m.Tilesets, Tileset{
			Name:       ts.Name,
			FirstGID:   ts.FirstGID,
			Image:      ts.Image,
			TileWidth:  ts.TileWidth,
			TileHeight: ts.TileHeight,
			Columns:    ts.Columns,
			TileCount:  ts.TileCount,
		})
	}
	if err := m.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads a map from fsys, choosing the decoder by extension: ".tmx"
// maps go through go-tiled, everything else is JSON.
func Load(fsys fs.FS, name string) (*Map, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", name, err)
	}
	var m *Map
	if path.Ext(name) == ".tmx" {
		m, err = ParseTMX(data)
	} else {
		m, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", name, err)
	}
	return m, nil
}

// finish fills layer sizes from the map, checks data lengths and sorts
// the tilesets.
func (m *Map) finish() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadMap, m.Width, m.Height)
	}
	for _, l := range m.Layers {
		if l.Width == 0 {
			l.Width = m.Width
		}
		if l.Height == 0 {
			l.Height = m.Height
		}
		if len(l.Data) != l.Width*l.Height {
			return fmt.Errorf("%w: layer %q has %d cells, want %d", ErrBadMap, l.Name, len(l.Data), l.Width*l.Height)
		}
	}
	sort.SliceStable(m.Tilesets, func(i, j int) bool { return m.Tilesets[i].FirstGID < m.Tilesets[j].FirstGID })
	return nil
}

// Layer returns the first layer with the given name.
func (m *Map) Layer(name string) (*Layer, bool) {
	for _, l := range m.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// GID returns the flag-stripped gid at a tile coordinate, or 0 outside
// the layer.
func (l *Layer) GID(tx, ty int) uint32 {
	if tx < 0 || ty < 0 || tx >= l.Width || ty >= l.Height {
		return 0
	}
	return l.Data[ty*l.Width+tx] &^ FlipMask
}

// TilesetFor resolves a gid to the tileset with the largest FirstGID not
// above it. Flip flags are ignored; gid 0 has no tileset.
func (m *Map) TilesetFor(gid uint32) (*Tileset, bool) {
	gid &^= FlipMask
	if gid == 0 {
		return nil, false
	}
	var found *Tileset
	for i := range m.Tilesets {
		if m.Tilesets[i].FirstGID > gid {
			break
		}
		found = &m.Tilesets[i]
	}
	return found, found != nil
}

// TileAt converts a pixel position to tile coordinates.
func (m *Map) TileAt(x, y float64) (int, int) {
	return int(math.Floor(x / float64(m.TileWidth))), int(math.Floor(y / float64(m.TileHeight)))
}

func (m *Map) inBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < m.Width && ty < m.Height
}

// IsObstacle reports whether the pixel position is a wall. Positions
// outside the map are always walls.
func (m *Map) IsObstacle(x, y float64) bool {
	tx, ty := m.TileAt(x, y)
	if !m.inBounds(tx, ty) {
		return true
	}
	l, ok := m.Layer(CollisionLayer)
	if !ok {
		return false
	}
	return l.GID(tx, ty) != 0
}

// EventAt returns the tile-event id under the pixel position, or 0.
func (m *Map) EventAt(x, y float64) int {
	tx, ty := m.TileAt(x, y)
	if !m.inBounds(tx, ty) {
		return 0
	}
	l, ok := m.Layer(EventsLayer)
	if !ok {
		return 0
	}
	return int(l.GID(tx, ty))
}

// Region is the "region" map property matched by conversation guards.
func (m *Map) Region() string { return m.Properties["region"] }

// PlayerStart returns the playerStartX/playerStartY properties in pixels,
// defaulting to the top-left interior tile.
func (m *Map) PlayerStart() (float64, float64) {
	x, errX := strconv.ParseFloat(m.Properties["playerStartX"], 64)
	y, errY := strconv.ParseFloat(m.Properties["playerStartY"], 64)
	if errX != nil || errY != nil {
		return float64(m.TileWidth), float64(m.TileHeight)
	}
	return x, y
}
