package tilemap

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/lafriks/go-tiled"
)

// tmxProperties reads only the map-level <properties> block.
type tmxProperties struct {
	Properties []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	} `xml:"properties>property"`
}

// ParseTMX decodes a Tiled .tmx document with inline tilesets. Gids are
// rebuilt from each tile's tileset so flip flags never reach the grid.
func ParseTMX(data []byte) (*Map, error) {
	tm, err := tiled.LoadReader("", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMap, err)
	}

	m := &Map{
		Width:      tm.Width,
		Height:     tm.Height,
		TileWidth:  tm.TileWidth,
		TileHeight: tm.TileHeight,
		Properties: map[string]string{},
	}
	if m.TileWidth <= 0 {
		m.TileWidth = defaultTileSize
	}
	if m.TileHeight <= 0 {
		m.TileHeight = defaultTileSize
	}

	var props tmxProperties
	if err := xml.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("%w: properties: %v", ErrBadMap, err)
	}
	for _, p := range props.Properties {
		m.Properties[p.Name] = p.Value
	}

	for _, ts := range tm.Tilesets {
		t := Tileset{
			Name:       ts.Name,
			FirstGID:   ts.FirstGID,
			TileWidth:  ts.TileWidth,
			TileHeight: ts.TileHeight,
			Columns:    ts.Columns,
			TileCount:  ts.TileCount,
		}
		if ts.Image != nil {
			t.Image = ts.Image.Source
		}
		m.Tilesets = append(m.Tilesets, t)
	}

	for _, tl := range tm.Layers {
		l := &Layer{
			Name:    tl.Name,
			Visible: tl.Name != CollisionLayer && tl.Name != EventsLayer,
			Data:    make([]uint32, len(tl.Tiles)),
		}
		for i, tile := range tl.Tiles {
			if tile == nil || tile.Nil || tile.Tileset == nil {
				continue
			}
			l.Data[i] = tile.Tileset.FirstGID + tile.ID
		}
		m.Layers = append(m.Layers, l)
	}

	if err := m.finish(); err != nil {
		return nil, err
	}
	return m, nil
}
