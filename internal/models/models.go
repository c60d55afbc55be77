package models

import (
	"fmt"
	"time"
)

// MapSize is the edge length of a carried map image in pixels
const MapSize = 128

// MapColorsLen is the number of palette indices in one map image
const MapColorsLen = MapSize * MapSize

// UnknownMapID marks a map whose carrier has no identifier.
// Such maps are never deduplicated and never archived.
const UnknownMapID = "unknown"

// Position is an integer block coordinate
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// String formats the position the way the host prints short block positions
func (p Position) String() string {
	return fmt.Sprintf("%d, %d, %d", p.X, p.Y, p.Z)
}

// MapItem is one map image discovered by a scan
type MapItem struct {
	MapID     string
	Colors    []byte // MapColorsLen palette indices, owned by the item
	Pos       Position
	Dimension string
}

// SignItem is one sign sighting discovered by a scan
type SignItem struct {
	ContentKey string
	Front      string
	Back       string
	Pos        Position
	Dimension  string // empty when the world has no dimension tag
	Server     string
	FirstSeen  time.Time
	Message    string // rendered notification body
}

// MapRecord represents a row in the map archive
type MapRecord struct {
	MapID     string    `json:"map_id"`
	Dimension string    `json:"dimension"`
	Pos       Position  `json:"pos"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	PNG       []byte    `json:"-"`
	Colors    []byte    `json:"-"`
}

// SignRecord represents a row in the sign archive
type SignRecord struct {
	SignKey    string    `json:"sign_key"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	Dimension  string    `json:"dimension,omitempty"`
	Server     string    `json:"server,omitempty"`
	Pos        Position  `json:"pos"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	ContentKey string    `json:"content_key"`
}
