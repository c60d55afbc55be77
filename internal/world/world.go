// Package world describes the host world model the scanners read from.
//
// The scanners only ever read. Implementations must tolerate concurrent
// mutation by the host while a scan is in progress.
package world

import "math"

// Entity kinds that can carry a map
const (
	KindItemFrame     = "item_frame"
	KindGlowItemFrame = "glow_item_frame"
)

// ItemFilledMap is the item id of a map with image data
const ItemFilledMap = "filled_map"

// TagSigns is the block tag shared by every sign variant
const TagSigns = "signs"

// Block entity types that carry sign text
const (
	BlockEntitySign        = "sign"
	BlockEntityHangingSign = "hanging_sign"
)

// World is the read-only view of the host world model
type World interface {
	// EntitiesIntersecting returns entities whose position lies inside box
	EntitiesIntersecting(box Box) []Entity
	// BlockAt returns the block and block entity at pos
	BlockAt(pos BlockPos) Block
	// PlayerPosition returns the observer position, or false when not in a world
	PlayerPosition() (Vec3, bool)
	// Dimension returns the current dimension tag, or "" when unknown
	Dimension() string
	// Server returns the current server tag
	Server() string
}

// Vec3 is a precise world position
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// DistanceSq returns the squared Euclidean distance between v and o
func (v Vec3) DistanceSq(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// BlockPos returns the block containing v
func (v Vec3) BlockPos() BlockPos {
	return BlockPos{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}

// BlockPos is an integer block coordinate
type BlockPos struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	Z int `yaml:"z" json:"z"`
}

// Pack encodes p into a single integer using the host's 26/12/26 bit layout
func (p BlockPos) Pack() int64 {
	return (int64(p.X)&0x3FFFFFF)<<38 | (int64(p.Z)&0x3FFFFFF)<<12 | int64(p.Y)&0xFFF
}

// Box is an axis-aligned region
type Box struct {
	Min Vec3
	Max Vec3
}

// BoxAround returns the cube of half-width r centred on c
func BoxAround(c Vec3, r float64) Box {
	return Box{
		Min: Vec3{X: c.X - r, Y: c.Y - r, Z: c.Z - r},
		Max: Vec3{X: c.X + r, Y: c.Y + r, Z: c.Z + r},
	}
}

// Contains reports whether v lies inside b, bounds included
func (b Box) Contains(v Vec3) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}

// Entity is a non-block object in the world
type Entity struct {
	ID   int
	Kind string
	Pos  Vec3
	Held *ItemStack
}

// ItemStack is the item held by a frame.
// Colors is owned by the world and may be rewritten after a read returns.
type ItemStack struct {
	Item   string
	MapID  *int
	Colors []byte
}

// Block is the state at one block position
type Block struct {
	Name   string
	Tags   []string
	Entity *BlockEntity
}

// HasTag reports whether the block carries tag
func (b Block) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// BlockEntity is the extra data attached to a block
type BlockEntity struct {
	Type  string
	Front []string
	Back  []string
}

// IsSign reports whether the block entity carries sign text
func (e *BlockEntity) IsSign() bool {
	return e != nil && (e.Type == BlockEntitySign || e.Type == BlockEntityHangingSign)
}
