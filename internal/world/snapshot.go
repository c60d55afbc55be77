package world

import (
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"github.com/carsond2001/map-scanner/internal/models"
	"gopkg.in/yaml.v3"
)

// Snapshot is an in-memory World that can be mutated while it is scanned
type Snapshot struct {
	mu        sync.RWMutex
	player    *Vec3
	dimension string
	server    string
	entities  []Entity
	blocks    map[BlockPos]Block
}

// NewSnapshot creates an empty world with no player
func NewSnapshot(dimension, server string) *Snapshot {
	return &Snapshot{
		dimension: dimension,
		server:    server,
		blocks:    make(map[BlockPos]Block),
	}
}

// snapshotFile is the YAML layout of a world file
type snapshotFile struct {
	Dimension string       `yaml:"dimension"`
	Server    string       `yaml:"server"`
	Player    *Vec3        `yaml:"player"`
	Frames    []frameEntry `yaml:"frames"`
	Signs     []signEntry  `yaml:"signs"`
}

type frameEntry struct {
	Kind   string `yaml:"kind"`
	Pos    Vec3   `yaml:"pos"`
	Item   string `yaml:"item"`
	MapID  *int   `yaml:"map_id"`
	Fill   *int   `yaml:"fill"`
	Colors string `yaml:"colors"` // base64
}

type signEntry struct {
	Pos     BlockPos `yaml:"pos"`
	Block   string   `yaml:"block"`
	Hanging bool     `yaml:"hanging"`
	Front   []string `yaml:"front"`
	Back    []string `yaml:"back"`
}

// LoadSnapshot reads a world file
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	s, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse world file %s: %w", path, err)
	}
	return s, nil
}

// ParseSnapshot decodes a world from YAML
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var f snapshotFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	s := NewSnapshot(f.Dimension, f.Server)
	if f.Player != nil {
		p := *f.Player
		s.player = &p
	}

	for i, fe := range f.Frames {
		e := Entity{ID: i + 1, Kind: fe.Kind, Pos: fe.Pos}
		if e.Kind == "" {
			e.Kind = KindItemFrame
		}
		if fe.Item != "" {
			stack := &ItemStack{Item: fe.Item, MapID: fe.MapID}
			switch {
			case fe.Colors != "":
				colors, err := base64.StdEncoding.DecodeString(fe.Colors)
				if err != nil {
					return nil, fmt.Errorf("frame %d: invalid colors: %w", i, err)
				}
				stack.Colors = colors
			case fe.Fill != nil:
				stack.Colors = make([]byte, models.MapColorsLen)
				for j := range stack.Colors {
					stack.Colors[j] = byte(*fe.Fill)
				}
			}
			e.Held = stack
		}
		s.entities = append(s.entities, e)
	}

	for _, se := range f.Signs {
		name := se.Block
		if name == "" {
			name = "oak_sign"
		}
		beType := BlockEntitySign
		if se.Hanging {
			beType = BlockEntityHangingSign
		}
		s.blocks[se.Pos] = Block{
			Name:   name,
			Tags:   []string{TagSigns},
			Entity: &BlockEntity{Type: beType, Front: se.Front, Back: se.Back},
		}
	}

	return s, nil
}

// Replace swaps the contents of s for those of other
func (s *Snapshot) Replace(other *Snapshot) {
	other.mu.RLock()
	player, dimension, server := other.player, other.dimension, other.server
	entities := append([]Entity(nil), other.entities...)
	blocks := make(map[BlockPos]Block, len(other.blocks))
	for k, v := range other.blocks {
		blocks[k] = v
	}
	other.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = player
	s.dimension = dimension
	s.server = server
	s.entities = entities
	s.blocks = blocks
}

// MovePlayer places the observer at pos
func (s *Snapshot) MovePlayer(pos Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = &pos
}

// RemovePlayer leaves the world
func (s *Snapshot) RemovePlayer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = nil
}

// AddEntity appends e, assigning an id when e.ID is zero
func (s *Snapshot) AddEntity(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = len(s.entities) + 1
	}
	s.entities = append(s.entities, e)
}

// SetBlock places b at pos
func (s *Snapshot) SetBlock(pos BlockPos, b Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[pos] = b
}

// RemoveBlock clears pos back to air
func (s *Snapshot) RemoveBlock(pos BlockPos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, pos)
}

// EntitiesIntersecting implements World
func (s *Snapshot) EntitiesIntersecting(box Box) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entity
	for _, e := range s.entities {
		if box.Contains(e.Pos) {
			out = append(out, e)
		}
	}
	return out
}

// BlockAt implements World
func (s *Snapshot) BlockAt(pos BlockPos) Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[pos]
	if !ok {
		return Block{Name: "air"}
	}
	return b
}

// PlayerPosition implements World
func (s *Snapshot) PlayerPosition() (Vec3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.player == nil {
		return Vec3{}, false
	}
	return *s.player, true
}

// Dimension implements World
func (s *Snapshot) Dimension() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Server implements World
func (s *Snapshot) Server() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}
