package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/world"
)

func mapColors(fill byte) []byte {
	colors := make([]byte, models.MapColorsLen)
	for i := range colors {
		colors[i] = fill
	}
	return colors
}

func mapFrame(id int, pos world.Vec3) world.Entity {
	return world.Entity{
		Kind: world.KindItemFrame,
		Pos:  pos,
		Held: &world.ItemStack{Item: world.ItemFilledMap, MapID: &id, Colors: mapColors(34)},
	}
}

func TestCadence(t *testing.T) {
	var c Cadence
	var due []uint64
	for i := 0; i < 10; i++ {
		if c.Due(3) {
			due = append(due, c.Ticks())
		}
	}
	if fmt.Sprint(due) != "[3 6 9]" {
		t.Errorf("Expected scans on ticks 3, 6 and 9, got %v", due)
	}

	var every Cadence
	if !every.Due(1) || !every.Due(0) {
		t.Errorf("Expected every tick to be due for interval 1 and below")
	}
}

func TestExtractMap(t *testing.T) {
	id := 7
	tests := []struct {
		name   string
		entity world.Entity
		ok     bool
		mapID  string
	}{
		{"item frame", mapFrame(7, world.Vec3{X: 1.5, Y: 64, Z: -0.5}), true, "map_7"},
		{"glow frame", world.Entity{Kind: world.KindGlowItemFrame, Held: &world.ItemStack{Item: world.ItemFilledMap, MapID: &id, Colors: mapColors(1)}}, true, "map_7"},
		{"missing id", world.Entity{Kind: world.KindItemFrame, Held: &world.ItemStack{Item: world.ItemFilledMap, Colors: mapColors(1)}}, true, models.UnknownMapID},
		{"not a frame", world.Entity{Kind: "armor_stand", Held: &world.ItemStack{Item: world.ItemFilledMap, MapID: &id, Colors: mapColors(1)}}, false, ""},
		{"empty frame", world.Entity{Kind: world.KindItemFrame}, false, ""},
		{"wrong item", world.Entity{Kind: world.KindItemFrame, Held: &world.ItemStack{Item: "compass"}}, false, ""},
		{"no colours", world.Entity{Kind: world.KindItemFrame, Held: &world.ItemStack{Item: world.ItemFilledMap, MapID: &id}}, false, ""},
		{"short colours", world.Entity{Kind: world.KindItemFrame, Held: &world.ItemStack{Item: world.ItemFilledMap, MapID: &id, Colors: make([]byte, models.MapColorsLen-1)}}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := ExtractMap(tt.entity, "minecraft:overworld")
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if item.MapID != tt.mapID {
				t.Errorf("Expected id %s, got %s", tt.mapID, item.MapID)
			}
			if len(item.Colors) != models.MapColorsLen {
				t.Errorf("Expected %d colour bytes, got %d", models.MapColorsLen, len(item.Colors))
			}
			if item.Dimension != "minecraft:overworld" {
				t.Errorf("Expected dimension to be carried, got %s", item.Dimension)
			}
		})
	}
}

func TestExtractMapCopiesColors(t *testing.T) {
	e := mapFrame(3, world.Vec3{X: 1.5, Y: 64.2, Z: -0.5})
	e.Held.Colors = append(e.Held.Colors, 99, 99)

	item, ok := ExtractMap(e, "")
	if !ok {
		t.Fatal("Expected extraction")
	}
	e.Held.Colors[0] = 200

	if item.Colors[0] != 34 {
		t.Errorf("Expected colour buffer to be copied, got %d", item.Colors[0])
	}
	if len(item.Colors) != models.MapColorsLen {
		t.Errorf("Expected exactly %d bytes, got %d", models.MapColorsLen, len(item.Colors))
	}
	if item.Pos != (models.Position{X: 1, Y: 64, Z: -1}) {
		t.Errorf("Unexpected block position %v", item.Pos)
	}
	if item.Dimension != models.UnknownMapID {
		t.Errorf("Expected unknown dimension, got %s", item.Dimension)
	}
}

func signBlock(front, back []string) world.Block {
	return world.Block{
		Name:   "oak_sign",
		Tags:   []string{world.TagSigns},
		Entity: &world.BlockEntity{Type: world.BlockEntitySign, Front: front, Back: back},
	}
}

func TestExtractSign(t *testing.T) {
	pos := world.BlockPos{X: 2, Y: 64, Z: 1}

	tests := []struct {
		name        string
		block       world.Block
		includeBack bool
		ok          bool
		front       string
		back        string
	}{
		{"front only", signBlock([]string{"Hello", "world", "", ""}, nil), true, true, "Hello\nworld", ""},
		{"both sides", signBlock([]string{"Hi"}, []string{"", "there"}), true, true, "Hi", "there"},
		{"back excluded", signBlock([]string{"Hi"}, []string{"there"}), false, true, "Hi", ""},
		{"back only", signBlock(nil, []string{"behind"}), true, true, "", "behind"},
		{"back only excluded", signBlock(nil, []string{"behind"}), false, false, "", ""},
		{"blank", signBlock([]string{" ", ""}, []string{"\t"}), true, false, "", ""},
		{"five lines", signBlock([]string{"1", "2", "3", "4", "5"}, nil), true, true, "1\n2\n3\n4", ""},
		{"untagged", world.Block{Name: "oak_sign", Entity: &world.BlockEntity{Type: world.BlockEntitySign, Front: []string{"x"}}}, true, false, "", ""},
		{"no entity", world.Block{Name: "oak_sign", Tags: []string{world.TagSigns}}, true, false, "", ""},
		{"wrong entity", world.Block{Name: "oak_sign", Tags: []string{world.TagSigns}, Entity: &world.BlockEntity{Type: "chest", Front: []string{"x"}}}, true, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := world.NewSnapshot("", "")
			w.SetBlock(pos, tt.block)

			item, ok := ExtractSign(w, pos, tt.includeBack)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if item.Front != tt.front || item.Back != tt.back {
				t.Errorf("Expected front %q back %q, got %q %q", tt.front, tt.back, item.Front, item.Back)
			}
			expectedKey := fmt.Sprintf("%d|%s|%s", pos.Pack(), tt.front, tt.back)
			if item.ContentKey != expectedKey {
				t.Errorf("Expected key %q, got %q", expectedKey, item.ContentKey)
			}
			if item.Pos != (models.Position{X: 2, Y: 64, Z: 1}) {
				t.Errorf("Unexpected position %v", item.Pos)
			}
			if !strings.HasPrefix(item.Message, "**Sign** at `2, 64, 1`") {
				t.Errorf("Unexpected message %q", item.Message)
			}
		})
	}
}

func TestHangingSignIsExtracted(t *testing.T) {
	pos := world.BlockPos{X: 0, Y: 70, Z: 0}
	w := world.NewSnapshot("", "")
	w.SetBlock(pos, world.Block{
		Name:   "oak_hanging_sign",
		Tags:   []string{world.TagSigns},
		Entity: &world.BlockEntity{Type: world.BlockEntityHangingSign, Front: []string{"Shop"}},
	})
	if _, ok := ExtractSign(w, pos, true); !ok {
		t.Errorf("Expected hanging sign to be extracted")
	}
}

func TestFormatSignMessage(t *testing.T) {
	pos := models.Position{X: 1, Y: -2, Z: 3}

	tests := []struct {
		name        string
		front       string
		back        string
		includeBack bool
		expected    string
	}{
		{
			"front only",
			"Hello", "", true,
			"**Sign** at `1, -2, 3`\n**Front:**\n```text\nHello\n```",
		},
		{
			"with back",
			"Hello", "Bye", true,
			"**Sign** at `1, -2, 3`\n**Front:**\n```text\nHello\n```\n**Back:**\n```text\nBye\n```",
		},
		{
			"back equals front",
			"Same", "Same", true,
			"**Sign** at `1, -2, 3`\n**Front:**\n```text\nSame\n```",
		},
		{
			"back not included",
			"Hello", "Bye", false,
			"**Sign** at `1, -2, 3`\n**Front:**\n```text\nHello\n```",
		},
		{
			"empty front",
			"", "Bye", true,
			"**Sign** at `1, -2, 3`\n**Front:**\n```text\n\n```\n**Back:**\n```text\nBye\n```",
		},
		{
			"fence escaped",
			"a```b", "", true,
			"**Sign** at `1, -2, 3`\n**Front:**\n```text\na`\u200b``b\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSignMessage(pos, tt.front, tt.back, tt.includeBack)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
