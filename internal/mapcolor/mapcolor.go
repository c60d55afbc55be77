// Package mapcolor renders 128x128 map palette buffers into PNG images.
//
// Each palette byte packs a base colour index in the upper six bits and a
// shade in the lower two. Byte 0 is the transparent "no data" colour, which
// is drawn as a dark grey so empty areas stay visible.
package mapcolor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/carsond2001/map-scanner/internal/models"
)

// EmptyRGB is drawn for palette byte 0
const EmptyRGB = 0x202020

// base colours indexed by colour id
var baseColors = [...]uint32{
	0x000000, // none
	0x7FB238, // grass
	0xF7E9A3, // sand
	0xC7C7C7, // wool
	0xFF0000, // fire
	0xA0A0FF, // ice
	0xA7A7A7, // metal
	0x007C00, // plant
	0xFFFFFF, // snow
	0xA4A8B8, // clay
	0x976D4D, // dirt
	0x707070, // stone
	0x4040FF, // water
	0x8F7748, // wood
	0xFFFCF5, // quartz
	0xD87F33, // orange
	0xB24CD8, // magenta
	0x6699D8, // light blue
	0xE5E533, // yellow
	0x7FCC19, // lime
	0xF27FA5, // pink
	0x4C4C4C, // gray
	0x999999, // light gray
	0x4C7F99, // cyan
	0x7F3FB2, // purple
	0x334CB2, // blue
	0x664C33, // brown
	0x667F33, // green
	0x993333, // red
	0x191919, // black
	0xFAEE4D, // gold
	0x5CDBD5, // diamond
	0x4A80FF, // lapis
	0x00D93A, // emerald
	0x815631, // podzol
	0x700200, // nether
	0xD1B1A1, // terracotta white
	0x9F5224, // terracotta orange
	0x95576C, // terracotta magenta
	0x706C8A, // terracotta light blue
	0xBA8524, // terracotta yellow
	0x677535, // terracotta lime
	0xA04D4E, // terracotta pink
	0x392923, // terracotta gray
	0x876B62, // terracotta light gray
	0x575C5C, // terracotta cyan
	0x7A4958, // terracotta purple
	0x4C3E5C, // terracotta blue
	0x4C3223, // terracotta brown
	0x4C522A, // terracotta green
	0x8E3C2E, // terracotta red
	0x251610, // terracotta black
	0xBD3031, // crimson nylium
	0x943F61, // crimson stem
	0x5C191D, // crimson hyphae
	0x167E86, // warped nylium
	0x3A8E8C, // warped stem
	0x562C3E, // warped hyphae
	0x14B485, // warped wart block
	0x646464, // deepslate
	0xD8AF93, // raw iron
	0x7FA796, // glow lichen
}

var shadeMultipliers = [4]uint32{180, 220, 255, 135}

// RenderRGB returns the 0xRRGGBB colour for one palette byte
func RenderRGB(b byte) uint32 {
	if b == 0 {
		return EmptyRGB
	}

	id := int(b >> 2)
	if id >= len(baseColors) {
		return 0
	}
	base := baseColors[id]
	m := shadeMultipliers[b&3]

	r := (base >> 16 & 0xFF) * m / 255
	g := (base >> 8 & 0xFF) * m / 255
	bl := (base & 0xFF) * m / 255
	return r<<16 | g<<8 | bl
}

// Render converts a palette buffer into an RGBA image.
// A short buffer yields an all-black image rather than an error.
func Render(colors []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, models.MapSize, models.MapSize))
	if len(colors) < models.MapColorsLen {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xFF
		}
		return img
	}

	for y := 0; y < models.MapSize; y++ {
		for x := 0; x < models.MapSize; x++ {
			rgb := RenderRGB(colors[y*models.MapSize+x])
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(rgb >> 16),
				G: uint8(rgb >> 8),
				B: uint8(rgb),
				A: 0xFF,
			})
		}
	}
	return img
}

// EncodePNG renders colors and encodes the result as PNG
func EncodePNG(colors []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(colors)); err != nil {
		return nil, fmt.Errorf("failed to encode map png: %w", err)
	}
	return buf.Bytes(), nil
}
