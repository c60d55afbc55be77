package scanner

import (
	"fmt"
	"strings"

	"github.com/carsond2001/map-scanner/internal/models"
	"github.com/carsond2001/map-scanner/internal/world"
)

// signLines is the number of text lines on one side of a sign
const signLines = 4

// ExtractMap returns the map carried by an item frame.
// The colour buffer is copied so later writes by the world do not leak
// into the item. Frames holding a map without an id yield UnknownMapID.
func ExtractMap(e world.Entity, dimension string) (models.MapItem, bool) {
	if e.Kind != world.KindItemFrame && e.Kind != world.KindGlowItemFrame {
		return models.MapItem{}, false
	}
	if e.Held == nil || e.Held.Item != world.ItemFilledMap {
		return models.MapItem{}, false
	}
	if len(e.Held.Colors) < models.MapColorsLen {
		return models.MapItem{}, false
	}

	id := models.UnknownMapID
	if e.Held.MapID != nil {
		id = fmt.Sprintf("map_%d", *e.Held.MapID)
	}

	colors := make([]byte, models.MapColorsLen)
	copy(colors, e.Held.Colors)

	if dimension == "" {
		dimension = models.UnknownMapID
	}

	bp := e.Pos.BlockPos()
	return models.MapItem{
		MapID:     id,
		Colors:    colors,
		Pos:       models.Position{X: bp.X, Y: bp.Y, Z: bp.Z},
		Dimension: dimension,
	}, true
}

// ExtractSign reads the sign at pos. Back text is only read when
// includeBack is set. Signs blank on both sides are skipped.
func ExtractSign(w world.World, pos world.BlockPos, includeBack bool) (models.SignItem, bool) {
	block := w.BlockAt(pos)
	if !block.HasTag(world.TagSigns) || !block.Entity.IsSign() {
		return models.SignItem{}, false
	}

	front := signText(block.Entity.Front)
	back := ""
	if includeBack {
		back = signText(block.Entity.Back)
	}
	if front == "" && back == "" {
		return models.SignItem{}, false
	}

	p := models.Position{X: pos.X, Y: pos.Y, Z: pos.Z}
	return models.SignItem{
		ContentKey: fmt.Sprintf("%d|%s|%s", pos.Pack(), front, back),
		Front:      front,
		Back:       back,
		Pos:        p,
		Message:    FormatSignMessage(p, front, back, includeBack),
	}, true
}

func signText(lines []string) string {
	if len(lines) > signLines {
		lines = lines[:signLines]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// FormatSignMessage renders the chat message announcing a sign
func FormatSignMessage(pos models.Position, front, back string, includeBack bool) string {
	var sb strings.Builder
	sb.WriteString("**Sign** at `")
	sb.WriteString(pos.String())
	sb.WriteString("`")

	sb.WriteString("\n**Front:**\n")
	sb.WriteString(codeBlock(front))

	if includeBack && strings.TrimSpace(back) != "" && back != front {
		sb.WriteString("\n**Back:**\n")
		sb.WriteString(codeBlock(back))
	}
	return sb.String()
}

// codeBlock fences s, breaking any fence inside it with a zero-width space
func codeBlock(s string) string {
	safe := strings.ReplaceAll(s, "```", "`\u200b``")
	return "```text\n" + safe + "\n```"
}
