package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. Each cell shows two vertically stacked pixels using an upper half
// block (fg = top pixel, bg = bottom pixel), so the framebuffer height
// should be twice the number of rows in area.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	b := fb.img.Rect
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= b.Max.X {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: fb.cellColor(x, topY),
					Bg: fb.cellColor(x, botY),
				},
			})
		}
	}
}

// cellColor returns the pixel at (x, y) as a terminal color, or nil (the
// terminal default) outside the image. Callers hold the read lock.
func (fb *Framebuffer) cellColor(x, y int) color.Color {
	if y >= fb.img.Rect.Max.Y {
		return nil
	}
	return fb.img.RGBAAt(x, y)
}
