package render

import (
	"image"
	"image/color"
	"image/png"
	"os"

	uv "github.com/charmbracelet/ultraviolet"
)

// Canvas is a 2D pixel buffer drawn to the terminal with half-block
// characters, doubling the vertical resolution.
type Canvas struct {
	Width  int          // width in pixels (same as terminal columns)
	Height int          // height in pixels (2x terminal rows)
	Pixels []color.RGBA // row-major
}

// NewCanvas creates a canvas with the given dimensions. Height should be
// 2x the terminal rows it will be drawn into.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the canvas with a solid color.
func (c *Canvas) Clear(col color.RGBA) {
	for i := range c.Pixels {
		c.Pixels[i] = col
	}
}

// SetPixel sets a pixel at (x, y). Out-of-bounds writes are dropped.
func (c *Canvas) SetPixel(x, y int, col color.RGBA) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return
	}
	c.Pixels[y*c.Width+x] = col
}

// GetPixel returns the color at (x, y), or transparent black out of bounds.
func (c *Canvas) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return color.RGBA{}
	}
	return c.Pixels[y*c.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's
// algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.SetPixel(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRectOutline draws a rectangle outline.
func (c *Canvas) DrawRectOutline(x, y, w, h int, col color.RGBA) {
	for px := x; px < x+w; px++ {
		c.SetPixel(px, y, col)
		c.SetPixel(px, y+h-1, col)
	}
	for py := y; py < y+h; py++ {
		c.SetPixel(x, py, col)
		c.SetPixel(x+w-1, py, col)
	}
}

// FillRect draws a filled rectangle.
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			c.SetPixel(px, py, col)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Draw converts the canvas to terminal cells on the screen. Each terminal
// row covers two canvas rows via ▀ with fg=top color and bg=bottom color.
func (c *Canvas) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= c.Width {
				break
			}
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(c.GetPixel(x, topY)),
					Bg: rgbaToColor(c.GetPixel(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // transparent = no color
	}
	return c
}

// ToImage converts the canvas to a standard Go image.RGBA.
func (c *Canvas) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			img.SetRGBA(x, y, c.Pixels[y*c.Width+x])
		}
	}
	return img
}

// SavePNG saves the canvas as a PNG file.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, c.ToImage())
}

// Colors used by the minimap.
var (
	ColorBlack  = color.RGBA{0, 0, 0, 255}
	ColorWhite  = color.RGBA{255, 255, 255, 255}
	ColorGreen  = color.RGBA{0, 200, 0, 255}
	ColorGray   = color.RGBA{90, 90, 90, 255}
	ColorYellow = color.RGBA{255, 220, 0, 255}
	ColorCyan   = color.RGBA{0, 200, 200, 255}
	ColorRed    = color.RGBA{220, 40, 40, 255}
)

// RGB creates an opaque color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}
