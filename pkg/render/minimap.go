package render

import (
	"image/color"
	"math"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/vantage/pkg/cull"
)

// Minimap draws a top-down view of the world onto a Canvas: object
// footprints on the X/Z plane, colored by whether the camera's frustum
// accepted them, plus the camera position and its horizontal view wedge.
type Minimap struct {
	canvas *Canvas
	world  cull.AABB
}

// NewMinimap creates a minimap covering the given world bounds. Width and
// height are in canvas pixels.
func NewMinimap(width, height int, world cull.AABB) *Minimap {
	return &Minimap{
		canvas: NewCanvas(width, height),
		world:  world,
	}
}

// Resize reallocates the canvas for a new terminal size.
func (m *Minimap) Resize(width, height int) {
	if width == m.canvas.Width && height == m.canvas.Height {
		return
	}
	m.canvas = NewCanvas(width, height)
}

// Canvas returns the underlying canvas.
func (m *Minimap) Canvas() *Canvas {
	return m.canvas
}

// Begin clears the canvas and draws the world border.
func (m *Minimap) Begin() {
	m.canvas.Clear(ColorBlack)
	x0, y0 := m.project(m.world.Min.X, m.world.Min.Z)
	x1, y1 := m.project(m.world.Max.X, m.world.Max.Z)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	m.canvas.DrawRectOutline(x0, y0, x1-x0+1, y1-y0+1, ColorWhite)
}

// PlotObject draws an object's X/Z footprint. Visible objects are green,
// culled ones gray.
func (m *Minimap) PlotObject(b cull.AABB, visible bool) {
	col := ColorGray
	if visible {
		col = ColorGreen
	}
	x0, y0 := m.project(b.Min.X, b.Min.Z)
	x1, y1 := m.project(b.Max.X, b.Max.Z)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	m.canvas.FillRect(x0, y0, x1-x0+1, y1-y0+1, col)
}

// PlotCamera draws the camera marker and two rays tracing the horizontal
// extent of its view frustum.
func (m *Minimap) PlotCamera(c *Camera) {
	half := math.Atan(math.Tan(c.FOV/2) * c.AspectRatio)
	reach := c.Far
	if d := m.world.Size().Len() / 2; d < reach {
		reach = d
	}

	cx, cy := m.project(c.Position.X, c.Position.Z)
	for _, a := range []float64{c.Yaw - half, c.Yaw + half} {
		ex := c.Position.X - math.Sin(a)*reach
		ez := c.Position.Z - math.Cos(a)*reach
		px, py := m.project(ex, ez)
		m.canvas.DrawLine(cx, cy, px, py, ColorCyan)
	}
	m.plotMarker(cx, cy, ColorYellow)
}

// Draw renders the minimap into the given screen area.
func (m *Minimap) Draw(scr uv.Screen, area uv.Rectangle) {
	m.canvas.Draw(scr, area)
}

func (m *Minimap) plotMarker(x, y int, col color.RGBA) {
	m.canvas.SetPixel(x, y, col)
	m.canvas.SetPixel(x-1, y, col)
	m.canvas.SetPixel(x+1, y, col)
	m.canvas.SetPixel(x, y-1, col)
	m.canvas.SetPixel(x, y+1, col)
}

// project maps a world X/Z coordinate to canvas pixels. North (-Z) is up.
func (m *Minimap) project(x, z float64) (int, int) {
	size := m.world.Size()
	if size.X == 0 || size.Z == 0 {
		return 0, 0
	}
	px := (x - m.world.Min.X) / size.X * float64(m.canvas.Width-1)
	py := (z - m.world.Min.Z) / size.Z * float64(m.canvas.Height-1)
	return int(math.Round(px)), int(math.Round(py))
}
