package render

import (
	"testing"

	"github.com/taigrr/vantage/pkg/cull"
	"github.com/taigrr/vantage/pkg/math3d"
)

func testWorld() cull.AABB {
	return cull.NewAABB(math3d.V3(-100, -100, -100), math3d.V3(100, 100, 100))
}

func TestCanvasSetGetPixel(t *testing.T) {
	c := NewCanvas(4, 4)
	c.SetPixel(1, 2, ColorRed)

	if got := c.GetPixel(1, 2); got != ColorRed {
		t.Errorf("GetPixel(1,2) = %v, want red", got)
	}
	if got := c.GetPixel(0, 0); got.A != 0 {
		t.Errorf("GetPixel(0,0) = %v, want transparent", got)
	}

	// Out-of-bounds writes and reads must be safe.
	c.SetPixel(-1, 0, ColorRed)
	c.SetPixel(4, 0, ColorRed)
	if got := c.GetPixel(-1, 0); got.A != 0 {
		t.Errorf("out-of-bounds GetPixel = %v, want zero", got)
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(8, 8)
	c.DrawLine(0, 0, 7, 7, ColorWhite)

	for i := range 8 {
		if got := c.GetPixel(i, i); got != ColorWhite {
			t.Errorf("diagonal pixel (%d,%d) = %v, want white", i, i, got)
		}
	}
}

func TestMinimapProjectCorners(t *testing.T) {
	m := NewMinimap(41, 21, testWorld())

	tests := []struct {
		name   string
		x, z   float64
		px, py int
	}{
		{"min corner maps to top-left", -100, -100, 0, 0},
		{"max corner maps to bottom-right", 100, 100, 40, 20},
		{"center maps to middle", 0, 0, 20, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, py := m.project(tt.x, tt.z)
			if px != tt.px || py != tt.py {
				t.Errorf("project(%v, %v) = (%d,%d), want (%d,%d)",
					tt.x, tt.z, px, py, tt.px, tt.py)
			}
		})
	}
}

func TestMinimapPlotObject(t *testing.T) {
	m := NewMinimap(41, 21, testWorld())
	m.Begin()

	box := cull.NewAABB(math3d.V3(-2, -2, -2), math3d.V3(2, 2, 2))
	m.PlotObject(box, true)
	if got := m.Canvas().GetPixel(20, 10); got != ColorGreen {
		t.Errorf("visible object pixel = %v, want green", got)
	}

	m.PlotObject(box, false)
	if got := m.Canvas().GetPixel(20, 10); got != ColorGray {
		t.Errorf("culled object pixel = %v, want gray", got)
	}
}

func TestMinimapBeginDrawsBorder(t *testing.T) {
	m := NewMinimap(41, 21, testWorld())
	m.Begin()

	cv := m.Canvas()
	for _, p := range [][2]int{{0, 0}, {40, 0}, {0, 20}, {40, 20}} {
		if got := cv.GetPixel(p[0], p[1]); got != ColorWhite {
			t.Errorf("border pixel (%d,%d) = %v, want white", p[0], p[1], got)
		}
	}
	if got := cv.GetPixel(20, 10); got != ColorBlack {
		t.Errorf("interior pixel = %v, want black", got)
	}
}

func TestMinimapPlotCameraMarker(t *testing.T) {
	m := NewMinimap(41, 21, testWorld())
	m.Begin()

	c := NewCamera()
	c.SetPosition(math3d.V3(0, 0, 0))
	m.PlotCamera(c)

	if got := m.Canvas().GetPixel(20, 10); got != ColorYellow {
		t.Errorf("camera marker pixel = %v, want yellow", got)
	}
}

func TestMinimapResize(t *testing.T) {
	m := NewMinimap(41, 21, testWorld())
	cv := m.Canvas()

	m.Resize(41, 21)
	if m.Canvas() != cv {
		t.Error("same-size Resize should keep the canvas")
	}

	m.Resize(80, 40)
	if m.Canvas().Width != 80 || m.Canvas().Height != 40 {
		t.Errorf("canvas = %dx%d, want 80x40", m.Canvas().Width, m.Canvas().Height)
	}
}
