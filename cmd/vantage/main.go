// vantage - Terminal frustum culling viewer
// Fly a camera through a field of objects and watch the octree cull them.
//
// Controls:
//
//	W/S         - Move forward/backward
//	A/D         - Strafe left/right
//	Q/E         - Move down/up
//	Arrow keys  - Look around
//	Space       - Random impulse
//	G           - Save minimap screenshot (PNG)
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/vantage/pkg/cull"
	"github.com/taigrr/vantage/pkg/math3d"
	"github.com/taigrr/vantage/pkg/render"
	"github.com/taigrr/vantage/pkg/scene"
)

var (
	objectCount = flag.Int("n", 2000, "Number of procedural objects")
	treeDepth   = flag.Int("depth", 4, "Octree subdivision depth")
	worldSize   = flag.Float64("world", 200, "World half-extent")
	targetFPS   = flag.Int("fps", 30, "Target FPS")
	driftFrac   = flag.Float64("drift", 0.1, "Fraction of objects that orbit the world center")
	seed        = flag.Int64("seed", 0, "Random seed (0 = time-based)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "vantage - Terminal frustum culling viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: vantage [options] [model.glb|model.gltf]\n\n")
		fmt.Fprintf(os.Stderr, "Without a model, a procedural box field is generated.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Move and strafe\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Down/up\n")
		fmt.Fprintf(os.Stderr, "  Arrow keys  - Look around\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random impulse\n")
		fmt.Fprintf(os.Stderr, "  G           - Save minimap PNG\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Axis holds one velocity component with harmonica spring decay.
type Axis struct {
	Velocity float64
	spring   harmonica.Spring
	accel    float64
}

// NewAxis creates an axis with a critically damped spring.
func NewAxis(fps int) Axis {
	return Axis{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update decays velocity toward 0 (smooth deceleration).
func (a *Axis) Update() {
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// MotionState holds the camera's linear and angular velocities.
type MotionState struct {
	Forward, Strafe, Lift Axis
	Yaw, Pitch            Axis
}

func NewMotionState(fps int) *MotionState {
	return &MotionState{
		Forward: NewAxis(fps),
		Strafe:  NewAxis(fps),
		Lift:    NewAxis(fps),
		Yaw:     NewAxis(fps),
		Pitch:   NewAxis(fps),
	}
}

func (m *MotionState) Update() {
	m.Forward.Update()
	m.Strafe.Update()
	m.Lift.Update()
	m.Yaw.Update()
	m.Pitch.Update()
}

// HUD renders an overlay with culling stats and controls.
type HUD struct {
	title     string
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	Show      bool
}

func NewHUD(title string) *HUD {
	return &HUD{
		title:   title,
		fpsTime: time.Now(),
		Show:    true,
	}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD overlay directly to the terminal.
func (h *HUD) Render(width, height, visible, total int, pos math3d.Vec3) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgCyan    = "\x1b[96m"
		fgYellow  = "\x1b[93m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows (so toggling off works).
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)

	if !h.Show {
		return
	}

	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	titleCol := max((width-len(h.title)-2)/2, 1)
	fmt.Printf("%s%s%s%s %s %s", moveTo(1, titleCol), bold, bgBlack, fgWhite, h.title, reset)

	culled := 0.0
	if total > 0 {
		culled = float64(total-visible) / float64(total) * 100
	}
	statStr := fmt.Sprintf(" %d/%d visible (%.0f%% culled) ", visible, total, culled)
	statCol := max(width-len(statStr)-1, 1)
	fmt.Printf("%s%s%s%s%s%s", moveTo(1, statCol), bgBlack, fgCyan, bold, statStr, reset)

	fmt.Printf("%s%s%s pos %.0f,%.0f,%.0f %s", moveTo(height, 1), bgBlack, fgWhite,
		pos.X, pos.Y, pos.Z, reset)

	hint := fmt.Sprintf("%s%s%s WASD move, arrows look, Esc quit %s", bgBlack, dim, fgYellow, reset)
	hintCol := max(width-36, 1)
	fmt.Print(moveTo(height, hintCol) + hint)
}

// drifter is a procedural object that orbits the world center.
type drifter struct {
	handle cull.Handle
	radius float64
	angle  float64
	speed  float64
	y      float64
	half   math3d.Vec3
}

func (d *drifter) step(sc *scene.Scene, dt float64) {
	d.angle += d.speed * dt
	c := math3d.V3(math.Cos(d.angle)*d.radius, d.y, math.Sin(d.angle)*d.radius)
	sc.Move(d.handle, cull.NewAABB(c.Sub(d.half), c.Add(d.half)))
}

// populate fills the scene with a procedural box field. A fraction of the
// objects orbit the world center to exercise per-frame updates.
func populate(sc *scene.Scene, rng *rand.Rand, n int, half, drift float64) []drifter {
	var drifters []drifter
	for i := range n {
		hx := 0.5 + rng.Float64()*2.5
		hy := 0.5 + rng.Float64()*2.5
		hz := 0.5 + rng.Float64()*2.5
		c := math3d.V3(
			(rng.Float64()*2-1)*(half-3),
			(rng.Float64()*2-1)*(half-3),
			(rng.Float64()*2-1)*(half-3),
		)
		box := cull.NewAABB(
			c.Sub(math3d.V3(hx, hy, hz)),
			c.Add(math3d.V3(hx, hy, hz)),
		)
		h := sc.Add(fmt.Sprintf("box-%d", i), box)

		if rng.Float64() < drift {
			drifters = append(drifters, drifter{
				handle: h,
				radius: math.Hypot(c.X, c.Z),
				angle:  math.Atan2(c.Z, c.X),
				speed:  0.1 + rng.Float64()*0.4,
				y:      c.Y,
				half:   math3d.V3(hx, hy, hz),
			})
		}
	}
	return drifters
}

func run(modelPath string) error {
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	half := *worldSize
	world := cull.NewAABB(
		math3d.V3(-half, -half, -half),
		math3d.V3(half, half, half),
	)
	sc := scene.New(cull.NewStaticOctree(world, *treeDepth))

	title := "procedural field"
	var drifters []drifter
	if modelPath != "" {
		if _, err := sc.LoadGLTF(modelPath); err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		title = filepath.Base(modelPath)
	} else {
		drifters = populate(sc, rng, *objectCount, half, *driftFrac)
	}

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Half-block cells double the vertical resolution, which makes the
	// canvas pixels roughly square.
	minimap := render.NewMinimap(width, height*2, world)

	camera := render.NewCamera()
	camera.SetAspectRatio(float64(width) / float64(height*2))
	camera.SetFOV(math.Pi / 3)
	camera.SetClipPlanes(0.1, half*3)
	camera.SetPosition(math3d.V3(0, half*0.25, half*1.1))
	camera.LookAt(math3d.V3(0, 0, 0))

	hud := NewHUD(title)
	motion := NewMotionState(*targetFPS)

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Held-key thrust, decayed each frame (key release events unreliable)
	thrust := struct{ fwd, strafe, lift, yaw, pitch float64 }{}
	moveSpeed := half * 0.02
	const turnSpeed = 0.06

	screenshot := make(chan struct{}, 1)

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				minimap.Resize(width, height*2)
				camera.SetAspectRatio(float64(width) / float64(height*2))

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("w"):
					thrust.fwd = moveSpeed
				case ev.MatchString("s"):
					thrust.fwd = -moveSpeed
				case ev.MatchString("a"):
					thrust.strafe = -moveSpeed
				case ev.MatchString("d"):
					thrust.strafe = moveSpeed
				case ev.MatchString("q"):
					thrust.lift = -moveSpeed
				case ev.MatchString("e"):
					thrust.lift = moveSpeed
				case ev.MatchString("left"):
					thrust.yaw = turnSpeed
				case ev.MatchString("right"):
					thrust.yaw = -turnSpeed
				case ev.MatchString("up"):
					thrust.pitch = turnSpeed
				case ev.MatchString("down"):
					thrust.pitch = -turnSpeed
				case ev.MatchString("space"):
					motion.Forward.Velocity += (rng.Float64() - 0.5) * moveSpeed * 20
					motion.Yaw.Velocity += (rng.Float64() - 0.5) * 0.5
				case ev.MatchString("g"):
					select {
					case screenshot <- struct{}{}:
					default:
					}
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					hud.Show = !hud.Show
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("s"):
					thrust.fwd = 0
				case ev.MatchString("a"), ev.MatchString("d"):
					thrust.strafe = 0
				case ev.MatchString("q"), ev.MatchString("e"):
					thrust.lift = 0
				case ev.MatchString("left"), ev.MatchString("right"):
					thrust.yaw = 0
				case ev.MatchString("up"), ev.MatchString("down"):
					thrust.pitch = 0
				}
			}
		}
	}()

	targetDuration := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	visible := make([]cull.Handle, 0, sc.Len())
	visibleSet := make(map[cull.Handle]struct{}, sc.Len())

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if dt > 0.1 {
			dt = 0.1
		}

		motion.Forward.Velocity += thrust.fwd
		motion.Strafe.Velocity += thrust.strafe
		motion.Lift.Velocity += thrust.lift
		motion.Yaw.Velocity += thrust.yaw
		motion.Pitch.Velocity += thrust.pitch
		thrust.fwd *= 0.9
		thrust.strafe *= 0.9
		thrust.lift *= 0.9
		thrust.yaw *= 0.9
		thrust.pitch *= 0.9

		// Springs handle timing internally
		motion.Update()

		camera.MoveForward(motion.Forward.Velocity)
		camera.MoveRight(motion.Strafe.Velocity)
		camera.MoveUp(motion.Lift.Velocity)
		camera.Rotate(motion.Pitch.Velocity, motion.Yaw.Velocity, 0)

		for i := range drifters {
			drifters[i].step(sc, dt)
		}

		// Cull
		f := camera.Frustum()
		visible = sc.Visible(&f, visible[:0])

		clear(visibleSet)
		for _, h := range visible {
			visibleSet[h] = struct{}{}
		}

		// Draw
		minimap.Begin()
		sc.Each(func(h cull.Handle, obj scene.Object) {
			_, vis := visibleSet[h]
			minimap.PlotObject(obj.Bounds, vis)
		})
		minimap.PlotCamera(camera)
		minimap.Draw(term, uv.Rect(0, 0, width, height))

		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		select {
		case <-screenshot:
			name := fmt.Sprintf("vantage-%d.png", time.Now().Unix())
			_ = minimap.Canvas().SavePNG(name)
		default:
		}

		hud.UpdateFPS()
		hud.Render(width, height, len(visible), sc.Len(), camera.Position)

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
