// SPDX-License-Identifier: Unlicense OR MIT

// Command nanite is the reference viewer: it loads a small table of
// textured meshes, builds (or loads from cache) a cluster DAG for
// each, places instances in a scene, and walks/renders them under
// live camera control.
package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"

	"github.com/oOo0oOo/gonanite/internal/cache"
	"github.com/oOo0oOo/gonanite/internal/camera"
	"github.com/oOo0oOo/gonanite/internal/instance"
	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/meshio"
	"github.com/oOo0oOo/gonanite/internal/render"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// modelEntry is one row of the launcher's model manifest (§6): source
// mesh, its texture, where its built DAG is cached, and where to place
// it in the scene.
type modelEntry struct {
	Name        string
	ObjPath     string
	TexturePath string
	CachePath   string
	Position    vecmath.Vec3
}

// models is the launcher's model table. A real deployment would load
// this from a config file; spec.md leaves it to the launcher itself.
var models = []modelEntry{
	{
		Name:        "bunny",
		ObjPath:     "data/models/bunny.obj",
		TexturePath: "data/models/bunny.png",
		CachePath:   "data/build/bunny.dagcache",
		Position:    vecmath.Vec3{X: 0, Y: 0, Z: 0},
	},
}

const (
	walkSpeed = 2.0 // world units/second
	runFactor = 8.0 // Shift multiplier
	lookSpeed = 0.0025
	fovY      = 3.14159265 / 2
	nearPlane = 0.1
	farPlane  = 100.0
)

func main() {
	if err := os.MkdirAll("data/build", 0o755); err != nil {
		slog.Error("nanite: create data/build", "err", err)
		os.Exit(1)
	}

	mgr := instance.New(camera.New())
	for _, m := range models {
		dag, err := loadOrBuildDAG(m)
		if err != nil {
			slog.Error("nanite: load model", "model", m.Name, "err", err)
			os.Exit(1)
		}
		img, err := meshio.LoadTexture(m.TexturePath)
		if err != nil {
			slog.Error("nanite: load texture", "model", m.Name, "err", err)
			os.Exit(1)
		}
		mgr.RegisterModel(m.Name, &instance.Model{DAG: dag, Texture: render.NewTexture(img)})
		if _, err := mgr.Spawn(m.Name, m.Position); err != nil {
			slog.Error("nanite: spawn model", "model", m.Name, "err", err)
			os.Exit(1)
		}
	}

	go func() {
		w := app.NewWindow(app.Size(unit.Dp(1024), unit.Dp(768)), app.Title("gonanite"))
		if err := run(w, mgr); err != nil {
			slog.Error("nanite: run", "err", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

// loadOrBuildDAG returns m's cluster DAG from cache, rebuilding and
// caching it on a miss (including a corrupt or version-mismatched
// cache file, per §7 CacheMiss).
func loadOrBuildDAG(m modelEntry) (*lod.DAG, error) {
	dag, err := cache.Load(m.CachePath)
	switch {
	case err == nil:
		return dag, nil
	case errors.Is(err, os.ErrNotExist):
		slog.Info("nanite: cache miss, building", "model", m.Name)
	case errors.Is(err, cache.ErrCacheCorrupt):
		slog.Warn("nanite: cache corrupt, rebuilding", "model", m.Name, "err", err)
	default:
		return nil, err
	}

	mesh, err := meshio.LoadOBJ(m.ObjPath)
	if err != nil {
		return nil, err
	}
	dag, err = lod.NewDAGBuilder().Build(mesh)
	if err != nil {
		return nil, err
	}
	if err := cache.Save(m.CachePath, dag, m.ObjPath, m.TexturePath); err != nil {
		slog.Warn("nanite: cache save failed, continuing without it", "model", m.Name, "err", err)
	}
	return dag, nil
}

// inputState tracks held keys and an in-progress mouse drag between
// frames; WASD/Shift/mouse-look are all continuous while held, unlike
// E/P/Esc which fire once per press.
type inputState struct {
	held         map[key.Name]bool
	dragging     bool
	lastDragAt   f32.Point
	yawDelta     float32
	pitchDelta   float32
	screenshotAt int // incremented on each P press; run() diffs it to notice a new request
}

func newInputState() *inputState {
	return &inputState{held: map[key.Name]bool{}}
}

func run(w *app.Window, mgr *instance.Manager) error {
	in := newInputState()
	raster := render.NewSoftwareRasterizer(1, 1)
	lastFrame := time.Time{}
	screenshotsTaken := 0

	var ops op.Ops
	for {
		e := <-w.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err

		case key.Event:
			handleKey(in, mgr, e)

		case pointer.Event:
			handlePointer(in, e)

		case system.FrameEvent:
			if lastFrame.IsZero() {
				lastFrame = e.Now
			}
			dt := float32(e.Now.Sub(lastFrame).Seconds())
			lastFrame = e.Now

			raster.Resize(e.Size.X, e.Size.Y)
			raster.Clear()

			applyMovement(mgr.Camera, in, dt)

			aspect := float32(e.Size.X) / float32(e.Size.Y)
			proj := vecmath.Perspective(fovY, aspect, nearPlane, farPlane)
			mgr.Frame(raster, proj)

			ops.Reset()
			paint.NewImageOp(raster.Framebuffer()).Add(&ops)
			paint.PaintOp{}.Add(&ops)
			e.Frame(&ops)

			if in.screenshotAt != screenshotsTaken {
				screenshotsTaken = in.screenshotAt
				if err := takeScreenshot(raster.Framebuffer()); err != nil {
					slog.Error("nanite: screenshot", "err", err)
				}
			}
			w.Invalidate()
		}
	}
}

func handleKey(in *inputState, mgr *instance.Manager, e key.Event) {
	switch e.State {
	case key.Press:
		in.held[e.Name] = true
		switch e.Name {
		case key.NameEscape:
			os.Exit(0)
		case "E":
			mgr.DynamicLOD = !mgr.DynamicLOD
		case "P":
			in.screenshotAt++
		}
	case key.Release:
		in.held[e.Name] = false
	}
}

func handlePointer(in *inputState, e pointer.Event) {
	switch e.Type {
	case pointer.Press:
		if e.Buttons&pointer.ButtonLeft != 0 {
			in.dragging = true
			in.lastDragAt = e.Position
		}
	case pointer.Release, pointer.Cancel:
		in.dragging = false
	case pointer.Move:
		if !in.dragging {
			return
		}
		in.yawDelta += (e.Position.X - in.lastDragAt.X) * lookSpeed
		in.pitchDelta += (e.Position.Y - in.lastDragAt.Y) * lookSpeed
		in.lastDragAt = e.Position
	}
}

// applyMovement turns held WASD/Shift and any accumulated mouse-drag
// delta into one Camera.Update call for this frame, then clears the
// per-frame drag accumulator.
func applyMovement(cam *camera.Camera, in *inputState, dt float32) {
	speed := float32(walkSpeed)
	if in.held[key.NameShift] {
		speed *= runFactor
	}

	var move vecmath.Vec3
	if in.held["W"] {
		move.Z += speed * dt
	}
	if in.held["S"] {
		move.Z -= speed * dt
	}
	if in.held["D"] {
		move.X += speed * dt
	}
	if in.held["A"] {
		move.X -= speed * dt
	}

	cam.Update(move, [2]float32{in.yawDelta, in.pitchDelta})
	in.yawDelta, in.pitchDelta = 0, 0
}

// takeScreenshot PNG-encodes fb to screenshots/<unix_ts>.png (§6
// Filesystem: screenshots/ is expected to already exist).
func takeScreenshot(fb *image.NRGBA) error {
	name := filepath.Join("screenshots", strconv.FormatInt(time.Now().Unix(), 10)+".png")
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("nanite: create screenshot %s: %w", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, fb); err != nil {
		return fmt.Errorf("nanite: encode screenshot %s: %w", name, err)
	}
	slog.Info("nanite: saved screenshot", "path", name)
	return nil
}
