// SPDX-License-Identifier: Unlicense OR MIT

// Package instance owns the camera, the loaded model registry, and
// the list of placed instances, and drives per-frame cut selection
// and drawing.
package instance

import (
	"fmt"

	"github.com/oOo0oOo/gonanite/internal/camera"
	"github.com/oOo0oOo/gonanite/internal/cutselect"
	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/render"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// Model is one loaded, cached asset: its cluster DAG and texture,
// shared read-only by every instance spawned from it.
type Model struct {
	DAG     *lod.DAG
	Texture *render.Texture
}

// Instance is one placed copy of a Model: its own live cut and its
// own concatenated draw buffers, since ClusterRenderer's buffers are
// per-instance state even though the DAG underneath is shared.
type Instance struct {
	Model    *Model
	Position vecmath.Vec3

	selector *cutselect.CutSelector
	renderer *render.ClusterRenderer
}

// Manager owns the camera, the model registry, and every spawned
// instance. Its per-frame entry point mirrors the original viewer's
// loop: update camera (by the caller, before Frame), step each
// instance's cut if dynamic LOD is on, then draw each instance.
type Manager struct {
	Camera     *camera.Camera
	DynamicLOD bool

	models    map[string]*Model
	instances []*Instance
}

// New returns a Manager driven by cam, with dynamic LOD stepping
// enabled (the original tool's default).
func New(cam *camera.Camera) *Manager {
	return &Manager{
		Camera:     cam,
		DynamicLOD: true,
		models:     map[string]*Model{},
	}
}

// RegisterModel adds a named model to the registry. Spawn references
// models by this name.
func (m *Manager) RegisterModel(name string, model *Model) {
	m.models[name] = model
}

// Spawn places a new instance of a registered model at position.
func (m *Manager) Spawn(modelName string, position vecmath.Vec3) (*Instance, error) {
	model, ok := m.models[modelName]
	if !ok {
		return nil, fmt.Errorf("instance: unknown model %q", modelName)
	}
	inst := &Instance{
		Model:    model,
		Position: position,
		selector: cutselect.New(model.DAG),
		renderer: render.NewClusterRenderer(model.Texture),
	}
	m.instances = append(m.instances, inst)
	return inst, nil
}

// Frame advances every instance's cut selection (if dynamic LOD is
// enabled) and draws every instance to r under the given projection
// matrix. The caller is responsible for having already updated
// m.Camera and for calling r.Clear() beforehand. Each instance's DAG
// is immutable, shared, model-local geometry; Frame composes its own
// world-position translation into the view-projection matrix per
// instance rather than transforming shared vertex data.
func (m *Manager) Frame(r render.Renderer, proj vecmath.Mat4) {
	view := m.Camera.ViewMatrix()
	for _, inst := range m.instances {
		if m.DynamicLOD {
			// Cluster bounding spheres live in model-local space; shift
			// the camera into that space rather than the DAG into world
			// space, since the DAG is immutable and shared across
			// instances.
			localCamPos := m.Camera.Position.Sub(inst.Position)
			inst.selector.Step(localCamPos, m.Camera.Forward)
		}
		model := vecmath.Translate(inst.Position)
		r.SetViewProjection(proj.Mul(view).Mul(model))
		inst.renderer.SetCut(inst.Model.DAG, inst.selector.Cut())
		inst.renderer.Draw(r)
	}
}
