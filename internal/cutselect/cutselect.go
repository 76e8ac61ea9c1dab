// SPDX-License-Identifier: Unlicense OR MIT

// Package cutselect maintains the live graph cut a renderer draws:
// the set of DAG clusters that together tile the mesh at the level of
// detail the current camera position calls for.
package cutselect

import (
	"math"

	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// Config tunes the hysteresis band and the per-call iteration cap.
type Config struct {
	Threshold float32
	Margin    float32
	NumSteps  int
}

// Option configures a Config. All Option functions modify the pointed
// Config.
type Option func(*Config)

// WithThreshold overrides the coarsen/refine screen-space error
// threshold.
func WithThreshold(t float32) Option {
	return func(c *Config) { c.Threshold = t }
}

// WithMargin overrides the hysteresis half-width around Threshold.
func WithMargin(m float32) Option {
	return func(c *Config) { c.Margin = m }
}

// WithNumSteps overrides the per-call iteration cap.
func WithNumSteps(n int) Option {
	return func(c *Config) { c.NumSteps = n }
}

// DefaultConfig returns the reference thresholds: THRESHOLD=6e-5,
// MARGIN=2e-5 (the spec's two documented MARGIN choices are 2e-5 and
// 3e-5; 2e-5 is fixed here), num_steps=3.
func DefaultConfig() Config {
	return Config{Threshold: 6e-5, Margin: 2e-5, NumSteps: 3}
}

// CutSelector holds the live cut over one DAG instance and steps it
// toward the level of detail the camera calls for.
type CutSelector struct {
	dag *lod.DAG
	cfg Config
	cut map[int32]bool
}

// New returns a CutSelector initialised to the single DAG root.
func New(dag *lod.DAG, opts ...Option) *CutSelector {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CutSelector{
		dag: dag,
		cfg: cfg,
		cut: map[int32]bool{dag.Root: true},
	}
}

// Cut returns the current live cut as a sorted-free slice of cluster
// ids; callers that need a stable order should sort it themselves.
func (s *CutSelector) Cut() []int32 {
	out := make([]int32, 0, len(s.cut))
	for c := range s.cut {
		out = append(out, c)
	}
	return out
}

// Step runs up to Config.NumSteps refine/coarsen rounds against
// camPos/camForward, mutating the live cut toward the target level of
// detail, and returns whether anything changed.
func (s *CutSelector) Step(camPos, camForward vecmath.Vec3) bool {
	anyChange := false

	// Freshly computed each call: a cluster's screen-space error
	// depends on the current camera pose, so a value cached from a
	// previous Step would go stale the moment the camera moves.
	errs := map[int32]float32{}
	for c := range s.cut {
		errs[c] = s.screenSpaceError(c, camPos, camForward)
	}

	for step := 0; step < s.cfg.NumSteps; step++ {
		toAdd := map[int32]bool{}
		toRemove := map[int32]bool{}

		for c := range s.cut {
			if toAdd[c] || toRemove[c] {
				continue
			}
			e := errs[c]

			if e < s.cfg.Threshold-s.cfg.Margin && c != s.dag.Root {
				parents := s.dag.Clusters[c].Parents
				for _, p := range parents {
					for _, sibling := range s.dag.Children[p] {
						toRemove[sibling] = true
					}
				}
				for _, p := range parents {
					toAdd[p] = true
				}
			} else if e > s.cfg.Threshold+s.cfg.Margin {
				kids := s.dag.Children[c]
				if len(kids) > 0 {
					for _, k := range kids {
						toAdd[k] = true
					}
					for _, k := range kids {
						for _, sibling := range s.dag.Clusters[k].Parents {
							toRemove[sibling] = true
						}
					}
				}
			}
		}

		if len(toAdd) == 0 && len(toRemove) == 0 {
			break
		}

		for c := range toAdd {
			s.cut[c] = true
			if _, ok := errs[c]; !ok {
				errs[c] = s.screenSpaceError(c, camPos, camForward)
			}
		}
		for c := range toRemove {
			delete(s.cut, c)
		}
		anyChange = true
	}

	return anyChange
}

// screenSpaceError implements §4.5's screen-space error function.
func (s *CutSelector) screenSpaceError(c int32, camPos, camForward vecmath.Vec3) float32 {
	cl := s.dag.Clusters[c]
	toCenter := cl.Center.Sub(camPos)
	d := toCenter.Len() - cl.Radius

	if d <= 0 {
		return float32(math.Inf(1))
	}

	dir := toCenter.Normalize()
	cosHalfFOV := float32(math.Cos(math.Pi / 4)) // fov fixed at 90 degrees
	if dir.Dot(camForward) <= cosHalfFOV {
		return 0
	}

	return cl.Error / d
}
