// Package scene builds the initial particle buffer from emitter entities.
//
// Every emitter is an ECS entity holding one shape component (Block or
// Sphere) plus Material and Motion. Build queries the emitters in creation
// order and expands each into lattice particles, optionally displaced by
// coherent noise so lattices do not start perfectly aligned.
package scene

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/config"
)

// Builder collects emitters and expands them into particles.
type Builder struct {
	world *ecs.World

	blockMapper  *ecs.Map3[components.Block, components.Material, components.Motion]
	sphereMapper *ecs.Map3[components.Sphere, components.Material, components.Motion]
	blockFilter  *ecs.Filter3[components.Block, components.Material, components.Motion]
	sphereFilter *ecs.Filter3[components.Sphere, components.Material, components.Motion]

	noise       opensimplex.Noise
	jitter      float32 // max displacement in world units, 0 disables
	jitterScale float64 // noise frequency per world unit
}

// NewBuilder creates an empty builder. Jitter is seeded so the same seed
// always produces the same layout.
func NewBuilder(seed int64, jitter, jitterScale float32) *Builder {
	world := ecs.NewWorld()
	return &Builder{
		world:        world,
		blockMapper:  ecs.NewMap3[components.Block, components.Material, components.Motion](world),
		sphereMapper: ecs.NewMap3[components.Sphere, components.Material, components.Motion](world),
		blockFilter:  ecs.NewFilter3[components.Block, components.Material, components.Motion](world),
		sphereFilter: ecs.NewFilter3[components.Sphere, components.Material, components.Motion](world),
		noise:        opensimplex.New(seed),
		jitter:       jitter,
		jitterScale:  float64(jitterScale),
	}
}

// FromConfig creates a builder holding every emitter in cfg.
func FromConfig(cfg *config.SceneConfig, seed int64) *Builder {
	b := NewBuilder(seed, float32(cfg.Jitter), float32(cfg.JitterScale))
	for _, bc := range cfg.Blocks {
		blk := components.Block{
			Origin:  vec3(bc.Origin),
			Cols:    bc.Cols,
			Rows:    bc.Rows,
			Layers:  bc.Layers,
			Spacing: float32(bc.Spacing),
		}
		if bc.Centered {
			blk.Origin[0] -= float32(bc.Cols) * blk.Spacing / 2
		}
		b.AddBlock(blk, components.Material{Mass: float32(bc.Mass)}, components.Motion{Vel: vec3(bc.Velocity)})
	}
	for _, sc := range cfg.Spheres {
		sph := components.Sphere{
			Center:  vec3(sc.Center),
			Radius:  float32(sc.Radius),
			Spacing: float32(sc.Spacing),
			Flat:    sc.Flat,
		}
		b.AddSphere(sph, components.Material{Mass: float32(sc.Mass)}, components.Motion{Vel: vec3(sc.Velocity)})
	}
	return b
}

func vec3(v [3]float64) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

// AddBlock adds a lattice block emitter.
func (b *Builder) AddBlock(blk components.Block, mat components.Material, mo components.Motion) ecs.Entity {
	return b.blockMapper.NewEntity(&blk, &mat, &mo)
}

// AddSphere adds a ball (or disc) emitter.
func (b *Builder) AddSphere(sph components.Sphere, mat components.Material, mo components.Motion) ecs.Entity {
	return b.sphereMapper.NewEntity(&sph, &mat, &mo)
}

// Count returns the number of particles Build will produce.
func (b *Builder) Count() int {
	n := 0
	query := b.blockFilter.Query()
	for query.Next() {
		blk, _, _ := query.Get()
		n += blk.Count()
	}
	query2 := b.sphereFilter.Query()
	for query2.Next() {
		sph, _, _ := query2.Get()
		forSphereLattice(sph, func(float32, float32, float32) { n++ })
	}
	return n
}

// Build expands every emitter into particles: blocks first, then spheres,
// each in creation order.
func (b *Builder) Build() []components.Particle {
	ps := make([]components.Particle, 0, b.Count())

	query := b.blockFilter.Query()
	for query.Next() {
		blk, mat, mo := query.Get()
		layers := max(blk.Layers, 1)
		for l := 0; l < layers; l++ {
			for r := 0; r < blk.Rows; r++ {
				for c := 0; c < blk.Cols; c++ {
					x := blk.Origin[0] + float32(c)*blk.Spacing
					y := blk.Origin[1] + float32(r)*blk.Spacing
					z := blk.Origin[2] + float32(l)*blk.Spacing
					ps = append(ps, b.emit(x, y, z, layers > 1, mat, mo))
				}
			}
		}
	}

	query2 := b.sphereFilter.Query()
	for query2.Next() {
		sph, mat, mo := query2.Get()
		forSphereLattice(sph, func(x, y, z float32) {
			ps = append(ps, b.emit(x, y, z, !sph.Flat, mat, mo))
		})
	}

	return ps
}

// emit creates one particle, displaced by the noise field.
func (b *Builder) emit(x, y, z float32, volumetric bool, mat *components.Material, mo *components.Motion) components.Particle {
	if b.jitter > 0 {
		fx, fy, fz := float64(x)*b.jitterScale, float64(y)*b.jitterScale, float64(z)*b.jitterScale
		x += b.jitter * float32(b.noise.Eval3(fx, fy, fz))
		y += b.jitter * float32(b.noise.Eval3(fx+31.7, fy, fz))
		if volumetric {
			z += b.jitter * float32(b.noise.Eval3(fx, fy+57.3, fz))
		}
	}
	p := components.NewParticle(x, y, z, mat.Mass)
	p.SetVelocity(mo.Vel[0], mo.Vel[1], mo.Vel[2])
	return p
}

// forSphereLattice calls fn for every lattice point inside the sphere.
func forSphereLattice(sph *components.Sphere, fn func(x, y, z float32)) {
	if sph.Radius <= 0 || sph.Spacing <= 0 {
		return
	}
	n := int(math.Ceil(float64(sph.Radius / sph.Spacing)))
	nz := n
	if sph.Flat {
		nz = 0
	}
	r2 := sph.Radius * sph.Radius
	for k := -nz; k <= nz; k++ {
		for j := -n; j <= n; j++ {
			for i := -n; i <= n; i++ {
				dx := float32(i) * sph.Spacing
				dy := float32(j) * sph.Spacing
				dz := float32(k) * sph.Spacing
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				fn(sph.Center[0]+dx, sph.Center[1]+dy, sph.Center[2]+dz)
			}
		}
	}
}
