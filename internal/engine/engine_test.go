package engine_test

import (
	"context"
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/barneshut"
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
)

func cloud(n int, seed int64) []body.Body {
	rng := rand.New(rand.NewSource(seed))
	bodies := make([]body.Body, n)
	for i := range bodies {
		bodies[i] = body.Body{
			ID:   i + 1,
			Mass: 1e8 + rng.Float64()*1e9,
			Position: r3.Vec{
				X: rng.Float64()*200 - 100,
				Y: rng.Float64()*200 - 100,
				Z: rng.Float64()*200 - 100,
			},
			Velocity: r3.Vec{X: rng.Float64() - 0.5},
		}
	}
	return bodies
}

func earthMoon() []body.Body {
	return []body.Body{
		{ID: 1, Mass: 5.972e24},
		{ID: 2, Mass: 7.342e22, Position: r3.Vec{X: 384400000}, Velocity: r3.Vec{Y: 1022}},
	}
}

func newEngine(mode engine.Mode) *engine.Engine {
	opts := engine.DefaultOptions()
	opts.Mode = mode
	opts.Workers = 4
	e, err := engine.New(opts)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func closeTo(want r3.Vec, rel float64) OmegaMatcher {
	tol := rel * r3.Norm(want)
	return SatisfyAll(
		WithTransform(func(v r3.Vec) float64 { return v.X }, BeNumerically("~", want.X, tol)),
		WithTransform(func(v r3.Vec) float64 { return v.Y }, BeNumerically("~", want.Y, tol)),
		WithTransform(func(v r3.Vec) float64 { return v.Z }, BeNumerically("~", want.Z, tol)),
	)
}

var _ = Describe("ParseMode", func() {
	DescribeTable("known names",
		func(name string, want engine.Mode) {
			m, err := engine.ParseMode(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(want))
		},
		Entry("auto", "auto", engine.ModeAuto),
		Entry("empty", "", engine.ModeAuto),
		Entry("cpu", "CPU", engine.ModeCPU),
		Entry("gpu", "gpu", engine.ModeGPU),
		Entry("gpu-bh", "gpu-bh", engine.ModeBarnesHut),
		Entry("barnes-hut", "barnes-hut", engine.ModeBarnesHut),
	)

	It("rejects unknown names", func() {
		_, err := engine.ParseMode("quantum")
		Expect(errors.Is(err, engine.ErrUnknownMode)).To(BeTrue())
	})

	It("round-trips through String", func() {
		for _, name := range engine.ModeNames() {
			m, err := engine.ParseMode(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.String()).To(Equal(name))
		}
	})
})

var _ = Describe("New", func() {
	It("fills in defaults", func() {
		e, err := engine.New(engine.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Options().GPUThreshold).To(Equal(engine.DefaultGPUThreshold))
		Expect(e.Options().MaxDepth).To(Equal(barneshut.DefaultMaxDepth))
		Expect(e.Options().Theta).To(BeZero())
	})

	DescribeTable("rejects invalid options",
		func(opts engine.Options, target error) {
			_, err := engine.New(opts)
			Expect(err).To(MatchError(target))
		},
		Entry("negative theta", engine.Options{Theta: -1}, engine.ErrInvalidTheta),
		Entry("NaN theta", engine.Options{Theta: math.NaN()}, engine.ErrInvalidTheta),
		Entry("negative threshold", engine.Options{GPUThreshold: -5}, engine.ErrInvalidThreshold),
		Entry("depth too large", engine.Options{MaxDepth: 65}, barneshut.ErrInvalidDepth),
		Entry("unknown mode", engine.Options{Mode: engine.Mode(42)}, engine.ErrUnknownMode),
	)
})

var _ = Describe("Engine", func() {
	ctx := context.Background()

	Describe("solver selection", func() {
		It("uses brute force up to the threshold in auto mode", func() {
			e := newEngine(engine.ModeAuto)
			Expect(e.SolverFor(200)).To(Equal(engine.SolverBruteForce))
			Expect(e.SolverFor(201)).To(Equal(engine.SolverParallel))
		})

		It("honors a custom threshold", func() {
			opts := engine.DefaultOptions()
			opts.GPUThreshold = 10
			e, err := engine.New(opts)
			Expect(err).NotTo(HaveOccurred())

			out, err := e.Evaluate(ctx, cloud(11, 1), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Solver).To(Equal(engine.SolverParallel))
		})

		DescribeTable("forced modes ignore the body count",
			func(mode engine.Mode, solver string, kind engine.OutputKind) {
				e := newEngine(mode)
				for _, n := range []int{2, 500} {
					out, err := e.Evaluate(ctx, cloud(n, 2), 1)
					Expect(err).NotTo(HaveOccurred())
					Expect(out.Solver).To(Equal(solver))
					Expect(out.Kind).To(Equal(kind))
					Expect(out.Vectors).To(HaveLen(n))
				}
			},
			Entry("cpu", engine.ModeCPU, engine.SolverBruteForce, engine.Forces),
			Entry("gpu", engine.ModeGPU, engine.SolverParallel, engine.Forces),
			Entry("gpu-bh", engine.ModeBarnesHut, engine.SolverBarnesHut, engine.Velocities),
		)
	})

	Describe("Evaluate", func() {
		It("returns an empty result for no bodies in every mode", func() {
			for _, mode := range []engine.Mode{engine.ModeAuto, engine.ModeCPU, engine.ModeGPU, engine.ModeBarnesHut} {
				out, err := newEngine(mode).Evaluate(ctx, nil, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Vectors).To(BeEmpty())
			}
		})

		It("gives a single body zero force", func() {
			bodies := []body.Body{{ID: 1, Mass: 10, Position: r3.Vec{X: 5}}}
			for _, mode := range []engine.Mode{engine.ModeCPU, engine.ModeGPU} {
				out, err := newEngine(mode).Evaluate(ctx, bodies, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Vectors).To(Equal([]r3.Vec{{}}))
			}
		})

		It("keeps the Earth-Moon force in every force mode", func() {
			for _, mode := range []engine.Mode{engine.ModeCPU, engine.ModeGPU} {
				out, err := newEngine(mode).Evaluate(ctx, earthMoon(), 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(r3.Norm(out.Vectors[0])).To(BeNumerically("~", 1.98e20, 0.02e20))
				Expect(out.Vectors[1].X).To(BeNumerically("<", 0))
			}
		})

		It("agrees between brute force and the parallel kernel in input order", func() {
			bodies := cloud(300, 3)
			cpu, err := newEngine(engine.ModeCPU).Evaluate(ctx, bodies, 1)
			Expect(err).NotTo(HaveOccurred())
			gpu, err := newEngine(engine.ModeGPU).Evaluate(ctx, bodies, 1)
			Expect(err).NotTo(HaveOccurred())

			for i := range bodies {
				Expect(gpu.Vectors[i]).To(closeTo(cpu.Vectors[i], 1e-3), "body %d", i)
			}
		})

		It("matches kicked brute-force velocities at small theta", func() {
			bodies := cloud(150, 4)
			opts := engine.DefaultOptions()
			opts.Mode = engine.ModeBarnesHut
			opts.Theta = 1e-6
			e, err := engine.New(opts)
			Expect(err).NotTo(HaveOccurred())

			const dt = 10.0
			out, err := e.Evaluate(ctx, bodies, dt)
			Expect(err).NotTo(HaveOccurred())

			forces := physics.BruteForce(bodies)
			for i := range bodies {
				kick := r3.Scale(dt/bodies[i].Mass, forces[i])
				got := r3.Sub(out.Vectors[i], bodies[i].Velocity)
				Expect(got).To(closeTo(kick, 1e-3), "body %d", i)
			}
		})

		It("does not modify the bodies", func() {
			bodies := cloud(20, 5)
			before := append([]body.Body(nil), bodies...)
			_, err := newEngine(engine.ModeBarnesHut).Evaluate(ctx, bodies, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(bodies).To(Equal(before))
		})

		It("stays finite for coincident bodies", func() {
			bodies := make([]body.Body, 6)
			for i := range bodies {
				bodies[i] = body.Body{ID: i + 1, Mass: 1e3, Position: r3.Vec{X: 7, Y: 7, Z: 7}}
			}
			e := newEngine(engine.ModeBarnesHut)
			out, err := e.Evaluate(ctx, bodies, 1)
			Expect(err).NotTo(HaveOccurred())
			for _, v := range out.Vectors {
				Expect(v).To(Equal(r3.Vec{}))
			}
			Expect(e.LastTree().Merged).To(Equal(5))
		})

		It("honors a canceled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := newEngine(engine.ModeCPU).Evaluate(cctx, cloud(3, 6), 1)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("kernel caches", func() {
		It("rebuild only when the body count changes", func() {
			e := newEngine(engine.ModeGPU)
			for i := 0; i < 3; i++ {
				_, err := e.Evaluate(ctx, cloud(50, 7), 1)
				Expect(err).NotTo(HaveOccurred())
			}
			nbody, _ := e.KernelBuilds()
			Expect(nbody).To(Equal(1))

			out, err := e.Evaluate(ctx, cloud(51, 7), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Vectors).To(HaveLen(51))
			nbody, _ = e.KernelBuilds()
			Expect(nbody).To(Equal(2))
		})

		It("rebuild the tree kernel after a body is removed", func() {
			e := newEngine(engine.ModeBarnesHut)
			set := body.NewSet(cloud(40, 8)...)

			_, err := e.Step(ctx, set.Bodies(), 1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Remove(set.Bodies()[3].ID)).To(BeTrue())

			out, err := e.Step(ctx, set.Bodies(), 1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Vectors).To(HaveLen(39))
			_, tree := e.KernelBuilds()
			Expect(tree).To(Equal(2))
		})
	})

	Describe("Step", func() {
		It("moves the Moon toward the Earth", func() {
			bodies := earthMoon()
			_, err := newEngine(engine.ModeCPU).Step(ctx, bodies, 60, integrators.NewSemiImplicit())
			Expect(err).NotTo(HaveOccurred())

			Expect(bodies[1].Acceleration.X).To(BeNumerically("<", 0))
			Expect(bodies[1].Velocity.X).To(BeNumerically("<", 0))
			Expect(bodies[1].Position.Y).To(BeNumerically("~", 1022*60, 1))
		})

		It("applies tree velocities and drifts positions", func() {
			bodies := cloud(30, 9)
			e := newEngine(engine.ModeBarnesHut)
			out, err := e.Evaluate(ctx, bodies, 2)
			Expect(err).NotTo(HaveOccurred())

			stepped := append([]body.Body(nil), bodies...)
			_, err = e.Step(ctx, stepped, 2, nil)
			Expect(err).NotTo(HaveOccurred())
			for i := range stepped {
				Expect(stepped[i].Velocity).To(Equal(out.Vectors[i]))
				Expect(stepped[i].Position).To(Equal(r3.Add(bodies[i].Position, r3.Scale(2, out.Vectors[i]))))
			}
		})

		It("freezes the system at dt zero", func() {
			bodies := cloud(10, 10)
			before := append([]body.Body(nil), bodies...)
			for _, mode := range []engine.Mode{engine.ModeCPU, engine.ModeBarnesHut} {
				_, err := newEngine(mode).Step(ctx, bodies, 0, nil)
				Expect(err).NotTo(HaveOccurred())
				for i := range bodies {
					Expect(bodies[i].Position).To(Equal(before[i].Position))
					Expect(bodies[i].Velocity).To(Equal(before[i].Velocity))
				}
			}
		})

		It("reports phase timings to an attached collector", func() {
			perf := metrics.NewPerfCollector(4)
			e := newEngine(engine.ModeBarnesHut)
			e.SetPerf(perf)

			perf.StartTick()
			_, err := e.Step(ctx, cloud(100, 11), 1, nil)
			Expect(err).NotTo(HaveOccurred())
			perf.EndTick()

			stats := perf.Stats()
			Expect(stats.PhaseAvg).To(HaveKey(metrics.PhaseBuildTree))
			Expect(stats.PhaseAvg).To(HaveKey(metrics.PhaseFlatten))
			Expect(stats.PhaseAvg).To(HaveKey(metrics.PhaseEvaluate))
			Expect(stats.PhaseAvg).To(HaveKey(metrics.PhaseIntegrate))
		})
	})
})
