package statecache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mechdiff/internal/dual"
	"mechdiff/internal/mech"
	"mechdiff/internal/scalar"
	"mechdiff/internal/statecache"
)

var _ = Describe("Cache", func() {
	var cache *statecache.Cache

	BeforeEach(func() {
		cache = statecache.New(mech.DoublePendulum(mech.DefaultDoublePendulumParams()))
	})

	It("returns the identical instance for repeated requests", func() {
		first := statecache.For[scalar.Real](cache)
		second := statecache.For[scalar.Real](cache)

		Expect(second).To(BeIdenticalTo(first))
		Expect(cache.Len()).To(Equal(1))
	})

	It("returns distinct instances for distinct element types", func() {
		real := statecache.For[scalar.Real](cache)
		duals := statecache.For[dual.Number](cache)

		Expect(any(duals)).NotTo(BeIdenticalTo(any(real)))
		Expect(cache.Len()).To(Equal(2))
	})

	It("constructs lazily, one state per requested type", func() {
		Expect(cache.Len()).To(BeZero())

		statecache.For[scalar.Real](cache)
		statecache.For[scalar.Real](cache)
		Expect(cache.Len()).To(Equal(1))

		statecache.For[dual.Number](cache)
		Expect(cache.Len()).To(Equal(2))
	})

	It("isolates mutations between element types", func() {
		real := statecache.For[scalar.Real](cache)
		duals := statecache.For[dual.Number](cache)

		real.SetConfigurationFloats([]float64{0.5, -0.25})
		duals.SetConfigurationFloats([]float64{2.0, 3.0})

		Expect(float64(real.Configuration()[0])).To(Equal(0.5))
		Expect(float64(real.Configuration()[1])).To(Equal(-0.25))
		Expect(duals.Configuration()[0].Value()).To(Equal(2.0))
		Expect(duals.Configuration()[1].Value()).To(Equal(3.0))
	})

	It("preserves mutated state across lookups", func() {
		statecache.For[scalar.Real](cache).SetVelocityFloats([]float64{1.5, 2.5})

		again := statecache.For[scalar.Real](cache)
		Expect(float64(again.Velocity()[0])).To(Equal(1.5))
		Expect(float64(again.Velocity()[1])).To(Equal(2.5))
	})

	It("binds every state to the cache's mechanism", func() {
		st := statecache.For[scalar.Real](cache)
		Expect(st.Mechanism()).To(BeIdenticalTo(cache.Mechanism()))
	})

	It("prewarms without duplicating", func() {
		statecache.Prewarm[dual.Number](cache)
		statecache.Prewarm[dual.Number](cache)
		Expect(cache.Len()).To(Equal(1))

		st := statecache.For[dual.Number](cache)
		Expect(st).NotTo(BeNil())
	})
})
