package compute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// fakeBackend records what the scheduler asks of it.
type fakeBackend struct {
	caps        Capabilities
	created     []TargetSpec
	released    int
	passes      []Pass
	failCreate  int
	dispatchErr error
	ticks       int
}

type fakeTarget struct{ spec TargetSpec }

func (t *fakeTarget) Label() string  { return t.spec.Label }
func (t *fakeTarget) Width() uint32  { return t.spec.Width }
func (t *fakeTarget) Height() uint32 { return t.spec.Height }

func newFakeBackend() *fakeBackend {
	return &fakeBackend{caps: Capabilities{FloatTargets: true, HalfFloatTargets: true, VertexTextures: true}}
}

func (b *fakeBackend) Name() string               { return "fake" }
func (b *fakeBackend) Capabilities() Capabilities { return b.caps }

func (b *fakeBackend) CreateTarget(spec TargetSpec) (Target, error) {
	if b.failCreate > 0 && len(b.created)+1 == b.failCreate {
		return nil, errors.New("out of memory")
	}
	b.created = append(b.created, spec)
	return &fakeTarget{spec: spec}, nil
}

func (b *fakeBackend) BeginTick() error { return nil }

func (b *fakeBackend) Dispatch(pass *Pass) error {
	if b.dispatchErr != nil {
		return b.dispatchErr
	}
	b.passes = append(b.passes, *pass)
	return nil
}

func (b *fakeBackend) EndTick() error {
	b.ticks++
	return nil
}

func (b *fakeBackend) ReleaseTarget(Target) { b.released++ }
func (b *fakeBackend) Release()             {}

// filled returns a w×h texture with every component set to v.
func filled(w, h uint32, v float32) *common.FloatTextureData {
	tex := common.NewFloatTextureData(w, h)
	for i := range tex.Texels {
		tex.Texels[i] = v
	}
	return tex
}

func TestInitCapabilityFailureAllocatesNothing(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want error
	}{
		{"no float targets", Capabilities{HalfFloatTargets: true, VertexTextures: true}, ErrFloatTexturesUnsupported},
		{"no vertex textures", Capabilities{FloatTargets: true}, ErrVertexTexturesUnsupported},
		{"nothing", Capabilities{}, ErrFloatTexturesUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.caps = tt.caps
			s := NewScheduler(2, 2, b)
			_, err := s.AddVariable("a", Program{}, nil)
			require.NoError(t, err)

			assert.ErrorIs(t, s.Init(), tt.want)
			assert.Empty(t, b.created)
			assert.False(t, s.Initialized())
			assert.Nil(t, s.CurrentTarget(s.Variable("a")))
		})
	}
}

func TestInitHalfFloatFallback(t *testing.T) {
	b := newFakeBackend()
	b.caps.FloatTargets = false
	s := NewScheduler(2, 2, b, WithHalfFloatFallback(true))
	_, err := s.AddVariable("a", Program{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Init())
	assert.Equal(t, DataTypeFloat16, s.DataType())
	require.Len(t, b.created, 2)
	for _, spec := range b.created {
		assert.Equal(t, DataTypeFloat16, spec.DataType)
	}

	b = newFakeBackend()
	b.caps.FloatTargets = false
	b.caps.HalfFloatTargets = false
	s = NewScheduler(2, 2, b, WithHalfFloatFallback(true))
	assert.ErrorIs(t, s.Init(), ErrFloatTexturesUnsupported)
}

func TestAddVariableErrors(t *testing.T) {
	s := NewScheduler(2, 2, newFakeBackend())

	v, err := s.AddVariable("a", Program{}, filled(2, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, "a", v.Program().Name)
	assert.Equal(t, WrapRepeat, v.Wrap())

	_, err = s.AddVariable("a", Program{}, nil)
	assert.ErrorIs(t, err, ErrVariableExists)

	_, err = s.AddVariable("b", Program{}, filled(3, 2, 1))
	assert.ErrorIs(t, err, ErrInvalidTexture)

	require.NoError(t, s.Init())
	_, err = s.AddVariable("c", Program{}, nil)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.ErrorIs(t, s.Init(), ErrAlreadyInitialized)
	assert.Len(t, s.Variables(), 1)
}

func TestSetDependenciesOnUnregisteredVariable(t *testing.T) {
	tests := []struct {
		name   string
		target func() *Variable
	}{
		{"nil", func() *Variable { return nil }},
		{"foreign", func() *Variable {
			v, _ := NewScheduler(2, 2, newFakeBackend()).AddVariable("b", Program{}, nil)
			return v
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			s := NewScheduler(2, 2, b)
			a, err := s.AddVariable("a", Program{}, nil)
			require.NoError(t, err)

			assert.NotPanics(t, func() { s.SetDependencies(tt.target(), a) })
			assert.ErrorIs(t, s.Init(), ErrDependencyNotFound)
			assert.Empty(t, b.created)
		})
	}
}

func TestInitUnknownDependency(t *testing.T) {
	b := newFakeBackend()
	s := NewScheduler(2, 2, b)
	other := NewScheduler(2, 2, newFakeBackend())

	a, err := s.AddVariable("a", Program{}, nil)
	require.NoError(t, err)
	// Same name, different scheduler.
	foreign, err := other.AddVariable("a", Program{}, nil)
	require.NoError(t, err)

	s.SetDependencies(a, foreign)
	assert.ErrorIs(t, s.Init(), ErrDependencyNotFound)
	assert.Empty(t, b.created)

	s.SetDependencies(a, a)
	assert.NoError(t, s.Init())
}

func TestInitAllocationFailureReleasesTargets(t *testing.T) {
	b := newFakeBackend()
	b.failCreate = 4
	s := NewScheduler(2, 2, b)
	for _, name := range []string{"a", "b"} {
		_, err := s.AddVariable(name, Program{}, nil)
		require.NoError(t, err)
	}

	require.Error(t, s.Init())
	assert.Len(t, b.created, 3)
	assert.Equal(t, 3, b.released)
	assert.False(t, s.Initialized())
}

func TestTickBeforeInit(t *testing.T) {
	s := NewScheduler(2, 2, newFakeBackend())
	assert.ErrorIs(t, s.Tick(), ErrNotInitialized)
}

func TestTickPassesSnapshotOneGeneration(t *testing.T) {
	b := newFakeBackend()
	s := NewScheduler(4, 2, b)
	a, err := s.AddVariable("a", Program{}, nil)
	require.NoError(t, err)
	c, err := s.AddVariable("c", Program{}, nil)
	require.NoError(t, err)
	s.SetDependencies(a, a, c)
	s.SetDependencies(c, a)
	require.NoError(t, s.Init())
	s.SetUniforms([]byte{1, 2, 3})

	require.NoError(t, s.Tick())
	require.Len(t, b.passes, 2)

	pa, pc := b.passes[0], b.passes[1]
	assert.Equal(t, "a", pa.Variable)
	assert.Equal(t, "c", pc.Variable)
	assert.Equal(t, []byte{1, 2, 3}, pa.Uniforms)
	assert.Equal(t, uint32(4), pa.Width)
	assert.Equal(t, uint32(2), pa.Height)

	// Both passes read generation 0 and write generation 1.
	in, ok := pc.Input("a")
	require.True(t, ok)
	assert.Equal(t, "a_0", in.Label())
	assert.Equal(t, "a_1", pa.Output.Label())
	assert.Equal(t, "c_1", pc.Output.Label())
	_, ok = pc.Input("c")
	assert.False(t, ok)

	assert.Equal(t, 1, s.Generation())
	assert.Equal(t, "a_1", s.CurrentTarget(a).Label())
	assert.Equal(t, "a_0", s.AlternateTarget(a).Label())
	assert.Equal(t, uint64(1), s.Ticks())
}

func TestTickDispatchErrorKeepsGeneration(t *testing.T) {
	b := newFakeBackend()
	s := NewScheduler(2, 2, b)
	_, err := s.AddVariable("a", Program{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Init())

	b.dispatchErr = errors.New("device lost")
	require.Error(t, s.Tick())
	assert.Equal(t, 0, s.Generation())
	assert.Equal(t, uint64(0), s.Ticks())
	assert.Equal(t, 1, b.ticks, "the open tick is still ended")
}

func TestReleaseFreesTargets(t *testing.T) {
	b := newFakeBackend()
	s := NewScheduler(2, 2, b)
	v, err := s.AddVariable("a", Program{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Init())

	s.Release()
	assert.Equal(t, 2, b.released)
	assert.False(t, s.Initialized())
	assert.Nil(t, s.CurrentTarget(v))
	assert.ErrorIs(t, s.Tick(), ErrNotInitialized)
}

func TestCPUTickFlipsBuffers(t *testing.T) {
	backend := NewCPUBackend(WithWorkers(2))
	s := NewScheduler(3, 3, backend)
	defer s.Release()

	counter, err := s.AddVariable("counter", Program{Kernel: func(in Inputs, x, y int) [4]float32 {
		prev := in.Sampler("counter").Load(x, y)
		return [4]float32{prev[0] + 1, prev[1], prev[2], prev[3]}
	}}, nil)
	require.NoError(t, err)
	s.SetDependencies(counter, counter)
	require.NoError(t, s.Init())

	reader := backend.(TargetReader)
	for tick := 1; tick <= 3; tick++ {
		previous := s.CurrentTarget(counter)
		require.NoError(t, s.Tick())
		current := s.CurrentTarget(counter)
		assert.NotSame(t, previous, current)
		assert.Same(t, previous, s.AlternateTarget(counter))

		got, err := reader.ReadTarget(current)
		require.NoError(t, err)
		for y := range 3 {
			for x := range 3 {
				assert.Equal(t, float32(tick), got.At(x, y)[0])
			}
		}
	}
}

func TestCPUTickCrossDependenciesReadPreviousGeneration(t *testing.T) {
	backend := NewCPUBackend(WithWorkers(3))
	s := NewScheduler(2, 2, backend)
	defer s.Release()

	plusOne := func(dep string) Kernel {
		return func(in Inputs, x, y int) [4]float32 {
			v := in.Sampler(dep).Load(x, y)
			return [4]float32{v[0] + 1, 0, 0, 0}
		}
	}
	a, err := s.AddVariable("a", Program{Kernel: plusOne("b")}, filled(2, 2, 0))
	require.NoError(t, err)
	b, err := s.AddVariable("b", Program{Kernel: plusOne("a")}, filled(2, 2, 10))
	require.NoError(t, err)
	s.SetDependencies(a, b)
	s.SetDependencies(b, a)
	require.NoError(t, s.Init())

	require.NoError(t, s.Tick())

	reader := backend.(TargetReader)
	gotA, err := reader.ReadTarget(s.CurrentTarget(a))
	require.NoError(t, err)
	gotB, err := reader.ReadTarget(s.CurrentTarget(b))
	require.NoError(t, err)
	// b reads a's seed, not the value a wrote this tick.
	assert.Equal(t, float32(11), gotA.At(1, 1)[0])
	assert.Equal(t, float32(1), gotB.At(1, 1)[0])
}
