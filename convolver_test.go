package fir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-fir/internal/testutil"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"mono", Config{Channels: 1}, false},
		{"max channels", Config{Channels: maxChannels}, false},
		{"offset and length", Config{Channels: 2, Offset: 10, MaxLength: 100}, false},
		{"length above max is clamped later", Config{Channels: 1, MaxLength: 5000}, false},
		{"zero channels", Config{}, true},
		{"too many channels", Config{Channels: maxChannels + 1}, true},
		{"negative offset", Config{Channels: 1, Offset: -1}, true},
		{"negative length", Config{Channels: 1, MaxLength: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	c, err := New(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, c)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{Channels: 0})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConvolver_WorkedExamples(t *testing.T) {
	c, err := New(&Config{Channels: 1})
	require.NoError(t, err)

	require.NoError(t, SetImpulse(c, []float32{1, 1}))
	out := make([]float32, 4)
	assert.True(t, c.Process([]float32{1, 2, 3, 4}, out))
	assert.Equal(t, []float32{1, 3, 5, 7}, out)

	c.Reset()
	require.NoError(t, SetImpulse(c, []float32{1, 0, 0}))
	in := testutil.Noise(3, 777)
	out = make([]float32, len(in))
	c.Process(in, out)
	assert.Equal(t, in, out)
}

func TestConvolver_SilentUntilImpulse(t *testing.T) {
	c, err := New(&Config{Channels: 1})
	require.NoError(t, err)

	out := []float32{1, 1}
	assert.False(t, c.Process([]float32{3, 4}, out))
	testutil.AssertAllZero(t, out)
}

func TestConvolver_OffsetFromConfig(t *testing.T) {
	c, err := New(&Config{Channels: 1, Offset: 2, MaxLength: 1})
	require.NoError(t, err)
	require.NoError(t, SetImpulse(c, []float32{9, 9, 3, 9}))

	impulse, err := c.Impulse(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, impulse)

	info := c.Info()
	assert.Equal(t, 1, info.KernelLength)
	assert.Equal(t, 2, info.Offset)
	assert.Equal(t, 1, info.MaxLength)
}

func TestConvolver_OffsetBeyondImpulseIsSilent(t *testing.T) {
	c, err := New(&Config{Channels: 1})
	require.NoError(t, err)
	c.SetOffset(10)
	require.NoError(t, SetImpulse(c, []float32{1, 2, 3}))

	out := []float32{5, 5, 5}
	assert.False(t, c.Process([]float32{1, 2, 3}, out))
	testutil.AssertAllZero(t, out)
}

func TestConvolver_SetLength(t *testing.T) {
	c, err := New(&Config{Channels: 2})
	require.NoError(t, err)

	err = c.SetLength(3000)
	require.ErrorIs(t, err, ErrLengthOutOfRange)
	assert.Equal(t, MaxKernelLength, c.Info().MaxLength)

	require.NoError(t, SetImpulse(c, testutil.Noise(5, 3000)))
	assert.Equal(t, MaxKernelLength, c.Info().KernelLength)

	require.ErrorIs(t, c.SetLength(-3), ErrLengthOutOfRange)
	assert.Equal(t, MaxKernelLength, c.Info().MaxLength, "negative length is ignored")

	require.NoError(t, c.SetLength(16))
	require.NoError(t, SetImpulse(c, testutil.Noise(5, 3000)))
	info := c.Info()
	assert.Equal(t, 16, info.KernelLength)
	assert.Equal(t, 16, info.PaddedLength)
}

func TestConvolver_ImpulseTooLongIsAdvisory(t *testing.T) {
	c, err := New(&Config{Channels: 1})
	require.NoError(t, err)

	err = SetImpulse(c, make([]float64, MaxKernelLength+1))
	require.ErrorIs(t, err, ErrImpulseTooLong)

	impulse, err := c.Impulse(0)
	require.NoError(t, err)
	assert.Len(t, impulse, MaxKernelLength)
}

func TestSetChannelImpulse_OutOfRange(t *testing.T) {
	c, err := New(&Config{Channels: 2})
	require.NoError(t, err)

	require.ErrorIs(t, SetChannelImpulse(c, 2, []float32{1}), ErrChannelMismatch)
	require.ErrorIs(t, SetChannelImpulse(c, -1, []float32{1}), ErrChannelMismatch)
	_, err = c.Impulse(5)
	require.ErrorIs(t, err, ErrChannelMismatch)
}

func TestProcessMulti_ShapeErrors(t *testing.T) {
	c, err := New(&Config{Channels: 2})
	require.NoError(t, err)

	_, err = c.ProcessMulti([][]float32{{1}}, [][]float32{{0}, {0}})
	require.ErrorIs(t, err, ErrChannelMismatch)

	_, err = c.ProcessMulti([][]float32{{1}, {1}}, [][]float32{{0}})
	require.ErrorIs(t, err, ErrChannelMismatch)

	_, err = c.ProcessMulti([][]float32{{1, 2}, {1}}, [][]float32{{0}, {0}})
	require.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestProcessMulti_SilentChannels(t *testing.T) {
	c, err := New(&Config{Channels: 2})
	require.NoError(t, err)

	out := [][]float32{{7}, {7}}
	active, err := c.ProcessMulti([][]float32{{1}, {1}}, out)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, [][]float32{{0}, {0}}, out)
}

func TestProcessMulti_ParallelActivity(t *testing.T) {
	c, err := New(&Config{Channels: 4, EnableParallel: true})
	require.NoError(t, err)

	in := [][]float32{{1, 2}, {1, 2}, {1, 2}, {1, 2}}
	out := [][]float32{make([]float32, 2), make([]float32, 2), make([]float32, 2), make([]float32, 2)}

	active, err := c.ProcessMulti(in, out)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, SetChannelImpulse(c, 2, []float32{1, 1}))
	active, err = c.ProcessMulti(in, out)
	require.NoError(t, err)
	assert.True(t, active)
	// History from the first call is kept across the kernel change.
	assert.Equal(t, []float32{3, 3}, out[2])
	assert.Equal(t, []float32{0, 0}, out[0])
}

func TestConvolver_ResetMatchesFresh(t *testing.T) {
	impulse := testutil.Noise(9, 200)
	input := testutil.Noise(10, 2500)

	c, err := New(&Config{Channels: 1, Flags: FlagNoSIMD})
	require.NoError(t, err)
	require.NoError(t, SetImpulse(c, impulse))
	warm := make([]float32, 5000)
	c.Process(testutil.Noise(11, 5000), warm)
	c.Reset()

	got := make([]float32, len(input))
	c.Process(input, got)

	fresh, err := New(&Config{Channels: 1, Flags: FlagNoSIMD})
	require.NoError(t, err)
	require.NoError(t, SetImpulse(fresh, impulse))
	want := make([]float32, len(input))
	fresh.Process(input, want)

	assert.Equal(t, want, got)
}

func TestConvolver_NoAllocations(t *testing.T) {
	c, err := New(&Config{Channels: 2})
	require.NoError(t, err)
	require.NoError(t, SetImpulse(c, lowpass(300)))

	in := newStereoInput(1024)
	out := newOutput(2, 1024)

	allocs := testing.AllocsPerRun(10, func() {
		_, _ = c.ProcessMulti(in, out)
		c.Process(in[0], out[0])
	})
	assert.Zero(t, allocs)
}

func TestInfo(t *testing.T) {
	c, err := New(&Config{Channels: 2, Flags: FlagNoSIMD})
	require.NoError(t, err)

	info := c.Info()
	assert.Equal(t, algorithmName, info.Algorithm)
	assert.Zero(t, info.KernelLength)
	assert.Zero(t, info.Latency)
	assert.Equal(t, MaxKernelLength, info.MaxLength)
	assert.False(t, info.SIMDEnabled)
	assert.Equal(t, "none", info.SIMDType)
	assert.Equal(t, int64(2*channelFootprint), info.MemoryUsage)

	require.NoError(t, SetChannelImpulse(c, 1, []float32{1, 2, 3, 4, 5}))
	info = c.Info()
	assert.Equal(t, 5, info.KernelLength)
	assert.Equal(t, 8, info.PaddedLength)
}

func TestInfo_SIMDReportsCPU(t *testing.T) {
	c, err := New(&Config{Channels: 1})
	require.NoError(t, err)

	info := c.Info()
	if !info.SIMDEnabled {
		t.Skip("no vector unit on this CPU")
	}
	assert.NotEqual(t, "none", info.SIMDType)
	assert.NotEmpty(t, info.SIMDType)
}
