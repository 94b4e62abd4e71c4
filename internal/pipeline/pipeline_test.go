package pipeline

import (
	"bytes"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/render"
	"github.com/RMahshie/sonascope/internal/repository/memory"
	"github.com/RMahshie/sonascope/internal/theme"
)

// manualClock runs a frame only when step is called.
type manualClock struct {
	mu sync.Mutex
	fn func(now time.Time)
}

func (c *manualClock) Start(fn func(now time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn = fn
}

func (c *manualClock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn = nil
}

func (c *manualClock) step() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fn == nil {
		return false
	}
	c.fn(time.Now())
	return true
}

// gatedClock holds Cancel until release is closed.
type gatedClock struct {
	manualClock
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *gatedClock) Cancel() {
	c.once.Do(func() { close(c.entered) })
	<-c.release
	c.manualClock.Cancel()
}

// fakeStream delivers the blocks sent on feed until feed is closed.
type fakeStream struct {
	tracks  []*capture.Track
	feed    chan []float32
	closed  chan struct{}
	once    sync.Once
	pending []float32
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		tracks: []*capture.Track{capture.NewTrack("a1", capture.KindAudio, "fake", nil)},
		feed:   make(chan []float32),
		closed: make(chan struct{}),
	}
}

func (s *fakeStream) Tracks() []*capture.Track { return s.tracks }
func (s *fakeStream) RemoveTrack(string)       {}
func (s *fakeStream) SampleRate() int          { return 48000 }
func (s *fakeStream) Channels() int            { return 2 }

func (s *fakeStream) Read(dst []float32) (int, error) {
	if len(s.pending) == 0 {
		select {
		case b, ok := <-s.feed:
			if !ok {
				return 0, io.EOF
			}
			s.pending = b
		case <-s.closed:
			return 0, io.EOF
		}
	}
	n := copy(dst, s.pending) / 2
	s.pending = s.pending[n*2:]
	return n, nil
}

func (s *fakeStream) Close() error {
	s.once.Do(func() {
		close(s.closed)
		for _, t := range s.tracks {
			t.Stop()
		}
	})
	return nil
}

// leftSine is an interleaved block with a sine on the left channel only.
func leftSine(frames int, amp float64) []float32 {
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		out[2*i] = float32(amp * math.Sin(2*math.Pi*1000*float64(i)/48000))
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *manualClock, *FrameStore) {
	t.Helper()
	clock := &manualClock{}
	engine, store := newTestEngineWithClock(t, clock)
	return engine, clock, store
}

func newTestEngineWithClock(t *testing.T, clock Clock) (*Engine, *FrameStore) {
	t.Helper()

	cfg := DefaultEngineConfig()
	cfg.Oscilloscope = Size{Width: 160, Height: 60}
	cfg.Spectrum = Size{Width: 160, Height: 80}
	cfg.Meters = Size{Width: 240, Height: 40}

	store := NewFrameStore()
	themes := theme.NewService(memory.NewPreferenceRepository(), true)

	engine, err := NewEngine(cfg, clock, store, themes)
	require.NoError(t, err)
	return engine, store
}

func TestEngine_RendersLevels(t *testing.T) {
	engine, clock, store := newTestEngine(t)
	stream := newFakeStream()
	require.NoError(t, engine.Start(stream))
	defer engine.Stop()

	stream.feed <- leftSine(4096, 0.5)

	want := meter.Decibels(0.5 / math.Sqrt2)
	require.Eventually(t, func() bool {
		clock.step()
		return math.Abs(store.Levels().Left.DB-want) < 0.5
	}, 2*time.Second, 5*time.Millisecond)

	frame, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, theme.Dark, frame.Theme)
	assert.Equal(t, meter.FloorDB, frame.Levels.Right.DB)
	assert.Greater(t, frame.Seq, uint64(0))
	assert.Equal(t, 160, frame.Oscilloscope.Bounds().Dx())
	assert.Equal(t, 80, frame.Spectrum.Bounds().Dy())
	assert.Equal(t, 240, frame.Meters.Bounds().Dx())
}

func TestEngine_StreamEndFlushesSilence(t *testing.T) {
	engine, clock, store := newTestEngine(t)
	stream := newFakeStream()
	require.NoError(t, engine.Start(stream))
	defer engine.Stop()

	stream.feed <- leftSine(2048, 0.8)
	require.Eventually(t, func() bool {
		clock.step()
		return store.Levels().Left.DB > -10
	}, 2*time.Second, 5*time.Millisecond)

	close(stream.feed)
	require.Eventually(t, func() bool {
		clock.step()
		return store.Levels().Left.DB == meter.FloorDB
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, engine.Running())
}

func TestEngine_StartTwice(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	require.NoError(t, engine.Start(newFakeStream()))
	defer engine.Stop()

	assert.ErrorIs(t, engine.Start(newFakeStream()), ErrEngineRunning)
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	engine, clock, store := newTestEngine(t)
	stream := newFakeStream()
	require.NoError(t, engine.Start(stream))

	stream.feed <- leftSine(2048, 0.5)
	require.Eventually(t, func() bool {
		clock.step()
		return store.Levels().Left.DB > meter.FloorDB
	}, 2*time.Second, 5*time.Millisecond)

	engine.Stop()
	seq := engine.Seq()

	assert.False(t, engine.Running())
	assert.False(t, clock.step(), "frame callback still scheduled")
	assert.Equal(t, seq, engine.Seq())
	assert.True(t, stream.tracks[0].Stopped())

	_, ok := store.Latest()
	assert.False(t, ok)

	scope, spectrum, meters := engine.Surfaces()
	for _, s := range []*render.Surface{scope, spectrum, meters} {
		assert.Zero(t, opaque(s), "surface not cleared")
	}
	assert.Zero(t, engine.Spectrum().Angle())
	for _, b := range engine.Spectrum().Bars() {
		assert.Zero(t, b.Value)
	}

	assert.NotPanics(t, engine.Stop)
	assert.Equal(t, seq, engine.Seq())
}

func TestEngine_RestartAfterStop(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	require.NoError(t, engine.Start(newFakeStream()))
	engine.Stop()

	require.NoError(t, engine.Start(newFakeStream()))
	defer engine.Stop()
	assert.True(t, clock.step())
}

func TestEngine_StartDuringStopWaitsForTeardown(t *testing.T) {
	clock := &gatedClock{entered: make(chan struct{}), release: make(chan struct{})}
	engine, _ := newTestEngineWithClock(t, clock)
	require.NoError(t, engine.Start(newFakeStream()))

	stopped := make(chan struct{})
	go func() {
		engine.Stop()
		close(stopped)
	}()
	<-clock.entered

	started := make(chan error, 1)
	go func() { started <- engine.Start(newFakeStream()) }()

	select {
	case err := <-started:
		t.Fatalf("Start returned during teardown: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(clock.release)
	<-stopped

	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not resume after teardown")
	}
	defer engine.Stop()

	assert.True(t, engine.Running())
	assert.True(t, clock.step(), "new session has no frame callback")
}

func TestTickerClock_CancelStopsCallbacks(t *testing.T) {
	clock := NewTickerClock(200)
	assert.Equal(t, 5*time.Millisecond, clock.Interval())

	var calls atomic.Int64
	clock.Start(func(time.Time) { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)

	clock.Cancel()
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())

	assert.NotPanics(t, clock.Cancel)
}

func TestTickerClock_DefaultRate(t *testing.T) {
	assert.Equal(t, time.Second/DefaultFrameRate, NewTickerClock(0).Interval())
}

func TestParseView(t *testing.T) {
	for _, v := range Views {
		got, err := ParseView(string(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := ParseView("waterfall")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func testFrame(t *testing.T, seq uint64) Frame {
	t.Helper()
	s, err := render.NewSurface(8, 4)
	require.NoError(t, err)
	return Frame{
		Seq:          seq,
		Oscilloscope: s.Snapshot(),
		Spectrum:     s.Snapshot(),
		Meters:       s.Snapshot(),
	}
}

func TestFrameStore_PNG(t *testing.T) {
	store := NewFrameStore()

	_, _, err := store.PNG(ViewSpectrum)
	assert.ErrorIs(t, err, ErrNoFrame)
	assert.Equal(t, meter.FloorDB, store.Levels().Left.DB)

	require.NoError(t, store.Publish(testFrame(t, 7)))

	data, seq, err := store.PNG(ViewSpectrum)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	again, _, err := store.PNG(ViewSpectrum)
	require.NoError(t, err)
	assert.Same(t, &data[0], &again[0], "expected cached encoding")

	_, _, err = store.PNG(View("waterfall"))
	assert.ErrorIs(t, err, ErrUnknownView)

	store.Reset()
	_, _, err = store.PNG(ViewSpectrum)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestDirSink_WritesNumberedFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDirSink(dir, ViewMeters)
	require.NoError(t, err)

	require.NoError(t, sink.Publish(testFrame(t, 3)))

	data, err := os.ReadFile(sink.Path(ViewMeters, 3))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, err = os.Stat(sink.Path(ViewSpectrum, 3))
	assert.True(t, os.IsNotExist(err))
}

func TestSinkFunc(t *testing.T) {
	var got []uint64
	sink := SinkFunc(func(f Frame) error {
		got = append(got, f.Seq)
		return nil
	})

	require.NoError(t, sink.Publish(Frame{Seq: 1}))
	sink.Reset()
	assert.Equal(t, []uint64{1}, got)
}

func opaque(s *render.Surface) int {
	n := 0
	pix := s.Image().Pix
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			n++
		}
	}
	return n
}
