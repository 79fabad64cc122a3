package app

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svoray/internal/scheduler"
	"github.com/gekko3d/svoray/internal/tracer"
)

type fakeSwapchain struct {
	acquireErr error
	presentErr error
	acquired   int
	presented  int
}

func (f *fakeSwapchain) AcquireNextImage() (AcquiredImage, error) {
	f.acquired++
	if f.acquireErr != nil {
		return AcquiredImage{}, f.acquireErr
	}
	return AcquiredImage{Width: 1920, Height: 1080}, nil
}

func (f *fakeSwapchain) Present(img AcquiredImage) error {
	f.presented++
	return f.presentErr
}

type fakeFrameSource struct {
	lastFrameIndex uint64
	iterations     int
}

func (f *fakeFrameSource) NextFrame(frameIndex uint64, lowRes, highRes [2]uint32) tracer.FrameUniforms {
	f.lastFrameIndex = frameIndex
	return tracer.FrameUniforms{}
}

func (f *fakeFrameSource) ATrousIterationCount() int { return f.iterations }

type fakeTracer struct {
	recordErr  error
	deliverErr error
	resizeErr  error
	records    int
	delivers   int
	resizes    int
}

func (f *fakeTracer) RecordFrame(frame int, u tracer.FrameUniforms, iterationCount int) (*wgpu.CommandBuffer, error) {
	f.records++
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return nil, nil
}

func (f *fakeTracer) Deliver(swapchainTexture *wgpu.Texture, width, height uint32) (*wgpu.CommandBuffer, error) {
	f.delivers++
	if f.deliverErr != nil {
		return nil, f.deliverErr
	}
	return nil, nil
}

func (f *fakeTracer) Resize(highWidth, highHeight uint32) error {
	f.resizes++
	return f.resizeErr
}

func newTestLoop(tr *fakeTracer, sc *fakeSwapchain, src *fakeFrameSource, sched *scheduler.Scheduler, framesInFlight int) *Loop {
	return New(nil, nil, tr, sc, src, sched, nil, framesInFlight)
}

func TestRunOnceAdvancesFrameIndexOnSuccess(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 2)

	ran, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, uint64(1), l.frameIndex)
	require.Equal(t, 1, tr.records)
	require.Equal(t, 1, tr.delivers)
	require.Equal(t, 1, sc.presented)
}

func TestRunOnceSkipsWhenSchedulerBlocked(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	sched.BlockRenderLoop()
	l := newTestLoop(tr, sc, src, sched, 2)

	ran, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.NoError(t, err)
	require.False(t, ran)
	require.Equal(t, uint64(0), l.frameIndex)
	require.Zero(t, tr.records)
	require.Zero(t, sc.acquired)
}

func TestRunOnceDropsFrameOnSwapchainOutOfDateDuringAcquire(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{acquireErr: ErrSwapchainOutOfDate}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 2)

	ran, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.NoError(t, err)
	require.False(t, ran)
	require.Equal(t, uint64(0), l.frameIndex)
	require.Zero(t, tr.records)

	// the slot must have been released so the next frame isn't deadlocked.
	ran, err = l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.NoError(t, err)
	require.False(t, ran)
}

func TestRunOnceReleasesSlotAndReturnsErrorOnRecordFailure(t *testing.T) {
	recordErr := errors.New("boom")
	tr := &fakeTracer{recordErr: recordErr}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 1)

	_, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.ErrorIs(t, err, recordErr)

	// the slot must have been released; a second call proves it isn't stuck.
	tr.recordErr = nil
	ran, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestRunOnceTreatsPresentOutOfDateAsSuccessfulFrame(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{presentErr: ErrSwapchainOutOfDate}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 1)

	ran, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, uint64(1), l.frameIndex)
}

func TestResizeForwardsToTracer(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 1)

	require.NoError(t, l.Resize(3840, 2160))
	require.Equal(t, 1, tr.resizes)
}

func TestResizePropagatesTracerError(t *testing.T) {
	resizeErr := errors.New("resize failed")
	tr := &fakeTracer{resizeErr: resizeErr}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 1)

	err := l.Resize(3840, 2160)
	require.ErrorIs(t, err, resizeErr)
}

func TestShutdownDrainsAllSlotsWithoutBlocking(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 3)

	done := make(chan struct{})
	go func() {
		l.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done
}

func TestRequestCloseSetsClosingFlag(t *testing.T) {
	l := newTestLoop(&fakeTracer{}, &fakeSwapchain{}, &fakeFrameSource{}, scheduler.New(), 1)
	require.False(t, l.Closing())
	l.RequestClose()
	require.True(t, l.Closing())
}

func TestRunOnceCyclesThroughFramesInFlightSlots(t *testing.T) {
	tr := &fakeTracer{}
	sc := &fakeSwapchain{}
	src := &fakeFrameSource{}
	sched := scheduler.New()
	l := newTestLoop(tr, sc, src, sched, 2)

	for i := 0; i < 4; i++ {
		ran, err := l.RunOnce([2]uint32{960, 540}, [2]uint32{1920, 1080})
		require.NoError(t, err)
		require.True(t, ran)
	}
	require.Equal(t, uint64(4), l.frameIndex)
	require.Equal(t, 4, tr.records)
}
