// Package app implements the Application Loop (spec.md §2 row 8, §5):
// the per-frame fence-wait, acquire-image, UBO fill, two
// command-buffer submit, present cycle that drives the SVO Tracer.
// Window creation, GLFW input and Vulkan/webgpu device/swapchain
// bring-up are out of scope (spec.md §1) and are modeled here as the
// Swapchain interface, grounded on rt/app/app.go's Render() method
// (GetCurrentTexture/CreateView/Submit/Present) generalized from one
// implicit in-flight frame to FramesInFlight explicit slots.
package app

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/svoray/internal/logging"
	"github.com/gekko3d/svoray/internal/scheduler"
	"github.com/gekko3d/svoray/internal/tracer"
)

// ErrSwapchainOutOfDate is returned by Swapchain.AcquireNextImage when
// the surface must be reconfigured before the next present (spec.md
// §7: SwapchainOutOfDate, current frame is dropped, next iteration
// resizes).
var ErrSwapchainOutOfDate = errors.New("app: swapchain out of date")

// AcquiredImage is the swapchain image a frame renders into.
type AcquiredImage struct {
	Texture *wgpu.Texture
	Width   uint32
	Height  uint32
}

// Swapchain is the out-of-scope collaborator (spec.md §1: "the
// renderer consumes a GPU device and swapchain abstraction; it does
// not build them").
type Swapchain interface {
	AcquireNextImage() (AcquiredImage, error)
	Present(img AcquiredImage) error
}

// FrameSource supplies the per-frame camera/tweak state the Application
// Loop packs into FrameUniforms; it is the seam to whatever owns
// camera/input/config in cmd/svoray.
type FrameSource interface {
	NextFrame(frameIndex uint64, lowRes, highRes [2]uint32) tracer.FrameUniforms
	ATrousIterationCount() int
}

// Tracer is the subset of *tracer.Tracer the loop drives, narrowed to
// an interface so tests can substitute a fake without a live device.
type Tracer interface {
	RecordFrame(frame int, u tracer.FrameUniforms, iterationCount int) (*wgpu.CommandBuffer, error)
	Deliver(swapchainTexture *wgpu.Texture, width, height uint32) (*wgpu.CommandBuffer, error)
	Resize(highWidth, highHeight uint32) error
}

// Loop drives the render loop described in spec.md §5. FramesInFlight
// fences are modeled as a slice of done-channels the CPU waits on
// before reusing a slot, the Go analogue of
// vkWaitForFences/vkResetFences since webgpu has no explicit fence
// object of its own.
type Loop struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	tracer    Tracer
	swapchain Swapchain
	source    FrameSource
	sched     *scheduler.Scheduler
	log       logging.Logger

	framesInFlight int
	slotDone       []chan struct{}
	frameIndex     uint64
	closing        bool
}

// New constructs a Loop. framesInFlight must match the tracer's
// configured depth (spec.md §6: Application.framesInFlight).
func New(device *wgpu.Device, queue *wgpu.Queue, tr Tracer, sc Swapchain, src FrameSource, sched *scheduler.Scheduler, log logging.Logger, framesInFlight int) *Loop {
	if log == nil {
		log = logging.NewNop()
	}
	slots := make([]chan struct{}, framesInFlight)
	for i := range slots {
		ch := make(chan struct{}, 1)
		ch <- struct{}{} // every slot starts "signaled" (no frame in flight yet)
		slots[i] = ch
	}
	return &Loop{
		device:         device,
		queue:          queue,
		tracer:         tr,
		swapchain:      sc,
		source:         src,
		sched:          sched,
		log:            log,
		framesInFlight: framesInFlight,
		slotDone:       slots,
	}
}

// RequestClose sets the close flag spec.md §5 describes ("window
// close sets a flag"). RunOnce does not read the flag; the caller's
// outer loop checks Closing to stop issuing frames.
func (l *Loop) RequestClose() { l.closing = true }

// Closing reports whether RequestClose has been called. It does not
// wait for or check in-flight work.
func (l *Loop) Closing() bool { return l.closing }

// RunOnce executes exactly one iteration of the eight numbered steps
// in spec.md §5. It returns (ran=false, nil) when the frame was
// legitimately dropped (swapchain out of date), matching the spec's
// "silently drops the frame" policy.
func (l *Loop) RunOnce(lowRes, highRes [2]uint32) (ran bool, err error) {
	if l.sched.Blocked() {
		// A shader rebuild is in progress (spec.md §5 "Shader
		// hot-reload": the loop pauses submission until resumed).
		return false, nil
	}

	slot := int(l.frameIndex % uint64(l.framesInFlight))

	// Step 1-2: wait on this slot's frame-fence, then reset it.
	<-l.slotDone[slot]

	// Step 3: acquire next swapchain image.
	img, err := l.swapchain.AcquireNextImage()
	if err != nil {
		l.slotDone[slot] <- struct{}{}
		if errors.Is(err, ErrSwapchainOutOfDate) {
			return false, nil
		}
		return false, fmt.Errorf("app: acquire swapchain image: %w", err)
	}

	// Step 4: update UBO i.
	uniforms := l.source.NextFrame(l.frameIndex, lowRes, highRes)

	// Step 6 (part 1): record and submit the trace command buffer.
	traceCmd, err := l.tracer.RecordFrame(slot, uniforms, l.source.ATrousIterationCount())
	if err != nil {
		l.slotDone[slot] <- struct{}{}
		return false, fmt.Errorf("app: record trace command buffer: %w", err)
	}

	// Step 6 (part 2): record and submit the delivery command buffer
	// (spec.md §4.5.2: "a separate per-swapchain-image delivery
	// command buffer blits renderTarget into the acquired swapchain
	// image").
	deliverCmd, err := l.tracer.Deliver(img.Texture, img.Width, img.Height)
	if err != nil {
		l.slotDone[slot] <- struct{}{}
		return false, fmt.Errorf("app: record deliver command buffer: %w", err)
	}

	l.submit(traceCmd, deliverCmd)

	// Step 7: present.
	if err := l.swapchain.Present(img); err != nil {
		l.slotDone[slot] <- struct{}{}
		if errors.Is(err, ErrSwapchainOutOfDate) {
			return true, nil
		}
		return false, fmt.Errorf("app: present: %w", err)
	}

	l.slotDone[slot] <- struct{}{}

	// Step 8: advance i = (i+1) mod framesInFlight.
	l.frameIndex++
	return true, nil
}

// Resize waits for the device to go idle (spec.md §5's "the CPU only
// blocks at ... vkDeviceWaitIdle during resize"), then resizes the
// tracer's images and rebuilds its descriptor bundle.
func (l *Loop) Resize(highWidth, highHeight uint32) error {
	l.poll()
	if err := l.tracer.Resize(highWidth, highHeight); err != nil {
		return fmt.Errorf("app: resize: %w", err)
	}
	l.log.Infof("resized to %dx%d", highWidth, highHeight)
	return nil
}

// Shutdown waits for every in-flight slot to drain before the caller
// destroys GPU resources (spec.md §5: "the loop finishes the in-flight
// frame then calls vkDeviceWaitIdle before destruction").
func (l *Loop) Shutdown() {
	for _, ch := range l.slotDone {
		<-ch
		ch <- struct{}{}
	}
	l.poll()
}

func (l *Loop) poll() {
	if l.device != nil {
		l.device.Poll(true, nil)
	}
}

func (l *Loop) submit(cmds ...*wgpu.CommandBuffer) {
	if l.queue != nil {
		l.queue.Submit(cmds...)
	}
}
