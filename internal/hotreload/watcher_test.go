package hotreload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svoray/internal/scheduler"
)

type fakeRebuilder struct {
	compileOK   bool
	compileErr  error
	buildErr    error
	builds      int
}

func (f *fakeRebuilder) CompileAndCacheShaderModule(allowFailure bool) (bool, error) {
	return f.compileOK, f.compileErr
}

func (f *fakeRebuilder) Build() error {
	f.builds++
	return f.buildErr
}

func TestWatcherRebuildsOnWriteAndResumesScheduler(t *testing.T) {
	dir := t.TempDir()
	shaderPath := filepath.Join(dir, "pass.wgsl")
	require.NoError(t, os.WriteFile(shaderPath, []byte("// v1"), 0o644))

	sched := scheduler.New()
	var errs []error
	w, err := New(sched, func(path string, err error) { errs = append(errs, err) })
	require.NoError(t, err)
	defer w.Close()

	fake := &fakeRebuilder{compileOK: true}
	require.NoError(t, w.Watch(shaderPath, fake))

	stop := make(chan struct{})
	go w.Run(stop)
	defer close(stop)

	require.NoError(t, os.WriteFile(shaderPath, []byte("// v2"), 0o644))

	require.Eventually(t, func() bool {
		return fake.builds == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.False(t, sched.Blocked())
	require.Empty(t, errs)
}

func TestWatcherReportsBuildFailureWithoutPanicking(t *testing.T) {
	sched := scheduler.New()
	var errs []error
	w, err := New(sched, func(path string, err error) { errs = append(errs, err) })
	require.NoError(t, err)
	defer w.Close()

	fake := &fakeRebuilder{compileOK: true, buildErr: errors.New("layout mismatch")}
	w.handle("unregistered-path") // no-op: not watched

	w.pipelines["shader.wgsl"] = fake
	w.handle("shader.wgsl")

	require.Len(t, errs, 1)
	require.False(t, sched.Blocked())
}
