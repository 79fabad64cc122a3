package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalDefault = `
[Application]
framesInFlight = 2

[SvoBuilder]
chunkVoxelDim = 8
chunkDim = [4, 4, 4]

[SvoTracerTweakingData]
aTrousSizeMax = 5
beamResolution = 8
taaSamplingOffsetSize = 16
shadowMapResolution = 2048
upscaleRatio = 2.0
sunAltitude = 45.0
temporalAlpha = 0.1

[Camera]
initPosition = [0.0, 0.0, 0.0]
vFov = 60.0
movementSpeed = 5.0
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsAndOverlay(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeFile(t, dir, "DefaultConfig.toml", minimalDefault)
	customPath := writeFile(t, dir, "CustomConfig.toml", `
[SvoTracerTweakingData]
sunAltitude = 10.0
`)

	cfg, err := Load(defaultPath, customPath)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Application.FramesInFlight)
	require.Equal(t, uint32(8), cfg.SvoBuilder.ChunkVoxelDim)
	require.EqualValues(t, [3]uint32{4, 4, 4}, cfg.SvoBuilder.ChunkDim)
	require.Equal(t, float32(10.0), cfg.SvoTracer.SunAltitude, "overlay value wins")
	require.Equal(t, float32(2.0), cfg.SvoTracer.UpscaleRatio, "default value kept when overlay is silent")
}

func TestLoadToleratesMissingOverlay(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeFile(t, dir, "DefaultConfig.toml", minimalDefault)

	cfg, err := Load(defaultPath, filepath.Join(dir, "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, uint32(8), cfg.SvoBuilder.ChunkVoxelDim)
}

func TestLoadRejectsMissingDefaultFile(t *testing.T) {
	_, err := Load("/no/such/path/DefaultConfig.toml", "/no/such/path/CustomConfig.toml")
	require.Error(t, err)
}

func TestValidateRejectsNonPowerOfTwoChunkVoxelDim(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeFile(t, dir, "DefaultConfig.toml", `
[Application]
framesInFlight = 2

[SvoBuilder]
chunkVoxelDim = 6
chunkDim = [1, 1, 1]

[SvoTracerTweakingData]
upscaleRatio = 1.0
`)
	_, err := Load(defaultPath, filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestValidateReportsMissingKeyError(t *testing.T) {
	dir := t.TempDir()
	defaultPath := writeFile(t, dir, "DefaultConfig.toml", `
[Application]
framesInFlight = 0
`)
	_, err := Load(defaultPath, filepath.Join(dir, "missing.toml"))
	require.Error(t, err)

	var missing *MissingKeyError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "Application.framesInFlight", missing.Key)
}
