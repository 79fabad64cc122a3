// Package config loads the layered TOML configuration described in
// spec.md §6: a DefaultConfig.toml shipped with the repo, optionally
// overlaid by a CustomConfig.toml the user drops next to it. Field
// names mirror original_source/config-container/sub-config verbatim
// so that a config file written for the original project needs no
// translation.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

// MissingKeyError reports that a required configuration key was absent
// from both DefaultConfig.toml and any overlay (spec.md §7:
// ConfigMissing).
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("config: missing required key %q", e.Key)
}

// Application holds process-wide settings (spec.md §6).
type Application struct {
	FramesInFlight int `toml:"framesInFlight"`
}

// SvoBuilder holds the chunk grid and voxel resolution (spec.md §3,
// §6).
type SvoBuilder struct {
	ChunkVoxelDim uint32    `toml:"chunkVoxelDim"`
	ChunkDim      [3]uint32 `toml:"chunkDim"`
}

// SvoTracer holds both the structural tracer settings from spec.md §6
// and the per-frame tweakable render parameters from
// original_source/config-container/sub-config/SvoTracerTweakingInfo.
// The tweaking fields are named identically to the original so that an
// operator's muscle memory (and any existing config files) transfers
// directly.
type SvoTracer struct {
	ATrousSizeMax        int `toml:"aTrousSizeMax"`
	BeamResolution       int `toml:"beamResolution"`
	TaaSamplingOffsetSize int `toml:"taaSamplingOffsetSize"`
	ShadowMapResolution  int `toml:"shadowMapResolution"`
	UpscaleRatio         float32 `toml:"upscaleRatio"`

	DebugB1 bool       `toml:"debugB1"`
	DebugF1 float32    `toml:"debugF1"`
	DebugI1 int        `toml:"debugI1"`
	DebugC1 [3]float32 `toml:"debugC1"`

	Explosure float32 `toml:"explosure"`

	VisualizeChunks  bool `toml:"visualizeChunks"`
	VisualizeOctree  bool `toml:"visualizeOctree"`
	BeamOptimization bool `toml:"beamOptimization"`
	TraceIndirectRay bool `toml:"traceIndirectRay"`
	Taa              bool `toml:"taa"`

	SunAltitude            float32    `toml:"sunAltitude"`
	SunAzimuth             float32    `toml:"sunAzimuth"`
	RayleighScatteringBase [3]float32 `toml:"rayleighScatteringBase"`
	MieScatteringBase      float32    `toml:"mieScatteringBase"`
	MieAbsorptionBase      float32    `toml:"mieAbsorptionBase"`
	OzoneAbsorptionBase    [3]float32 `toml:"ozoneAbsorptionBase"`
	SunLuminance           float32    `toml:"sunLuminance"`
	AtmosLuminance         float32    `toml:"atmosLuminance"`
	SunSize                float32    `toml:"sunSize"`

	TemporalAlpha       float32 `toml:"temporalAlpha"`
	TemporalPositionPhi float32 `toml:"temporalPositionPhi"`

	ATrousIterationCount  int     `toml:"aTrousIterationCount"`
	PhiC                  float32 `toml:"phiC"`
	PhiN                  float32 `toml:"phiN"`
	PhiP                  float32 `toml:"phiP"`
	MinPhiZ               float32 `toml:"minPhiZ"`
	MaxPhiZ               float32 `toml:"maxPhiZ"`
	PhiZStableSampleCount float32 `toml:"phiZStableSampleCount"`
	ChangingLuminancePhi  bool    `toml:"changingLuminancePhi"`
}

// Camera holds startup pose and control tuning (spec.md §6).
type Camera struct {
	InitPosition        [3]float32 `toml:"initPosition"`
	InitYaw             float32    `toml:"initYaw"`
	InitPitch           float32    `toml:"initPitch"`
	VFov                float32    `toml:"vFov"`
	MovementSpeed       float32    `toml:"movementSpeed"`
	MovementSpeedBoost  float32    `toml:"movementSpeedBoost"`
	MouseSensitivity    float32    `toml:"mouseSensitivity"`
}

// Config is the fully loaded, layered configuration tree.
type Config struct {
	Application Application           `toml:"Application"`
	SvoBuilder  SvoBuilder            `toml:"SvoBuilder"`
	SvoTracer   SvoTracer             `toml:"SvoTracerTweakingData"`
	Camera      Camera                `toml:"Camera"`
}

// InitPositionVec3 returns Camera.InitPosition as an mgl32.Vec3, the
// type the rest of the module's math uses.
func (c Camera) InitPositionVec3() mgl32.Vec3 {
	return mgl32.Vec3{c.InitPosition[0], c.InitPosition[1], c.InitPosition[2]}
}

// Load reads defaultPath, then overlays customPath on top if it
// exists. Fields absent from customPath keep their value from
// defaultPath. A missing defaultPath is fatal; a missing customPath is
// not (it is an optional overlay).
func Load(defaultPath, customPath string) (*Config, error) {
	var cfg Config

	defaultBytes, err := os.ReadFile(defaultPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", defaultPath, err)
	}
	if err := toml.Unmarshal(defaultBytes, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", defaultPath, err)
	}

	if customBytes, err := os.ReadFile(customPath); err == nil {
		if err := toml.Unmarshal(customBytes, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", customPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", customPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants spec.md §3/§6 require before any
// component touches the config.
func (c *Config) Validate() error {
	if c.Application.FramesInFlight <= 0 {
		return &MissingKeyError{Key: "Application.framesInFlight"}
	}
	if c.SvoBuilder.ChunkVoxelDim == 0 {
		return &MissingKeyError{Key: "SvoBuilder.chunkVoxelDim"}
	}
	if c.SvoBuilder.ChunkDim == ([3]uint32{}) {
		return &MissingKeyError{Key: "SvoBuilder.chunkDim"}
	}
	if !isPowerOfTwo(c.SvoBuilder.ChunkVoxelDim) {
		return fmt.Errorf("config: SvoBuilder.chunkVoxelDim must be a power of two, got %d", c.SvoBuilder.ChunkVoxelDim)
	}
	if c.SvoTracer.UpscaleRatio <= 0 {
		return &MissingKeyError{Key: "SvoTracerTweakingData.upscaleRatio"}
	}
	return nil
}

func isPowerOfTwo(v uint32) bool { return v != 0 && v&(v-1) == 0 }
