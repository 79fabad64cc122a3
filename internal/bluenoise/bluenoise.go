// Package bluenoise loads the spatiotemporal blue-noise texture arrays
// the tracer samples for dithering and importance sampling, grounded on
// original_source/application/svo-tracer/SvoTracer.cpp's
// _createBlueNoiseImages (four 64-layer PNG sequences: scalar, vec2,
// vec3, and cosine-weighted-vec3 noise).
package bluenoise

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"

	"github.com/gekko3d/svoray/internal/gpures"
)

// Kind names one of the four blue-noise flavors the tracer consumes.
type Kind string

const (
	Scalar           Kind = "scalar_2d_1d_1d/stbn_scalar_2Dx1Dx1D_128x128x64x1_"
	Vec2             Kind = "vec2_2d_1d/stbn_vec2_2Dx1D_128x128x64_"
	Vec3             Kind = "vec3_2d_1d/stbn_vec3_2Dx1D_128x128x64_"
	WeightedCosine    Kind = "unitvec3_cosine_2d_1d/stbn_unitvec3_cosine_2Dx1D_128x128x64_"
)

// LayerCount is the number of temporal layers in every blue-noise
// sequence (spec.md's supplemented feature: kBlueNoiseArraySize=64 in
// the original).
const LayerCount = 64

// Set holds the decoded pixel data for every layer of one Kind,
// ready to be uploaded as a layered gpures.Image.
type Set struct {
	Kind   Kind
	Width  int
	Height int
	Layers []*image.NRGBA
}

// Load decodes all LayerCount PNGs for kind from assetDir (the
// directory original_source calls "textures/stbn").
func Load(assetDir string, kind Kind) (*Set, error) {
	set := &Set{Kind: kind, Layers: make([]*image.NRGBA, 0, LayerCount)}

	for i := 0; i < LayerCount; i++ {
		path := filepath.Join(assetDir, fmt.Sprintf("%s%d.png", kind, i))
		img, err := decodePNG(path)
		if err != nil {
			return nil, fmt.Errorf("bluenoise: load layer %d of %s: %w", i, kind, err)
		}
		if set.Width == 0 {
			set.Width, set.Height = img.Bounds().Dx(), img.Bounds().Dy()
		} else if img.Bounds().Dx() != set.Width || img.Bounds().Dy() != set.Height {
			return nil, fmt.Errorf("bluenoise: layer %d of %s has mismatched dimensions", i, kind)
		}
		set.Layers = append(set.Layers, img)
	}
	return set, nil
}

// LoadAll loads all four Kinds from assetDir, the set the tracer's
// descriptor bundle binds at startup (spec.md §4.5.1).
func LoadAll(assetDir string) (map[Kind]*Set, error) {
	kinds := []Kind{Scalar, Vec2, Vec3, WeightedCosine}
	out := make(map[Kind]*Set, len(kinds))
	for _, k := range kinds {
		set, err := Load(assetDir, k)
		if err != nil {
			return nil, err
		}
		out[k] = set
	}
	return out, nil
}

// Upload creates a LayerCount-deep layered image and writes every
// decoded PNG layer into it, the texture-array counterpart of
// rt/gpu/manager.go's uploadBrick WriteTexture call (here one
// WriteTexture per layer instead of one brick-sized sub-region).
func (s *Set) Upload(device *wgpu.Device, queue *wgpu.Queue, label string) (*gpures.Image, error) {
	img, err := gpures.CreateImage(device, gpures.ImageDescriptor{
		Label:  label,
		Width:  uint32(s.Width),
		Height: uint32(s.Height),
		Layers: uint32(len(s.Layers)),
		Format: wgpu.TextureFormatRGBA8Unorm,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("bluenoise: allocate image %q: %w", label, err)
	}

	for layer, pix := range s.Layers {
		queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture: img.Texture,
				Origin:  wgpu.Origin3D{X: 0, Y: 0, Z: uint32(layer)},
				Aspect:  wgpu.TextureAspectAll,
			},
			pix.Pix,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(s.Width) * 4,
				RowsPerImage: uint32(s.Height),
			},
			&wgpu.Extent3D{Width: uint32(s.Width), Height: uint32(s.Height), DepthOrArrayLayers: 1},
		)
	}
	return img, nil
}

func decodePNG(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

// toNRGBA converts src (whatever concrete type png.Decode chose based
// on the file's color type, e.g. *image.Gray for single-channel scalar
// noise) into a uniform *image.NRGBA byte layout for GPU upload, using
// x/image/draw rather than a hand-rolled per-pixel loop. The copy keeps
// src's bounds and does not resample.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
