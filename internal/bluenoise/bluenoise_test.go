package bluenoise

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadDecodesAllLayersAndConvertsToNRGBA(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < LayerCount; i++ {
		writeTestPNG(t, filepath.Join(dir, string(Scalar)+strconv.Itoa(i)+".png"), 4, 4)
	}

	set, err := Load(dir, Scalar)
	require.NoError(t, err)
	require.Equal(t, 4, set.Width)
	require.Equal(t, 4, set.Height)
	require.Len(t, set.Layers, LayerCount)
	for _, layer := range set.Layers {
		require.IsType(t, &image.NRGBA{}, layer)
	}
}

func TestLoadFailsWhenALayerIsMissing(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, string(Scalar)+"0.png"), 4, 4)
	// layers 1..63 intentionally absent

	_, err := Load(dir, Scalar)
	require.Error(t, err)
}
