package services

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSketchToImage(t *testing.T) {
	dir := t.TempDir()
	sketch := filepath.Join(dir, "robot.png")
	writeTestPNG(t, sketch)

	outDir := filepath.Join(dir, "images")
	out, err := NewImageGenerator().SketchToImage(sketch, outDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "rendered_robot.png"), out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rendered, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), rendered.Bounds())

	// The tint shifts the pure-red input toward blue.
	_, _, b, _ := rendered.At(0, 0).RGBA()
	assert.Greater(t, b, uint32(10<<8))
}

func TestSketchToImageUndecodableInput(t *testing.T) {
	dir := t.TempDir()
	sketch := filepath.Join(dir, "not_an_image.png")
	require.NoError(t, os.WriteFile(sketch, []byte("definitely not pixels"), 0644))

	outDir := filepath.Join(dir, "images")
	out, err := NewImageGenerator().SketchToImage(sketch, outDir)
	require.Error(t, err)
	assert.Empty(t, out)

	_, statErr := os.Stat(filepath.Join(outDir, "rendered_not_an_image.png"))
	assert.True(t, os.IsNotExist(statErr), "no output file may be created on decode failure")
}

func TestSketchToImageMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := NewImageGenerator().SketchToImage(filepath.Join(dir, "gone.png"), dir)
	require.Error(t, err)
}

func TestImageTo3D(t *testing.T) {
	dir := t.TempDir()
	out, err := NewModelGenerator().ImageTo3D("/anywhere/rendered_robot.png", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "model_from_sketch_rendered_robot.png.glb"), out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestTextTo3D(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		file   string
	}{
		{"three words", "A tall robot with lasers", "model_from_text_a_tall_robot.glb"},
		{"punctuation stripped", "Huge, ancient dragon!", "model_from_text_huge_ancient_dragon.glb"},
		{"short prompt", "robot", "model_from_text_robot.glb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out, err := NewModelGenerator().TextTo3D(tt.prompt, dir)
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, tt.file), out)
			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

// The sketch branch chained end to end: robot.png -> rendered_robot.png ->
// model_from_sketch_rendered_robot.png.glb.
func TestSketchBranchDerivedNames(t *testing.T) {
	dir := t.TempDir()
	sketch := filepath.Join(dir, "robot.png")
	writeTestPNG(t, sketch)

	imagePath, err := NewImageGenerator().SketchToImage(sketch, filepath.Join(dir, "images"))
	require.NoError(t, err)
	assert.Equal(t, "rendered_robot.png", filepath.Base(imagePath))

	modelPath, err := NewModelGenerator().ImageTo3D(imagePath, filepath.Join(dir, "models"))
	require.NoError(t, err)
	assert.Equal(t, "model_from_sketch_rendered_robot.png.glb", filepath.Base(modelPath))
}
