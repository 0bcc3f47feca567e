package services

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "image/gif"
)

// ImageGenerator is the sketch-to-image stand-in. The path-in, path-out
// interface is the stable contract; the tint transform behind it is meant
// to be swapped for a real generative backend without touching callers.
type ImageGenerator struct{}

func NewImageGenerator() *ImageGenerator {
	return &ImageGenerator{}
}

// tint overlay applied to every rendered sketch
var (
	tintColor   = color.NRGBA{R: 100, G: 100, B: 255, A: 77} // 30% of 255
	slugPattern = regexp.MustCompile(`[^\w\-]`)
)

// SketchToImage blends a translucent color overlay onto the sketch and
// writes the result as rendered_<basename> under outputDir. An input that
// cannot be decoded as an image fails without creating a file.
func (g *ImageGenerator) SketchToImage(sketchPath, outputDir string) (string, error) {
	f, err := os.Open(sketchPath)
	if err != nil {
		return "", fmt.Errorf("sketch to image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("sketch to image: decode %s: %w", sketchPath, err)
	}

	bounds := src.Bounds()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)
	draw.Draw(out, bounds, image.NewUniform(tintColor), image.Point{}, draw.Over)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("sketch to image: %w", err)
	}

	outputPath := filepath.Join(outputDir, "rendered_"+filepath.Base(sketchPath))
	dst, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("sketch to image: %w", err)
	}
	defer dst.Close()

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(dst, out, nil)
	default:
		err = png.Encode(dst, out)
	}
	if err != nil {
		return "", fmt.Errorf("sketch to image: encode: %w", err)
	}

	return outputPath, nil
}

// ModelGenerator is the to-3D stand-in. Both operations write a fixed
// placeholder artifact under a filename derived from the input and only
// fail on filesystem errors.
type ModelGenerator struct{}

func NewModelGenerator() *ModelGenerator {
	return &ModelGenerator{}
}

var placeholderModel = []byte("MOCK 3D MODEL")

// ImageTo3D produces model_from_sketch_<basename>.glb under outputDir.
func (g *ModelGenerator) ImageTo3D(imagePath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("image to 3d: %w", err)
	}

	outputPath := filepath.Join(outputDir, "model_from_sketch_"+filepath.Base(imagePath)+".glb")
	if err := os.WriteFile(outputPath, placeholderModel, 0644); err != nil {
		return "", fmt.Errorf("image to 3d: %w", err)
	}
	return outputPath, nil
}

// TextTo3D produces model_from_text_<slug>.glb, where the slug is built
// from the first three words of the prompt.
func (g *ModelGenerator) TextTo3D(prompt, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("text to 3d: %w", err)
	}

	words := strings.Fields(prompt)
	if len(words) > 3 {
		words = words[:3]
	}
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.Join(words, "_")), "")

	outputPath := filepath.Join(outputDir, "model_from_text_"+slug+".glb")
	if err := os.WriteFile(outputPath, placeholderModel, 0644); err != nil {
		return "", fmt.Errorf("text to 3d: %w", err)
	}
	return outputPath, nil
}
