// Package thumbnail строит уменьшенные копии фотографий в виде data URL.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Generator - внешний генератор миниатюр. Ошибка не фатальна:
// вызывающий использует исходный URL.
type Generator interface {
	Generate(ctx context.Context, url string, maxW, maxH int, quality float64) (string, error)
}

// Source открывает изображение по URL.
type Source interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

type ImagingGenerator struct {
	source Source
}

func NewImagingGenerator(source Source) *ImagingGenerator {
	return &ImagingGenerator{source: source}
}

// Generate вписывает изображение в maxW x maxH (только уменьшение) и кодирует в JPEG.
// quality задается в диапазоне (0, 1].
func (g *ImagingGenerator) Generate(ctx context.Context, url string, maxW, maxH int, quality float64) (string, error) {
	if url == "" {
		return "", fmt.Errorf("пустой URL изображения")
	}
	if maxW <= 0 || maxH <= 0 {
		return "", fmt.Errorf("некорректный размер миниатюры %dx%d", maxW, maxH)
	}

	rc, err := g.source.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("не удалось декодировать изображение: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > maxW || b.Dy() > maxH {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return "", fmt.Errorf("не удалось закодировать миниатюру: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func jpegQuality(q float64) int {
	n := int(q * 100)
	switch {
	case n < 1:
		return 75
	case n > 100:
		return 100
	}
	return n
}
