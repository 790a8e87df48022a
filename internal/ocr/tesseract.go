// Package ocr recognizes text with Tesseract via gosseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// Config holds OCR settings.
type Config struct {
	// Languages is the Tesseract language list, e.g. "eng".
	Languages []string
	// MinConfidence drops words the engine scored below this value
	// (0-100). Zero keeps everything.
	MinConfidence float64
}

// DefaultConfig returns recognition defaults.
func DefaultConfig() Config {
	return Config{Languages: []string{"eng"}}
}

type tesseractEngine struct {
	cfg Config

	// The gosseract client wraps a single Tesseract API handle and is not
	// safe for concurrent use.
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates an OCREngine backed by a shared Tesseract client. Callers may
// invoke Recognize from multiple goroutines; calls are serialized.
func New(cfg Config) (port.OCREngine, error) {
	client := gosseract.NewClient()
	if len(cfg.Languages) > 0 {
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set ocr language: %w", err)
		}
	}
	return &tesseractEngine{cfg: cfg, client: client}, nil
}

// Recognize runs word-level recognition over the image and returns one
// token per recognized word, low-confidence words filtered.
func (e *tesseractEngine) Recognize(ctx context.Context, img image.Image) ([]domain.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode ocr input: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set ocr image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	tokens := make([]domain.Token, 0, len(boxes))
	for _, b := range boxes {
		if b.Word == "" || b.Confidence < e.cfg.MinConfidence {
			continue
		}
		tokens = append(tokens, domain.Token{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box:        b.Box,
		})
	}
	return tokens, nil
}

// Close releases the Tesseract handle.
func (e *tesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
