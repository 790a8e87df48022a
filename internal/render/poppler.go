// Package render turns fetched document bytes into page images. PDFs go
// through poppler's pdftoppm; PNG and JPEG bytes decode directly.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"billscan/internal/domain"
	"billscan/internal/port"
)

// Config holds renderer settings.
type Config struct {
	// Binary is the pdftoppm executable; defaults to "pdftoppm".
	Binary string
	// MaxPages caps how many pages are rendered; zero means no cap.
	MaxPages int
}

type popplerRenderer struct {
	cfg Config
}

// New creates a Renderer backed by pdftoppm for PDFs with direct decoding
// for raster images.
func New(cfg Config) port.Renderer {
	if cfg.Binary == "" {
		cfg.Binary = "pdftoppm"
	}
	return &popplerRenderer{cfg: cfg}
}

// Render produces one image per page at the requested DPI. Unrecognized
// document bytes return domain.ErrInvalidDocument; a missing pdftoppm
// binary returns domain.ErrRendererUnavailable.
func (r *popplerRenderer) Render(ctx context.Context, doc []byte, dpi int) ([]image.Image, error) {
	if bytes.HasPrefix(doc, []byte("%PDF")) {
		return r.renderPDF(ctx, doc, dpi)
	}

	img, _, err := image.Decode(bytes.NewReader(doc))
	if err != nil {
		return nil, domain.ErrInvalidDocument
	}
	return []image.Image{img}, nil
}

func (r *popplerRenderer) renderPDF(ctx context.Context, doc []byte, dpi int) ([]image.Image, error) {
	if _, err := exec.LookPath(r.cfg.Binary); err != nil {
		return nil, domain.ErrRendererUnavailable
	}

	dir, err := os.MkdirTemp("", "render-*")
	if err != nil {
		return nil, fmt.Errorf("render workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, doc, 0o600); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	args := []string{"-png", "-r", strconv.Itoa(dpi)}
	if r.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(r.cfg.MaxPages))
	}
	args = append(args, pdfPath, filepath.Join(dir, "page"))

	cmd := exec.CommandContext(ctx, r.cfg.Binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("pdftoppm: %s: %w", bytes.TrimSpace(out), domain.ErrRenderFailed)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil || len(matches) == 0 {
		return nil, domain.ErrRenderFailed
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(matches)

	pages := make([]image.Image, 0, len(matches))
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode page %s: %w", filepath.Base(path), domain.ErrRenderFailed)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
