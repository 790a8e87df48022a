package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"billscan/internal/assemble"
	"billscan/internal/dedupe"
	"billscan/internal/domain"
	"billscan/internal/grid"
	"billscan/internal/port"
	"billscan/internal/preprocess"
	"billscan/internal/reconcile"
	"billscan/internal/tabledetect"
)

// ExtractionConfig holds orchestration settings.
type ExtractionConfig struct {
	// DPI used when rendering PDF pages.
	DPI int
	// Concurrency bounds how many pages are processed at once; zero means
	// runtime.NumCPU().
	Concurrency int
	// DocumentTimeout bounds one extraction end to end.
	DocumentTimeout time.Duration
}

// DefaultExtractionConfig returns orchestration defaults.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		DPI:             300,
		Concurrency:     runtime.NumCPU(),
		DocumentTimeout: 5 * time.Minute,
	}
}

// ExtractRequest is one extraction job.
type ExtractRequest struct {
	DocumentURL string
	// ReportedTotal, when set, overrides auto-detection of the invoice's
	// grand total.
	ReportedTotal *float64
}

// ExtractionService runs the full pipeline: fetch, render, per-page table
// extraction under a bounded worker pool, boilerplate filtering, dedupe,
// and reconciliation.
type ExtractionService struct {
	fetcher  port.DocumentFetcher
	renderer port.Renderer
	engine   port.OCREngine

	pre        *preprocess.Preprocessor
	detector   *tabledetect.Detector
	segmenter  *grid.Segmenter
	deduper    *dedupe.Deduper
	reconciler *reconcile.Reconciler

	cfg ExtractionConfig
}

// NewExtractionService wires the pipeline stages together.
func NewExtractionService(
	fetcher port.DocumentFetcher,
	renderer port.Renderer,
	engine port.OCREngine,
	pre *preprocess.Preprocessor,
	detector *tabledetect.Detector,
	segmenter *grid.Segmenter,
	deduper *dedupe.Deduper,
	reconciler *reconcile.Reconciler,
	cfg ExtractionConfig,
) *ExtractionService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return &ExtractionService{
		fetcher:    fetcher,
		renderer:   renderer,
		engine:     engine,
		pre:        pre,
		detector:   detector,
		segmenter:  segmenter,
		deduper:    deduper,
		reconciler: reconciler,
		cfg:        cfg,
	}
}

// pageResult carries everything one page worker produces. Each worker owns
// its result exclusively until the barrier.
type pageResult struct {
	gray       *image.Gray
	candidates []domain.Candidate
	footTokens []domain.Token
	warnings   []domain.Warning
}

// Extract runs one document through the pipeline. Fetch and render failures
// abort with an error; downstream failures degrade to warnings on a partial
// result.
func (s *ExtractionService) Extract(ctx context.Context, req ExtractRequest) (*domain.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DocumentTimeout)
	defer cancel()

	doc, err := s.fetcher.Fetch(ctx, req.DocumentURL)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	pages, err := s.renderer.Render(ctx, doc, s.cfg.DPI)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	log.Printf("extraction: %s rendered %d pages", req.DocumentURL, len(pages))

	results := s.processPages(ctx, pages, req.ReportedTotal == nil)

	var candidates []domain.Candidate
	var warnings []domain.Warning
	grays := make([]*image.Gray, len(results))
	for p, pr := range results {
		grays[p] = pr.gray
		candidates = append(candidates, pr.candidates...)
		warnings = append(warnings, pr.warnings...)
	}
	// Per-page ids restart at 1; renumber in page order so ids are unique
	// and tie-breaking stays deterministic document-wide.
	for i := range candidates {
		candidates[i].ID = i + 1
	}

	if len(candidates) == 0 {
		warnings = append(warnings, domain.Warning{
			Category: domain.WarnDetectionEmpty,
			Message:  "no table candidates detected in document",
		})
	}

	if flagged := s.deduper.FlagBoilerplate(grays, candidates); flagged > 0 {
		warnings = append(warnings, domain.Warning{
			Category: domain.WarnBoilerplate,
			Message:  fmt.Sprintf("%d candidates excluded as repeated header/footer content", flagged),
		})
	}
	s.deduper.AssignGroups(candidates)

	target, targetWarnings := s.resolveTarget(req, results, pages, candidates)
	warnings = append(warnings, targetWarnings...)

	recon, reconWarnings := s.reconciler.Reconcile(ctx, candidates, target)
	warnings = append(warnings, reconWarnings...)

	return buildResult(candidates, recon, target, warnings), nil
}

// processPages runs the per-page pipeline under a bounded semaphore pool
// and returns results indexed by page.
func (s *ExtractionService) processPages(ctx context.Context, pages []image.Image, wantFootTokens bool) []pageResult {
	results := make([]pageResult, len(pages))
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for p := range pages {
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			defer func() { <-sem }() // release
			results[p] = s.processPage(ctx, pages[p], p, wantFootTokens)
		}(p)
	}
	wg.Wait()
	return results
}

func (s *ExtractionService) processPage(ctx context.Context, img image.Image, page int, wantFootTokens bool) pageResult {
	gray := s.pre.Run(img)
	res := pageResult{gray: gray}

	asm := assemble.New(assemble.DefaultConfig())
	for _, region := range s.detector.Detect(gray, page) {
		cands, warn := s.extractRegion(ctx, gray, &region, asm)
		if warn != nil {
			res.warnings = append(res.warnings, *warn)
			continue
		}
		res.candidates = append(res.candidates, asm.MergeContinuations(cands)...)
	}

	if wantFootTokens {
		tokens, err := s.footTokens(ctx, gray)
		if err != nil {
			log.Printf("extraction: page %d total scan failed: %v", page, err)
			res.warnings = append(res.warnings, domain.Warning{
				Category: domain.WarnOCRError,
				Message:  fmt.Sprintf("page %d total scan failed", page),
			})
		}
		res.footTokens = tokens
	}
	return res
}

// extractRegion segments one table region, runs OCR over its crop, assigns
// tokens to cells by their center point, and assembles candidates.
func (s *ExtractionService) extractRegion(ctx context.Context, gray *image.Gray, region *domain.Region, asm *assemble.Assembler) ([]domain.Candidate, *domain.Warning) {
	rows, cols := s.segmenter.Segment(region)

	crop := gray.SubImage(region.Bounds)
	tokens, err := s.engine.Recognize(ctx, crop)
	if err != nil {
		log.Printf("extraction: page %d region ocr failed: %v", region.Page, err)
		return nil, &domain.Warning{
			Category: domain.WarnOCRError,
			Message:  fmt.Sprintf("page %d region ocr failed", region.Page),
		}
	}

	cells := buildCells(region, rows, cols, tokens)
	return asm.FromCells(cells, len(rows), len(cols), region.Page), nil
}

// buildCells materializes the row×column grid in page coordinates and bins
// region-relative tokens into cells by token center.
func buildCells(region *domain.Region, rows, cols []domain.Band, tokens []domain.Token) []domain.Cell {
	origin := region.Bounds.Min
	cells := make([]domain.Cell, 0, len(rows)*len(cols))
	index := make(map[[2]int]int, len(rows)*len(cols))
	for r, rb := range rows {
		for c, cb := range cols {
			index[[2]int{r, c}] = len(cells)
			cells = append(cells, domain.Cell{
				Row: r,
				Col: c,
				Bounds: image.Rect(
					origin.X+cb.Start, origin.Y+rb.Start,
					origin.X+cb.End, origin.Y+rb.End,
				),
			})
		}
	}

	for _, t := range tokens {
		// Token boxes are relative to the region crop.
		box := t.Box.Add(origin)
		cx := (box.Min.X + box.Max.X) / 2
		cy := (box.Min.Y + box.Max.Y) / 2
		r := bandIndex(rows, cy-origin.Y)
		c := bandIndex(cols, cx-origin.X)
		if r < 0 || c < 0 {
			continue
		}
		t.Box = box
		i := index[[2]int{r, c}]
		cells[i].Tokens = append(cells[i].Tokens, t)
	}

	kept := cells[:0]
	for _, cell := range cells {
		if len(cell.Tokens) > 0 {
			kept = append(kept, cell)
		}
	}
	return kept
}

func bandIndex(bands []domain.Band, v int) int {
	for i, b := range bands {
		if v >= b.Start && v < b.End {
			return i
		}
	}
	return -1
}

// footTokens recognizes the bottom 40% of a page, translating token boxes
// back to page coordinates for total-line reconstruction.
func (s *ExtractionService) footTokens(ctx context.Context, gray *image.Gray) ([]domain.Token, error) {
	b := gray.Bounds()
	top := b.Min.Y + int(float64(b.Dy())*0.6)
	strip := gray.SubImage(image.Rect(b.Min.X, top, b.Max.X, b.Max.Y))
	tokens, err := s.engine.Recognize(ctx, strip)
	if err != nil {
		return nil, err
	}
	offset := image.Pt(b.Min.X, top)
	for i := range tokens {
		tokens[i].Box = tokens[i].Box.Add(offset)
	}
	return tokens, nil
}

// resolveTarget picks the reconciliation target: the request override wins;
// otherwise the grand total is read from page footers. Either way the
// target is sanity-checked against the candidate sum and dropped when it
// disagrees by more than half.
func (s *ExtractionService) resolveTarget(req ExtractRequest, results []pageResult, pages []image.Image, candidates []domain.Candidate) (*float64, []domain.Warning) {
	target := req.ReportedTotal
	if target == nil {
		tokensByPage := make([][]domain.Token, len(results))
		heights := make([]int, len(results))
		for p := range results {
			tokensByPage[p] = results[p].footTokens
			heights[p] = pages[p].Bounds().Dy()
		}
		target = reconcile.FindReportedTotal(tokensByPage, heights, assemble.ParseAmount)
	}
	if target == nil {
		return nil, nil
	}

	var sum float64
	for _, c := range candidates {
		if c.Amount != nil && !c.Boilerplate {
			sum += *c.Amount
		}
	}
	if *target != 0 && math.Abs(sum-*target) > 0.5*math.Abs(*target) {
		return nil, []domain.Warning{{
			Category: domain.WarnTargetIgnored,
			Message:  fmt.Sprintf("reported total %.2f disagrees with candidate sum %.2f by more than half, ignoring", *target, sum),
		}}
	}
	return target, nil
}

// buildResult shapes the response payload: selected candidates grouped by
// page, in page then id order.
func buildResult(candidates []domain.Candidate, recon domain.ReconcileResult, target *float64, warnings []domain.Warning) *domain.ExtractionResult {
	selected := make(map[int]bool, len(recon.SelectedIDs))
	for _, id := range recon.SelectedIDs {
		selected[id] = true
	}

	byPage := make(map[int][]domain.LineItem)
	for _, c := range candidates {
		if !selected[c.ID] {
			continue
		}
		byPage[c.Page] = append(byPage[c.Page], domain.LineItem{
			ID:          c.ID,
			Description: c.Description,
			Amount:      c.Amount,
			Confidence:  c.Confidence,
		})
	}

	pageNos := make([]int, 0, len(byPage))
	for p := range byPage {
		pageNos = append(pageNos, p)
	}
	sort.Ints(pageNos)

	result := &domain.ExtractionResult{
		TotalItemCount:   len(recon.SelectedIDs),
		ReconciledAmount: recon.SelectedTotal,
		ReportedTotal:    target,
		Reconciliation:   recon,
		Warnings:         warnings,
	}
	for _, p := range pageNos {
		items := byPage[p]
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
		result.PagewiseLineItems = append(result.PagewiseLineItems, domain.PageItems{
			PageNo:    p + 1,
			BillItems: items,
		})
	}
	return result
}
