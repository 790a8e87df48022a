package main

import (
	"fmt"
	"log"
	"os/exec"
	"time"

	"billscan/internal/config"
	"billscan/internal/dedupe"
	"billscan/internal/fetch"
	"billscan/internal/grid"
	"billscan/internal/handler"
	"billscan/internal/ocr"
	"billscan/internal/port"
	"billscan/internal/preprocess"
	"billscan/internal/reconcile"
	"billscan/internal/render"
	"billscan/internal/router"
	"billscan/internal/service"
	"billscan/internal/solver/cbc"
	s3storage "billscan/internal/storage/s3"
	"billscan/internal/tabledetect"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize fetchers
	maxBytes := cfg.Fetch.MaxDocSizeMB << 20
	httpFetcher := fetch.NewHTTPFetcher(fetch.Config{
		Timeout:          time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxDocumentBytes: maxBytes,
	})
	byScheme := map[string]port.DocumentFetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}
	if cfg.S3.Enabled {
		s3Fetcher, err := s3storage.NewFetcher(s3storage.Config{
			Region:           cfg.S3.Region,
			Endpoint:         cfg.S3.Endpoint,
			AccessKey:        cfg.S3.AccessKey,
			SecretKey:        cfg.S3.SecretKey,
			MaxDocumentBytes: maxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize S3 fetcher: %w", err)
		}
		byScheme["s3"] = s3Fetcher
	}
	fetcher := fetch.NewMultiFetcher(byScheme)

	// Initialize renderer and OCR
	renderer := render.New(render.Config{
		Binary:   cfg.Render.Binary,
		MaxPages: cfg.Render.MaxPages,
	})
	engine, err := ocr.New(ocr.Config{
		Languages:     cfg.OCR.Languages,
		MinConfidence: cfg.OCR.MinConfidence,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OCR engine: %w", err)
	}

	// Initialize pipeline stages
	pre := preprocess.New(preprocess.Config{
		Aggressive:     cfg.Pipeline.Aggressive,
		MaxSkewDegrees: preprocess.DefaultConfig().MaxSkewDegrees,
		MinSkewDegrees: preprocess.DefaultConfig().MinSkewDegrees,
	})
	detectorCfg := tabledetect.DefaultConfig()
	detectorCfg.MinTableArea = cfg.Pipeline.MinTableArea
	detector := tabledetect.New(detectorCfg)
	segmenterCfg := grid.DefaultConfig()
	segmenterCfg.MinRowHeight = cfg.Pipeline.MinRowHeight
	segmenterCfg.MinColWidth = cfg.Pipeline.MinColWidth
	segmenter := grid.New(segmenterCfg)
	deduperCfg := dedupe.DefaultConfig()
	deduperCfg.SimilarityThreshold = cfg.Pipeline.SimilarityThreshold
	deduperCfg.StripFraction = cfg.Pipeline.StripFraction
	deduperCfg.CorrelationThreshold = cfg.Pipeline.CorrelationThreshold
	deduper := dedupe.New(deduperCfg)

	// Initialize solver and reconciler
	solver := cbc.New(cfg.Solver.Binary)
	reconciler := reconcile.New(reconcile.Config{
		DeviationPenalty: cfg.Reconcile.DeviationPenalty,
		SolveTimeout:     time.Duration(cfg.Reconcile.SolveTimeoutSecs) * time.Second,
	}, solver)

	// Initialize services
	extractionSvc := service.NewExtractionService(
		fetcher, renderer, engine,
		pre, detector, segmenter, deduper, reconciler,
		service.ExtractionConfig{
			DPI:             cfg.Render.DPI,
			Concurrency:     cfg.Pipeline.Concurrency,
			DocumentTimeout: time.Duration(cfg.Pipeline.DocumentTimeoutSecs) * time.Second,
		},
	)

	// Initialize handlers
	extractH := handler.NewExtractHandler(extractionSvc)
	healthH := handler.NewHealthHandler(
		handler.ReadinessProbe{Name: "renderer", Available: binaryProbe(cfg.Render.Binary)},
		handler.ReadinessProbe{Name: "solver", Available: solver.Available},
	)

	// Setup router
	r := router.Setup(extractH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func binaryProbe(name string) func() bool {
	return func() bool {
		_, err := exec.LookPath(name)
		return err == nil
	}
}
