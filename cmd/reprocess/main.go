package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/extract"
	"github.com/ledgerline/billpipe/internal/ledger"
	"github.com/ledgerline/billpipe/internal/llm"
	"github.com/ledgerline/billpipe/internal/llm/openai"
	"github.com/ledgerline/billpipe/internal/normalize"
	"github.com/ledgerline/billpipe/internal/ocr"
	"github.com/ledgerline/billpipe/internal/pipeline"
	repo "github.com/ledgerline/billpipe/internal/repository"
	"github.com/ledgerline/billpipe/internal/schedule"
)

// reprocess runs the pipeline over every document still needing review,
// with a bounded concurrency, then exits. Intended for batch backfills.
func main() {
	_ = godotenv.Load()

	concurrency := flag.Int("concurrency", 4, "documents processed in parallel")
	limit := flag.Int("limit", 0, "max documents to reprocess (0 = all)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	docsRepo := repo.NewDocumentRepository(pool, logger)
	billsRepo := repo.NewBillRepository(pool, logger)
	vendorsRepo := repo.NewVendorRepository(pool, logger)
	accountsRepo := repo.NewAccountRepository(pool, logger)
	journalRepo := repo.NewJournalRepository(pool, logger)
	auditRepo := repo.NewAuditRepository(pool, logger)

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		Magick:        cfg.OCR.Magick,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	var model llm.FieldExtractor
	if cfg.LLM.APIKey != "" {
		model = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			MaxChars:    cfg.LLM.MaxModelChars,
		}, logger)
	}

	orch := extract.NewOrchestrator(model, extract.OrchestratorConfig{
		MaxCallsPerMin: cfg.LLM.MaxCallsPerMin,
		MaxModelChars:  cfg.LLM.MaxModelChars,
	}, logger)

	processor := pipeline.NewProcessor(
		extract.NewOCRAdapter(extractor, logger),
		orch,
		normalize.NewNormalizer(logger),
		schedule.NewGenerator(logger),
		ledger.NewPoster(accountsRepo, journalRepo, logger),
		docsRepo, billsRepo, vendorsRepo, auditRepo,
		logger,
	)

	docs, err := docsRepo.ListNeedingReview(ctx, *limit)
	if err != nil {
		logger.Error("failed to list documents", "error", err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		logger.Info("nothing to reprocess")
		return
	}
	logger.Info("reprocessing documents", "count", len(docs), "concurrency", *concurrency)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)

	var failed atomic.Int64
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			jobCtx, cancel := context.WithTimeout(gctx, cfg.Pipeline.ProcessTimeout)
			defer cancel()
			if err := processor.ProcessDocument(jobCtx, doc.ID); err != nil {
				logger.Error("reprocess failed", "document_id", doc.ID, "error", err)
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("reprocess complete",
		"total", len(docs),
		"failed", failed.Load(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}
