package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ledgerline/billpipe/internal/async"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/export"
	"github.com/ledgerline/billpipe/internal/extract"
	"github.com/ledgerline/billpipe/internal/ledger"
	"github.com/ledgerline/billpipe/internal/llm"
	"github.com/ledgerline/billpipe/internal/llm/openai"
	"github.com/ledgerline/billpipe/internal/normalize"
	"github.com/ledgerline/billpipe/internal/ocr"
	"github.com/ledgerline/billpipe/internal/pipeline"
	repo "github.com/ledgerline/billpipe/internal/repository"
	"github.com/ledgerline/billpipe/internal/schedule"
	srv "github.com/ledgerline/billpipe/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := repo.Migrate(ctx, pool, logger); err != nil {
		os.Exit(1)
	}

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
	ocrAdapter := extract.NewOCRAdapter(extractor, logger)

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
	} else {
		logger.Warn("OPENAI_API_KEY not set; running with heuristic extraction only")
	}

	orch := extract.NewOrchestrator(model, extract.OrchestratorConfig{
		MaxCallsPerMin: cfg.LLM.MaxCallsPerMin,
		MaxModelChars:  cfg.LLM.MaxModelChars,
	}, logger)

	poster := ledger.NewPoster(accountsRepo, journalRepo, logger)
	processor := pipeline.NewProcessor(
		ocrAdapter,
		orch,
		normalize.NewNormalizer(logger),
		schedule.NewGenerator(logger),
		poster,
		docsRepo, billsRepo, vendorsRepo, auditRepo,
		logger,
	)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	sweeper := pipeline.NewSweeper(docsRepo, queue, cfg.Pipeline.StaleLease, cfg.Pipeline.SweepInterval, logger)
	go sweeper.Run(ctx)

	exporter := export.NewService(billsRepo, vendorsRepo, logger)
	api := srv.New(docsRepo, billsRepo, processor, queue, exporter, pool, cfg.Server.UploadDir, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("billpipe listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)
}
