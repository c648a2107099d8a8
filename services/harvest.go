package services

import (
	"context"
	"io"
	"strings"
	"time"

	"offer-harvester/browser"
	"offer-harvester/config"
	"offer-harvester/models"
	"offer-harvester/observability"
	"offer-harvester/scraper"
	"offer-harvester/scraper/clickbank"
	"offer-harvester/scraper/hotmart"
	"offer-harvester/scraper/trends"
	"offer-harvester/storage"
	"offer-harvester/utils"
)

// SinkOpener connects the optional database sink for one run.
type SinkOpener func(ctx context.Context) (storage.RunSink, error)

// HarvesterOptions wires a Harvester. Only Config is required; nil fields
// are built from it.
type HarvesterOptions struct {
	Config    *config.Config
	Logger    *utils.Logger
	Selectors *scraper.SelectorConfig
	Sessions  SessionProvider
	Sink      SinkOpener
	Metrics   *observability.Metrics
	// Adapters replaces the adapters built from Config.
	Adapters []scraper.Adapter
	// Summary receives the printed run summary; nil prints nothing.
	Summary io.Writer
}

// Harvester runs a full harvest: session, adapters, cleaning, summary and
// persistence.
type Harvester struct {
	cfg        *config.Config
	logger     *utils.Logger
	selectors  scraper.SelectorConfig
	sessions   SessionProvider
	sink       SinkOpener
	metrics    *observability.Metrics
	summaryOut io.Writer
	adapters   []scraper.Adapter

	aggregator *Aggregator
	cleaner    *Cleaner
	insights   *InsightService
	writer     *storage.FileWriter
}

// NewHarvester builds a Harvester from options.
func NewHarvester(opts HarvesterOptions) (*Harvester, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewLogger()
	}

	writer, err := storage.NewFileWriter(cfg.DataDir, cfg.OutputFormat, logger)
	if err != nil {
		return nil, err
	}

	h := &Harvester{
		cfg:        cfg,
		logger:     logger,
		sessions:   opts.Sessions,
		sink:       opts.Sink,
		metrics:    opts.Metrics,
		summaryOut: opts.Summary,
		adapters:   opts.Adapters,
		aggregator: NewAggregator(logger, cfg.AdapterDelay),
		cleaner:    NewCleaner(logger),
		insights:   NewInsightService(logger),
		writer:     writer,
	}

	switch {
	case opts.Selectors != nil:
		h.selectors = *opts.Selectors
	case cfg.SelectorsConfigPath != "":
		if h.selectors, err = scraper.LoadSelectors(cfg.SelectorsConfigPath); err != nil {
			return nil, err
		}
		logger.Info("[harvest] Selector overrides loaded from %s", cfg.SelectorsConfigPath)
	default:
		h.selectors = scraper.DefaultSelectors()
	}

	if h.sessions == nil {
		h.sessions = browser.NewManager(browser.Options{
			ChromeBin:   cfg.ChromeBin,
			PageTimeout: cfg.PageTimeout,
			MaxRetries:  cfg.MaxRetries,
			Logger:      logger,
		}).Opener(cfg.Headless)
	}
	if h.sink == nil && cfg.PostgresEnabled {
		h.sink = func(ctx context.Context) (storage.RunSink, error) {
			return storage.NewPostgresWriter(ctx, cfg.DSN())
		}
	}
	return h, nil
}

// Adapters builds the source adapters in processing order. Every adapter
// stamps records from the same clock so timestamps never go backwards
// within a run.
func (h *Harvester) Adapters(creds map[models.Source]models.Credentials, clock func() time.Time) []scraper.Adapter {
	return []scraper.Adapter{
		trends.New(trends.Options{
			URL:       h.cfg.TrendsURL,
			AuxURLs:   h.cfg.TrendsAuxURLs,
			MaxRows:   h.cfg.TrendsMaxRows,
			Selectors: h.selectors.Trends,
			Clock:     clock,
			Logger:    h.logger,
		}),
		clickbank.New(clickbank.Options{
			URL:       h.cfg.ClickBankURL,
			MaxRows:   h.cfg.ClickBankMaxRows,
			Selectors: h.selectors.ClickBank,
			Clock:     clock,
			Logger:    h.logger,
		}),
		hotmart.New(hotmart.Options{
			Credentials: creds[models.SourceHotmart],
			LoginURL:    h.cfg.HotmartLoginURL,
			ListingURLs: h.cfg.HotmartListingURLs,
			MaxCards:    h.cfg.HotmartMaxCards,
			Selectors:   h.selectors.Hotmart,
			Clock:       clock,
			Logger:      h.logger,
		}),
	}
}

// Harvest performs one run. It never panics and never returns an error:
// the outcome is always described by the RunResult. The run fails only when
// no browser could be started, or when no record was collected and at
// least one adapter failed. Persistence problems are logged and leave
// OutputFile empty.
func (h *Harvester) Harvest(ctx context.Context, creds map[models.Source]models.Credentials) (result models.RunResult) {
	start := time.Now()
	var run *models.HarvestRun

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("[harvest] Unexpected failure: %v", r)
			result = models.RunResult{Error: "internal error during harvest"}
		}
		h.observe(run, result.Success, time.Since(start))
	}()

	adapters := h.adapters
	if adapters == nil {
		clock := utils.NewMonotonicClock(nil)
		adapters = h.Adapters(creds, clock.Now)
	}

	if h.cfg.ConcurrentAdapters {
		run = h.aggregator.RunConcurrent(ctx, adapters, h.sessions)
	} else {
		page, release, err := h.sessions.Open(ctx)
		if err != nil {
			h.logger.Error("[harvest] %v", err)
			return models.RunResult{Error: err.Error()}
		}
		defer release()
		run = h.aggregator.RunAll(ctx, adapters, page)
	}

	run = h.clean(run)
	result = models.RunResult{RunID: run.ID, RecordsTotal: run.Len()}

	failures := run.Failures()
	if run.Len() == 0 && len(failures) > 0 {
		result.Error = joinErrors(failures)
		h.logger.Error("[harvest] No offers collected: %s", result.Error)
		return result
	}

	result.Success = true
	summary := h.insights.Summarize(run.Records())
	result.Summary = &summary
	if h.summaryOut != nil {
		h.insights.Print(h.summaryOut, summary)
	}

	if run.Len() == 0 {
		h.logger.Warn("[harvest] Run finished without offers; nothing written")
		return result
	}

	if res, err := h.writer.Write(run); err != nil {
		h.logger.Error("[harvest] %v", err)
	} else {
		result.OutputFile = res.TablePath
		result.SidecarFile = res.SidecarPath
	}
	h.writeSink(ctx, run)

	return result
}

func (h *Harvester) clean(run *models.HarvestRun) *models.HarvestRun {
	cleaned := models.NewHarvestRun(run.ID, run.StartedAt)
	cleaned.Append(h.cleaner.Clean(run.Records())...)
	for _, err := range run.Failures() {
		cleaned.RecordFailure(err)
	}
	return cleaned
}

func (h *Harvester) writeSink(ctx context.Context, run *models.HarvestRun) {
	if h.sink == nil {
		return
	}
	sink, err := h.sink(ctx)
	if err != nil {
		h.logger.Error("[harvest] %v", &models.PersistenceError{Target: "postgres", Err: err})
		return
	}
	defer sink.Close()

	if err := sink.WriteRun(ctx, run); err != nil {
		h.logger.Error("[harvest] %v", err)
		return
	}
	h.logger.Info("[harvest] Run %s stored in PostgreSQL (table: offers)", run.ID)
}

func (h *Harvester) observe(run *models.HarvestRun, success bool, took time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveRun(run, success, took)
	if h.cfg.MetricsTextfile == "" {
		return
	}
	if err := h.metrics.WriteTextfile(h.cfg.MetricsTextfile); err != nil {
		h.logger.Warn("[harvest] Metrics textfile not written: %v", err)
	}
}

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
