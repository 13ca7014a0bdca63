package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"svk-scraper/metrics"
	"svk-scraper/models"
	"svk-scraper/services"
	"svk-scraper/storage"
	"svk-scraper/utils"
)

// Fetcher reads raw table rows from the upstream page.
type Fetcher interface {
	Fetch(ctx context.Context, req models.FetchRequest) ([]*models.RawReading, error)
}

// Master is the authoritative table: loaded at the start of a run and
// atomically replaced at the end.
type Master interface {
	storage.ReadingWriter
	Load() ([]*models.Reading, error)
}

// RunRecorder keeps an audit row per successful run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.RunStats) error
}

// Options wires a Runner. Mirrors, Recorder, Metrics and MetricsPath are optional.
type Options struct {
	Fetcher     Fetcher
	Master      Master
	Raw         storage.RawReadingWriter
	Mirrors     []storage.ReadingWriter
	Recorder    RunRecorder
	SummaryPath string
	Area        string

	AutoAdjustDays bool
	MaxDays        int

	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *utils.Logger
}

// Request is one run's input.
type Request struct {
	Days      int
	StartDate time.Time
}

// Result is what a finished run produced.
type Result struct {
	Stats      *models.RunStats
	MasterRows int
	Summary    *models.SummaryReport
}

// Runner executes fetch → clean → merge → write.
type Runner struct {
	opts    Options
	logger  *utils.Logger
	cleaner *services.Cleaner
	merger  *services.Merger
	summary *services.SummaryService

	now   func() time.Time
	newID func() string
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Runner{
		opts:    opts,
		logger:  logger,
		cleaner: services.NewCleaner(logger),
		merger:  services.NewMerger(logger),
		summary: services.NewSummaryService(logger, opts.Area),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run performs one batch. Nothing is written unless fetch and merge both
// succeed. The returned error is a *StageError.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	stats := &models.RunStats{RunID: r.newID(), StartedAt: r.now()}
	log := r.logger.With("run_id", stats.RunID)

	res, err := r.run(ctx, req, stats, log)

	result := "success"
	masterRows := 0
	if err != nil {
		stage, _ := StageOf(err)
		result = string(stage)
		log.Error("[pipeline] Run failed: %v", err)
	} else {
		masterRows = res.MasterRows
		log.Info("[pipeline] Run complete: %d fetched, %d added, %d updated, %d unchanged, master now %d rows",
			stats.Fetched, stats.Added, stats.Updated, stats.Unchanged, masterRows)
	}
	r.observe(result, stats, masterRows, log)
	return res, err
}

func (r *Runner) run(ctx context.Context, req Request, stats *models.RunStats, log *utils.Logger) (*Result, error) {
	existing, err := r.opts.Master.Load()
	if err != nil {
		return nil, stageErr(StageMerge, fmt.Errorf("load master table: %w", err))
	}
	log.Info("[pipeline] Master table has %d rows", len(existing))

	days := req.Days
	if req.StartDate.IsZero() && r.opts.AutoAdjustDays {
		days = services.PlanDays(existing, req.Days, r.opts.MaxDays, stats.StartedAt)
		if days != req.Days {
			log.Info("[pipeline] Adjusted scrape window from %d to %d days", req.Days, days)
		}
	}

	raw, err := r.opts.Fetcher.Fetch(ctx, models.FetchRequest{Days: days, StartDate: req.StartDate})
	if err != nil {
		return nil, stageErr(StageFetch, err)
	}
	stats.Fetched = len(raw)

	cleaned := r.cleaner.Clean(raw)
	stats.Dropped = cleaned.Dropped
	stats.Coerced = cleaned.Coerced

	merged := r.merger.Merge(existing, cleaned.Readings)
	stats.Added = merged.Added
	stats.Updated = merged.Updated
	stats.Unchanged = merged.Unchanged

	report, err := r.write(ctx, raw, merged.Readings, stats, log)
	if err != nil {
		return nil, stageErr(StageWrite, err)
	}
	return &Result{Stats: stats, MasterRows: len(merged.Readings), Summary: report}, nil
}

// write persists the raw snapshot, then the master table, then everything
// derived from it. Failures after the master commit are collected so one
// broken mirror does not hide another.
func (r *Runner) write(ctx context.Context, raw []*models.RawReading, table []*models.Reading,
	stats *models.RunStats, log *utils.Logger) (*models.SummaryReport, error) {

	rawPath, err := r.opts.Raw.WriteRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("raw snapshot: %w", err)
	}
	stats.RawFile = rawPath
	log.Info("[pipeline] Raw snapshot saved to %s (%d rows)", rawPath, len(raw))

	if err := r.opts.Master.Write(ctx, table); err != nil {
		return nil, fmt.Errorf("%s: %w", r.opts.Master.Name(), err)
	}
	log.Info("[pipeline] Master table written (%d rows)", len(table))

	var errs *multierror.Error
	for _, m := range r.opts.Mirrors {
		if err := m.Write(ctx, table); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", m.Name(), err))
			continue
		}
		log.Debug("[pipeline] Mirror %s updated", m.Name())
	}

	report := r.summary.Generate(table, stats, r.now())
	if r.opts.SummaryPath != "" {
		err := storage.WriteFileAtomic(r.opts.SummaryPath, func(w io.Writer) error {
			return r.summary.Render(w, report)
		})
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("summary: %w", err))
		}
	}

	if r.opts.Recorder != nil {
		if err := r.opts.Recorder.RecordRun(ctx, stats); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return report, errs.ErrorOrNil()
}

func (r *Runner) observe(result string, stats *models.RunStats, masterRows int, log *utils.Logger) {
	if r.opts.Metrics == nil {
		return
	}
	r.opts.Metrics.ObserveRun(result, stats, masterRows, r.now())
	if err := r.opts.Metrics.WriteTextfile(r.opts.MetricsPath); err != nil {
		log.Warn("[pipeline] %v", err)
	}
}
