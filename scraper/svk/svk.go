package svk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"svk-scraper/config"
	"svk-scraper/models"
	"svk-scraper/utils"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	calendarStepDelay = 300 * time.Millisecond
	dateChangePoll    = 500 * time.Millisecond
	screenshotTimeout = 10 * time.Second
)

// Scraper reads the hourly consumption table from the kontrollrummet page.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	throttle *utils.Throttle
	retry    *utils.RetryConfig

	now func() time.Time
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:      cfg,
		logger:   logger,
		throttle: utils.NewThrottle(cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		now: time.Now,
	}
}

// Fetch reads req.Days consecutive dates going backwards. Any day that fails
// fails the whole fetch; partial batches are never returned.
func (s *Scraper) Fetch(ctx context.Context, req models.FetchRequest) ([]*models.RawReading, error) {
	if req.Days < 1 {
		return nil, fmt.Errorf("svk: days must be at least 1, got %d", req.Days)
	}
	s.logger.Info("[svk] Starting fetch: %d day(s), area %s", req.Days, s.cfg.AreaCode)

	browserCtx, cancelBrowser, err := s.startBrowser(ctx)
	if err != nil {
		return nil, err
	}
	defer cancelBrowser()

	tabCtx, cancelTab, err := s.openPage(ctx, browserCtx)
	if err != nil {
		return nil, err
	}
	defer cancelTab()

	if !req.StartDate.IsZero() {
		if err := s.navigateToDate(tabCtx, req.StartDate); err != nil {
			s.captureFailure(tabCtx)
			return nil, fmt.Errorf("svk: navigate to %s: %w", req.StartDate.Format(models.DateLayout), err)
		}
	}

	seen := utils.NewKeySet()
	var all []*models.RawReading

	for day := 1; day <= req.Days; day++ {
		rows, date, err := s.readDay(tabCtx)
		if err != nil {
			s.captureFailure(tabCtx)
			return nil, fmt.Errorf("svk: day %d/%d: %w", day, req.Days, err)
		}
		if !seen.Add(date) {
			return nil, fmt.Errorf("svk: day %d/%d: date %s was already read, navigation stalled", day, req.Days, date)
		}
		all = append(all, rows...)
		s.logger.Info("[svk] Day %d/%d (%s): %d rows, %d total", day, req.Days, date, len(rows), len(all))

		if day == req.Days {
			break
		}
		if err := s.goToPreviousDay(tabCtx, date); err != nil {
			s.captureFailure(tabCtx)
			return nil, fmt.Errorf("svk: leave %s: %w", date, err)
		}
	}

	s.logger.Info("[svk] Fetch complete: %d raw rows over %d dates", len(all), seen.Size())
	return all, nil
}

// startBrowser launches Chrome and returns the browser-level context. The
// returned cancel func also tears down the allocator.
func (s *Scraper) startBrowser(ctx context.Context) (context.Context, context.CancelFunc, error) {
	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[svk] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	// Start the browser outside any step timeout so it outlives them.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("svk: start browser: %w", err)
	}
	return browserCtx, cancel, nil
}

// newTab opens a tab in the running browser. The tab is attached with the
// tab context itself, because chromedp binds the tab's event loop to the
// context of the first Run; a step timeout there would kill the tab.
func newTab(browserCtx context.Context) (context.Context, context.CancelFunc, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("open tab: %w", err)
	}
	return tabCtx, cancel, nil
}

// openPage loads the page in a fresh tab and prepares area and table view.
// Each attempt gets its own tab; the successful one is returned.
func (s *Scraper) openPage(ctx, browserCtx context.Context) (context.Context, context.CancelFunc, error) {
	var (
		tabCtx    context.Context
		cancelTab context.CancelFunc
	)

	err := s.retry.Do(ctx, "svk-page-setup", func() error {
		if cancelTab != nil {
			cancelTab()
		}
		cancelTab = nil

		var err error
		tabCtx, cancelTab, err = newTab(browserCtx)
		if err != nil {
			return err
		}
		if err := s.throttle.Wait(ctx); err != nil {
			return err
		}
		if err := s.setupPage(tabCtx); err != nil {
			s.captureFailure(tabCtx)
			return err
		}
		return nil
	})
	if err != nil {
		if cancelTab != nil {
			cancelTab()
		}
		return nil, nil, fmt.Errorf("svk: page setup: %w", err)
	}
	return tabCtx, cancelTab, nil
}

func (s *Scraper) setupPage(tabCtx context.Context) error {
	ctx, cancel := s.stepContext(tabCtx)
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(s.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.settle()),
	); err != nil {
		return fmt.Errorf("load %s: %w", s.cfg.BaseURL, err)
	}

	var accepted bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(acceptCookiesScript, &accepted)); err != nil {
		return fmt.Errorf("cookie banner: %w", err)
	}
	if accepted {
		s.logger.Debug("[svk] Accepted cookie banner")
		_ = chromedp.Run(ctx, chromedp.Sleep(time.Second))
	}

	var tabClicked bool
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(areaTabScript(s.cfg.AreaLabel), &tabClicked),
	); err != nil {
		return fmt.Errorf("area tab: %w", err)
	}
	if !tabClicked {
		return fmt.Errorf("area tab %q not found", s.cfg.AreaLabel)
	}
	if err := chromedp.Run(ctx, chromedp.Sleep(s.settle())); err != nil {
		return err
	}

	var view string
	if err := chromedp.Run(ctx, chromedp.Evaluate(tableViewScript, &view)); err != nil {
		return fmt.Errorf("table view: %w", err)
	}
	switch view {
	case "clicked":
		s.logger.Debug("[svk] Switched to table view")
	case "already":
		s.logger.Debug("[svk] Table view already active")
	default:
		s.logger.Warn("[svk] No 'Tabell' button found, assuming table view")
	}

	return chromedp.Run(ctx,
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
	)
}

// readDay waits for the table and extracts the rows for the picker's date.
func (s *Scraper) readDay(tabCtx context.Context) ([]*models.RawReading, string, error) {
	ctx, cancel := s.stepContext(tabCtx)
	defer cancel()

	var table pageTable
	if err := chromedp.Run(ctx,
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
		chromedp.Sleep(s.settle()),
		chromedp.Evaluate(readTableScript, &table),
	); err != nil {
		return nil, "", fmt.Errorf("read table: %w", err)
	}

	date, err := s.currentDate(ctx)
	if err != nil {
		return nil, "", err
	}
	if !validPickerDate(date) {
		fallback := s.now().Format(models.DateLayout)
		s.logger.Warn("[svk] Could not read picker date (got %q), using %s", date, fallback)
		date = fallback
	}

	rows, err := mapTable(table, date, s.cfg.AreaCode, s.now())
	if err != nil {
		return nil, date, fmt.Errorf("%s: %w", date, err)
	}
	return rows, date, nil
}

func (s *Scraper) currentDate(ctx context.Context) (string, error) {
	var v string
	if err := chromedp.Run(ctx, chromedp.Evaluate(readDateScript, &v)); err != nil {
		return "", fmt.Errorf("read picker date: %w", err)
	}
	return strings.TrimSpace(v), nil
}

// goToPreviousDay clicks the previous-day arrow and waits until the picker
// shows a different date.
func (s *Scraper) goToPreviousDay(tabCtx context.Context, from string) error {
	if err := s.throttle.Wait(tabCtx); err != nil {
		return err
	}

	ctx, cancel := s.stepContext(tabCtx)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(clickFirstScript(previousDaySelectors...), &clicked),
	); err != nil {
		return fmt.Errorf("previous-day button: %w", err)
	}
	if !clicked {
		return fmt.Errorf("previous-day button not found")
	}

	for {
		if err := chromedp.Run(ctx, chromedp.Sleep(dateChangePoll)); err != nil {
			return fmt.Errorf("date did not change from %s: %w", from, err)
		}
		date, err := s.currentDate(ctx)
		if err != nil {
			return err
		}
		if date != "" && date != from {
			s.logger.Debug("[svk] Navigated %s → %s", from, date)
			return nil
		}
	}
}

// navigateToDate drives the calendar picker to target and verifies it.
func (s *Scraper) navigateToDate(tabCtx context.Context, target time.Time) error {
	want := target.Format(models.DateLayout)
	s.logger.Info("[svk] Navigating to start date %s", want)

	ctx, cancel := s.stepContext(tabCtx)
	defer cancel()

	if err := s.clickOrFail(ctx, "open calendar", openCalendarSelectors...); err != nil {
		return err
	}
	if err := chromedp.Run(ctx, chromedp.Sleep(time.Second)); err != nil {
		return err
	}

	var year, month string
	if err := chromedp.Run(ctx,
		chromedp.WaitVisible(".year-select .current-val", chromedp.ByQuery),
		chromedp.Evaluate(textScript(".year-select .current-val"), &year),
		chromedp.Evaluate(textScript(".month-select .current-val"), &month),
	); err != nil {
		return fmt.Errorf("read calendar view: %w", err)
	}

	yearsBack, monthDelta, err := calendarMoves(year, month, target)
	if err != nil {
		return err
	}
	for i := 0; i < yearsBack; i++ {
		if err := s.clickOrFail(ctx, "previous year", ".year-select button:first-child"); err != nil {
			return err
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(calendarStepDelay)); err != nil {
			return err
		}
	}

	monthButton := ".month-select button:last-child"
	if monthDelta < 0 {
		monthButton = ".month-select button:first-child"
		monthDelta = -monthDelta
	}
	for i := 0; i < monthDelta; i++ {
		if err := s.clickOrFail(ctx, "month step", monthButton); err != nil {
			return err
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(calendarStepDelay)); err != nil {
			return err
		}
	}

	if err := s.clickOrFail(ctx, "day "+want, dayButtonSelector(target)); err != nil {
		return err
	}

	var confirmed bool
	if err := chromedp.Run(ctx,
		chromedp.Sleep(calendarStepDelay),
		chromedp.Evaluate(confirmDateScript, &confirmed),
	); err != nil {
		return fmt.Errorf("confirm date: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("confirm button not found")
	}

	if err := chromedp.Run(ctx, chromedp.Sleep(s.settle())); err != nil {
		return err
	}
	got, err := s.currentDate(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("picker shows %q after navigation", got)
	}
	return nil
}

func (s *Scraper) clickOrFail(ctx context.Context, what string, selectors ...string) error {
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(clickFirstScript(selectors...), &clicked)); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !clicked {
		return fmt.Errorf("%s: no enabled element for %q", what, selectors)
	}
	return nil
}

// captureFailure saves a full-page screenshot of the tab for post-mortem
// inspection. It never fails the caller.
func (s *Scraper) captureFailure(tabCtx context.Context) {
	if !s.cfg.ScreenshotOnError {
		return
	}
	ctx, cancel := context.WithTimeout(tabCtx, screenshotTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		s.logger.Warn("[svk] Could not capture error screenshot: %v", err)
		return
	}
	path := s.cfg.ScreenshotPath()
	if err := saveScreenshot(path, buf); err != nil {
		s.logger.Warn("[svk] %v", err)
		return
	}
	s.logger.Info("[svk] Error screenshot saved to %s", path)
}

func (s *Scraper) stepContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(s.cfg.PageTimeoutSec)*time.Second)
}

func (s *Scraper) settle() time.Duration {
	return time.Duration(s.cfg.SettleMs) * time.Millisecond
}

// findChromeBinary locates Chrome/Chromium. An explicit path wins.
func findChromeBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
