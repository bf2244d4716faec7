package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Options configures one page capture.
type Options struct {
	TargetURL     string
	EntrySelector string
	Headless      bool
	ProxyURL      string
	UserAgents    []string
	WaitTimeout   time.Duration
	ExpandTimeout time.Duration
}

// Capture is the rendered result of one page visit. Screenshot may be nil
// when capturing it failed; the HTML is always present on success.
type Capture struct {
	HTML       string
	Screenshot []byte
	EntryCount int
	FetchedAt  time.Time
}

// Interaction pauses, matching the page's human traffic profile.
const (
	initialDelayMin = 3 * time.Second
	initialDelayMax = 8 * time.Second
	settleDelayMin  = 4 * time.Second
	settleDelayMax  = 7 * time.Second
	scrollPauseMin  = 500 * time.Millisecond
	scrollPauseMax  = 1500 * time.Millisecond
	clickPauseMin   = 300 * time.Millisecond
	clickPauseMax   = 700 * time.Millisecond

	expandPollInterval = 250 * time.Millisecond
	screenshotQuality  = 90
)

// defaultUserAgents is rotated per run when Options.UserAgents is empty.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/118.0",
}

// launchFlags are the fixed Chrome switches for unattended scraping.
// Appending them after chromedp's defaults overrides the enable-automation
// switch those defaults carry.
var launchFlags = map[string]interface{}{
	"disable-gpu":            true,
	"no-sandbox":             true,
	"disable-dev-shm-usage":  true,
	"disable-blink-features": "AutomationControlled",
	"enable-automation":      false,
}

const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// CapturePage renders the target page, expands every leaderboard entry so
// its sale lines are in the DOM, and returns the final HTML plus a
// full-page screenshot. Every browser resource is released before
// returning, on error paths included.
func CapturePage(ctx context.Context, opts Options) (*Capture, error) {
	userAgent := pickUserAgent(opts.UserAgents)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts, userAgent)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	log.Debug().
		Str("url", opts.TargetURL).
		Str("user_agent", userAgent).
		Bool("headless", opts.Headless).
		Msg("Launching browser")

	// Idle before first contact, like a person opening the page
	sleepRandom(initialDelayMin, initialDelayMax)

	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(opts.TargetURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.TargetURL, err)
	}

	if err := waitForEntries(browserCtx, opts); err != nil {
		return nil, err
	}

	settleAndScroll(browserCtx)

	count, err := entryCount(browserCtx, opts.EntrySelector)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	log.Info().Int("entries", count).Msg("Page rendered")

	expandEntries(browserCtx, opts, count)

	capture := &Capture{EntryCount: count, FetchedAt: time.Now()}
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &capture.HTML, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to capture page HTML: %w", err)
	}

	// A capture without a screenshot is still usable; the upload is skipped
	if err := chromedp.Run(browserCtx, chromedp.FullScreenshot(&capture.Screenshot, screenshotQuality)); err != nil {
		log.Warn().Err(err).Msg("Failed to capture screenshot")
		capture.Screenshot = nil
	}

	return capture, nil
}

// waitForEntries blocks until the entry selector renders, bounded by the
// configured wait timeout.
func waitForEntries(ctx context.Context, opts Options) error {
	waitCtx, cancel := context.WithTimeout(ctx, opts.WaitTimeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(opts.EntrySelector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed waiting for %q to render: %w", opts.EntrySelector, err)
	}
	return nil
}

// settleAndScroll idles on the freshly rendered page and performs a few
// short scrolls. Scroll trouble is not worth failing the run over.
func settleAndScroll(ctx context.Context) {
	sleepRandom(settleDelayMin, settleDelayMax)

	scrolls := 1 + rand.Intn(3)
	for i := 0; i < scrolls; i++ {
		distance := 200 + rand.Intn(301)
		script := fmt.Sprintf("window.scrollBy(0, %d);", distance)
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, nil)); err != nil {
			log.Debug().Err(err).Msg("Scroll failed")
			return
		}
		sleepRandom(scrollPauseMin, scrollPauseMax)
	}
}

// allocatorOptions builds the Chrome launch options for unattended scraping.
func allocatorOptions(opts Options, userAgent string) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	for name, value := range launchFlags {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	if opts.ProxyURL != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyURL))
	}
	return allocOpts
}

// pickUserAgent rotates through the configured or default agent list.
func pickUserAgent(agents []string) string {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return agents[rand.Intn(len(agents))]
}

func sleepRandom(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}
