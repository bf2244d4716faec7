package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// expandEntries clicks every leaderboard entry so its sale lines render.
// Entries are visited in shuffled order; an entry that will not expand is
// skipped and the rest are still harvested.
func expandEntries(ctx context.Context, opts Options, count int) {
	for _, i := range rand.Perm(count) {
		if err := expandEntry(ctx, opts, i); err != nil {
			log.Warn().Err(err).Int("entry", i+1).Msg("Skipping entry that did not expand")
		}
	}
}

// expandEntry clicks the i-th entry and waits for its text to grow, which
// is how the page signals the sale details finished rendering.
func expandEntry(ctx context.Context, opts Options, index int) error {
	initial, err := entryTextLength(ctx, opts.EntrySelector, index)
	if err != nil {
		return fmt.Errorf("failed to inspect entry: %w", err)
	}
	if initial < 0 {
		return fmt.Errorf("entry %d no longer present", index)
	}

	sleepRandom(clickPauseMin, clickPauseMax)

	click := fmt.Sprintf(
		`(() => { const el = document.querySelectorAll(%q)[%d]; if (!el) return false; el.scrollIntoView({block: 'center'}); el.click(); return true; })()`,
		opts.EntrySelector, index)
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(click, &clicked)); err != nil {
		return fmt.Errorf("failed to click entry: %w", err)
	}
	if !clicked {
		return fmt.Errorf("entry %d no longer present", index)
	}

	deadline := time.Now().Add(opts.ExpandTimeout)
	for {
		length, err := entryTextLength(ctx, opts.EntrySelector, index)
		if err != nil {
			return fmt.Errorf("failed to re-inspect entry: %w", err)
		}
		if length > initial {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("entry text did not grow within %s", opts.ExpandTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(expandPollInterval):
		}
	}
}

// entryCount returns how many entries the selector currently matches.
func entryCount(ctx context.Context, selector string) (int, error) {
	var count int
	script := fmt.Sprintf("document.querySelectorAll(%q).length", selector)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, err
	}
	return count, nil
}

// entryTextLength returns the rendered text length of the i-th entry, or -1
// when the entry vanished from the DOM.
func entryTextLength(ctx context.Context, selector string, index int) (int, error) {
	var length int
	script := fmt.Sprintf(
		`(() => { const el = document.querySelectorAll(%q)[%d]; return el ? el.innerText.length : -1; })()`,
		selector, index)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &length)); err != nil {
		return 0, err
	}
	return length, nil
}
