package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"offer-harvester/models"
	"offer-harvester/scraper"
	"offer-harvester/utils"
)

// sourceOrder is the fixed processing order: the public aggregator site
// first since it needs no login and is cheapest to fail.
var sourceOrder = map[models.Source]int{
	models.SourceCBEngine:  0,
	models.SourceClickBank: 1,
	models.SourceHotmart:   2,
}

// SessionProvider opens an independent page per adapter in concurrent mode.
// The returned func releases the page.
type SessionProvider interface {
	Open(ctx context.Context) (scraper.Page, func(), error)
}

// Aggregator runs adapters and collects their records into one HarvestRun.
type Aggregator struct {
	logger *utils.Logger
	delay  time.Duration
	now    func() time.Time
}

// NewAggregator creates an Aggregator waiting delay between adapters.
func NewAggregator(logger *utils.Logger, delay time.Duration) *Aggregator {
	return &Aggregator{logger: logger, delay: delay, now: time.Now}
}

// Ordered returns the adapters sorted into processing order. Unknown
// sources go last, keeping their relative order.
func Ordered(adapters []scraper.Adapter) []scraper.Adapter {
	out := append([]scraper.Adapter(nil), adapters...)
	rank := func(a scraper.Adapter) int {
		if r, ok := sourceOrder[a.Source()]; ok {
			return r
		}
		return len(sourceOrder)
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// RunAll runs the adapters one after another on a shared page. An adapter
// error or panic is logged and recorded on the run; whatever records the
// adapter returned are still kept.
func (a *Aggregator) RunAll(ctx context.Context, adapters []scraper.Adapter, page scraper.Page) *models.HarvestRun {
	run := a.newRun()
	ordered := Ordered(adapters)

	for i, ad := range ordered {
		records, err := a.runAdapter(ctx, ad, page)
		a.collect(run, ad.Source(), records, err)

		if i < len(ordered)-1 {
			a.pause(ctx)
		}
	}

	a.logger.Info("[aggregator] Run %s collected %d records (%d adapter failures)",
		run.ID, run.Len(), len(run.Failures()))
	return run
}

// RunConcurrent gives each adapter its own page and runs them in parallel.
// Adapter starts are spaced by the delay, and each adapter waits out the
// delay again before releasing its page. Adapters that need no browser run
// without one. Once every adapter has finished, records are appended in
// HarvestedAt order, ties kept in processing order.
func (a *Aggregator) RunConcurrent(ctx context.Context, adapters []scraper.Adapter, sessions SessionProvider) *models.HarvestRun {
	run := a.newRun()
	ordered := Ordered(adapters)

	results := make([][]models.OfferRecord, len(ordered))
	errs := make([]error, len(ordered))
	pool := utils.NewWorkerPool(len(ordered), int(a.delay/time.Millisecond))

	for i, ad := range ordered {
		pool.Submit(func() {
			if !scraper.NeedsBrowser(ad) {
				results[i], errs[i] = a.runAdapter(ctx, ad, nil)
				return
			}
			page, release, err := sessions.Open(ctx)
			if err != nil {
				errs[i] = &models.AdapterError{Source: ad.Source(), Err: err}
				return
			}
			defer release()

			results[i], errs[i] = a.runAdapter(ctx, ad, page)
			a.pause(ctx)
		})
	}
	pool.Wait()

	for i, ad := range ordered {
		if errs[i] != nil {
			a.collect(run, ad.Source(), nil, errs[i])
		}
	}
	a.collectByTime(run, results)

	a.logger.Info("[aggregator] Run %s collected %d records concurrently (%d adapter failures)",
		run.ID, run.Len(), len(run.Failures()))
	return run
}

// collectByTime merges per-adapter results so HarvestedAt never decreases
// along the run.
func (a *Aggregator) collectByTime(run *models.HarvestRun, results [][]models.OfferRecord) {
	var merged []models.OfferRecord
	for _, records := range results {
		merged = append(merged, records...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].HarvestedAt.Before(merged[j].HarvestedAt)
	})

	added := 0
	for _, r := range merged {
		if run.AppendUnique(r) {
			added++
		}
	}
	if dup := len(merged) - added; dup > 0 {
		a.logger.Debug("[aggregator] %d records with an already harvested title skipped", dup)
	}
}

func (a *Aggregator) newRun() *models.HarvestRun {
	return models.NewHarvestRun(uuid.NewString(), a.now())
}

// runAdapter calls Harvest under a recover guard. Any error comes back as
// an *models.AdapterError.
func (a *Aggregator) runAdapter(ctx context.Context, ad scraper.Adapter, page scraper.Page) (records []models.OfferRecord, err error) {
	src := ad.Source()
	start := time.Now()
	a.logger.Info("[aggregator] Running %s adapter", src)

	defer func() {
		if r := recover(); r != nil {
			err = &models.AdapterError{Source: src, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	records, err = ad.Harvest(ctx, page)
	if err != nil {
		var ae *models.AdapterError
		if !errors.As(err, &ae) {
			err = &models.AdapterError{Source: src, Err: err}
		}
	}
	a.logger.Debug("[aggregator] %s finished in %v", src, time.Since(start).Round(time.Millisecond))
	return records, err
}

func (a *Aggregator) collect(run *models.HarvestRun, src models.Source, records []models.OfferRecord, err error) {
	if err != nil {
		a.logger.Error("[aggregator] %v", err)
		run.RecordFailure(err)
	}

	added := 0
	for _, r := range records {
		if run.AppendUnique(r) {
			added++
		}
	}
	if dup := len(records) - added; dup > 0 {
		a.logger.Debug("[aggregator] %s: %d records with an already harvested title skipped", src, dup)
	}
	a.logger.Info("[aggregator] %s contributed %d records", src, added)
}

func (a *Aggregator) pause(ctx context.Context) {
	if a.delay <= 0 {
		return
	}
	t := time.NewTimer(a.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
