// Package refresh re-fetches analytics when the filters change and drives the
// chart registry with the result.
//
// Every refresh takes the next sequence number and cancels the request it
// supersedes, so only the most recently issued request ever reaches the
// charts, whatever order responses arrive in. A failed refresh leaves the
// previous charts untouched and tells the user.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iafilius/JobAnalytics/src/logging"
	"github.com/iafilius/JobAnalytics/src/metrics"
	"github.com/iafilius/JobAnalytics/src/types"
)

var logger = logging.For("refresh")

// NoMatchMessage is shown when a filter combination matches no jobs.
const NoMatchMessage = "No matching jobs found for selected filters."

// DefaultTimeout bounds one refresh when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Outcome is the terminal state of one refresh.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeEmpty   Outcome = "empty"
	OutcomeStale   Outcome = "stale"
	OutcomeFailed  Outcome = "failed"
)

// Fetcher loads the analytics payload for a filter state.
type Fetcher interface {
	Fetch(ctx context.Context, f types.FilterState) (types.Payload, error)
}

// Charts is the part of the chart registry the controller drives.
type Charts interface {
	Bootstrap(p types.Payload) error
	Apply(p types.Payload) error
}

// Spinner is the loading indicator shown while a request is outstanding.
type Spinner interface {
	Show()
	Hide()
}

// Notifier surfaces messages to the user.
type Notifier interface {
	Warn(msg string)
	Fail(msg string)
}

type nopSpinner struct{}

func (nopSpinner) Show() {}
func (nopSpinner) Hide() {}

type nopNotifier struct{}

func (nopNotifier) Warn(string) {}
func (nopNotifier) Fail(string) {}

// Option configures a Controller.
type Option func(*Controller)

// WithSpinner wires the loading indicator.
func WithSpinner(s Spinner) Option {
	return func(c *Controller) {
		if s != nil {
			c.spinner = s
		}
	}
}

// WithNotifier wires user-visible messages.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithMetrics records refresh outcomes and fetch latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBaseContext sets the parent context of asynchronous refreshes.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.base = ctx
		}
	}
}

// Controller serializes filter-driven refreshes onto the chart registry.
type Controller struct {
	fetcher  Fetcher
	charts   Charts
	spinner  Spinner
	notifier Notifier
	metrics  *metrics.Metrics
	timeout  time.Duration
	base     context.Context

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	filters types.FilterState
	last    types.Payload
	hasLast bool

	wg sync.WaitGroup
}

// NewController wires a fetcher to the charts.
func NewController(f Fetcher, charts Charts, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  f,
		charts:   charts,
		spinner:  nopSpinner{},
		notifier: nopNotifier{},
		timeout:  DefaultTimeout,
		base:     context.Background(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Initialize renders the first charts. With a seed (data embedded in the host
// page) no request is made; otherwise the unfiltered payload is fetched.
func (c *Controller) Initialize(ctx context.Context, seed *types.Payload) error {
	var p types.Payload
	if seed != nil {
		p = *seed
	} else {
		c.spinner.Show()
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		var err error
		p, err = c.fetcher.Fetch(reqCtx, types.FilterState{})
		cancel()
		c.spinner.Hide()
		if err != nil {
			c.notifier.Fail(failureMessage(err))
			return fmt.Errorf("initial fetch: %w", err)
		}
	}
	if err := c.charts.Bootstrap(p); err != nil {
		return fmt.Errorf("initial render: %w", err)
	}
	c.mu.Lock()
	c.last, c.hasLast = p, true
	c.mu.Unlock()
	logger.Infof("initial charts rendered skills=%d cities=%d weeks=%d", len(p.TopSkills), len(p.JobsByCity), len(p.JobsByWeek))
	return nil
}

// OnFilterChange starts a full refresh for f in the background. There is no
// debouncing; every change issues a request and only the newest one applies.
func (c *Controller) OnFilterChange(f types.FilterState) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.Refresh(c.base, f)
	}()
}

// OnReset clears both filters and refreshes in the background.
func (c *Controller) OnReset() { c.OnFilterChange(types.FilterState{}) }

// Reset clears both filters and refreshes synchronously.
func (c *Controller) Reset(ctx context.Context) (Outcome, error) {
	return c.Refresh(ctx, types.FilterState{})
}

// Wait blocks until every background refresh has finished.
func (c *Controller) Wait() { c.wg.Wait() }

// Filters returns the filters of the most recently issued request.
func (c *Controller) Filters() types.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Last returns the most recently applied payload.
func (c *Controller) Last() (types.Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// Refresh fetches the payload for f and applies it to the charts, unless a
// newer refresh was issued meanwhile (OutcomeStale). The returned error is
// non-nil only for OutcomeFailed.
func (c *Controller) Refresh(ctx context.Context, f types.FilterState) (Outcome, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	c.cancel = cancel
	c.filters = f
	c.spinner.Show()
	c.mu.Unlock()
	defer cancel()

	c.metrics.FetchStarted()
	start := time.Now()
	p, err := c.fetcher.Fetch(reqCtx, f)
	c.metrics.ObserveFetch(time.Since(start).Seconds())
	c.metrics.FetchDone()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		logger.Debugf("#%d discarded, superseded by #%d", seq, c.seq)
		c.metrics.RecordRefresh(string(OutcomeStale))
		return OutcomeStale, nil
	}
	c.cancel = nil
	c.spinner.Hide()

	if err != nil {
		logger.Errorf("#%d city=%q type=%q failed: %v", seq, f.City, f.Type, err)
		c.notifier.Fail(failureMessage(err))
		c.metrics.RecordRefresh(string(OutcomeFailed))
		return OutcomeFailed, err
	}
	outcome := OutcomeApplied
	if p.Empty() {
		outcome = OutcomeEmpty
		c.notifier.Warn(NoMatchMessage)
	}
	if err := c.charts.Apply(p); err != nil {
		logger.Errorf("#%d apply failed: %v", seq, err)
		c.notifier.Fail(failureMessage(err))
		c.metrics.RecordRefresh(string(OutcomeFailed))
		return OutcomeFailed, fmt.Errorf("apply: %w", err)
	}
	c.last, c.hasLast = p, true
	c.metrics.RecordRefresh(string(outcome))
	logger.Infof("#%d %s city=%q type=%q skills=%d", seq, outcome, f.City, f.Type, len(p.TopSkills))
	return outcome, nil
}

func failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Loading chart data timed out; showing previous results."
	}
	return "Could not load chart data; showing previous results."
}
