// Package charts owns the four live dashboard charts.
//
// A Registry has one slot per chart. Each slot holds at most one live
// Instance: the top-skills and city charts are created once and then have
// their data replaced in place, while the trend and sentiment charts are
// destroyed and recreated on every refresh. Each Instance keeps its
// labels/values and the raster go-chart produced for them, so the exporter
// and the HTTP layer read pixels without re-rendering.
package charts

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/iafilius/JobAnalytics/src/logging"
	"github.com/iafilius/JobAnalytics/src/types"
)

var logger = logging.For("charts")

// Sentinel errors.
var (
	ErrAlreadyRendered = errors.New("initial charts already rendered")
	ErrNotRendered     = errors.New("initial charts not rendered")
	ErrDestroyed       = errors.New("chart instance destroyed")
)

// Slot names one chart position.
type Slot int

const (
	SlotTopSkills Slot = iota
	SlotCity
	SlotTrend
	SlotSentiment
)

// Slots lists every slot in export order.
var Slots = []Slot{SlotTopSkills, SlotCity, SlotTrend, SlotSentiment}

var slotNames = [...]string{"top_skills", "city", "trend", "sentiment"}

var slotTitles = [...]string{"Top Skills", "Jobs by City", "Jobs Per Week", "Sentiment by City"}

func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// Title is the static caption used when the slot is exported.
func (s Slot) Title() string {
	if s < 0 || int(s) >= len(slotTitles) {
		return ""
	}
	return slotTitles[s]
}

// ParseSlot resolves a slot name such as "trend".
func ParseSlot(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

// Kind is the chart type of a slot.
type Kind string

const (
	KindBar   Kind = "bar"
	KindDonut Kind = "doughnut"
	KindLine  Kind = "line"
)

func (s Slot) kind() Kind {
	switch s {
	case SlotCity:
		return KindDonut
	case SlotTrend:
		return KindLine
	default:
		return KindBar
	}
}

// Instance is one live chart. It is only touched under the Registry lock.
type Instance struct {
	id        uint64
	slot      Slot
	revision  int
	labels    []string
	values    []float64
	colors    []string
	tooltips  []string
	surface   image.Image
	createdAt time.Time
	destroyed bool
}

// destroy releases the raster; the instance cannot be drawn again.
func (in *Instance) destroy() {
	in.destroyed = true
	in.surface = nil
}

// ChartState is a read-only copy of one slot.
type ChartState struct {
	Slot     string    `json:"slot"`
	Title    string    `json:"title"`
	Kind     Kind      `json:"kind"`
	ID       uint64    `json:"id"`
	Revision int       `json:"revision"`
	Labels   []string  `json:"labels"`
	Values   []float64 `json:"values"`
	Colors   []string  `json:"colors,omitempty"`
	Tooltips []string  `json:"tooltips,omitempty"`
	Live     bool      `json:"live"`
	Created  time.Time `json:"created"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithSize sets the pixel size of every chart surface.
func WithSize(w, h int) Option {
	return func(r *Registry) {
		if w > 0 && h > 0 {
			r.width, r.height = w, h
		}
	}
}

// Default chart surface size.
const (
	DefaultWidth  = 600
	DefaultHeight = 400
)

// Registry holds the chart slots. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	width        int
	height       int
	slots        [4]*Instance
	nextID       uint64
	bootstrapped bool
	destroyed    int
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{width: DefaultWidth, height: DefaultHeight}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Size returns the surface size of each chart.
func (r *Registry) Size() (int, int) { return r.width, r.height }

// RenderInitial creates the top-skills and city charts. It runs once.
func (r *Registry) RenderInitial(topSkills, cityData types.ChartDataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bootstrapped {
		return ErrAlreadyRendered
	}
	r.slots[SlotTopSkills] = r.create(SlotTopSkills, topSkills.Labels(), topSkills.Values(), nil, nil)
	r.slots[SlotCity] = r.create(SlotCity, cityData.Labels(), cityData.Values(), nil, nil)
	r.bootstrapped = true
	logger.Debugf("initial charts rendered skills=%d cities=%d", len(topSkills), len(cityData))
	return nil
}

// RenderTrend replaces the trend chart. The old instance is destroyed before the
// new one is created, so exactly one is live afterwards.
func (r *Registry) RenderTrend(series types.TimeSeries) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderTrendLocked(series)
}

func (r *Registry) renderTrendLocked(series types.TimeSeries) {
	r.release(SlotTrend)
	r.slots[SlotTrend] = r.create(SlotTrend, series.Labels(), series.Values(), nil, nil)
}

// RenderSentiment replaces the sentiment chart, colouring each bar by polarity.
func (r *Registry) RenderSentiment(series types.SentimentSeries) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderSentimentLocked(series)
}

func (r *Registry) renderSentimentLocked(series types.SentimentSeries) {
	r.release(SlotSentiment)
	values := series.Values()
	colors := make([]string, len(values))
	tips := make([]string, len(values))
	for i, v := range values {
		colors[i] = SentimentColor(v)
		tips[i] = SentimentTooltip(v)
	}
	r.slots[SlotSentiment] = r.create(SlotSentiment, series.Labels(), values, colors, tips)
}

// Update swaps the data of the top-skills and city charts in place and redraws
// them. The instances keep their identity.
func (r *Registry) Update(topSkills, cityData types.ChartDataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(topSkills, cityData)
}

func (r *Registry) updateLocked(topSkills, cityData types.ChartDataset) error {
	if !r.bootstrapped {
		return ErrNotRendered
	}
	for _, u := range []struct {
		slot Slot
		data types.ChartDataset
	}{{SlotTopSkills, topSkills}, {SlotCity, cityData}} {
		in := r.slots[u.slot]
		if in == nil || in.destroyed {
			return fmt.Errorf("%s: %w", u.slot, ErrDestroyed)
		}
		in.labels = u.data.Labels()
		in.values = u.data.Values()
		in.revision++
		in.surface = r.draw(in)
	}
	return nil
}

// Apply updates all four charts from one payload as a single step, so readers
// never see a mix of old and new data.
func (r *Registry) Apply(p types.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateLocked(p.TopSkills, p.JobsByCity); err != nil {
		return err
	}
	r.renderTrendLocked(p.JobsByWeek)
	r.renderSentimentLocked(p.SentimentByCity)
	return nil
}

// Bootstrap is what the page does on load: initial charts plus the first trend
// and sentiment charts.
func (r *Registry) Bootstrap(p types.Payload) error {
	if err := r.RenderInitial(p.TopSkills, p.JobsByCity); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderTrendLocked(p.JobsByWeek)
	r.renderSentimentLocked(p.SentimentByCity)
	return nil
}

// Bootstrapped reports whether RenderInitial has run.
func (r *Registry) Bootstrapped() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bootstrapped
}

// Live counts live instances across all slots.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, in := range r.slots {
		if in != nil && !in.destroyed {
			n++
		}
	}
	return n
}

// Destroyed counts instances released by recreation since the registry was built.
func (r *Registry) Destroyed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.destroyed
}

// Snapshot copies the state of slot s. ok is false when the slot is empty.
func (r *Registry) Snapshot(s Slot) (ChartState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s < 0 || int(s) >= len(r.slots) {
		return ChartState{}, false
	}
	in := r.slots[s]
	if in == nil {
		return ChartState{}, false
	}
	return ChartState{
		Slot:     s.String(),
		Title:    s.Title(),
		Kind:     s.kind(),
		ID:       in.id,
		Revision: in.revision,
		Labels:   append([]string(nil), in.labels...),
		Values:   append([]float64(nil), in.values...),
		Colors:   append([]string(nil), in.colors...),
		Tooltips: append([]string(nil), in.tooltips...),
		Live:     !in.destroyed,
		Created:  in.createdAt,
	}, true
}

// Snapshots returns the state of every non-empty slot in export order.
func (r *Registry) Snapshots() []ChartState {
	out := make([]ChartState, 0, len(Slots))
	for _, s := range Slots {
		if st, ok := r.Snapshot(s); ok {
			out = append(out, st)
		}
	}
	return out
}

// Surface returns the rendered raster of slot s, or nil when nothing is live.
// Surfaces are never mutated after creation, so callers may keep them.
func (r *Registry) Surface(s Slot) image.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s < 0 || int(s) >= len(r.slots) {
		return nil
	}
	in := r.slots[s]
	if in == nil || in.destroyed {
		return nil
	}
	return in.surface
}

// create builds and draws a new instance. Callers hold r.mu.
func (r *Registry) create(s Slot, labels []string, values []float64, colors, tips []string) *Instance {
	r.nextID++
	in := &Instance{
		id:        r.nextID,
		slot:      s,
		labels:    labels,
		values:    values,
		colors:    colors,
		tooltips:  tips,
		createdAt: time.Now(),
	}
	in.surface = r.draw(in)
	return in
}

// release destroys the live instance in slot s, if any. Callers hold r.mu.
func (r *Registry) release(s Slot) {
	if in := r.slots[s]; in != nil && !in.destroyed {
		in.destroy()
		r.destroyed++
	}
	r.slots[s] = nil
}

// draw rasterizes an instance; failures degrade to a blank surface.
func (r *Registry) draw(in *Instance) image.Image {
	defer logger.TimeTrack(time.Now(), "draw "+in.slot.String())
	if len(in.values) == 0 {
		return blank(r.width, r.height)
	}
	var c renderable
	switch in.slot {
	case SlotTopSkills:
		c = buildTopSkills(in.labels, in.values, r.width, r.height)
	case SlotCity:
		c = buildCity(in.labels, in.values, r.width, r.height)
	case SlotTrend:
		c = buildTrend(in.labels, in.values, r.width, r.height)
	case SlotSentiment:
		c = buildSentiment(in.labels, in.values, in.colors, r.width, r.height)
	default:
		return blank(r.width, r.height)
	}
	img, err := rasterize(c)
	if err != nil {
		logger.Warnf("%s chart render error: %v; showing blank fallback", in.slot, err)
		return blank(r.width, r.height)
	}
	if in.slot == SlotCity {
		img = drawLegend(img, in.labels)
	}
	return img
}
