package refresh_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iafilius/JobAnalytics/src/charts"
	"github.com/iafilius/JobAnalytics/src/metrics"
	"github.com/iafilius/JobAnalytics/src/refresh"
	"github.com/iafilius/JobAnalytics/src/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fetchFunc func(ctx context.Context, f types.FilterState) (types.Payload, error)

func (fn fetchFunc) Fetch(ctx context.Context, f types.FilterState) (types.Payload, error) {
	return fn(ctx, f)
}

type recordingSpinner struct {
	mu      sync.Mutex
	visible bool
	shows   int
	hides   int
}

func (s *recordingSpinner) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
	s.shows++
}

func (s *recordingSpinner) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
	s.hides++
}

func (s *recordingSpinner) state() (bool, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible, s.shows, s.hides
}

func payloadFor(city string, skills ...string) types.Payload {
	p := types.Payload{
		JobsByCity:      types.ChartDataset{{Label: city, Value: 3}},
		JobsByWeek:      types.TimeSeries{{Week: "2024-W01", Count: 3}},
		SentimentByCity: types.SentimentSeries{{City: city, Score: 0.4}},
	}
	for i, s := range skills {
		p.TopSkills = append(p.TopSkills, types.Point{Label: s, Value: float64(10 - i)})
	}
	return p
}

func bootstrappedRegistry() *charts.Registry {
	reg := charts.NewRegistry(charts.WithSize(200, 120))
	_ = reg.Bootstrap(payloadFor("Initial", "Go"))
	return reg
}

func topSkillLabels(reg *charts.Registry) []string {
	st, _ := reg.Snapshot(charts.SlotTopSkills)
	return st.Labels
}

func cityLabels(reg *charts.Registry) []string {
	st, _ := reg.Snapshot(charts.SlotCity)
	return st.Labels
}

func TestController(t *testing.T) {
	Convey("Given a controller over a bootstrapped registry", t, func() {
		reg := bootstrappedRegistry()
		status := refresh.NewStatus()
		spinner := &recordingSpinner{}
		m := metrics.New()

		Convey("When a filter change succeeds", func() {
			var seen []types.FilterState
			ctrl := refresh.NewController(fetchFunc(func(_ context.Context, f types.FilterState) (types.Payload, error) {
				seen = append(seen, f)
				return payloadFor("Austin", "Python", "SQL"), nil
			}), reg, refresh.WithNotifier(status), refresh.WithSpinner(spinner), refresh.WithMetrics(m))

			outcome, err := ctrl.Refresh(context.Background(), types.FilterState{City: "Austin"})

			Convey("Then the charts show the new data", func() {
				So(err, ShouldBeNil)
				So(outcome, ShouldEqual, refresh.OutcomeApplied)
				So(seen, ShouldResemble, []types.FilterState{{City: "Austin"}})
				So(topSkillLabels(reg), ShouldResemble, []string{"Python", "SQL"})
				So(cityLabels(reg), ShouldResemble, []string{"Austin"})
				So(ctrl.Filters(), ShouldResemble, types.FilterState{City: "Austin"})
				So(status.Snapshot().Notices, ShouldBeEmpty)
				So(testutil.ToFloat64(m.RefreshOutcomes.WithLabelValues("applied")), ShouldEqual, 1)
			})

			Convey("And the spinner is shown then hidden", func() {
				visible, shows, hides := spinner.state()
				So(visible, ShouldBeFalse)
				So(shows, ShouldEqual, 1)
				So(hides, ShouldEqual, 1)
			})
		})

		Convey("When the server returns no top skills", func() {
			ctrl := refresh.NewController(fetchFunc(func(context.Context, types.FilterState) (types.Payload, error) {
				return types.Payload{}, nil
			}), reg, refresh.WithNotifier(status))

			outcome, err := ctrl.Refresh(context.Background(), types.FilterState{City: "Nowhere"})

			Convey("Then the user is warned and all four charts are cleared", func() {
				So(err, ShouldBeNil)
				So(outcome, ShouldEqual, refresh.OutcomeEmpty)
				notices := status.Snapshot().Notices
				So(notices, ShouldHaveLength, 1)
				So(notices[0].Level, ShouldEqual, "warning")
				So(notices[0].Message, ShouldEqual, refresh.NoMatchMessage)
				for _, s := range charts.Slots {
					st, ok := reg.Snapshot(s)
					So(ok, ShouldBeTrue)
					So(st.Live, ShouldBeTrue)
					So(st.Labels, ShouldBeEmpty)
				}
			})
		})

		Convey("When the fetch fails", func() {
			ctrl := refresh.NewController(fetchFunc(func(context.Context, types.FilterState) (types.Payload, error) {
				return types.Payload{}, errors.New("connection refused")
			}), reg, refresh.WithNotifier(status), refresh.WithSpinner(spinner))
			before, _ := reg.Snapshot(charts.SlotTrend)

			outcome, err := ctrl.Refresh(context.Background(), types.FilterState{Type: "Contract"})

			Convey("Then previous charts are kept and the failure is surfaced", func() {
				So(err, ShouldNotBeNil)
				So(outcome, ShouldEqual, refresh.OutcomeFailed)
				So(topSkillLabels(reg), ShouldResemble, []string{"Go"})
				after, _ := reg.Snapshot(charts.SlotTrend)
				So(after.ID, ShouldEqual, before.ID)
				notices := status.Snapshot().Notices
				So(notices, ShouldHaveLength, 1)
				So(notices[0].Level, ShouldEqual, "error")
				visible, _, _ := spinner.state()
				So(visible, ShouldBeFalse)
			})
		})

		Convey("When the request hangs past the timeout", func() {
			ctrl := refresh.NewController(fetchFunc(func(ctx context.Context, _ types.FilterState) (types.Payload, error) {
				<-ctx.Done()
				return types.Payload{}, ctx.Err()
			}), reg, refresh.WithNotifier(status), refresh.WithTimeout(20*time.Millisecond))

			outcome, err := ctrl.Refresh(context.Background(), types.FilterState{})

			Convey("Then the refresh fails with a timeout notice", func() {
				So(outcome, ShouldEqual, refresh.OutcomeFailed)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(status.Snapshot().Notices[0].Message, ShouldContainSubstring, "timed out")
			})
		})

		Convey("When an older response arrives after a newer one", func() {
			started := make(chan struct{})
			release := make(chan struct{})
			ctrl := refresh.NewController(fetchFunc(func(_ context.Context, f types.FilterState) (types.Payload, error) {
				if f.City == "Austin" {
					close(started)
					<-release // ignores cancellation to arrive late
					return payloadFor("Austin", "Python"), nil
				}
				return payloadFor("Boston", "Java"), nil
			}), reg, refresh.WithSpinner(spinner), refresh.WithMetrics(m))

			slow := make(chan refresh.Outcome, 1)
			go func() {
				o, _ := ctrl.Refresh(context.Background(), types.FilterState{City: "Austin"})
				slow <- o
			}()
			<-started
			fast, fastErr := ctrl.Refresh(context.Background(), types.FilterState{City: "Boston"})
			close(release)
			slowOutcome := <-slow

			Convey("Then the last issued request wins", func() {
				So(fastErr, ShouldBeNil)
				So(fast, ShouldEqual, refresh.OutcomeApplied)
				So(slowOutcome, ShouldEqual, refresh.OutcomeStale)
				So(topSkillLabels(reg), ShouldResemble, []string{"Java"})
				So(cityLabels(reg), ShouldResemble, []string{"Boston"})
				So(ctrl.Filters(), ShouldResemble, types.FilterState{City: "Boston"})
				So(testutil.ToFloat64(m.RefreshOutcomes.WithLabelValues("stale")), ShouldEqual, 1)
				visible, _, _ := spinner.state()
				So(visible, ShouldBeFalse)
			})
		})

		Convey("When a newer request supersedes one in flight", func() {
			started := make(chan struct{})
			var cancelled bool
			ctrl := refresh.NewController(fetchFunc(func(ctx context.Context, f types.FilterState) (types.Payload, error) {
				if f.City == "Austin" {
					close(started)
					<-ctx.Done()
					cancelled = true
					return types.Payload{}, ctx.Err()
				}
				return payloadFor("Boston", "Java"), nil
			}), reg, refresh.WithNotifier(status))

			slow := make(chan refresh.Outcome, 1)
			go func() {
				o, _ := ctrl.Refresh(context.Background(), types.FilterState{City: "Austin"})
				slow <- o
			}()
			<-started
			_, _ = ctrl.Refresh(context.Background(), types.FilterState{City: "Boston"})
			slowOutcome := <-slow

			Convey("Then the superseded request is aborted silently", func() {
				So(cancelled, ShouldBeTrue)
				So(slowOutcome, ShouldEqual, refresh.OutcomeStale)
				So(status.Snapshot().Notices, ShouldBeEmpty)
				So(topSkillLabels(reg), ShouldResemble, []string{"Java"})
			})
		})

		Convey("When filters change in the background and then reset", func() {
			var mu sync.Mutex
			var seen []types.FilterState
			ctrl := refresh.NewController(fetchFunc(func(_ context.Context, f types.FilterState) (types.Payload, error) {
				mu.Lock()
				seen = append(seen, f)
				mu.Unlock()
				return payloadFor("Austin", "Python"), nil
			}), reg)

			ctrl.OnFilterChange(types.FilterState{City: "Austin", Type: "Contract"})
			ctrl.Wait()
			ctrl.OnReset()
			ctrl.Wait()

			Convey("Then reset issues the unfiltered request", func() {
				So(seen, ShouldResemble, []types.FilterState{{City: "Austin", Type: "Contract"}, {}})
				So(ctrl.Filters().IsZero(), ShouldBeTrue)
				last, ok := ctrl.Last()
				So(ok, ShouldBeTrue)
				So(last.TopSkills.Labels(), ShouldResemble, []string{"Python"})
			})
		})
	})

	Convey("Given a fresh registry", t, func() {
		reg := charts.NewRegistry(charts.WithSize(200, 120))

		Convey("When initializing from embedded page data", func() {
			calls := 0
			ctrl := refresh.NewController(fetchFunc(func(context.Context, types.FilterState) (types.Payload, error) {
				calls++
				return types.Payload{}, nil
			}), reg)
			seed := payloadFor("Austin", "Python", "SQL")

			err := ctrl.Initialize(context.Background(), &seed)

			Convey("Then no request is made and all four charts exist", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 0)
				So(reg.Live(), ShouldEqual, 4)
				So(topSkillLabels(reg), ShouldResemble, []string{"Python", "SQL"})
			})
		})

		Convey("When initializing without embedded data", func() {
			var seen []types.FilterState
			ctrl := refresh.NewController(fetchFunc(func(_ context.Context, f types.FilterState) (types.Payload, error) {
				seen = append(seen, f)
				return payloadFor("Austin", "Python"), nil
			}), reg)

			err := ctrl.Initialize(context.Background(), nil)

			Convey("Then the unfiltered payload is fetched", func() {
				So(err, ShouldBeNil)
				So(seen, ShouldResemble, []types.FilterState{{}})
				So(reg.Bootstrapped(), ShouldBeTrue)
			})
		})

		Convey("When refreshing before initialization", func() {
			ctrl := refresh.NewController(fetchFunc(func(context.Context, types.FilterState) (types.Payload, error) {
				return payloadFor("Austin", "Python"), nil
			}), reg)

			outcome, err := ctrl.Refresh(context.Background(), types.FilterState{})

			Convey("Then the refresh fails without rendering", func() {
				So(outcome, ShouldEqual, refresh.OutcomeFailed)
				So(errors.Is(err, charts.ErrNotRendered), ShouldBeTrue)
				So(reg.Live(), ShouldEqual, 0)
			})
		})
	})
}
