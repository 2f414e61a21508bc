package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/trendhub/internal/adapters/mq/queue"
	service "github.com/okian/trendhub/internal/app"
	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/source"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func trend(name string, mentions float64) model.Record {
	ts := now.Add(-time.Hour)
	return model.Record{Kind: model.Trends, Name: name, MentionCount: mentions, CreatedAt: &ts}
}

func register(svc *service.Service, id string, enabled bool, caps model.CapabilitySet, fn source.FetcherFunc) {
	desc := source.Descriptor{ID: id, Name: id, Enabled: enabled, Capabilities: caps, Status: "ready", Priority: "high"}
	if err := svc.Registry().Register(id, source.New(desc, fn, svc.Cache())); err != nil {
		panic(err)
	}
}

func newService(calls *atomic.Int32, opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithClock(func() time.Time { return now })}, opts...)...)

	register(svc, "alpha", true, model.NewCapabilitySet(model.Trends, model.Deals),
		func(_ context.Context, c model.Capability, _ model.Params) ([]model.Record, error) {
			calls.Add(1)
			if c == model.Deals {
				return []model.Record{{Kind: model.Deals, CompanyName: "Acme", FundingType: "Series B"}}, nil
			}
			return []model.Record{trend("Agents", 3000), trend("Rust", 100)}, nil
		})
	register(svc, "beta", true, model.NewCapabilitySet(model.Trends),
		func(_ context.Context, _ model.Capability, _ model.Params) ([]model.Record, error) {
			calls.Add(1)
			return []model.Record{trend("agents", 1000), trend("Wasm", 50)}, nil
		})
	register(svc, "broken", true, model.NewCapabilitySet(model.Trends),
		func(_ context.Context, _ model.Capability, _ model.Params) ([]model.Record, error) {
			return nil, errors.New("upstream down")
		})
	register(svc, "off", false, model.NewCapabilitySet(model.Founders),
		func(_ context.Context, _ model.Capability, _ model.Params) ([]model.Record, error) {
			panic("disabled sources are never called")
		})
	return svc
}

func TestService_Collect(t *testing.T) {
	Convey("Given a service with registered sources", t, func() {
		var calls atomic.Int32
		svc := newService(&calls)
		ctx := context.Background()

		Convey("When collecting trends", func() {
			c := svc.Collect(ctx, model.Trends, nil)

			Convey("Then records follow registration order", func() {
				So(c.RunID, ShouldNotBeEmpty)
				So(len(c.Records), ShouldEqual, 4)
				So(c.Records[0].Name, ShouldEqual, "Agents")
				So(c.Records[2].Name, ShouldEqual, "agents")
				So(c.Sources, ShouldResemble, []string{"alpha", "beta", "broken"})
			})

			Convey("Then a second collection is served from cache", func() {
				before := calls.Load()
				_ = svc.Collect(ctx, model.Trends, nil)
				So(calls.Load(), ShouldEqual, before)
			})

			Convey("Then flushing the cache forces a refetch", func() {
				So(svc.FlushCache(ctx), ShouldEqual, 2)
				before := calls.Load()
				_ = svc.Collect(ctx, model.Trends, nil)
				So(calls.Load(), ShouldEqual, before+2)
			})
		})

		Convey("When collecting deals", func() {
			c := svc.Collect(ctx, model.Deals, nil)

			Convey("Then only sources declaring deals contribute", func() {
				So(c.Sources, ShouldResemble, []string{"alpha"})
				So(c.Records[0].CompanyName, ShouldEqual, "Acme")
				So(c.Records[0].Source, ShouldEqual, "alpha")
			})
		})
	})
}

func TestService_ScoredTrends(t *testing.T) {
	Convey("Given a service with overlapping trend sources", t, func() {
		var calls atomic.Int32
		ctx := context.Background()

		Convey("When scoring with the default policy", func() {
			svc := newService(&calls)
			resp := svc.ScoredTrends(ctx, nil, 0)

			Convey("Then duplicates merge and the ranking is descending", func() {
				So(resp.Total, ShouldEqual, 3)
				So(resp.Count, ShouldEqual, 3)
				top := resp.Trends[0]
				So(top.Name, ShouldEqual, "Agents")
				So(top.MentionCount, ShouldEqual, 2000.0)
				So(top.Sources, ShouldResemble, []string{"alpha", "beta"})
				So(top.Confidence, ShouldEqual, model.Medium)
				for i := 1; i < len(resp.Trends); i++ {
					So(resp.Trends[i-1].MomentumScore, ShouldBeGreaterThanOrEqualTo, resp.Trends[i].MomentumScore)
				}
			})
		})

		Convey("When scoring with a limit", func() {
			svc := newService(&calls)
			resp := svc.ScoredTrends(ctx, nil, 1)

			Convey("Then the list is truncated but the total is kept", func() {
				So(resp.Count, ShouldEqual, 1)
				So(resp.Total, ShouldEqual, 3)
			})
		})

		Convey("When deduplicating with the mean policy", func() {
			svc := newService(&calls, service.WithMergePolicy(dedupe.TrueMean))
			out := svc.Deduplicate([]model.Record{trend("X", 10), trend("x", 20), trend("X", 60)})

			Convey("Then the mention count is the true mean", func() {
				So(len(out), ShouldEqual, 1)
				So(out[0].MentionCount, ShouldEqual, 30.0)
			})
		})
	})
}

func TestService_Status(t *testing.T) {
	Convey("Given a service with registered sources", t, func() {
		var calls atomic.Int32
		svc := newService(&calls)

		Convey("When reading status", func() {
			st := svc.Status()

			Convey("Then every source is listed with its methods", func() {
				So(len(st.APIs), ShouldEqual, 4)
				So(st.APIs["alpha"].Methods, ShouldResemble, []string{"fetchTrends", "fetchDeals"})
				So(st.APIs["off"].Enabled, ShouldBeFalse)
				So(st.APIs["alpha"].Status, ShouldEqual, "ready")
				So(st.APIs["alpha"].Priority, ShouldEqual, "high")
				So(st.APIs["alpha"].Note, ShouldBeEmpty)
				So(st.ActivePlugins, ShouldResemble, []string{"alpha", "beta", "broken"})
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with background refresh", t, func() {
		var calls atomic.Int32
		svc := newService(&calls, service.WithRefresh(time.Hour, 1, 4), service.WithJanitorInterval(time.Minute))
		ctx := context.Background()

		Convey("When it starts", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the first refresh round warms the cache", func() {
				deadline := time.Now().Add(2 * time.Second)
				for svc.GetStats(ctx).RefreshJobsDone < 3 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				stats := svc.GetStats(ctx)
				So(stats.RefreshJobsDone, ShouldEqual, int64(3))
				So(stats.CacheEntries, ShouldBeGreaterThan, 0)
				So(stats.SourcesRegistered, ShouldEqual, 4)
				So(stats.SourcesEnabled, ShouldEqual, 3)
				So(stats.RefreshWorkers, ShouldEqual, 1)
				So(stats.DedupeMergePolicy, ShouldEqual, "pairwise")
			})

			Convey("Then manual refreshes are accepted", func() {
				id, err := svc.Refresh(ctx, model.Deals)
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)
			})
		})

		Convey("When it stops", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then refreshes are refused", func() {
				_, err := svc.Refresh(ctx, model.Trends)
				So(err, ShouldNotBeNil)
			})

			Convey("Then it cannot be started again", func() {
				So(svc.Start(ctx), ShouldEqual, service.ErrStopped)
				_, err := svc.Refresh(ctx, model.Trends)
				So(errors.Is(err, queue.ErrQueueClosed), ShouldBeTrue)
				So(svc.GetStats(ctx).UptimeSeconds, ShouldEqual, 0.0)
			})
		})
	})
}
