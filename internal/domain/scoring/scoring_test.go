package scoring_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/trendhub/internal/domain/dedupe"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestScore(t *testing.T) {
	Convey("Given a record mentioning an acquisition without a timestamp", t, func() {
		r := model.Record{Kind: model.Trends, Name: "Acme", Data: map[string]any{"title": "Acme announces Acquisition"}}
		b := scoring.Score(&r, now)

		Convey("Then funding scores at least 20 and recency scores 0", func() {
			So(b.Funding, ShouldBeGreaterThanOrEqualTo, 20.0)
			So(b.Recency, ShouldEqual, 0.0)
		})
	})

	Convey("Given a widely covered, fresh, funded trend", t, func() {
		r := model.Record{
			Kind:         model.Trends,
			Name:         "AI Agents",
			MentionCount: 3000,
			Sources:      []string{"hackernews", "github", "newsapi", "rss", "sec"},
			Data:         map[string]any{"headline": "Agents startup raises Series B"},
			CreatedAt:    ago(2 * time.Hour),
		}
		b := scoring.Score(&r, now)

		Convey("Then it lands in the peak band", func() {
			So(b.Velocity, ShouldEqual, 30.0)
			So(b.Diversity, ShouldEqual, 20.0)
			So(b.Funding, ShouldEqual, 12.0)
			So(b.Recency, ShouldEqual, 10.0)
			So(b.Score, ShouldEqual, 72)
			So(scoring.LifecycleFor(b.Score), ShouldEqual, model.Peak)
		})
	})

	Convey("Given 200 mentions from three sources with Series B news today", t, func() {
		r := model.Record{
			Kind:         model.Trends,
			MentionCount: 200,
			Sources:      []string{"a", "b", "c"},
			Data:         map[string]any{"t": "Series B"},
			CreatedAt:    ago(time.Hour),
		}
		b := scoring.Score(&r, now)

		Convey("Then the factors add up exactly as weighted", func() {
			So(b.Velocity, ShouldEqual, 2.0)
			So(b.Diversity, ShouldEqual, 12.0)
			So(b.Funding, ShouldEqual, 12.0)
			So(b.Recency, ShouldEqual, 10.0)
			So(b.Score, ShouldEqual, 36)
		})
	})

	Convey("Given funding phrases that stack", t, func() {
		Convey("Then matches are additive and capped at 25", func() {
			So(scoring.Funding("seed round"), ShouldEqual, 8.0)
			So(scoring.Funding("series a and seed"), ShouldEqual, 8.0)
			So(scoring.Funding("series b then acquisition"), ShouldEqual, 25.0)
			So(scoring.Funding("series a, series c"), ShouldEqual, 23.0)
			So(scoring.Funding("nothing here"), ShouldEqual, 0.0)
		})
	})

	Convey("Given founder keywords", t, func() {
		Convey("Then each keyword adds 3 up to 15", func() {
			So(scoring.Founder("the founder and ceo"), ShouldEqual, 6.0)
			So(scoring.Founder("founder ceo serial entrepreneur exit previous startup"), ShouldEqual, 15.0)
			So(scoring.Founder(""), ShouldEqual, 0.0)
		})

		Convey("Then keywords are matched case-insensitively through data", func() {
			r := model.Record{Data: map[string]any{"bio": "Serial Entrepreneur, former CEO"}}
			So(scoring.Score(&r, now).Founder, ShouldEqual, 6.0)
		})
	})

	Convey("Given records of different ages", t, func() {
		Convey("Then recency decays half a point per day with a floor of 2", func() {
			So(scoring.Recency(ago(23*time.Hour), now), ShouldEqual, 10.0)
			So(scoring.Recency(ago(48*time.Hour), now), ShouldEqual, 9.0)
			So(scoring.Recency(ago(10*24*time.Hour), now), ShouldEqual, 5.0)
			So(scoring.Recency(ago(100*24*time.Hour), now), ShouldEqual, 2.0)
			So(scoring.Recency(nil, now), ShouldEqual, 0.0)
		})

		Convey("Then a created_at in data is honoured", func() {
			r := model.Record{Data: map[string]any{"created_at": now.Add(-48 * time.Hour).Format(time.RFC3339)}}
			So(scoring.Score(&r, now).Recency, ShouldEqual, 9.0)

			r.Data["created_at"] = float64(now.Add(-time.Hour).Unix())
			So(scoring.Score(&r, now).Recency, ShouldEqual, 10.0)

			r.Data["created_at"] = "not a date"
			So(scoring.Timestamp(&r), ShouldBeNil)
		})
	})

	Convey("Given random records", t, func() {
		rng := rand.New(rand.NewSource(7))
		words := []string{"ipo", "seed", "founder", "ceo", "exit", "series c", "noise"}

		Convey("Then every score is within 0..100", func() {
			for i := 0; i < 500; i++ {
				srcs := make([]string, rng.Intn(8))
				for j := range srcs {
					srcs[j] = words[rng.Intn(len(words))]
				}
				r := model.Record{
					MentionCount: rng.Float64() * 10000,
					Sources:      srcs,
					Data:         map[string]any{"t": words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))]},
					CreatedAt:    ago(time.Duration(rng.Intn(2000)) * time.Hour),
				}
				b := scoring.Score(&r, now)
				So(b.Score, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("Then more mentions or sources never lower their factor", func() {
			prevV, prevD := -1.0, -1.0
			for m := 0.0; m <= 5000; m += 250 {
				v := scoring.Velocity(m)
				So(v, ShouldBeGreaterThanOrEqualTo, prevV)
				prevV = v
			}
			for n := 0; n <= 8; n++ {
				d := scoring.Diversity(n)
				So(d, ShouldBeGreaterThanOrEqualTo, prevD)
				prevD = d
			}
			So(scoring.Velocity(-5), ShouldEqual, 0.0)
		})
	})
}

func TestBands(t *testing.T) {
	Convey("Given score thresholds", t, func() {
		So(scoring.LifecycleFor(100), ShouldEqual, model.Peak)
		So(scoring.LifecycleFor(70), ShouldEqual, model.Peak)
		So(scoring.LifecycleFor(69), ShouldEqual, model.Emerging)
		So(scoring.LifecycleFor(50), ShouldEqual, model.Emerging)
		So(scoring.LifecycleFor(40), ShouldEqual, model.Established)
		So(scoring.LifecycleFor(39), ShouldEqual, model.Declining)
		So(scoring.LifecycleFor(0), ShouldEqual, model.Declining)
	})

	Convey("Given source counts", t, func() {
		So(scoring.ConfidenceFor(0), ShouldEqual, model.Low)
		So(scoring.ConfidenceFor(1), ShouldEqual, model.Low)
		So(scoring.ConfidenceFor(2), ShouldEqual, model.Medium)
		So(scoring.ConfidenceFor(3), ShouldEqual, model.High)
		So(scoring.ConfidenceFor(4), ShouldEqual, model.High)
		So(scoring.ConfidenceFor(5), ShouldEqual, model.VeryHigh)
		So(scoring.ConfidenceFor(12), ShouldEqual, model.VeryHigh)
	})
}

func TestEngineScoreAll(t *testing.T) {
	Convey("Given an engine on a fixed clock", t, func() {
		e := scoring.NewEngine(scoring.WithClock(func() time.Time { return now }))

		Convey("When a trend carries a Source but no Sources", func() {
			out := e.ScoreAll([]model.Record{{Kind: model.Trends, Name: "X", Source: "hackernews", MentionCount: 100}})

			Convey("Then diversity is 0", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].Breakdown.Diversity, ShouldEqual, 0.0)
				So(out[0].MomentumScore, ShouldEqual, 1)
				So(out[0].Confidence, ShouldEqual, scoring.ConfidenceFor(0))
			})
		})

		Convey("When ranking records with ties and duplicates", func() {
			in := []model.Record{
				{Kind: model.Trends, Name: "first", MentionCount: 100, Sources: []string{"a"}},
				{Kind: model.Trends, Name: "hot", MentionCount: 2500, Sources: []string{"a"}},
				{Kind: model.Trends, Name: "second", MentionCount: 100, Sources: []string{"b"}},
				{Kind: model.Deals, CompanyName: "Acme", Sources: []string{"a"}},
				{Kind: model.Trends, Name: "HOT", MentionCount: 1500, Sources: []string{"b"}},
			}
			out := e.ScoreAll(in)

			Convey("Then duplicates merge before scoring", func() {
				So(out, ShouldHaveLength, 3)
				So(out[0].Name, ShouldEqual, "hot")
				So(out[0].MentionCount, ShouldEqual, 2000.0)
				So(out[0].Sources, ShouldResemble, []string{"a", "b"})
				So(out[0].Confidence, ShouldEqual, model.Medium)
			})

			Convey("Then equal scores keep their input order", func() {
				So(out[1].Name, ShouldEqual, "first")
				So(out[2].Name, ShouldEqual, "second")
				So(out[1].MomentumScore, ShouldEqual, out[2].MomentumScore)
			})

			Convey("Then the score and breakdown agree", func() {
				for _, st := range out {
					So(st.MomentumScore, ShouldEqual, st.Breakdown.Score)
					So(st.Lifecycle, ShouldEqual, scoring.LifecycleFor(st.MomentumScore))
				}
			})

			Convey("Then non-trend records pass through untouched", func() {
				rest := e.PassThrough(in)
				So(rest, ShouldHaveLength, 1)
				So(rest[0].CompanyName, ShouldEqual, "Acme")
				So(rest[0].MomentumScore, ShouldEqual, 0)
			})
		})

		Convey("When ranking the same input twice", func() {
			in := []model.Record{
				{Name: "x", MentionCount: 900, Sources: []string{"a", "b"}},
				{Name: "y", MentionCount: 900, Sources: []string{"b", "a"}},
				{Name: "z", MentionCount: 50},
			}

			Convey("Then the output is identical", func() {
				So(e.ScoreAll(in), ShouldResemble, e.ScoreAll(in))
			})
		})

		Convey("When the engine uses the true mean deduper", func() {
			e := scoring.NewEngine(
				scoring.WithClock(func() time.Time { return now }),
				scoring.WithDeduper(dedupe.New(dedupe.WithMergePolicy(dedupe.TrueMean))),
			)
			out := e.Deduplicate([]model.Record{
				{Name: "q", MentionCount: 90}, {Name: "Q", MentionCount: 30}, {Name: "q", MentionCount: 0},
			})

			Convey("Then the merged count is the plain average", func() {
				So(out[0].MentionCount, ShouldEqual, 40.0)
			})
		})
	})
}
