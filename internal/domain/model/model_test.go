package model_test

import (
	"testing"
	"time"

	"github.com/okian/trendhub/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCapabilities(t *testing.T) {
	Convey("Given capability parsing", t, func() {
		Convey("When parsing canonical and method spellings", func() {
			c1, err1 := model.ParseCapability("trends")
			c2, err2 := model.ParseCapability("fetchDeals")
			c3, err3 := model.ParseCapability(" Founders ")

			Convey("Then all should resolve", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(c1, ShouldEqual, model.Trends)
				So(c2, ShouldEqual, model.Deals)
				So(c3, ShouldEqual, model.Founders)
			})
		})

		Convey("When parsing an unknown capability", func() {
			_, err := model.ParseCapability("weather")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a capability set", t, func() {
		set := model.NewCapabilitySet(model.Founders, model.Trends, model.Capability("bogus"))

		Convey("Then membership and order should be canonical", func() {
			So(set.Has(model.Trends), ShouldBeTrue)
			So(set.Has(model.Founders), ShouldBeTrue)
			So(set.Has(model.Deals), ShouldBeFalse)
			So(set.Has(model.Capability("bogus")), ShouldBeFalse)
			So(set.List(), ShouldResemble, []model.Capability{model.Trends, model.Founders})
			So(set.String(), ShouldEqual, "{trends,founders}")
			So(set.Empty(), ShouldBeFalse)
			So(model.NewCapabilitySet().Empty(), ShouldBeTrue)
		})
	})
}

func TestRecord(t *testing.T) {
	Convey("Given a record with nested data", t, func() {
		ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		r := model.Record{
			Kind:      model.Trends,
			ID:        "hn_1",
			Source:    "hackernews",
			Sources:   []string{"hackernews"},
			Name:      "AI",
			Data:      map[string]any{"tags": []any{"a"}, "meta": map[string]any{"k": "v"}},
			CreatedAt: &ts,
		}

		Convey("When cloning it", func() {
			c := r.Clone()
			c.Sources[0] = "changed"
			c.Data["meta"].(map[string]any)["k"] = "changed"
			c.Data["tags"].([]any)[0] = "changed"
			*c.CreatedAt = ts.Add(time.Hour)

			Convey("Then the original is untouched", func() {
				So(r.Sources[0], ShouldEqual, "hackernews")
				So(r.Data["meta"].(map[string]any)["k"], ShouldEqual, "v")
				So(r.Data["tags"].([]any)[0], ShouldEqual, "a")
				So(r.CreatedAt.Equal(ts), ShouldBeTrue)
			})
		})

		Convey("Then the dedupe key is the lower-cased name", func() {
			So(r.DedupeKey(), ShouldEqual, "ai")
		})

		Convey("Then a deal is keyed by its company", func() {
			d := model.Record{Kind: model.Deals, CompanyName: "Acme"}
			So(d.DisplayName(), ShouldEqual, "Acme")
			So(d.DedupeKey(), ShouldEqual, "acme")
		})

		Convey("Then origins fall back to the single source", func() {
			r.Sources = nil
			So(r.Origins(), ShouldResemble, []string{"hackernews"})
			r.Source = ""
			So(r.Origins(), ShouldBeNil)
		})
	})

	Convey("Given a cache entry", t, func() {
		now := time.Now()
		e := model.CacheEntry{Key: "k", ExpiresAt: now}

		Convey("Then a read exactly at expiry is a miss", func() {
			So(e.Expired(now), ShouldBeTrue)
			So(e.Expired(now.Add(-time.Nanosecond)), ShouldBeFalse)
		})
	})

	Convey("Given params", t, func() {
		p := model.Params{"q": "ai", "empty": ""}

		Convey("Then Get falls back on missing or empty values", func() {
			So(p.Get("q", "x"), ShouldEqual, "ai")
			So(p.Get("empty", "x"), ShouldEqual, "x")
			So(model.Params(nil).Get("q", "x"), ShouldEqual, "x")
		})
	})
}
