package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/trendhub/internal/config"
	"github.com/okian/trendhub/internal/domain/types"
)

func TestNewService(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		t.Setenv("TRENDHUB_DOTENV", filepath.Join(t.TempDir(), "missing.env"))
		t.Setenv("TRENDHUB_ADDR", ":8089")
		t.Setenv("TRENDHUB_DEDUPE_MERGE", "mean")
		t.Setenv("GITHUB_TOKEN", "tok")

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8089")

		convey.Convey("When the service is built", func() {
			svc, err := newService(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every built-in source is registered", func() {
				convey.So(svc.Registry().Sources(), convey.ShouldHaveLength, 9)
				convey.So(svc.Registry().Active(), convey.ShouldContain, config.SourceGitHub)
				convey.So(svc.Registry().Active(), convey.ShouldNotContain, config.SourceNewsAPI)
				convey.So(svc.GetStats(ctx).DedupeMergePolicy, convey.ShouldEqual, "mean")
			})

			convey.Convey("And the mux serves status and docs", func() {
				mux := newMux(ctx, cfg, svc)

				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/api-status", http.NoBody))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

				var status types.APIStatusResponse
				convey.So(json.Unmarshal(rec.Body.Bytes(), &status), convey.ShouldBeNil)
				convey.So(status.APIs, convey.ShouldContainKey, config.SourceSECEdgar)
				convey.So(status.APIs[config.SourceHackerNews].Methods, convey.ShouldResemble, []string{"fetchTrends"})
				convey.So(status.APIs[config.SourceHackerNews].Status, convey.ShouldEqual, config.StatusReady)
				convey.So(status.APIs[config.SourceTwitter].Status, convey.ShouldEqual, config.StatusAwaitingAccess)
				convey.So(status.APIs[config.SourceTwitter].Priority, convey.ShouldEqual, "high")
				convey.So(status.APIs[config.SourceAngelList].Note, convey.ShouldContainSubstring, "SEC EDGAR")

				docs := httptest.NewRecorder()
				mux.ServeHTTP(docs, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
				convey.So(docs.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When a source narrows to an unsupported capability", func() {
			cfg.Sources[config.SourceHackerNews] = config.SourceConfig{Enabled: true, Capabilities: []string{"deals"}}
			_, err := newService(ctx, cfg)

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updater returns once it is done", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
