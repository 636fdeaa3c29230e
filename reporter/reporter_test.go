package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/api/logger"
	"sitepulse/api/models"
	"sitepulse/api/monitoring"
)

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.ReportEntry
}

func (f *fakeAudit) InsertEntries(_ context.Context, entries []models.ReportEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeAudit) all() []models.ReportEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReportEntry(nil), f.entries...)
}

// deliverySink plays the channel return URL and captures what gets posted.
type deliverySink struct {
	mu          sync.Mutex
	messages    []models.ChannelMessage
	contentType string
	status      int
}

func (d *deliverySink) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg models.ChannelMessage
		_ = json.NewDecoder(r.Body).Decode(&msg)

		d.mu.Lock()
		d.messages = append(d.messages, msg)
		d.contentType = r.Header.Get("Content-Type")
		d.mu.Unlock()

		w.WriteHeader(d.status)
	}
}

func (d *deliverySink) last(t *testing.T) models.ChannelMessage {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.Len(t, d.messages, 1)
	return d.messages[0]
}

func (d *deliverySink) lastContentType() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contentType
}

// analyticsSite plays a monitored site's daily analytics endpoint.
func analyticsSite(t *testing.T, visitors uint64, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analytics/daily" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.DailyVisitorCount{Date: "2025-03-08", UniqueVisitors: visitors})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestReporter(audit AuditLog) *Reporter {
	return New(audit, logger.NewNopLogger(), monitoring.New(prometheus.NewRegistry()))
}

func sitePayload(returnURL string, sites ...string) models.MonitorPayload {
	settings := []models.Setting{{Label: "interval", Type: "text", Default: "@hourly"}}
	for i, site := range sites {
		settings = append(settings, models.Setting{
			Label:   fmt.Sprintf("site-%d", i+1),
			Type:    "text",
			Default: site,
		})
	}
	return models.MonitorPayload{
		ChannelID: "ch-1",
		ReturnURL: returnURL,
		Settings:  settings,
	}
}

func TestRunReportsAllSitesInOrder(t *testing.T) {
	// The slower site comes first in the settings; its line must still
	// lead the report.
	siteA := analyticsSite(t, 42, 50*time.Millisecond)
	siteB := analyticsSite(t, 7, 0)

	sink := &deliverySink{status: http.StatusOK}
	returnSrv := httptest.NewServer(sink.handler())
	t.Cleanup(returnSrv.Close)

	audit := &fakeAudit{}
	rep := newTestReporter(audit)

	rep.Run(context.Background(), sitePayload(returnSrv.URL, siteA.URL, siteB.URL))

	msg := sink.last(t)
	assert.Equal(t, siteA.URL+": 42 active users\n"+siteB.URL+": 7 active users", msg.Message)
	assert.Equal(t, StatusSuccess, msg.Status)
	assert.Equal(t, "DAU Monitor", msg.Username)
	assert.Equal(t, "Daily Active Users Report", msg.EventName)
	assert.Equal(t, "application/json", sink.lastContentType())

	entries := audit.all()
	require.Len(t, entries, 2)
	assert.Equal(t, siteA.URL, entries[0].Site)
	require.NotNil(t, entries[0].UniqueVisitors)
	assert.Equal(t, int64(42), *entries[0].UniqueVisitors)
	assert.Equal(t, siteB.URL, entries[1].Site)
	assert.Equal(t, StatusSuccess, entries[1].Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(rep.metrics.ReportRuns.WithLabelValues(StatusSuccess)))
}

func TestRunMarksFailingSites(t *testing.T) {
	healthy := analyticsSite(t, 3, 0)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	sink := &deliverySink{status: http.StatusOK}
	returnSrv := httptest.NewServer(sink.handler())
	t.Cleanup(returnSrv.Close)

	audit := &fakeAudit{}
	rep := newTestReporter(audit)

	rep.Run(context.Background(), sitePayload(returnSrv.URL, healthy.URL, broken.URL))

	msg := sink.last(t)
	assert.Equal(t, StatusError, msg.Status)
	assert.Contains(t, msg.Message, healthy.URL+": 3 active users")
	assert.Contains(t, msg.Message, broken.URL+": failed to fetch DAU (status 500)")

	entries := audit.all()
	require.Len(t, entries, 2)
	assert.Equal(t, StatusError, entries[1].Status)
	assert.Nil(t, entries[1].UniqueVisitors)
	assert.Equal(t, "failed to fetch DAU (status 500)", entries[1].Detail)

	assert.Equal(t, 1.0, testutil.ToFloat64(rep.metrics.ReportRuns.WithLabelValues(StatusError)))
}

func TestRunTimesOutSlowSites(t *testing.T) {
	slow := analyticsSite(t, 9, 300*time.Millisecond)

	sink := &deliverySink{status: http.StatusOK}
	returnSrv := httptest.NewServer(sink.handler())
	t.Cleanup(returnSrv.Close)

	rep := newTestReporter(&fakeAudit{})
	rep.client.Timeout = 50 * time.Millisecond

	rep.Run(context.Background(), sitePayload(returnSrv.URL, slow.URL))

	msg := sink.last(t)
	assert.Equal(t, StatusError, msg.Status)
	assert.Equal(t, slow.URL+": request timed out", msg.Message)
}

func TestRunRejectsOutOfRangeCounts(t *testing.T) {
	// A count that cannot be stored as BIGINT is a broken response, not a
	// figure to report.
	site := analyticsSite(t, math.MaxUint64, 0)

	sink := &deliverySink{status: http.StatusOK}
	returnSrv := httptest.NewServer(sink.handler())
	t.Cleanup(returnSrv.Close)

	audit := &fakeAudit{}
	rep := newTestReporter(audit)

	rep.Run(context.Background(), sitePayload(returnSrv.URL, site.URL))

	msg := sink.last(t)
	assert.Equal(t, StatusError, msg.Status)
	assert.Equal(t, site.URL+": invalid analytics response: visitor count out of range", msg.Message)

	entries := audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, StatusError, entries[0].Status)
	assert.Nil(t, entries[0].UniqueVisitors)
	assert.Equal(t, "invalid analytics response: visitor count out of range", entries[0].Detail)
}

func TestRunWithoutSites(t *testing.T) {
	sink := &deliverySink{status: http.StatusOK}
	returnSrv := httptest.NewServer(sink.handler())
	t.Cleanup(returnSrv.Close)

	audit := &fakeAudit{}
	rep := newTestReporter(audit)

	payload := models.MonitorPayload{
		ChannelID: "ch-1",
		ReturnURL: returnSrv.URL,
		Settings:  []models.Setting{{Label: "interval", Type: "text", Default: "@hourly"}},
	}
	rep.Run(context.Background(), payload)

	msg := sink.last(t)
	assert.Equal(t, "No sites configured to monitor.", msg.Message)
	assert.Equal(t, StatusError, msg.Status)

	entries := audit.all()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Site)
	assert.Equal(t, "no sites configured", entries[0].Detail)
}

func TestRunCountsDeliveryFailures(t *testing.T) {
	site := analyticsSite(t, 5, 0)

	sink := &deliverySink{status: http.StatusBadGateway}
	returnSrv := httptest.NewServer(sink.handler())
	t.Cleanup(returnSrv.Close)

	audit := &fakeAudit{}
	rep := newTestReporter(audit)

	rep.Run(context.Background(), sitePayload(returnSrv.URL, site.URL))

	// The audit trail keeps the site outcome even when the channel rejects
	// the delivery.
	require.Len(t, audit.all(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(rep.metrics.DeliveryFailures))
}
