// Package reporter runs DAU report rounds: it fans out to every configured
// site's analytics endpoint, posts the combined report to the channel
// return URL, and audits each per-site outcome.
package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitepulse/api/logger"
	"sitepulse/api/models"
	"sitepulse/api/monitoring"
)

const (
	// fetchTimeout bounds each site analytics lookup and the report
	// delivery call.
	fetchTimeout = 10 * time.Second

	reportUsername = "DAU Monitor"
	reportEvent    = "Daily Active Users Report"

	noSitesMessage = "No sites configured to monitor."
)

// Report statuses, also used for the audit log rows.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AuditLog records per-site report outcomes for later inspection.
type AuditLog interface {
	InsertEntries(ctx context.Context, entries []models.ReportEntry) error
}

// SiteResult is one site's DAU lookup outcome.
type SiteResult struct {
	Site string
	DAU  uint64
	Err  error
}

type Reporter struct {
	client  *http.Client
	audit   AuditLog
	log     logger.Logger
	metrics *monitoring.Metrics
}

func New(audit AuditLog, log logger.Logger, metrics *monitoring.Metrics) *Reporter {
	return &Reporter{
		client:  &http.Client{Timeout: fetchTimeout},
		audit:   audit,
		log:     log,
		metrics: metrics,
	}
}

// Run executes one report round for the payload. Site lookups run in
// parallel and the report keeps settings order. A failing site becomes an
// error line in the report instead of aborting the round.
func (r *Reporter) Run(ctx context.Context, payload models.MonitorPayload) {
	start := time.Now()
	reportID := uuid.NewString()
	log := r.log.With(
		logger.String("report_id", reportID),
		logger.String("channel_id", payload.ChannelID),
	)

	sites := payload.Sites()
	log.Info("report run started", logger.Int("sites", len(sites)))

	var results []SiteResult
	message := noSitesMessage
	status := StatusError
	if len(sites) > 0 {
		results = r.fetchAll(ctx, sites)
		message, status = buildMessage(results)
	}

	report := models.ChannelMessage{
		Message:   message,
		Username:  reportUsername,
		EventName: reportEvent,
		Status:    status,
	}
	if err := r.deliver(ctx, payload.ReturnURL, report); err != nil {
		r.metrics.DeliveryFailures.Inc()
		log.Error("report delivery failed", logger.Error(err))
	}

	r.recordAudit(ctx, reportID, payload.ChannelID, results, log)

	r.metrics.ReportRuns.WithLabelValues(status).Inc()
	r.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	log.Info("report run finished",
		logger.String("status", status),
		logger.Duration("duration", time.Since(start)))
}

// fetchAll queries every site concurrently. results[i] always corresponds
// to sites[i].
func (r *Reporter) fetchAll(ctx context.Context, sites []string) []SiteResult {
	results := make([]SiteResult, len(sites))

	var wg sync.WaitGroup
	for i, site := range sites {
		wg.Add(1)
		go func(i int, site string) {
			defer wg.Done()
			results[i] = r.fetchSite(ctx, site)
		}(i, site)
	}
	wg.Wait()

	return results
}

func (r *Reporter) fetchSite(ctx context.Context, site string) SiteResult {
	target := strings.TrimRight(site, "/") + "/api/analytics/daily"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return SiteResult{Site: site, Err: fmt.Errorf("invalid site URL: %w", err)}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return SiteResult{Site: site, Err: errors.New("request timed out")}
		}
		return SiteResult{Site: site, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SiteResult{Site: site, Err: fmt.Errorf("failed to fetch DAU (status %d)", resp.StatusCode)}
	}

	var snapshot models.DailyVisitorCount
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return SiteResult{Site: site, Err: fmt.Errorf("invalid analytics response: %w", err)}
	}
	// The audit log stores the count as BIGINT.
	if snapshot.UniqueVisitors > math.MaxInt64 {
		return SiteResult{Site: site, Err: errors.New("invalid analytics response: visitor count out of range")}
	}

	return SiteResult{Site: site, DAU: snapshot.UniqueVisitors}
}

// buildMessage renders one line per site, in input order. Status is
// "success" only when every site lookup succeeded.
func buildMessage(results []SiteResult) (string, string) {
	lines := make([]string, 0, len(results))
	status := StatusSuccess

	for _, res := range results {
		if res.Err != nil {
			lines = append(lines, fmt.Sprintf("%s: %s", res.Site, res.Err))
			status = StatusError
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d active users", res.Site, res.DAU))
	}

	return strings.Join(lines, "\n"), status
}

func (r *Reporter) deliver(ctx context.Context, returnURL string, report models.ChannelMessage) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, returnURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("report delivery rejected with status %d", resp.StatusCode)
	}

	return nil
}

// recordAudit writes one row per site result, or a single marker row when
// the run had no sites to monitor.
func (r *Reporter) recordAudit(ctx context.Context, reportID, channelID string, results []SiteResult, log logger.Logger) {
	now := time.Now().UTC()

	entries := make([]models.ReportEntry, 0, len(results))
	if len(results) == 0 {
		entries = append(entries, models.ReportEntry{
			ReportID:   reportID,
			ChannelID:  channelID,
			Status:     StatusError,
			Detail:     "no sites configured",
			ReportedAt: now,
		})
	}

	for _, res := range results {
		entry := models.ReportEntry{
			ReportID:   reportID,
			ChannelID:  channelID,
			Site:       res.Site,
			Status:     StatusSuccess,
			ReportedAt: now,
		}
		if res.Err != nil {
			entry.Status = StatusError
			entry.Detail = res.Err.Error()
		} else {
			visitors := int64(res.DAU)
			entry.UniqueVisitors = &visitors
		}
		entries = append(entries, entry)
	}

	if err := r.audit.InsertEntries(ctx, entries); err != nil {
		log.Error("failed to audit report run", logger.Error(err))
	}
}
