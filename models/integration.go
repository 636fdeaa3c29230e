// api/models/integration.go
package models

import (
	"strings"
	"time"
)

// Setting is one configuration field carried in the tick payload and
// advertised in the integration manifest.
type Setting struct {
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  string `json:"default"`
}

// MonitorPayload is the body the interval scheduler posts to /tick.
type MonitorPayload struct {
	ChannelID string    `json:"channel_id" binding:"required"`
	ReturnURL string    `json:"return_url" binding:"required"`
	Settings  []Setting `json:"settings"`
}

// Sites returns the monitored site URLs from the payload settings, in
// settings order. A setting counts as a site when its label starts with
// "site" and its value is non-empty.
func (p MonitorPayload) Sites() []string {
	var sites []string
	for _, s := range p.Settings {
		if strings.HasPrefix(s.Label, "site") && s.Default != "" {
			sites = append(sites, s.Default)
		}
	}
	return sites
}

// ChannelMessage is the report payload delivered to the channel return URL.
type ChannelMessage struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	EventName string `json:"event_name"`
	Status    string `json:"status"`
}

// ReportEntry is one per-site outcome of a report run, as kept in the
// report audit log. UniqueVisitors is nil when the site could not be
// reached.
type ReportEntry struct {
	ID             int64     `json:"id"`
	ReportID       string    `json:"report_id"`
	ChannelID      string    `json:"channel_id"`
	Site           string    `json:"site"`
	UniqueVisitors *int64    `json:"unique_visitors"`
	Status         string    `json:"status"`
	Detail         string    `json:"detail,omitempty"`
	ReportedAt     time.Time `json:"reported_at"`
}

// Integration is the self-describing manifest served at /integration.json.
type Integration struct {
	Data IntegrationData `json:"data"`
}

type IntegrationData struct {
	Author              string          `json:"author"`
	Date                IntegrationDate `json:"date"`
	Descriptions        Descriptions    `json:"descriptions"`
	IntegrationCategory string          `json:"integration_category"`
	IntegrationType     string          `json:"integration_type"`
	IsActive            bool            `json:"is_active"`
	KeyFeatures         []string        `json:"key_features"`
	Permissions         Permissions     `json:"permissions"`
	Settings            []Setting       `json:"settings"`
	TargetURL           string          `json:"target_url"`
	TickURL             string          `json:"tick_url"`
}

type IntegrationDate struct {
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type Descriptions struct {
	AppDescription  string `json:"app_description"`
	AppLogo         string `json:"app_logo"`
	AppName         string `json:"app_name"`
	AppURL          string `json:"app_url"`
	BackgroundColor string `json:"background_color"`
}

type Permissions struct {
	Events []string `json:"events"`
}

// NewIntegration builds the manifest for a deployment reachable at baseURL.
// The tick URL is derived from baseURL so the scheduler calls back to the
// same deployment that served the manifest.
func NewIntegration(baseURL string) Integration {
	baseURL = strings.TrimRight(baseURL, "/")
	return Integration{
		Data: IntegrationData{
			Author: "SitePulse",
			Date: IntegrationDate{
				CreatedAt: "2025-02-13",
				UpdatedAt: "2025-03-08",
			},
			Descriptions: Descriptions{
				AppDescription:  "A bot that monitors the number of daily active users (DAU) on a platform.",
				AppLogo:         "https://img.icons8.com/?size=100&id=37410&format=png&color=000000",
				AppName:         "SitePulse DAU Monitor",
				AppURL:          baseURL,
				BackgroundColor: "#ffffff",
			},
			IntegrationCategory: "Analytics & Monitoring",
			IntegrationType:     "interval",
			IsActive:            true,
			KeyFeatures: []string{
				"Record page visits reported by the site frontend.",
				"Compute daily active users (DAU) from recorded visits.",
				"Fetch DAU figures from the configured site analytics endpoints.",
				"Send DAU reports back to the channel.",
				"Log DAU reporting activity for auditing purposes.",
			},
			Permissions: Permissions{
				Events: []string{
					"Fetch DAU metrics from website analytics API.",
					"Format DAU reports.",
					"Send DAU updates back to the channel.",
					"Log DAU reporting activity for auditing purposes.",
				},
			},
			Settings: []Setting{
				{Label: "site-1", Type: "text", Required: true, Default: ""},
				{Label: "interval", Type: "text", Required: true, Default: "@hourly"},
			},
			TargetURL: baseURL + "/api/analytics/daily",
			TickURL:   baseURL + "/tick",
		},
	}
}
