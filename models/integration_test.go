package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorPayloadSites(t *testing.T) {
	payload := MonitorPayload{
		ChannelID: "ch-1",
		ReturnURL: "https://hooks.example.com/ch-1",
		Settings: []Setting{
			{Label: "site-1", Type: "text", Required: true, Default: "https://alpha.example.com"},
			{Label: "interval", Type: "text", Required: true, Default: "@hourly"},
			{Label: "site-2", Type: "text", Default: "https://beta.example.com"},
			{Label: "site-3", Type: "text", Default: ""},
		},
	}

	assert.Equal(t, []string{"https://alpha.example.com", "https://beta.example.com"}, payload.Sites())
}

func TestMonitorPayloadSitesEmpty(t *testing.T) {
	payload := MonitorPayload{
		Settings: []Setting{
			{Label: "interval", Type: "text", Default: "@hourly"},
		},
	}

	assert.Empty(t, payload.Sites())
	assert.Empty(t, MonitorPayload{}.Sites())
}

func TestNewIntegration(t *testing.T) {
	integration := NewIntegration("https://dau.example.com/")
	data := integration.Data

	assert.Equal(t, "interval", data.IntegrationType)
	assert.Equal(t, "https://dau.example.com/tick", data.TickURL)
	assert.Equal(t, "https://dau.example.com/api/analytics/daily", data.TargetURL)
	assert.Equal(t, "https://dau.example.com", data.Descriptions.AppURL)
	assert.True(t, data.IsActive)

	var hasSite bool
	for _, s := range data.Settings {
		if s.Label == "site-1" {
			hasSite = true
		}
	}
	assert.True(t, hasSite, "manifest must advertise at least one site setting")
}
