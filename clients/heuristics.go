package clients

import (
	"wanwatch/models"
)

// These predicates encode vendor-specific assumptions about unreliable
// router reporting. They are deliberately separate, named functions so the
// assumptions stay visible and individually testable.

// hasWifiActivity reports whether a raw row carries live wireless
// activity: a signal reading or non-zero wireless byte counters.
func hasWifiActivity(rc models.RawClient) bool {
	return rc.RSSI != 0 || rc.WifiRxBytes != 0 || rc.WifiTxBytes != 0
}

// hasWifiTelemetry additionally counts a wireless association time, which
// some devices retain even when idle.
func hasWifiTelemetry(rc models.RawClient) bool {
	return hasWifiActivity(rc) || rc.WifiClockTime != ""
}

// correctConnectionKind reclassifies clients the router flags as wired but
// that show wireless telemetry. Some device classes keep their wired flag
// set after associating over wifi, so the telemetry wins. A genuinely
// wired device that retains stale wifi fields from an earlier association
// is misclassified here; no router field disambiguates the two.
func correctConnectionKind(kind models.ConnectionKind, rc models.RawClient) models.ConnectionKind {
	if kind == models.KindWired && hasWifiTelemetry(rc) {
		return models.KindWifi24_5
	}
	return kind
}

// correctOnlineStatus forces the router-reported online flag for clients
// with live wireless activity. The router under-reports online status for
// wifi clients that stop refreshing their wifi-time field.
func correctOnlineStatus(online bool, rc models.RawClient) bool {
	if hasWifiActivity(rc) {
		return true
	}
	return online
}
