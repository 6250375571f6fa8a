package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// macPattern accepts six hex octet pairs separated by colons or hyphens.
var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// ValidMAC reports whether s is a strict MAC address.
func ValidMAC(s string) bool {
	return macPattern.MatchString(s)
}

// NewMAC canonicalises a MAC address to lower-case colon form
// (aa:bb:cc:dd:ee:ff), so the same device keys identically regardless of
// which hardware source reported it.
func NewMAC(mac string) MAC {
	mac = strings.ReplaceAll(mac, "-", ":")
	return MAC(strings.ToLower(mac))
}

// ParseClockDuration parses the gateway's "H:M:S" wl association time.
// Malformed or empty input parses to zero rather than an error; partial
// data must not abort a cycle.
func ParseClockDuration(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}
