package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"wanwatch/models"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestActionRulesGetConfigValidation(t *testing.T) {
	dir := useTempHome(t)
	writeConfigFile(t, dir, "action-rules.yaml", `
rules:
  - mac: AA-BB-CC-DD-EE-FF
    onlineTimeout: 60000000000
    onlineMessage: "{name} online for {time}"
  - mac: not-a-mac
    offlineMessage: dropped
  - offlineTimeout: 600000000000
    offlineMessage: no matcher at all
  - name: laptop
    offlineTimeout: 600000000000
    offlineMessage: "{name} gone"
    clarifyByPing: true
substituteNames:
  - mac: 11-22-33-44-55-66
    name: Homework machine
  - ip: 10.0.0.2
    name: Hall thermostat
  - name: orphan without matcher
  - mac: aa:aa:aa:aa:aa:aa
`)

	cfg, err := ActionRules.GetConfig(MustGetLogger())
	assert.Nil(t, err)

	assert.Len(t, cfg.Rules, 2, "bad-MAC and matcher-less rules are dropped")
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", cfg.Rules[0].MatchMAC, "MAC matchers are canonicalised")
	assert.Equal(t, time.Minute, cfg.Rules[0].OnlineTimeout)
	assert.Equal(t, "laptop", cfg.Rules[1].MatchName)
	assert.True(t, cfg.Rules[1].ClarifyByPing)

	assert.Len(t, cfg.Substitutes, 2, "substitutes need a name and a matcher")
	assert.Equal(t, "11:22:33:44:55:66", cfg.Substitutes[0].MAC)
	assert.Equal(t, "Hall thermostat", cfg.Substitutes[1].Name)
}

func TestActionRulesGetConfigMissingFile(t *testing.T) {
	useTempHome(t)
	cfg, err := ActionRules.GetConfig(MustGetLogger())
	assert.Nil(t, err)
	assert.Empty(t, cfg.Rules)
	assert.Empty(t, cfg.Substitutes)
}

func TestActionRulesSetConfigRejectsMatcherlessRule(t *testing.T) {
	useTempHome(t)
	err := ActionRules.SetConfig(ActionRulesConfig{
		Rules: []models.ActionRule{{OfflineMessage: "gone"}},
	})
	assert.Equal(t, ErrorActionRuleNoMatcher, err)
}

func TestGatewayGetConfig(t *testing.T) {
	dir := useTempHome(t)
	writeConfigFile(t, dir, "gateway.yaml", `
providers:
  wan1: eth0
  wan2: eth1
hardware:
  router: http://router.local/clients
`)

	cfg, err := Gateway.GetConfig(MustGetLogger())
	assert.Nil(t, err)
	assert.Len(t, cfg.Providers, 2)
	assert.Equal(t, models.AdapterID("eth0"), cfg.Providers["wan1"])
	assert.Equal(t, "http://router.local/clients", cfg.Hardware["router"])
}

func TestGatewayGetConfigRequiresProviders(t *testing.T) {
	dir := useTempHome(t)
	writeConfigFile(t, dir, "gateway.yaml", "hardware:\n  router: http://router.local/clients\n")

	_, err := Gateway.GetConfig(MustGetLogger())
	assert.Equal(t, ErrorNoProvidersConfigured, err)
}

func TestGatewayGetConfigRequiresValidProviders(t *testing.T) {
	dir := useTempHome(t)
	// Bindings with an empty side are dropped; a file holding only those
	// is as bad as a file with none.
	writeConfigFile(t, dir, "gateway.yaml", "providers:\n  wan1: \"\"\n  \"\": eth0\n")

	_, err := Gateway.GetConfig(MustGetLogger())
	assert.Equal(t, ErrorNoProvidersConfigured, err)
}
