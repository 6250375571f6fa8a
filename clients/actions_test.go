package clients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"wanwatch/config"
	"wanwatch/models"
)

type stubPinger struct {
	alive  bool
	pinged []models.Ip
}

func (p *stubPinger) Ping(ip models.Ip) bool {
	p.pinged = append(p.pinged, ip)
	return p.alive
}

// runCycles advances the reconciled records and evaluates triggers once per
// interval, collecting every event fired along the way.
func runCycles(e *TriggerEngine, records []*ClientRecord, online bool, start time.Time, n int, interval time.Duration) []models.ActionEvent {
	var events []models.ActionEvent
	for i := 0; i < n; i++ {
		now := start.Add(time.Duration(i) * interval)
		for _, rec := range records {
			rec.Online = online
			rec.Status.advance(online, now)
		}
		events = append(events, e.Evaluate(records, now)...)
	}
	return events
}

func TestEvaluateFiresAtMostOncePerEpisode(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := newClientRecord("aa:bb:cc:dd:ee:ff")
	rec.Name = "laptop"
	e := NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchMAC: "aa:bb:cc:dd:ee:ff", OnlineTimeout: 60 * time.Second, OnlineMessage: "{name} online for {time}"},
	})

	events := runCycles(e, []*ClientRecord{rec}, true, base, 10, 10*time.Second)
	assert.Len(t, events, 1, "the threshold is crossed once and stays crossed; one event only")
	assert.Equal(t, models.ActionOnline, events[0].Direction)
	assert.Equal(t, "laptop online for 0:01:00", events[0].Message)
}

func TestEvaluateOfflineReArmRequiresFullTransition(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := newClientRecord("aa:bb:cc:dd:ee:ff")
	rec.Name = "laptop"
	e := NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{
			MatchMAC:       "aa:bb:cc:dd:ee:ff",
			OnlineTimeout:  60 * time.Second,
			OnlineMessage:  "back",
			OfflineTimeout: 600 * time.Second,
			OfflineMessage: "gone",
		},
	})
	records := []*ClientRecord{rec}

	// Offline for 700s: fires at the 600s crossing and never again.
	events := runCycles(e, records, false, base, 70, 10*time.Second)
	assert.Len(t, events, 1)
	assert.Equal(t, models.ActionOffline, events[0].Direction)

	// Back online past the online threshold: the transition re-arms the
	// offline side and the online action fires.
	events = runCycles(e, records, true, base.Add(time.Hour), 10, 10*time.Second)
	assert.Len(t, events, 1)
	assert.Equal(t, models.ActionOnline, events[0].Direction)

	// A second full offline episode fires again.
	events = runCycles(e, records, false, base.Add(2*time.Hour), 70, 10*time.Second)
	assert.Len(t, events, 1)
	assert.Equal(t, models.ActionOffline, events[0].Direction)
}

func TestEvaluateOfflineOnlyRuleFiresEachEpisode(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := newClientRecord("aa:bb:cc:dd:ee:ff")
	rec.Name = "laptop"
	e := NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchMAC: "aa:bb:cc:dd:ee:ff", OfflineTimeout: 600 * time.Second, OfflineMessage: "gone"},
	})
	records := []*ClientRecord{rec}

	// First offline episode: fires once at the 600s crossing.
	events := runCycles(e, records, false, base, 65, 10*time.Second)
	assert.Len(t, events, 1)
	assert.Equal(t, models.ActionOffline, events[0].Direction)

	// A brief online interlude. The rule has no online action, so nothing
	// fires, but being online must still re-arm the offline trigger.
	events = runCycles(e, records, true, base.Add(650*time.Second), 5, 10*time.Second)
	assert.Empty(t, events)

	// Second offline episode: a fresh 600s crossing fires again.
	events = runCycles(e, records, false, base.Add(700*time.Second), 65, 10*time.Second)
	assert.Len(t, events, 1)
	assert.Equal(t, models.ActionOffline, events[0].Direction)
}

func TestEvaluateRuleWithoutDirectionStaysSilent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := newClientRecord("aa:bb:cc:dd:ee:ff")
	e := NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchMAC: "aa:bb:cc:dd:ee:ff", OfflineTimeout: 60 * time.Second, OfflineMessage: "gone"},
	})

	// The rule has no online action, so staying online fires nothing.
	events := runCycles(e, []*ClientRecord{rec}, true, base, 20, 10*time.Second)
	assert.Empty(t, events)
}

func TestMatchRulePriority(t *testing.T) {
	rec := newClientRecord("aa:bb:cc:dd:ee:ff")
	rec.IP = "10.0.0.2"
	rec.Name = "laptop"
	rec.Nickname = "Kid's laptop"

	e := NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchName: "kid's laptop", OnlineMessage: "by-name"},
		{MatchIP: "10.0.0.2", OnlineMessage: "by-ip"},
		{MatchMAC: "AA-BB-CC-DD-EE-FF", OnlineMessage: "by-mac"},
	})
	rule := e.matchRule(rec)
	assert.Equal(t, "by-mac", rule.OnlineMessage, "MAC match wins regardless of file order")

	e = NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchName: "kid's laptop", OnlineMessage: "by-name"},
		{MatchIP: "10.0.0.2", OnlineMessage: "by-ip"},
	})
	assert.Equal(t, "by-ip", e.matchRule(rec).OnlineMessage)

	e = NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchName: "KID'S LAPTOP", OnlineMessage: "by-name"},
	})
	assert.Equal(t, "by-name", e.matchRule(rec).OnlineMessage, "name matching is case-insensitive and checks nicknames")

	assert.Nil(t, e.matchRule(newClientRecord("11:22:33:44:55:66")))
}

func TestEvaluateClarifyByPingHoldsOfflineAction(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := newClientRecord("aa:bb:cc:dd:ee:ff")
	rec.IP = "10.0.0.2"
	e := NewTriggerEngine(config.MustGetLogger(), []models.ActionRule{
		{MatchMAC: "aa:bb:cc:dd:ee:ff", OfflineTimeout: 60 * time.Second, OfflineMessage: "gone", ClarifyByPing: true},
	})
	pinger := &stubPinger{alive: true}
	e.SetPinger(pinger)
	records := []*ClientRecord{rec}

	events := runCycles(e, records, false, base, 20, 10*time.Second)
	assert.Empty(t, events, "a client that answers ping holds the offline action")
	assert.NotEmpty(t, pinger.pinged)
	assert.Equal(t, models.Ip("10.0.0.2"), pinger.pinged[0])

	// Once the ping stops answering the held action fires on the next cycle.
	pinger.alive = false
	events = runCycles(e, records, false, base.Add(200*time.Second), 1, 10*time.Second)
	assert.Len(t, events, 1)
	assert.Equal(t, models.ActionOffline, events[0].Direction)
}

func TestForcedKinds(t *testing.T) {
	wifi := models.KindWifi24_5
	forced := ForcedKinds([]models.ActionRule{
		{MatchMAC: "AA-BB-CC-DD-EE-FF", ForceKind: &wifi},
		{MatchIP: "10.0.0.2", ForceKind: &wifi}, // no MAC matcher, cannot force
		{MatchMAC: "11:22:33:44:55:66"},
	})
	assert.Len(t, forced, 1)
	assert.Equal(t, models.KindWifi24_5, forced["aa:bb:cc:dd:ee:ff"])
}

func TestRenderMessage(t *testing.T) {
	msg := renderMessage("{name} seen for {time}", "laptop", 3661*time.Second)
	assert.Equal(t, "laptop seen for 1:01:01", msg)

	msg = renderMessage("", "laptop", 90*time.Second)
	assert.Equal(t, "laptop: 0:01:30", msg)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00:00", FormatDuration(0))
	assert.Equal(t, "0:00:00", FormatDuration(-5*time.Second))
	assert.Equal(t, "0:01:05", FormatDuration(65*time.Second))
	assert.Equal(t, "26:00:42", FormatDuration(26*time.Hour+42*time.Second))
}
