package clients

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"wanwatch/models"
)

// TriggerEngine evaluates every reconciled client against the configured
// action rules and fires each direction at most once per episode. It
// mutates only the fired-at markers inside each record's status.
type TriggerEngine struct {
	logger *zap.SugaredLogger
	rules  []models.ActionRule
	pinger models.Pinger
}

func NewTriggerEngine(logger *zap.SugaredLogger, rules []models.ActionRule) *TriggerEngine {
	return &TriggerEngine{logger: logger, rules: rules}
}

// SetPinger enables clarify-by-ping checks before offline actions.
func (e *TriggerEngine) SetPinger(p models.Pinger) {
	e.pinger = p
}

// ForcedKinds extracts the per-MAC forced connection kinds from the rule
// set, for the reconciler's override pass.
func ForcedKinds(rules []models.ActionRule) map[models.MAC]models.ConnectionKind {
	forced := make(map[models.MAC]models.ConnectionKind)
	for _, r := range rules {
		if r.ForceKind != nil && r.MatchMAC != "" {
			forced[models.NewMAC(r.MatchMAC)] = *r.ForceKind
		}
	}
	return forced
}

// matchRule returns the first rule matching the client. MAC matches take
// priority over IP matches over name-or-nickname matches; within each
// pass the rules keep file order.
func (e *TriggerEngine) matchRule(rec *ClientRecord) *models.ActionRule {
	for i := range e.rules {
		r := &e.rules[i]
		if r.MatchMAC != "" && models.NewMAC(r.MatchMAC) == rec.MAC {
			return r
		}
	}
	for i := range e.rules {
		r := &e.rules[i]
		if r.MatchIP != "" && models.Ip(r.MatchIP) == rec.IP {
			return r
		}
	}
	for i := range e.rules {
		r := &e.rules[i]
		if r.MatchName != "" &&
			(strings.EqualFold(r.MatchName, rec.Name) || strings.EqualFold(r.MatchName, rec.Nickname)) {
			return r
		}
	}
	return nil
}

// Evaluate fires the actions due this cycle. A fired direction sets its
// own marker; the marker holds for the rest of the episode and is cleared
// by the duration machine once the client transitions to the other state,
// so a client oscillating around the threshold cannot re-fire within one
// episode but a fresh episode always re-arms.
func (e *TriggerEngine) Evaluate(records []*ClientRecord, now time.Time) []models.ActionEvent {
	var events []models.ActionEvent

	for _, rec := range records {
		rule := e.matchRule(rec)
		if rule == nil {
			continue
		}
		st := &rec.Status

		if rec.Online {
			if !hasOnlineAction(rule) || !st.OnlineActionFiredAt.IsZero() || st.OnlineFor < rule.OnlineTimeout {
				continue
			}
			events = append(events, models.ActionEvent{
				MAC:           rec.MAC,
				Name:          rec.DisplayName(),
				Direction:     models.ActionOnline,
				Message:       renderMessage(rule.OnlineMessage, rec.DisplayName(), st.OnlineFor),
				LockRequested: rule.OnlineLock,
			})
			st.OnlineActionFiredAt = now
			e.logger.Infof("Online action fired for %v after %v", rec.DisplayName(), st.OnlineFor)
			continue
		}

		if !hasOfflineAction(rule) || !st.OfflineActionFiredAt.IsZero() || st.OfflineFor < rule.OfflineTimeout {
			continue
		}
		if rule.ClarifyByPing && e.pinger != nil && rec.IP != "" && e.pinger.Ping(rec.IP) {
			// The client still answers; hold the action and keep the
			// trigger armed.
			e.logger.Infof("Offline action for %v held: client answered ping", rec.DisplayName())
			continue
		}
		events = append(events, models.ActionEvent{
			MAC:           rec.MAC,
			Name:          rec.DisplayName(),
			Direction:     models.ActionOffline,
			Message:       renderMessage(rule.OfflineMessage, rec.DisplayName(), st.OfflineFor),
			LockRequested: rule.OfflineLock,
		})
		st.OfflineActionFiredAt = now
		e.logger.Infof("Offline action fired for %v after %v", rec.DisplayName(), st.OfflineFor)
	}

	return events
}

func hasOnlineAction(r *models.ActionRule) bool {
	return r.OnlineMessage != "" || r.OnlineLock
}

func hasOfflineAction(r *models.ActionRule) bool {
	return r.OfflineMessage != "" || r.OfflineLock
}

// renderMessage substitutes {time} and {name} in a rule's template. An
// empty template falls back to a minimal name-and-time line.
func renderMessage(tmpl, name string, d time.Duration) string {
	if tmpl == "" {
		tmpl = "{name}: {time}"
	}
	msg := strings.ReplaceAll(tmpl, "{time}", FormatDuration(d))
	return strings.ReplaceAll(msg, "{name}", name)
}

// FormatDuration renders a duration as H:MM:SS, mirroring the gateway's
// own wl-connect time format.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
