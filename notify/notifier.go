package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"wanwatch/config"
	"wanwatch/models"
	"wanwatch/traffic"
)

var (
	telegramBaseURL = "https://api.telegram.org"
	fnLockCmd       = func(command string) error {
		return exec.Command("sh", "-c", command).Run()
	}
)

// Notifier delivers action and address-change events via a Telegram bot
// and runs the configured lock command when an action requests it. With
// no token configured, events are only logged.
type Notifier struct {
	logger *zap.SugaredLogger
	cfg    *config.NotifyConfig
	demo   bool
	client *http.Client
}

func New(logger *zap.SugaredLogger, cfg *config.NotifyConfig, demo bool) *Notifier {
	return &Notifier{
		logger: logger,
		cfg:    cfg,
		demo:   demo,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) enabled() bool {
	return n.cfg.TelegramToken != "" && n.cfg.TelegramChatID != ""
}

func (n *Notifier) send(ctx context.Context, msg string) error {
	if !n.enabled() {
		return nil
	}
	payload := map[string]any{
		"chat_id":                  n.cfg.TelegramChatID,
		"text":                     msg,
		"disable_web_page_preview": true,
	}
	b, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramBaseURL, n.cfg.TelegramToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	if res.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// HandleAction consumes one fired trigger. Delivery failures are logged,
// never propagated; the trigger stays fired either way. In demo mode the
// client's MAC is masked wherever it appears: a client with no name falls
// back to its MAC as the display name, so rendered messages can carry it.
func (n *Notifier) HandleAction(ctx context.Context, ev models.ActionEvent) {
	name, msg := ev.Name, ev.Message
	if n.demo && ev.MAC != "" {
		masked := string(RedactMAC(ev.MAC))
		name = strings.ReplaceAll(name, string(ev.MAC), masked)
		msg = strings.ReplaceAll(msg, string(ev.MAC), masked)
	}
	n.logger.Infof("Action %v for %v: %v (lock=%v)", ev.Direction, name, msg, ev.LockRequested)
	if err := n.send(ctx, msg); err != nil {
		n.logger.Errorf("Failed to deliver %v action for %v: %v", ev.Direction, name, err)
	}
	if ev.LockRequested {
		n.lockWorkstation()
	}
}

// HandleIPChange announces a provider address change, with demo-mode
// redaction applied here rather than in the accounting core.
func (n *Notifier) HandleIPChange(ctx context.Context, ch traffic.IPChange) {
	from, to := ch.From, ch.To
	if n.demo {
		from, to = RedactIP(from), RedactIP(to)
	}
	msg := fmt.Sprintf("Provider %v address changed: %v -> %v (change #%d)", ch.Provider, from, to, ch.Count)
	n.logger.Info(msg)
	if err := n.send(ctx, msg); err != nil {
		n.logger.Errorf("Failed to deliver IP change notice for %v: %v", ch.Provider, err)
	}
}

func (n *Notifier) lockWorkstation() {
	if n.cfg.LockCommand == "" {
		n.logger.Warn("Lock requested but no lock command configured")
		return
	}
	if err := fnLockCmd(n.cfg.LockCommand); err != nil {
		n.logger.Errorf("Lock command failed: %v", err)
	}
}

// RedactIP masks the host octet: 192.168.1.23 becomes 192.168.1.xxx.
func RedactIP(ip models.Ip) models.Ip {
	parts := strings.Split(string(ip), ".")
	if len(parts) != 4 {
		return ip
	}
	return models.Ip(strings.Join(append(parts[:3], "xxx"), "."))
}

// RedactMAC keeps the vendor prefix: aa:bb:cc:dd:ee:ff becomes
// aa:bb:xx:xx:xx:xx.
func RedactMAC(mac models.MAC) models.MAC {
	parts := strings.Split(string(mac), ":")
	if len(parts) != 6 {
		return mac
	}
	return models.MAC(strings.Join(append(parts[:2], "xx", "xx", "xx", "xx"), ":"))
}
