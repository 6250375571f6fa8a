package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"wanwatch/models"
)

var nowFunc = time.Now

// oracleResponse mirrors the JSON published by the mac-ip scanner helper.
type oracleResponse struct {
	Timestamp int64         `json:"timestamp"`
	Entries   []oracleEntry `json:"entries"`
}

type oracleEntry struct {
	IP   string `json:"ip"`
	MAC  string `json:"mac"`
	Kind string `json:"kind"`
	Seen int64  `json:"seen"` // seconds the scanner has continuously seen the device
}

// OracleClient queries an external presence oracle: an ARP scanner that
// publishes its table over HTTP. The client enforces the configured
// refresh rate itself, so the polling loop may call Query every cycle;
// calls inside the window return the previous entries without touching the
// network.
type OracleClient struct {
	logger      *zap.SugaredLogger
	url         string
	client      *http.Client
	refreshRate time.Duration

	lastQuery time.Time
	cached    []models.ReliablePresenceEntry
}

func NewOracleClient(logger *zap.SugaredLogger, host string, port int, refreshRate time.Duration) *OracleClient {
	return &OracleClient{
		logger:      logger,
		url:         fmt.Sprintf("http://%v:%v/", host, port),
		client:      &http.Client{Timeout: 10 * time.Second},
		refreshRate: refreshRate,
	}
}

// Query returns the latest oracle view. A transport or decode failure is
// non-fatal: nil entries come back with the error and callers fall back to
// the router's own online flags for the cycle.
func (o *OracleClient) Query(ctx context.Context) ([]models.ReliablePresenceEntry, error) {
	now := nowFunc()
	if !o.lastQuery.IsZero() && now.Sub(o.lastQuery) < o.refreshRate {
		return o.cached, nil
	}
	o.lastQuery = now
	o.cached = nil

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle request: %w", err)
	}
	res, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle query: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle status %d", res.StatusCode)
	}

	var body oracleResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("oracle decode: %w", err)
	}

	entries := make([]models.ReliablePresenceEntry, 0, len(body.Entries))
	for _, e := range body.Entries {
		if !models.ValidMAC(e.MAC) {
			o.logger.Debugf("Oracle entry with bad MAC %q skipped", e.MAC)
			continue
		}
		entries = append(entries, models.ReliablePresenceEntry{
			MAC:     models.NewMAC(e.MAC),
			IP:      models.Ip(e.IP),
			SeenFor: time.Duration(e.Seen) * time.Second,
		})
	}

	o.cached = entries
	o.logger.Debugf("Oracle reported %d entries (timestamp %v)", len(entries), body.Timestamp)
	return entries, nil
}
