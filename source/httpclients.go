package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
	"wanwatch/models"
)

// rawClientJSON is one row of the client table an access-point export
// serves, keyed by the device's unvalidated idea of a MAC.
type rawClientJSON struct {
	IP            string `json:"ip"`
	IsWL          int    `json:"isWL"`
	Vendor        string `json:"vendor"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Type          int    `json:"type"`
	IsOnline      int    `json:"isOnline"`
	RSSI          int    `json:"rssi"`
	CurRx         uint64 `json:"curRx"`
	CurTx         uint64 `json:"curTx"`
	WlConnectTime string `json:"wlConnectTime"`
}

// HTTPClientSource fetches hardware devices' client tables over HTTP.
// Missing fields in the payload arrive as zero values; the reconciler
// copes with partial rows.
type HTTPClientSource struct {
	logger    *zap.SugaredLogger
	endpoints map[models.HardwareID]string
	client    *http.Client
}

func NewHTTPClientSource(logger *zap.SugaredLogger, endpoints map[models.HardwareID]string) *HTTPClientSource {
	return &HTTPClientSource{
		logger:    logger,
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Hardware lists the configured hardware device IDs in stable order.
func (s *HTTPClientSource) Hardware() []models.HardwareID {
	out := make([]models.HardwareID, 0, len(s.endpoints))
	for hw := range s.endpoints {
		out = append(out, hw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Read implements models.ClientSnapshotSource for one hardware device.
func (s *HTTPClientSource) Read(ctx context.Context, hw models.HardwareID) (map[string]models.RawClient, error) {
	url, ok := s.endpoints[hw]
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for hardware %v", hw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client table request for %v: %w", hw, err)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client table fetch for %v: %w", hw, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client table fetch for %v: status %d", hw, res.StatusCode)
	}

	raw := make(map[string]rawClientJSON)
	if err := json.NewDecoder(io.LimitReader(res.Body, 4<<20)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("client table decode for %v: %w", hw, err)
	}

	table := make(map[string]models.RawClient, len(raw))
	for key, r := range raw {
		table[key] = models.RawClient{
			IP:            models.Ip(r.IP),
			WirelessCode:  r.IsWL,
			Vendor:        r.Vendor,
			Name:          r.Name,
			Nickname:      r.Nickname,
			DeviceType:    r.Type,
			IsOnline:      r.IsOnline != 0,
			RSSI:          r.RSSI,
			WifiRxBytes:   r.CurRx,
			WifiTxBytes:   r.CurTx,
			WifiClockTime: r.WlConnectTime,
		}
	}
	return table, nil
}
