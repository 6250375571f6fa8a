package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"wanwatch/models"
)

var fnNeighList = netlink.NeighList

// NeighborScanner reads the local ARP/NDP tables, for deployments where
// this process runs on the gateway itself and no external oracle is
// available. Seen-for ages are tracked from the first cycle a MAC appears
// and reset when it vanishes from the tables.
type NeighborScanner struct {
	logger    *zap.SugaredLogger
	firstSeen map[models.MAC]time.Time
}

func NewNeighborScanner(logger *zap.SugaredLogger) *NeighborScanner {
	return &NeighborScanner{
		logger:    logger,
		firstSeen: make(map[models.MAC]time.Time),
	}
}

// Query implements models.ReliablePresenceSource from the kernel neighbor
// tables. Incomplete and failed entries are not presence.
func (s *NeighborScanner) Query(ctx context.Context) ([]models.ReliablePresenceEntry, error) {
	now := nowFunc()

	var neighs []netlink.Neigh
	for _, family := range []int{netlink.FAMILY_V4, netlink.FAMILY_V6} {
		ns, err := fnNeighList(0, family)
		if err != nil {
			return nil, fmt.Errorf("neighbor list: %w", err)
		}
		neighs = append(neighs, ns...)
	}

	present := make(map[models.MAC]models.ReliablePresenceEntry)
	for _, n := range neighs {
		if n.State&(netlink.NUD_INCOMPLETE|netlink.NUD_FAILED) != 0 {
			continue
		}
		if len(n.HardwareAddr) != 6 || n.IP == nil {
			continue
		}
		mac := models.NewMAC(n.HardwareAddr.String())
		if mac == "00:00:00:00:00:00" {
			continue
		}
		if _, ok := s.firstSeen[mac]; !ok {
			s.firstSeen[mac] = now
		}
		if _, ok := present[mac]; ok {
			continue // keep the first (v4) address for a dual-stack device
		}
		present[mac] = models.ReliablePresenceEntry{
			MAC:     mac,
			IP:      models.Ip(n.IP.String()),
			SeenFor: now.Sub(s.firstSeen[mac]),
		}
	}

	// Devices gone from the tables start a fresh age when they return.
	for mac := range s.firstSeen {
		if _, ok := present[mac]; !ok {
			delete(s.firstSeen, mac)
		}
	}

	entries := make([]models.ReliablePresenceEntry, 0, len(present))
	for _, e := range present {
		entries = append(entries, e)
	}
	return entries, nil
}
