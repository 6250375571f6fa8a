package source

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"wanwatch/models"
)

var (
	fnLinkList = netlink.LinkList
	fnAddrList = netlink.AddrList
)

// NetlinkAdapterSource samples interface counters from the local kernel,
// for running directly on a Linux gateway. The counters are the kernel's
// cumulative link statistics; the accountant handles their resets.
type NetlinkAdapterSource struct {
	logger *zap.SugaredLogger
}

func NewNetlinkAdapterSource(logger *zap.SugaredLogger) *NetlinkAdapterSource {
	return &NetlinkAdapterSource{logger: logger}
}

// Read implements models.AdapterSnapshotSource.
func (s *NetlinkAdapterSource) Read(ctx context.Context) ([]models.AdapterSample, error) {
	links, err := fnLinkList()
	if err != nil {
		return nil, fmt.Errorf("link list: %w", err)
	}

	samples := make([]models.AdapterSample, 0, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		if attrs == nil || attrs.Statistics == nil {
			continue
		}
		sample := models.AdapterSample{
			Adapter:   models.AdapterID(attrs.Name),
			RxBytes:   attrs.Statistics.RxBytes,
			TxBytes:   attrs.Statistics.TxBytes,
			RxPackets: attrs.Statistics.RxPackets,
			TxPackets: attrs.Statistics.TxPackets,
			RxDropped: attrs.Statistics.RxDropped,
			TxDropped: attrs.Statistics.TxDropped,
		}
		// First v4 address, so provider accounts can track changes.
		addrs, err := fnAddrList(l, netlink.FAMILY_V4)
		if err != nil {
			s.logger.Debugf("Address list for %v failed: %v", attrs.Name, err)
		} else if len(addrs) > 0 && addrs[0].IP != nil {
			sample.IP = models.Ip(addrs[0].IP.String())
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
