package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"wanwatch/clients"
	"wanwatch/config"
	"wanwatch/models"
	"wanwatch/traffic"
)

// StatusCache holds the snapshot published at the end of each polling
// cycle. The core's maps are single-writer, so HTTP handlers read this
// cache instead of the live registries.
type StatusCache struct {
	mu             sync.RWMutex
	providers      []traffic.ProviderStats
	globalMaxSpeed float64
	clients        []clients.ClientView
	counts         map[models.HardwareID]clients.HardwareCounts
	updatedAt      time.Time
}

func NewStatusCache() *StatusCache {
	return &StatusCache{}
}

// Update replaces the published snapshot. Called by the polling loop only.
func (c *StatusCache) Update(providers []traffic.ProviderStats, globalMax float64, views []clients.ClientView, counts map[models.HardwareID]clients.HardwareCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = providers
	c.globalMaxSpeed = globalMax
	c.clients = views
	c.counts = counts
	c.updatedAt = time.Now()
}

func (c *StatusCache) snapshot() (providers []traffic.ProviderStats, globalMax float64, views []clients.ClientView, counts map[models.HardwareID]clients.HardwareCounts, updatedAt time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.providers, c.globalMaxSpeed, c.clients, c.counts, c.updatedAt
}

type Handler struct {
	logger    *zap.SugaredLogger
	startTime time.Time
	cache     *StatusCache
}

// NewServer builds the read-only status API server.
func NewServer(logger *zap.SugaredLogger, cache *StatusCache) *http.Server {
	h := &Handler{
		logger:    logger,
		startTime: time.Now(),
		cache:     cache,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/providers", h.providersHandler)
	mux.HandleFunc("/api/clients", h.clientsHandler)
	mux.HandleFunc("/api/summary", h.summaryHandler)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", config.AppCfg.WebConfig.WebPort),
		Handler: mux,
	}
}
