package traffic

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"wanwatch/models"
)

// TotalProvider is the synthetic account aggregating all configured
// providers.
const TotalProvider = models.ProviderID("TOTAL")

// Speed is one cycle's transfer rate for a provider, bytes per second,
// never negative.
type Speed struct {
	Rx float64
	Tx float64
}

// IPChange reports that a provider's address moved between cycles.
// Redaction for demo mode is the notifier's job, not this package's.
type IPChange struct {
	Provider models.ProviderID
	From     models.Ip
	To       models.Ip
	Count    int
}

// Accountant owns every ProviderAccount and its rolling windows. Only the
// polling loop writes to it; readers must consume published snapshots
// between cycles.
type Accountant struct {
	logger      *zap.SugaredLogger
	stepsToShow int
	bindings    map[models.ProviderID]models.AdapterID
	accounts    map[models.ProviderID]*ProviderAccount
	rxWindows   map[models.ProviderID]*RollingWindow
	txWindows   map[models.ProviderID]*RollingWindow
	order       []models.ProviderID // configured providers in stable order, TOTAL excluded
	initialized bool
}

func NewAccountant(logger *zap.SugaredLogger, stepsToShow int, bindings map[models.ProviderID]models.AdapterID) *Accountant {
	order := make([]models.ProviderID, 0, len(bindings))
	for p := range bindings {
		order = append(order, p)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	return &Accountant{
		logger:      logger,
		stepsToShow: stepsToShow,
		bindings:    bindings,
		accounts:    make(map[models.ProviderID]*ProviderAccount),
		rxWindows:   make(map[models.ProviderID]*RollingWindow),
		txWindows:   make(map[models.ProviderID]*RollingWindow),
		order:       order,
	}
}

func samplesByAdapter(samples []models.AdapterSample) map[models.AdapterID]models.AdapterSample {
	m := make(map[models.AdapterID]models.AdapterSample, len(samples))
	for _, s := range samples {
		m[s.Adapter] = s
	}
	return m
}

// Initialize seeds the accounts from the first successful adapter read.
// Providers whose adapter is missing from the read are left uncreated
// until it appears.
func (a *Accountant) Initialize(samples []models.AdapterSample) {
	byAdapter := samplesByAdapter(samples)

	for _, p := range a.order {
		s, ok := byAdapter[a.bindings[p]]
		if !ok {
			a.logger.Warnf("Provider %v: adapter %v absent from initial read", p, a.bindings[p])
			continue
		}
		a.accounts[p] = newProviderAccount(p, a.bindings[p], s)
		a.rxWindows[p] = NewRollingWindow(a.stepsToShow)
		a.txWindows[p] = NewRollingWindow(a.stepsToShow)
	}

	a.accounts[TotalProvider] = &ProviderAccount{Provider: TotalProvider, IPChangeCount: -1}
	a.rxWindows[TotalProvider] = NewRollingWindow(a.stepsToShow)
	a.txWindows[TotalProvider] = NewRollingWindow(a.stepsToShow)
	a.recomputeTotal()

	a.initialized = true
	a.logger.Infof("Traffic accountant initialised with %d of %d providers", len(a.accounts)-1, len(a.order))
}

// Initialized reports whether the first adapter read has been consumed.
func (a *Accountant) Initialized() bool {
	return a.initialized
}

// Refresh ingests one cycle of adapter samples. It returns the clamped
// per-provider speeds (TOTAL included) and any real IP changes. Offline
// flags are recomputed after the rolling windows are updated.
func (a *Accountant) Refresh(samples []models.AdapterSample, elapsed time.Duration) (map[models.ProviderID]Speed, []IPChange) {
	byAdapter := samplesByAdapter(samples)
	speeds := make(map[models.ProviderID]Speed, len(a.order)+1)
	var changes []IPChange
	secs := elapsed.Seconds()

	var total Speed
	for _, p := range a.order {
		acc, ok := a.accounts[p]
		if !ok {
			// Adapter was absent at initialisation; adopt it now.
			if s, present := byAdapter[a.bindings[p]]; present {
				a.accounts[p] = newProviderAccount(p, a.bindings[p], s)
				a.rxWindows[p] = NewRollingWindow(a.stepsToShow)
				a.txWindows[p] = NewRollingWindow(a.stepsToShow)
			}
			continue
		}
		s, present := byAdapter[acc.Adapter]
		if !present {
			continue
		}

		rxDelta, txDelta := acc.applySample(s)
		if rxDelta == s.RxBytes && s.RxBytes < acc.RxPrevious {
			a.logger.Infof("Provider %v: rx counter reset detected, accounting %d bytes from zero", p, rxDelta)
		}

		from := acc.IP
		if acc.trackIP(s.IP, s.IsDdns) {
			changes = append(changes, IPChange{Provider: p, From: from, To: s.IP, Count: acc.IPChangeCount})
		}

		sp := Speed{Rx: speedOf(rxDelta, secs), Tx: speedOf(txDelta, secs)}
		if sp.Rx == 0 {
			acc.IdleRxCycles++
		}
		if sp.Tx == 0 {
			acc.IdleTxCycles++
		}

		a.rxWindows[p].Push(sp.Rx)
		a.txWindows[p].Push(sp.Tx)
		speeds[p] = sp

		total.Rx += sp.Rx
		total.Tx += sp.Tx
	}

	// TOTAL is resummed from scratch every cycle rather than maintained
	// incrementally, so it can never drift from the per-provider totals.
	a.recomputeTotal()

	totalAcc := a.accounts[TotalProvider]
	if total.Rx == 0 {
		totalAcc.IdleRxCycles++
	}
	if total.Tx == 0 {
		totalAcc.IdleTxCycles++
	}
	a.rxWindows[TotalProvider].Push(total.Rx)
	a.txWindows[TotalProvider].Push(total.Tx)
	speeds[TotalProvider] = total

	for p, acc := range a.accounts {
		acc.Offline = a.detectOffline(p)
	}

	return speeds, changes
}

// speedOf converts a cycle delta to bytes per second, clamped to >= 0. A
// transient negative or a zero elapsed time reports as zero rather than
// propagating.
func speedOf(delta uint64, secs float64) float64 {
	if secs <= 0 {
		return 0
	}
	v := float64(delta) / secs
	if v < 0 {
		return 0
	}
	return v
}

func (a *Accountant) recomputeTotal() {
	total := a.accounts[TotalProvider]
	total.RxCurrent, total.RxPrevious, total.RxAtStart, total.RxAccumulated = 0, 0, 0, 0
	total.TxCurrent, total.TxPrevious, total.TxAtStart, total.TxAccumulated = 0, 0, 0, 0
	for _, p := range a.order {
		acc, ok := a.accounts[p]
		if !ok {
			continue
		}
		total.RxCurrent += acc.RxCurrent
		total.RxPrevious += acc.RxPrevious
		total.RxAtStart += acc.RxAtStart
		total.RxAccumulated += acc.RxAccumulated
		total.TxCurrent += acc.TxCurrent
		total.TxPrevious += acc.TxPrevious
		total.TxAtStart += acc.TxAtStart
		total.TxAccumulated += acc.TxAccumulated
	}
}

// detectOffline: a provider is offline when either direction's window max
// is stuck at zero, or it has no address at all. TOTAL never carries an
// address so the address check does not apply to it.
func (a *Accountant) detectOffline(p models.ProviderID) bool {
	acc := a.accounts[p]
	rxw, txw := a.rxWindows[p], a.txWindows[p]
	if rxw == nil || txw == nil {
		return true
	}
	if rxw.Max == 0 || txw.Max == 0 {
		return true
	}
	if acc.IP == "" && p != TotalProvider {
		return true
	}
	return false
}

// Account returns the live account for a provider, or nil.
func (a *Accountant) Account(p models.ProviderID) *ProviderAccount {
	return a.accounts[p]
}

// Windows returns the live rx and tx windows for a provider.
func (a *Accountant) Windows(p models.ProviderID) (rx, tx *RollingWindow) {
	return a.rxWindows[p], a.txWindows[p]
}

// GlobalMaxSpeed returns the largest window maximum across all configured
// providers in either direction. Renderers use it to scale bar graphs
// proportionally.
func (a *Accountant) GlobalMaxSpeed() float64 {
	max := 0.0
	for _, p := range a.order {
		if w := a.rxWindows[p]; w != nil && w.Max > max {
			max = w.Max
		}
		if w := a.txWindows[p]; w != nil && w.Max > max {
			max = w.Max
		}
	}
	return max
}

// RollingStats is the JSON-friendly view of one direction's window.
type RollingStats struct {
	Sum       float64 `json:"sum"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Avg       float64 `json:"avg"`
	GlobalMin float64 `json:"globalMin"`
	GlobalMax float64 `json:"globalMax"`
	GlobalAvg float64 `json:"globalAvg"`
}

// ProviderStats is the published per-provider snapshot.
type ProviderStats struct {
	Provider      models.ProviderID `json:"provider"`
	Adapter       models.AdapterID  `json:"adapter,omitempty"`
	IP            models.Ip         `json:"ip,omitempty"`
	IsDdns        bool              `json:"isDdns,omitempty"`
	Offline       bool              `json:"offline"`
	IPChanges     int               `json:"ipChanges"`
	RxAccumulated uint64            `json:"rxAccumulated"`
	TxAccumulated uint64            `json:"txAccumulated"`
	IdleRxCycles  int               `json:"idleRxCycles"`
	IdleTxCycles  int               `json:"idleTxCycles"`
	Rx            RollingStats      `json:"rx"`
	Tx            RollingStats      `json:"tx"`
}

func rollingStats(w *RollingWindow) RollingStats {
	if w == nil {
		return RollingStats{}
	}
	gmin := w.GlobalMin
	if w.Len() == 0 {
		gmin = 0
	}
	return RollingStats{
		Sum:       w.Sum,
		Min:       w.Min,
		Max:       w.Max,
		Avg:       w.Avg,
		GlobalMin: gmin,
		GlobalMax: w.GlobalMax,
		GlobalAvg: w.GlobalAvg,
	}
}

// Stats publishes the per-provider view for rendering and the web API,
// configured providers first, TOTAL last.
func (a *Accountant) Stats() []ProviderStats {
	out := make([]ProviderStats, 0, len(a.order)+1)
	for _, p := range append(append([]models.ProviderID{}, a.order...), TotalProvider) {
		acc, ok := a.accounts[p]
		if !ok {
			continue
		}
		changes := acc.IPChangeCount
		if changes < 0 {
			changes = 0
		}
		out = append(out, ProviderStats{
			Provider:      p,
			Adapter:       acc.Adapter,
			IP:            acc.IP,
			IsDdns:        acc.IsDdns,
			Offline:       acc.Offline,
			IPChanges:     changes,
			RxAccumulated: acc.RxAccumulated,
			TxAccumulated: acc.TxAccumulated,
			IdleRxCycles:  acc.IdleRxCycles,
			IdleTxCycles:  acc.IdleTxCycles,
			Rx:            rollingStats(a.rxWindows[p]),
			Tx:            rollingStats(a.txWindows[p]),
		})
	}
	return out
}
