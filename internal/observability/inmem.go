package observability

import "sync"

type observe struct {
	Kind    string
	Name    string
	Status  int
	Dur     float64
	OK      bool
	Count   int
	Failed  int
	Outcome string
}

// Inmem keeps the last max observations for tests.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals struct {
		cacheHits, cacheMiss int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObservePartnerCall(endpoint string, status int, durMs float64) {
	m.push(&observe{Kind: "partner", Name: endpoint, Status: status, Dur: durMs})
}

func (m *Inmem) ObserveBatch(legs, failed int, durMs float64) {
	m.push(&observe{Kind: "batch", Count: legs, Failed: failed, Dur: durMs})
}

func (m *Inmem) ObserveTokenFetch(attempts int, ok bool) {
	m.push(&observe{Kind: "token", Count: attempts, OK: ok})
}

func (m *Inmem) ObserveFulfill(kind, outcome string, durMs float64) {
	m.push(&observe{Kind: "fulfill", Name: kind, Outcome: outcome, Dur: durMs})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Name: method + " " + route, Status: status, Dur: durMs})
}

func (m *Inmem) ObserveKafka(processMs float64, ok bool) {
	m.push(&observe{Kind: "kafka", Dur: processMs, OK: ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}
func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}

func (m *Inmem) CacheStats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.cacheHits, m.totals.cacheMiss
}

// Kinds lists the kinds of the retained observations, oldest first.
func (m *Inmem) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.last))
	for _, o := range m.last {
		out = append(out, o.Kind)
	}
	return out
}

// Outcomes returns fulfill outcomes in observation order.
func (m *Inmem) Outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, o := range m.last {
		if o.Kind == "fulfill" {
			out = append(out, o.Outcome)
		}
	}
	return out
}

// Routes returns "METHOD pattern" of the retained http observations.
func (m *Inmem) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, o := range m.last {
		if o.Kind == "http" {
			out = append(out, o.Name)
		}
	}
	return out
}
