package observability

type Metrics interface {
	ObservePartnerCall(endpoint string, status int, durMs float64)
	ObserveBatch(legs, failed int, durMs float64)
	ObserveTokenFetch(attempts int, ok bool)
	ObserveFulfill(kind, outcome string, durMs float64)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveKafka(processMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObservePartnerCall(string, int, float64)  {}
func (Noop) ObserveBatch(int, int, float64)           {}
func (Noop) ObserveTokenFetch(int, bool)              {}
func (Noop) ObserveFulfill(string, string, float64)   {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveKafka(float64, bool)               {}
func (Noop) IncCacheHit()                             {}
func (Noop) IncCacheMiss()                            {}
