package observability

import (
	"net/http"
	"strconv"
	"strings"
)

// Phase is one timed step of a request as reported in Server-Timing.
type Phase struct {
	Name string
	Ms   float64
	Desc string
}

func (p Phase) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Ms > 0 {
		b.WriteString(";dur=")
		b.WriteString(strconv.FormatFloat(p.Ms, 'f', 2, 64))
	}
	if p.Desc != "" {
		b.WriteString(";desc=")
		b.WriteString(strconv.Quote(p.Desc))
	}
	return b.String()
}

// WriteTiming adds the phases as one Server-Timing value. Phases with neither
// a duration nor a description are left out.
func WriteTiming(w http.ResponseWriter, phases ...Phase) {
	parts := make([]string, 0, len(phases))
	for _, p := range phases {
		if p.Name == "" || (p.Ms <= 0 && p.Desc == "") {
			continue
		}
		parts = append(parts, p.String())
	}
	if len(parts) > 0 {
		w.Header().Add("Server-Timing", strings.Join(parts, ", "))
	}
}

// SetMillis sets key to ms with two decimals. Non-positive values leave the header untouched.
func SetMillis(w http.ResponseWriter, key string, ms float64) {
	if ms > 0 {
		w.Header().Set(key, strconv.FormatFloat(ms, 'f', 2, 64))
	}
}
