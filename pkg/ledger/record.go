package ledger

import (
	"time"

	"tickerwire/llmgateway/pkg/gateway"
)

const dayLayout = "2006-01-02"

// Record is one persisted gateway response.
type Record struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	RecordedAt    time.Time `json:"recorded_at"`
	Feature       string    `json:"feature"`
	Provider      string    `json:"provider,omitempty"`
	Model         string    `json:"model,omitempty"`
	Tier          string    `json:"tier,omitempty"`
	Cached        bool      `json:"cached"`
	Failed        bool      `json:"failed"`
	SafetyBlocked bool      `json:"safety_blocked"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	TokensIn      int       `json:"tokens_in"`
	TokensOut     int       `json:"tokens_out"`
	CostUSD       float64   `json:"cost_usd"`
	LatencyMS     int64     `json:"latency_ms"`
	Retries       int       `json:"retries"`
}

// FromResponse builds a Record for resp. ID and RecordedAt are left for the
// Store to fill.
func FromResponse(req gateway.Request, resp gateway.Response) Record {
	feature := req.Feature
	if feature == "" {
		feature = gateway.DefaultFeature
	}
	return Record{
		RequestID:     resp.RequestID,
		Feature:       feature,
		Provider:      resp.Provider,
		Model:         resp.Model,
		Tier:          resp.Tier,
		Cached:        resp.Cached,
		Failed:        !resp.OK(),
		SafetyBlocked: resp.SafetyBlocked,
		ErrorKind:     resp.ErrorKind,
		TokensIn:      resp.TokensIn,
		TokensOut:     resp.TokensOut,
		CostUSD:       resp.CostUSD,
		LatencyMS:     resp.LatencyMS,
		Retries:       resp.Retries,
	}
}

// DailyUsage is the rollup of one UTC day for one provider.
type DailyUsage struct {
	Day       string  `json:"day"`
	Provider  string  `json:"provider"`
	Requests  int64   `json:"requests"`
	CacheHits int64   `json:"cache_hits"`
	Errors    int64   `json:"errors"`
	TokensIn  int64   `json:"tokens_in"`
	TokensOut int64   `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
}

// Filter narrows a rollup. Zero values match everything.
type Filter struct {
	// Since and Until bound the UTC day range, both inclusive.
	Since time.Time
	Until time.Time

	Feature string
}
