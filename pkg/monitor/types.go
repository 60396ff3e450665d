package monitor

import "time"

// Outcome describes one completed gateway request.
type Outcome struct {
	Provider  string
	Model     string
	Feature   string
	Cached    bool
	Failed    bool
	TokensIn  int
	TokensOut int
	CostUSD   float64
	Latency   time.Duration
}

// Breakdown accumulates usage for one provider, feature or model.
type Breakdown struct {
	Requests  int64   `json:"requests"`
	TokensIn  int64   `json:"tokens_in"`
	TokensOut int64   `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
	Errors    int64   `json:"errors"`
}

// Thresholds configures budget alerting. A zero threshold disables that
// alert.
type Thresholds struct {
	DailyCostAlert       float64 `yaml:"daily_cost_alert" json:"daily_cost_alert"`
	MonthlyCostAlert     float64 `yaml:"monthly_cost_alert" json:"monthly_cost_alert"`
	MonthlyCostHardLimit float64 `yaml:"monthly_cost_hard_limit" json:"monthly_cost_hard_limit"`
}

// DefaultThresholds returns the stock alert thresholds in USD.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DailyCostAlert:       5.0,
		MonthlyCostAlert:     100.0,
		MonthlyCostHardLimit: 150.0,
	}
}

// Stats is a snapshot of the ledger. Maps are copies.
type Stats struct {
	TotalRequests  int64   `json:"total_requests"`
	CacheHits      int64   `json:"cache_hits"`
	CacheMisses    int64   `json:"cache_misses"`
	Errors         int64   `json:"errors"`
	HitRate        float64 `json:"hit_rate"`
	ErrorRate      float64 `json:"error_rate"`
	AvgLatencyMS   float64 `json:"avg_latency_ms"`
	TotalTokensIn  int64   `json:"total_tokens_in"`
	TotalTokensOut int64   `json:"total_tokens_out"`

	TotalCost   float64 `json:"total_cost_usd"`
	DailyCost   float64 `json:"daily_cost_usd"`
	MonthlyCost float64 `json:"monthly_cost_usd"`

	ByProvider map[string]Breakdown `json:"by_provider"`
	ByFeature  map[string]Breakdown `json:"by_feature"`
	ByModel    map[string]Breakdown `json:"by_model"`

	DailyAlertSent     bool `json:"daily_alert_sent"`
	MonthlyAlertSent   bool `json:"monthly_alert_sent"`
	HardLimitAlertSent bool `json:"hard_limit_alert_sent"`

	// Day is the current UTC period date, formatted 2006-01-02.
	Day string `json:"day"`
	// Month is the current UTC period month, formatted 2006-01.
	Month string `json:"month"`
}
