package model

// QuantileValue pairs a cumulative-probability level with the position at
// which an estimated distribution reaches it.
type QuantileValue struct {
	Value    float64 `json:"v,omitempty"`
	Quantile float64 `json:"q,omitempty"`
}
