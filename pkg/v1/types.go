package v1

// OperatingPoint is a (false positive rate, true positive rate) pair.
type OperatingPoint struct {
	FPR float64 `json:"fpr"`
	TPR float64 `json:"tpr"`
}

// ThresholdResult is the outcome of one threshold strategy. Separation
// results carry a single operating point under the "" key and no
// thresholds.
type ThresholdResult struct {
	Strategy        string                    `json:"strategy"`
	Threshold       *float64                  `json:"threshold,omitempty"`
	Thresholds      map[string]float64        `json:"thresholds,omitempty"`
	OperatingPoints map[string]OperatingPoint `json:"operating_points"`
	Cost            float64                   `json:"cost"`
	Target          *float64                  `json:"target,omitempty"`
}

// GroupCurve summarizes one group's ROC curve.
type GroupCurve struct {
	Group      string    `json:"group"`
	AUC        float64   `json:"auc"`
	BaseRate   float64   `json:"base_rate"`
	Proportion float64   `json:"proportion"`
	FPR        []float64 `json:"fpr"`
	TPR        []float64 `json:"tpr"`
	Thresholds []float64 `json:"thresholds"`
}

// WordScore is a word with its projection on the bias direction.
type WordScore struct {
	Word       string  `json:"word"`
	Projection float64 `json:"projection"`
}

// BiasReport is the direct bias of a word list.
type BiasReport struct {
	DirectBias  float64     `json:"direct_bias"`
	Projections []WordScore `json:"projections"`
}

// DebiasReport describes a debiasing run.
type DebiasReport struct {
	RunID            string  `json:"run_id"`
	Method           string  `json:"method"`
	Neutralized      int     `json:"neutralized"`
	DirectBiasBefore float64 `json:"direct_bias_before"`
	DirectBiasAfter  float64 `json:"direct_bias_after"`
	OutputPath       string  `json:"output_path,omitempty"`
}

// Neighbor is a word with its cosine similarity to a query.
type Neighbor struct {
	Word       string  `json:"word"`
	Similarity float64 `json:"similarity"`
}
