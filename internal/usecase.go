package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Use case input/output DTOs

type ThresholdsInput struct {
	ProblemPath string
	Strategies  []string
	Scope       string
	Save        bool
}

type ThresholdsOutput struct {
	RunID     string                       `json:"run_id"`
	Problem   string                       `json:"problem"`
	BaseRate  float64                      `json:"base_rate"`
	Results   map[Strategy]ThresholdResult `json:"results"`
	CreatedAt time.Time                    `json:"created_at"`
}

type ROCInput struct {
	ScoresPath string
	OutputPath string
}

type ROCOutput struct {
	Curves      ROCCurves          `json:"curves"`
	AUC         map[string]float64 `json:"auc"`
	BaseRates   map[string]float64 `json:"base_rates"`
	Proportions map[string]float64 `json:"proportions"`
	BaseRate    float64            `json:"base_rate"`
}

type EmbeddingInput struct {
	EmbeddingsPath string
	Method         string
	Scope          string
	// Normalize overrides embedding.normalize when set.
	Normalize *bool
}

type DirectionOutput struct {
	Direction  Direction        `json:"direction"`
	Definition [][2]string      `json:"definitional_pairs"`
	Ends       []WordProjection `json:"ends"`
}

type BiasInput struct {
	EmbeddingInput
	Words         []string
	Exponent      float64
	IndirectPairs [][2]string
}

type IndirectBiasOutput struct {
	Word1 string  `json:"word1"`
	Word2 string  `json:"word2"`
	Bias  float64 `json:"bias"`
}

type BiasOutput struct {
	RunID        string               `json:"run_id"`
	DirectBias   float64              `json:"direct_bias"`
	Projections  []WordProjection     `json:"projections"`
	IndirectBias []IndirectBiasOutput `json:"indirect_bias,omitempty"`
}

type DebiasInput struct {
	EmbeddingInput
	DebiasMethod  string
	OutputPath    string
	NeighborWords []string
	TopN          int
	Save          bool
}

type DebiasOutput struct {
	RunID            string           `json:"run_id"`
	Method           DebiasMethod     `json:"method"`
	Neutralized      int              `json:"neutralized"`
	DirectBiasBefore float64          `json:"direct_bias_before"`
	DirectBiasAfter  float64          `json:"direct_bias_after"`
	OutputPath       string           `json:"output_path,omitempty"`
	Changes          []NeighborChange `json:"neighbor_changes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

type NeighborsInput struct {
	EmbeddingsPath string
	Positive       []string
	Negative       []string
	TopN           int
	Unrestricted   bool
}

type NeighborsOutput struct {
	Neighbors []Neighbor `json:"neighbors"`
}

// Shared plumbing

type environment struct {
	resolver *ScopeResolver
	log      zerolog.Logger
}

func (e environment) load(scopeName string) (Scope, *Config, error) {
	scope := e.resolver.Resolve(scopeName)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return Scope{}, nil, err
	}
	return scope, cfg, nil
}

func (e environment) biasEmbedding(input EmbeddingInput) (*BiasEmbedding, *Config, error) {
	scope, cfg, err := e.load(input.Scope)
	if err != nil {
		return nil, nil, err
	}

	methodName := input.Method
	if methodName == "" {
		methodName = cfg.Embedding.DirectionMethod
	}
	method, err := ParseDirectionMethod(methodName)
	if err != nil {
		return nil, nil, err
	}

	biasCfg, err := cfg.BiasConfig(scope)
	if err != nil {
		return nil, nil, err
	}
	matcher, err := NewWordMatcher(scope.IgnoreDir())
	if err != nil {
		return nil, nil, err
	}

	kv, err := LoadWord2Vec(input.EmbeddingsPath)
	if err != nil {
		return nil, nil, err
	}
	e.log.Debug().Str("path", input.EmbeddingsPath).Int("words", kv.Len()).Int("dim", kv.Dimension()).Msg("embeddings loaded")

	normalize := cfg.Embedding.Normalize
	if input.Normalize != nil {
		normalize = *input.Normalize
	}
	if normalize {
		kv.NormalizeRows()
	}

	be, err := NewBiasEmbedding(kv, biasCfg,
		WithDirectionMethod(method),
		WithMinExplainedVariance(cfg.Embedding.MinExplainedVariance),
		WithWordMatcher(matcher),
		WithEmbeddingLogger(e.log),
	)
	if err != nil {
		return nil, nil, err
	}
	return be, cfg, nil
}

func saveReport(scope Scope, runID string, report any) (string, error) {
	if err := os.MkdirAll(scope.ReportsPath(), 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(scope.ReportsPath(), runID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Use cases

type ThresholdsUseCase struct {
	env environment
}

func NewThresholdsUseCase(resolver *ScopeResolver, log zerolog.Logger) *ThresholdsUseCase {
	return &ThresholdsUseCase{env: environment{resolver: resolver, log: log}}
}

func (uc *ThresholdsUseCase) Execute(ctx context.Context, input ThresholdsInput) (*ThresholdsOutput, error) {
	scope, cfg, err := uc.env.load(input.Scope)
	if err != nil {
		return nil, err
	}

	strategies, err := cfg.Strategies()
	if err != nil {
		return nil, err
	}
	if len(input.Strategies) > 0 {
		strategies = strategies[:0]
		for _, name := range input.Strategies {
			st, err := ParseStrategy(name)
			if err != nil {
				return nil, err
			}
			strategies = append(strategies, st)
		}
	}

	problem, err := LoadProblem(input.ProblemPath, cfg.Thresholds.CostMatrix)
	if err != nil {
		return nil, err
	}

	selector, err := NewThresholdSelector(*problem, WithSelectorLogger(uc.env.log))
	if err != nil {
		return nil, err
	}

	results, err := selector.Find(ctx, strategies...)
	if err != nil {
		return nil, fmt.Errorf("find thresholds: %w", err)
	}

	out := &ThresholdsOutput{
		RunID:     uuid.NewString(),
		Problem:   input.ProblemPath,
		BaseRate:  problem.OverallBaseRate(),
		Results:   results,
		CreatedAt: time.Now().UTC(),
	}

	if input.Save {
		path, err := saveReport(scope, out.RunID, out)
		if err != nil {
			return nil, err
		}
		uc.env.log.Info().Str("path", path).Msg("report saved")
	}
	return out, nil
}

type ROCUseCase struct{}

func NewROCUseCase() *ROCUseCase {
	return &ROCUseCase{}
}

func (uc *ROCUseCase) Execute(ctx context.Context, input ROCInput) (*ROCOutput, error) {
	samples, err := LoadScoresCSV(input.ScoresPath)
	if err != nil {
		return nil, err
	}
	summary, err := ROCCurvesFromScores(samples)
	if err != nil {
		return nil, err
	}

	out := &ROCOutput{
		Curves:      summary.Curves,
		AUC:         make(map[string]float64, len(summary.Curves)),
		BaseRates:   summary.BaseRates,
		Proportions: summary.Proportions,
		BaseRate:    summary.BaseRate,
	}
	for g, c := range summary.Curves {
		auc, err := AUC(c)
		if err != nil {
			return nil, fmt.Errorf("auc of %q: %w", g, err)
		}
		out.AUC[g] = auc
	}

	if input.OutputPath != "" {
		f, err := os.Create(input.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("create roc output: %w", err)
		}
		if err := WriteROCCSV(f, summary.Curves); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type DirectionUseCase struct {
	env environment
}

func NewDirectionUseCase(resolver *ScopeResolver, log zerolog.Logger) *DirectionUseCase {
	return &DirectionUseCase{env: environment{resolver: resolver, log: log}}
}

func (uc *DirectionUseCase) Execute(ctx context.Context, input EmbeddingInput) (*DirectionOutput, error) {
	be, _, err := uc.env.biasEmbedding(input)
	if err != nil {
		return nil, err
	}

	d, err := be.Direction()
	if err != nil {
		return nil, err
	}
	ends, err := be.ProjectionScores(FilterWords([]string{d.PositiveEnd, d.NegativeEnd}, be.Store(), false))
	if err != nil {
		return nil, err
	}

	return &DirectionOutput{
		Direction:  *d,
		Definition: be.Config().DefinitionalPairs(),
		Ends:       ends,
	}, nil
}

type BiasUseCase struct {
	env environment
}

func NewBiasUseCase(resolver *ScopeResolver, log zerolog.Logger) *BiasUseCase {
	return &BiasUseCase{env: environment{resolver: resolver, log: log}}
}

func (uc *BiasUseCase) Execute(ctx context.Context, input BiasInput) (*BiasOutput, error) {
	be, cfg, err := uc.env.biasEmbedding(input.EmbeddingInput)
	if err != nil {
		return nil, err
	}

	words := input.Words
	if len(words) == 0 {
		words = FilterWords(be.Config().NeutralProfessions(), be.Store(), cfg.Embedding.OnlyLower)
	}

	projections, err := be.ProjectionScores(words)
	if err != nil {
		return nil, err
	}
	direct, err := be.DirectBias(words, input.Exponent)
	if err != nil {
		return nil, err
	}

	out := &BiasOutput{
		RunID:       uuid.NewString(),
		DirectBias:  direct,
		Projections: projections,
	}
	for _, pair := range input.IndirectPairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ib, err := be.IndirectBias(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		out.IndirectBias = append(out.IndirectBias, IndirectBiasOutput{Word1: pair[0], Word2: pair[1], Bias: ib})
	}
	return out, nil
}

type DebiasUseCase struct {
	env environment
}

func NewDebiasUseCase(resolver *ScopeResolver, log zerolog.Logger) *DebiasUseCase {
	return &DebiasUseCase{env: environment{resolver: resolver, log: log}}
}

func (uc *DebiasUseCase) Execute(ctx context.Context, input DebiasInput) (*DebiasOutput, error) {
	method, err := ParseDebiasMethod(input.DebiasMethod)
	if err != nil {
		return nil, err
	}

	be, cfg, err := uc.env.biasEmbedding(input.EmbeddingInput)
	if err != nil {
		return nil, err
	}

	professions := FilterWords(be.Config().NeutralProfessions(), be.Store(), cfg.Embedding.OnlyLower)
	before, err := be.DirectBias(professions, 1)
	if err != nil {
		return nil, fmt.Errorf("direct bias before: %w", err)
	}

	topn := input.TopN
	if topn <= 0 {
		topn = 10
	}
	neighborWords := FilterWords(input.NeighborWords, be.Store(), false)
	beforeReport, err := NewNeighborReport(be.Store(), neighborWords, topn)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	neutral := be.NeutralWords()
	debiased, err := be.Debiased(method, neutral, nil)
	if err != nil {
		return nil, err
	}

	after, err := debiased.DirectBias(professions, 1)
	if err != nil {
		return nil, fmt.Errorf("direct bias after: %w", err)
	}
	afterReport, err := NewNeighborReport(debiased.Store(), neighborWords, topn)
	if err != nil {
		return nil, err
	}

	out := &DebiasOutput{
		RunID:            uuid.NewString(),
		Method:           method,
		Neutralized:      len(neutral),
		DirectBiasBefore: before,
		DirectBiasAfter:  after,
		Changes:          DiffReports(beforeReport, afterReport, neighborWords),
		CreatedAt:        time.Now().UTC(),
	}

	if input.OutputPath != "" {
		kv, ok := debiased.Store().(*KeyedVectors)
		if !ok {
			return nil, fmt.Errorf("store %T cannot be saved", debiased.Store())
		}
		if err := kv.Save(input.OutputPath); err != nil {
			return nil, err
		}
		out.OutputPath = input.OutputPath
	}

	if input.Save {
		scope := uc.env.resolver.Resolve(input.Scope)
		path, err := saveReport(scope, out.RunID, out)
		if err != nil {
			return nil, err
		}
		uc.env.log.Info().Str("path", path).Msg("report saved")
	}
	return out, nil
}

type NeighborsUseCase struct{}

func NewNeighborsUseCase() *NeighborsUseCase {
	return &NeighborsUseCase{}
}

func (uc *NeighborsUseCase) Execute(ctx context.Context, input NeighborsInput) (*NeighborsOutput, error) {
	kv, err := LoadWord2Vec(input.EmbeddingsPath)
	if err != nil {
		return nil, err
	}
	neighbors, err := kv.MostSimilar(input.Positive, input.Negative, input.TopN, input.Unrestricted)
	if err != nil {
		return nil, err
	}
	return &NeighborsOutput{Neighbors: neighbors}, nil
}

// UseCases bundles every use case behind one resolver and logger.
type UseCases struct {
	Thresholds *ThresholdsUseCase
	ROC        *ROCUseCase
	Direction  *DirectionUseCase
	Bias       *BiasUseCase
	Debias     *DebiasUseCase
	Neighbors  *NeighborsUseCase
}

func NewUseCases(resolver *ScopeResolver, log zerolog.Logger) *UseCases {
	return &UseCases{
		Thresholds: NewThresholdsUseCase(resolver, log),
		ROC:        NewROCUseCase(),
		Direction:  NewDirectionUseCase(resolver, log),
		Bias:       NewBiasUseCase(resolver, log),
		Debias:     NewDebiasUseCase(resolver, log),
		Neighbors:  NewNeighborsUseCase(),
	}
}
