package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/fairkit/internal"
	"github.com/rs/zerolog"
)

// Client provides programmatic access to the fairness tools.
type Client struct {
	uc              *internal.UseCases
	scope           string
	directionMethod string
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.directionMethod != "" {
		if _, err := internal.ParseDirectionMethod(cfg.directionMethod); err != nil {
			return nil, err
		}
	}

	resolver := internal.NewScopeResolver()
	return &Client{
		uc:              internal.NewUseCases(resolver, cfg.log),
		scope:           cfg.scope,
		directionMethod: cfg.directionMethod,
	}, nil
}

// Thresholds runs the named strategies, or all of them, on a problem file.
func (c *Client) Thresholds(ctx context.Context, problemPath string, strategies ...string) (map[string]ThresholdResult, error) {
	out, err := c.uc.Thresholds.Execute(ctx, internal.ThresholdsInput{
		ProblemPath: problemPath, Strategies: strategies, Scope: c.scope,
	})
	if err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}

	results := make(map[string]ThresholdResult, len(out.Results))
	for st, r := range out.Results {
		res := ThresholdResult{
			Strategy:        string(st),
			Threshold:       r.Threshold,
			Target:          r.Target,
			Thresholds:      r.Thresholds,
			OperatingPoints: make(map[string]OperatingPoint, len(r.OperatingPoints)),
			Cost:            r.Cost,
		}
		for g, p := range r.OperatingPoints {
			res.OperatingPoints[g] = OperatingPoint{FPR: p.FPR, TPR: p.TPR}
		}
		results[string(st)] = res
	}
	return results, nil
}

// ROC builds per-group curves from a y_true,y_score,group CSV file.
func (c *Client) ROC(ctx context.Context, scoresPath string) ([]GroupCurve, error) {
	out, err := c.uc.ROC.Execute(ctx, internal.ROCInput{ScoresPath: scoresPath})
	if err != nil {
		return nil, fmt.Errorf("roc: %w", err)
	}

	curves := make([]GroupCurve, 0, len(out.Curves))
	for _, g := range out.Curves.Groups() {
		curve := out.Curves[g]
		curves = append(curves, GroupCurve{
			Group:      g,
			AUC:        out.AUC[g],
			BaseRate:   out.BaseRates[g],
			Proportion: out.Proportions[g],
			FPR:        curve.FPR,
			TPR:        curve.TPR,
			Thresholds: curve.Thresholds,
		})
	}
	return curves, nil
}

func (c *Client) embeddingInput(path string) internal.EmbeddingInput {
	return internal.EmbeddingInput{EmbeddingsPath: path, Method: c.directionMethod, Scope: c.scope}
}

// Bias measures the direct bias of words, or of the neutral profession
// names when words is empty.
func (c *Client) Bias(ctx context.Context, embeddingsPath string, words ...string) (*BiasReport, error) {
	out, err := c.uc.Bias.Execute(ctx, internal.BiasInput{
		EmbeddingInput: c.embeddingInput(embeddingsPath),
		Words:          words,
	})
	if err != nil {
		return nil, fmt.Errorf("bias: %w", err)
	}

	report := &BiasReport{DirectBias: out.DirectBias}
	for _, p := range out.Projections {
		report.Projections = append(report.Projections, WordScore{Word: p.Word, Projection: p.Projection})
	}
	return report, nil
}

// Debias debiases an embedding file with method (neutralize or hard) and
// writes the result to outputPath when it is not empty.
func (c *Client) Debias(ctx context.Context, embeddingsPath, method, outputPath string) (*DebiasReport, error) {
	out, err := c.uc.Debias.Execute(ctx, internal.DebiasInput{
		EmbeddingInput: c.embeddingInput(embeddingsPath),
		DebiasMethod:   method,
		OutputPath:     outputPath,
	})
	if err != nil {
		return nil, fmt.Errorf("debias: %w", err)
	}

	return &DebiasReport{
		RunID:            out.RunID,
		Method:           string(out.Method),
		Neutralized:      out.Neutralized,
		DirectBiasBefore: out.DirectBiasBefore,
		DirectBiasAfter:  out.DirectBiasAfter,
		OutputPath:       out.OutputPath,
	}, nil
}

// Neighbors returns the topn words closest to the sum of positive minus
// negative, excluding the query words.
func (c *Client) Neighbors(ctx context.Context, embeddingsPath string, positive, negative []string, topn int) ([]Neighbor, error) {
	out, err := c.uc.Neighbors.Execute(ctx, internal.NeighborsInput{
		EmbeddingsPath: embeddingsPath,
		Positive:       positive,
		Negative:       negative,
		TopN:           topn,
	})
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(out.Neighbors))
	for _, n := range out.Neighbors {
		neighbors = append(neighbors, Neighbor{Word: n.Word, Similarity: n.Similarity})
	}
	return neighbors, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}
