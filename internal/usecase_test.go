package internal

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// setupUseCaseTest creates a project scope holding the toy embedding, its
// word lists and the two-group threshold problem.
func setupUseCaseTest(t *testing.T) (*ScopeResolver, string) {
	t.Helper()
	dir := t.TempDir()

	resolver := NewScopeResolverAt(t.TempDir(), dir)
	scope, err := resolver.Init(dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Embedding.BiasWords = "lists.yaml"
	if err := SaveConfig(scope, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lists.yaml"), []byte(testWordLists), 0644); err != nil {
		t.Fatal(err)
	}
	if err := testStore(t).Save(filepath.Join(dir, "vectors.txt")); err != nil {
		t.Fatalf("save vectors: %v", err)
	}
	writeProblem(t, dir, twoGroupProblemYAML, map[string]string{"roc.csv": twoGroupROCCSV})

	return resolver, dir
}

func TestThresholdsUseCase(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)
	uc := NewThresholdsUseCase(resolver, zerolog.Nop())

	out, err := uc.Execute(context.Background(), ThresholdsInput{
		ProblemPath: filepath.Join(dir, "problem.yaml"),
		Strategies:  []string{"single", "min_cost"},
		Save:        true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if got := out.Results[StrategySingle].Cost; math.Abs(got-(-0.05)) > 1e-12 {
		t.Errorf("single cost = %v, want -0.05", got)
	}
	if out.Results[StrategyMinCost].Cost > out.Results[StrategySingle].Cost {
		t.Error("min cost thresholds must not cost more than a single threshold")
	}
	if out.RunID == "" {
		t.Error("expected a run id")
	}

	report := filepath.Join(dir, ".fair", "reports", out.RunID+".json")
	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not saved: %v", err)
	}
}

func TestThresholdsUseCaseUnknownStrategy(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)
	uc := NewThresholdsUseCase(resolver, zerolog.Nop())

	_, err := uc.Execute(context.Background(), ThresholdsInput{
		ProblemPath: filepath.Join(dir, "problem.yaml"),
		Strategies:  []string{"fastest"},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestROCUseCase(t *testing.T) {
	dir := t.TempDir()
	scores := filepath.Join(dir, "scores.csv")
	if err := os.WriteFile(scores, []byte("group,y_true,y_score\na,1,0.8\na,0,0.2\nb,0,0.8\nb,1,0.2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "roc.csv")

	out, err := NewROCUseCase().Execute(context.Background(), ROCInput{ScoresPath: scores, OutputPath: output})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.AUC["a"] != 1 || out.AUC["b"] != 0 {
		t.Errorf("unexpected auc %v", out.AUC)
	}

	curves, err := LoadROCCSV(output)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(curves) != 2 {
		t.Errorf("expected 2 curves, got %d", len(curves))
	}
}

func TestDirectionUseCase(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)

	out, err := NewDirectionUseCase(resolver, zerolog.Nop()).Execute(context.Background(), EmbeddingInput{
		EmbeddingsPath: filepath.Join(dir, "vectors.txt"),
		Method:         "sum",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Direction.Method != DirectionSum {
		t.Errorf("method = %q", out.Direction.Method)
	}
	if len(out.Ends) != 2 || out.Ends[0].Word != "he" {
		t.Errorf("unexpected ends %+v", out.Ends)
	}
}

func TestBiasUseCase(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)

	out, err := NewBiasUseCase(resolver, zerolog.Nop()).Execute(context.Background(), BiasInput{
		EmbeddingInput: EmbeddingInput{EmbeddingsPath: filepath.Join(dir, "vectors.txt")},
		Words:          []string{"nurse", "engineer"},
		IndirectPairs:  [][2]string{{"nurse", "engineer"}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if math.Abs(out.DirectBias-1.0/3) > 1e-9 {
		t.Errorf("direct bias = %v, want 1/3", out.DirectBias)
	}
	if len(out.IndirectBias) != 1 {
		t.Errorf("expected one indirect bias, got %d", len(out.IndirectBias))
	}

	// Without words the neutral professions are measured.
	defaults, err := NewBiasUseCase(resolver, zerolog.Nop()).Execute(context.Background(), BiasInput{
		EmbeddingInput: EmbeddingInput{EmbeddingsPath: filepath.Join(dir, "vectors.txt")},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(defaults.Projections) != 3 {
		t.Errorf("expected 3 professions, got %+v", defaults.Projections)
	}
}

func TestDebiasUseCase(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)
	output := filepath.Join(dir, "debiased.txt")

	out, err := NewDebiasUseCase(resolver, zerolog.Nop()).Execute(context.Background(), DebiasInput{
		EmbeddingInput: EmbeddingInput{EmbeddingsPath: filepath.Join(dir, "vectors.txt")},
		DebiasMethod:   "hard",
		OutputPath:     output,
		NeighborWords:  []string{"nurse", "unicorn"},
		TopN:           3,
		Save:           true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if out.DirectBiasBefore <= 0 {
		t.Errorf("expected bias before debiasing, got %v", out.DirectBiasBefore)
	}
	if math.Abs(out.DirectBiasAfter) > 1e-9 {
		t.Errorf("expected no bias after debiasing, got %v", out.DirectBiasAfter)
	}
	if out.Neutralized != 3 {
		t.Errorf("expected 3 neutralized words, got %d", out.Neutralized)
	}
	if len(out.Changes) != 1 || out.Changes[0].Word != "nurse" {
		t.Errorf("unexpected neighbor changes %+v", out.Changes)
	}

	kv, err := LoadWord2Vec(output)
	if err != nil {
		t.Fatalf("load debiased: %v", err)
	}
	v, _ := kv.Vector("nurse")
	if math.Abs(v[0]) > 1e-9 {
		t.Errorf("nurse still has a gender component: %v", v)
	}

	// The input file is untouched.
	orig, _ := LoadWord2Vec(filepath.Join(dir, "vectors.txt"))
	v, _ = orig.Vector("nurse")
	if v[0] >= 0 {
		t.Errorf("original nurse vector changed: %v", v)
	}

	if _, err := os.Stat(filepath.Join(dir, ".fair", "reports", out.RunID+".json")); err != nil {
		t.Errorf("report not saved: %v", err)
	}
}

func TestDebiasUseCaseNormalizesVectors(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)

	// Real embeddings are not unit length; hard debiasing needs them to be.
	scaled := NewKeyedVectors(3)
	for _, w := range genderOrder {
		v := Normalize(genderVectors[w])
		for i := range v {
			v[i] *= 3
		}
		if err := scaled.Add(w, v); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "scaled.txt")
	if err := scaled.Save(path); err != nil {
		t.Fatalf("save vectors: %v", err)
	}

	uc := NewDebiasUseCase(resolver, zerolog.Nop())
	output := filepath.Join(dir, "debiased.txt")
	out, err := uc.Execute(context.Background(), DebiasInput{
		EmbeddingInput: EmbeddingInput{EmbeddingsPath: path},
		DebiasMethod:   "hard",
		OutputPath:     output,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if math.Abs(out.DirectBiasAfter) > 1e-9 {
		t.Errorf("expected no bias after debiasing, got %v", out.DirectBiasAfter)
	}

	kv, err := LoadWord2Vec(output)
	if err != nil {
		t.Fatalf("load debiased: %v", err)
	}
	for _, w := range []string{"king", "queen", "he", "she"} {
		v, _ := kv.Vector(w)
		if norm := floats.Norm(v, 2); math.Abs(norm-1) > 1e-6 {
			t.Errorf("%s has norm %v after debiasing", w, norm)
		}
	}

	off := false
	_, err = uc.Execute(context.Background(), DebiasInput{
		EmbeddingInput: EmbeddingInput{EmbeddingsPath: path, Normalize: &off},
		DebiasMethod:   "hard",
	})
	if !errors.Is(err, ErrNotUnitLength) {
		t.Errorf("expected ErrNotUnitLength without normalization, got %v", err)
	}
}

func TestDebiasUseCaseSoft(t *testing.T) {
	resolver, dir := setupUseCaseTest(t)

	_, err := NewDebiasUseCase(resolver, zerolog.Nop()).Execute(context.Background(), DebiasInput{
		EmbeddingInput: EmbeddingInput{EmbeddingsPath: filepath.Join(dir, "vectors.txt")},
		DebiasMethod:   "soft",
	})
	if err == nil {
		t.Fatal("expected soft debiasing to fail")
	}
}

func TestNeighborsUseCase(t *testing.T) {
	_, dir := setupUseCaseTest(t)

	out, err := NewNeighborsUseCase().Execute(context.Background(), NeighborsInput{
		EmbeddingsPath: filepath.Join(dir, "vectors.txt"),
		Positive:       []string{"king", "woman"},
		Negative:       []string{"man"},
		TopN:           2,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out.Neighbors) != 2 {
		t.Errorf("expected 2 neighbors, got %d", len(out.Neighbors))
	}
}
