package internal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	rocColumns    = []string{"group", "threshold", "fpr", "tpr"}
	scoresColumns = []string{"group", "y_true", "y_score"}
)

// ProblemFile is the YAML description of a threshold problem. Exactly one
// of ROC and Scores names a CSV file, relative to the YAML file.
type ProblemFile struct {
	CostMatrix *CostMatrix               `yaml:"cost_matrix,omitempty"`
	BaseRate   *float64                  `yaml:"base_rate,omitempty"`
	Groups     map[string]GroupStatsFile `yaml:"groups,omitempty"`
	ROC        string                    `yaml:"roc,omitempty"`
	Scores     string                    `yaml:"scores,omitempty"`
}

type GroupStatsFile struct {
	BaseRate   float64 `yaml:"base_rate"`
	Proportion float64 `yaml:"proportion"`
}

// LoadProblem reads a problem YAML and the CSV it points at. defaultCosts
// is used when the file has no cost_matrix.
func LoadProblem(path string, defaultCosts CostMatrix) (*ThresholdProblem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}

	var pf ProblemFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}

	return pf.resolve(filepath.Dir(path), defaultCosts)
}

// Inputs lists the files a problem depends on, for watching.
func (pf ProblemFile) Inputs(dir string) []string {
	var paths []string
	for _, p := range []string{pf.ROC, pf.Scores} {
		if p != "" {
			paths = append(paths, resolvePath(dir, p))
		}
	}
	return paths
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (pf ProblemFile) resolve(dir string, defaultCosts CostMatrix) (*ThresholdProblem, error) {
	problem := &ThresholdProblem{Costs: defaultCosts, BaseRate: pf.BaseRate}
	if pf.CostMatrix != nil {
		problem.Costs = *pf.CostMatrix
	}

	switch {
	case pf.ROC != "" && pf.Scores != "":
		return nil, precondition("load problem", ErrInvalidProblem, "set either roc or scores, not both")

	case pf.ROC != "":
		curves, err := LoadROCCSV(resolvePath(dir, pf.ROC))
		if err != nil {
			return nil, err
		}
		if len(pf.Groups) == 0 {
			return nil, precondition("load problem", ErrInvalidProblem, "roc input needs group base rates and proportions")
		}
		problem.Curves = curves
		problem.BaseRates = make(map[string]float64, len(pf.Groups))
		problem.Proportions = make(map[string]float64, len(pf.Groups))
		for g, stats := range pf.Groups {
			problem.BaseRates[g] = stats.BaseRate
			problem.Proportions[g] = stats.Proportion
		}

	case pf.Scores != "":
		samples, err := LoadScoresCSV(resolvePath(dir, pf.Scores))
		if err != nil {
			return nil, err
		}
		summary, err := ROCCurvesFromScores(samples)
		if err != nil {
			return nil, err
		}
		problem.Curves = summary.Curves
		problem.BaseRates = summary.BaseRates
		problem.Proportions = summary.Proportions
		if problem.BaseRate == nil {
			problem.BaseRate = &summary.BaseRate
		}

	default:
		return nil, precondition("load problem", ErrInvalidProblem, "neither roc nor scores is set")
	}

	return problem, nil
}

func LoadROCCSV(path string) (ROCCurves, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roc: %w", err)
	}
	defer f.Close()
	return ReadROCCSV(f)
}

// ReadROCCSV reads long-format curves: one row per (group, threshold) in
// curve order.
func ReadROCCSV(r io.Reader) (ROCCurves, error) {
	curves := make(ROCCurves)
	err := readCSV(r, rocColumns, func(line int, row map[string]string) error {
		vals, err := parseFloats(line, row, "threshold", "fpr", "tpr")
		if err != nil {
			return err
		}
		g := row["group"]
		c := curves[g]
		c.Thresholds = append(c.Thresholds, vals[0])
		c.FPR = append(c.FPR, vals[1])
		c.TPR = append(c.TPR, vals[2])
		curves[g] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return curves, nil
}

func LoadScoresCSV(path string) ([]ScoredSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scores: %w", err)
	}
	defer f.Close()
	return ReadScoresCSV(f)
}

func ReadScoresCSV(r io.Reader) ([]ScoredSample, error) {
	var samples []ScoredSample
	err := readCSV(r, scoresColumns, func(line int, row map[string]string) error {
		label, err := strconv.Atoi(strings.TrimSpace(row["y_true"]))
		if err != nil {
			return fmt.Errorf("line %d: y_true: %w", line, err)
		}
		vals, err := parseFloats(line, row, "y_score")
		if err != nil {
			return err
		}
		samples = append(samples, ScoredSample{Label: label, Score: vals[0], Group: row["group"]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// WriteROCCSV writes curves in the format ReadROCCSV reads, groups sorted.
func WriteROCCSV(w io.Writer, curves ROCCurves) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rocColumns); err != nil {
		return fmt.Errorf("write roc header: %w", err)
	}
	for _, g := range curves.Groups() {
		c := curves[g]
		for i := range c.Thresholds {
			row := []string{g, formatFloat(c.Thresholds[i]), formatFloat(c.FPR[i]), formatFloat(c.TPR[i])}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write roc row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func readCSV(r io.Reader, required []string, row func(line int, row map[string]string) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return precondition("read csv", ErrInvalidProblem, "empty input")
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return precondition("read csv", ErrInvalidProblem, "missing column %q", name)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv: %w", err)
		}
		line++

		values := make(map[string]string, len(required))
		for _, name := range required {
			values[name] = rec[index[name]]
		}
		if err := row(line, values); err != nil {
			return err
		}
	}
}

func parseFloats(line int, row map[string]string, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[name]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
		}
		out[i] = v
	}
	return out, nil
}

// ProblemInputs returns the problem file followed by the CSV files it
// references, all absolute.
func ProblemInputs(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}
	var pf ProblemFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}

	return append([]string{abs}, pf.Inputs(filepath.Dir(abs))...), nil
}
