package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// VectorStore is the word embedding model the bias tools read and rewrite.
type VectorStore interface {
	Contains(word string) bool
	Vector(word string) ([]float64, error)
	SetVector(word string, v []float64) error
	Words() []string
	Dimension() int
	MostSimilar(positive, negative []string, topn int, unrestricted bool) ([]Neighbor, error)
	Clone() VectorStore
}

var _ VectorStore = (*KeyedVectors)(nil)

// Neighbor is a word with its cosine similarity to a query.
type Neighbor struct {
	Word       string  `json:"word"`
	Similarity float64 `json:"similarity"`
}

// KeyedVectors is an in-memory word to vector table that keeps a unit-length
// copy of every row next to the raw one.
type KeyedVectors struct {
	mu        sync.RWMutex
	dimension int
	wordToID  map[string]int
	idToWord  []string
	vectors   [][]float64
	norms     [][]float64
}

func NewKeyedVectors(dimension int) *KeyedVectors {
	return &KeyedVectors{
		dimension: dimension,
		wordToID:  make(map[string]int),
	}
}

// Add inserts word, or overwrites it when it already exists.
func (k *KeyedVectors) Add(word string, v []float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(v) != k.dimension {
		return precondition("add vector", ErrDimensionMismatch, "expected %d, got %d", k.dimension, len(v))
	}

	if id, exists := k.wordToID[word]; exists {
		k.setRow(id, v)
		return nil
	}

	k.wordToID[word] = len(k.idToWord)
	k.idToWord = append(k.idToWord, word)
	k.vectors = append(k.vectors, slices.Clone(v))
	k.norms = append(k.norms, Normalize(v))
	return nil
}

func (k *KeyedVectors) setRow(id int, v []float64) {
	k.vectors[id] = slices.Clone(v)
	k.norms[id] = Normalize(v)
}

// NormalizeRows scales every row to unit length in place. Zero rows stay
// zero.
func (k *KeyedVectors) NormalizeRows() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for id, unit := range k.norms {
		k.vectors[id] = slices.Clone(unit)
	}
}

func (k *KeyedVectors) Contains(word string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()

	_, exists := k.wordToID[word]
	return exists
}

// Vector returns a copy of the raw vector of word.
func (k *KeyedVectors) Vector(word string) ([]float64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	id, exists := k.wordToID[word]
	if !exists {
		return nil, precondition("vector", ErrWordNotFound, "%q", word)
	}
	return slices.Clone(k.vectors[id]), nil
}

// SetVector replaces the row of an existing word and refreshes its unit copy
// under the same lock.
func (k *KeyedVectors) SetVector(word string, v []float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	id, exists := k.wordToID[word]
	if !exists {
		return precondition("set vector", ErrWordNotFound, "%q", word)
	}
	if len(v) != k.dimension {
		return precondition("set vector", ErrDimensionMismatch, "expected %d, got %d", k.dimension, len(v))
	}
	k.setRow(id, v)
	return nil
}

// Words returns the vocabulary in insertion order.
func (k *KeyedVectors) Words() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return slices.Clone(k.idToWord)
}

func (k *KeyedVectors) Dimension() int {
	return k.dimension
}

func (k *KeyedVectors) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.idToWord)
}

func (k *KeyedVectors) Clone() VectorStore {
	k.mu.RLock()
	defer k.mu.RUnlock()

	c := &KeyedVectors{
		dimension: k.dimension,
		wordToID:  make(map[string]int, len(k.wordToID)),
		idToWord:  slices.Clone(k.idToWord),
		vectors:   make([][]float64, len(k.vectors)),
		norms:     make([][]float64, len(k.norms)),
	}
	for w, id := range k.wordToID {
		c.wordToID[w] = id
	}
	for i := range k.vectors {
		c.vectors[i] = slices.Clone(k.vectors[i])
		c.norms[i] = slices.Clone(k.norms[i])
	}
	return c
}

// MostSimilar ranks the vocabulary by cosine similarity to the normalized
// sum of the positive vectors minus the negative ones. Unless unrestricted,
// the query words themselves are skipped.
func (k *KeyedVectors) MostSimilar(positive, negative []string, topn int, unrestricted bool) ([]Neighbor, error) {
	if len(positive) == 0 && len(negative) == 0 {
		return nil, precondition("most similar", ErrInvalidProblem, "no positive or negative words")
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	query := make([]float64, k.dimension)
	for _, w := range positive {
		id, exists := k.wordToID[w]
		if !exists {
			return nil, precondition("most similar", ErrWordNotFound, "%q", w)
		}
		floats.Add(query, k.vectors[id])
	}
	for _, w := range negative {
		id, exists := k.wordToID[w]
		if !exists {
			return nil, precondition("most similar", ErrWordNotFound, "%q", w)
		}
		floats.Sub(query, k.vectors[id])
	}
	query = Normalize(query)

	excluded := make(map[string]bool)
	if !unrestricted {
		for _, w := range slices.Concat(positive, negative) {
			excluded[w] = true
		}
	}

	neighbors := make([]Neighbor, 0, len(k.idToWord))
	for id, w := range k.idToWord {
		if excluded[w] {
			continue
		}
		neighbors = append(neighbors, Neighbor{Word: w, Similarity: floats.Dot(k.norms[id], query)})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})

	if topn > 0 && topn < len(neighbors) {
		neighbors = neighbors[:topn]
	}
	return neighbors, nil
}

// LoadWord2Vec reads a word2vec text file.
func LoadWord2Vec(path string) (*KeyedVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()

	kv, err := ReadWord2Vec(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return kv, nil
}

// ReadWord2Vec parses the word2vec text format: a "<count> <dim>" header
// followed by one "word v1 ... vd" line per word.
func ReadWord2Vec(r io.Reader) (*KeyedVectors, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("read header: empty input")
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 2 {
		return nil, fmt.Errorf("header %q: want \"<count> <dim>\"", scanner.Text())
	}
	count, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("parse count: %w", err)
	}
	dim, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("parse dimension: %w", err)
	}

	kv := NewKeyedVectors(dim)
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != dim+1 {
			return nil, precondition("read word2vec", ErrDimensionMismatch,
				"line %d: expected %d values, got %d", line, dim, len(fields)-1)
		}

		v := make([]float64, dim)
		for i, s := range fields[1:] {
			if v[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if err := kv.Add(fields[0], v); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}

	if kv.Len() != count {
		return nil, fmt.Errorf("header declares %d words, found %d", count, kv.Len())
	}
	return kv, nil
}

// Save writes the store in word2vec text format.
func (k *KeyedVectors) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create embeddings: %w", err)
	}

	if err := k.WriteWord2Vec(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (k *KeyedVectors) WriteWord2Vec(w io.Writer) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", len(k.idToWord), k.dimension)
	for id, word := range k.idToWord {
		bw.WriteString(word)
		for _, x := range k.vectors[id] {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write embeddings: %w", err)
	}
	return nil
}
