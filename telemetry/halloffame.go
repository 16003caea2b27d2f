package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappyfly/neural"
)

// HallEntry is one champion genome and how it did.
type HallEntry struct {
	Generation int                 `json:"generation"`
	Fitness    float64             `json:"fitness"`
	Score      int                 `json:"score"` // Episode score of its generation
	Genome     neural.GenomeRecord `json:"genome"`
}

// HallOfFame keeps the fittest genomes seen across a run, best first.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers a genome to the hall. It returns true if it was added.
func (hof *HallOfFame) Consider(genome *genetics.Genome, generation int, fitness float64, score int) (bool, error) {
	if len(hof.entries) == hof.maxSize && fitness <= hof.entries[len(hof.entries)-1].Fitness {
		return false, nil
	}
	for _, e := range hof.entries {
		if e.Genome.ID == genome.Id {
			return false, nil
		}
	}

	rec, err := neural.EncodeGenome(genome)
	if err != nil {
		return false, fmt.Errorf("encoding genome %d: %w", genome.Id, err)
	}
	hof.insertEntry(HallEntry{Generation: generation, Fitness: fitness, Score: score, Genome: rec})
	return true, nil
}

// insertEntry adds entry in fitness order, dropping the weakest when full.
// Equal fitness keeps the earlier entry first.
func (hof *HallOfFame) insertEntry(entry HallEntry) {
	i := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[i+1:], hof.entries[i:])
	hof.entries[i] = entry
	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// Entries returns the entries, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Champion decodes the best genome in the hall.
func (hof *HallOfFame) Champion() (*genetics.Genome, HallEntry, error) {
	if len(hof.entries) == 0 {
		return nil, HallEntry{}, fmt.Errorf("hall of fame is empty")
	}
	best := hof.entries[0]
	genome, err := best.Genome.Decode()
	if err != nil {
		return nil, HallEntry{}, fmt.Errorf("decoding champion: %w", err)
	}
	return genome, best, nil
}

// MarshalJSON serializes the hall as a list of entries, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall written by OutputManager.
func LoadHallOfFameFromFile(path string) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(len(entries))
	for _, e := range entries {
		hof.insertEntry(e)
	}
	return hof, nil
}
