package neural

import (
	"math"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// SpeciesColor represents an RGB color used to tint a species' flies.
type SpeciesColor struct {
	R, G, B uint8
}

// Species is a group of genetically similar genomes.
type Species struct {
	ID             int
	Representative *genetics.Genome // Used for compatibility comparisons
	Members        []int            // Population indices of this generation's members
	BestFitness    float64          // Best fitness ever seen
	AvgFitness     float64          // Mean fitness of the last evaluated generation
	Age            int              // Generations since the species was created
	Staleness      int              // Generations without a new BestFitness
	Color          SpeciesColor
}

// SpeciesManager partitions each generation into species and tracks their
// history across generations.
type SpeciesManager struct {
	Species       []*Species
	opts          *neat.Options
	nextSpeciesID int
	generation    int
	speciesColors []SpeciesColor
}

// NewSpeciesManager creates a new species manager.
func NewSpeciesManager(opts *neat.Options) *SpeciesManager {
	return &SpeciesManager{
		opts:          opts,
		nextSpeciesID: 1,
		speciesColors: generateDistinctColors(64),
	}
}

// generateDistinctColors spreads hues by the golden angle.
func generateDistinctColors(count int) []SpeciesColor {
	colors := make([]SpeciesColor, count)
	goldenAngle := 137.508

	for i := 0; i < count; i++ {
		hue := math.Mod(float64(i)*goldenAngle, 360.0)
		r, g, b := hsvToRGB(hue, 0.7, 0.9)
		colors[i] = SpeciesColor{R: r, G: g, B: b}
	}
	return colors
}

// hsvToRGB converts HSV to RGB.
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// Speciate assigns every genome to the first species whose representative
// is within CompatThreshold, creating species as needed. It returns the
// species ID for each index. Species left without members are dropped and
// each survivor's first member becomes its representative.
func (sm *SpeciesManager) Speciate(genomes []*genetics.Genome) []int {
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}

	ids := make([]int, len(genomes))
	for i, genome := range genomes {
		sp := sm.find(genome)
		if sp == nil {
			sp = &Species{
				ID:             sm.nextSpeciesID,
				Representative: genome,
				Color:          sm.speciesColors[sm.nextSpeciesID%len(sm.speciesColors)],
				BestFitness:    math.Inf(-1),
			}
			sm.nextSpeciesID++
			sm.Species = append(sm.Species, sp)
		}
		sp.Members = append(sp.Members, i)
		ids[i] = sp.ID
	}

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) > 0 {
			sp.Representative = genomes[sp.Members[0]]
			active = append(active, sp)
		}
	}
	clear(sm.Species[len(active):])
	sm.Species = active
	return ids
}

func (sm *SpeciesManager) find(genome *genetics.Genome) *Species {
	for _, sp := range sm.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(genome, sp.Representative, sm.opts) < sm.opts.CompatThreshold {
			return sp
		}
	}
	return nil
}

// Record folds a generation's fitness, indexed like the genomes passed to
// Speciate, into every species' history.
func (sm *SpeciesManager) Record(fitness []float64) {
	sm.generation++
	for _, sp := range sm.Species {
		sp.Age++
		sp.Staleness++

		total := 0.0
		for _, m := range sp.Members {
			total += fitness[m]
			if fitness[m] > sp.BestFitness {
				sp.BestFitness = fitness[m]
				sp.Staleness = 0
			}
		}
		if len(sp.Members) > 0 {
			sp.AvgFitness = total / float64(len(sp.Members))
		}
	}
}

// RemoveStaleSpecies drops species that have not improved for DropOffAge
// generations. The species with ID keep is never dropped.
func (sm *SpeciesManager) RemoveStaleSpecies(keep int) {
	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if sp.ID == keep || sp.Staleness < sm.opts.DropOffAge {
			active = append(active, sp)
		}
	}
	clear(sm.Species[len(active):])
	sm.Species = active
}

// GetSpecies returns the species with the given ID, or nil.
func (sm *SpeciesManager) GetSpecies(speciesID int) *Species {
	for _, sp := range sm.Species {
		if sp.ID == speciesID {
			return sp
		}
	}
	return nil
}

// GetSpeciesColor returns the color for a species ID, gray if unknown.
func (sm *SpeciesManager) GetSpeciesColor(speciesID int) SpeciesColor {
	if sp := sm.GetSpecies(speciesID); sp != nil {
		return sp.Color
	}
	return SpeciesColor{R: 128, G: 128, B: 128}
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count        int
	LargestSize  int
	SmallestSize int
	Generation   int
	BestFitness  float64
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	stats := SpeciesStats{Count: len(sm.Species), Generation: sm.generation}
	if len(sm.Species) == 0 {
		return stats
	}

	stats.SmallestSize = math.MaxInt
	stats.BestFitness = math.Inf(-1)
	for _, sp := range sm.Species {
		size := len(sp.Members)
		stats.LargestSize = max(stats.LargestSize, size)
		stats.SmallestSize = min(stats.SmallestSize, size)
		stats.BestFitness = math.Max(stats.BestFitness, sp.BestFitness)
	}
	return stats
}

// GetTopSpecies returns the n largest species, largest first.
func (sm *SpeciesManager) GetTopSpecies(n int) []*Species {
	sorted := make([]*Species, len(sm.Species))
	copy(sorted, sm.Species)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Members) > len(sorted[j].Members)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
