package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkScoreRecord         BookmarkType = "score_record"
	BookmarkScoreMilestone      BookmarkType = "score_milestone"
	BookmarkFitnessBreakthrough BookmarkType = "fitness_breakthrough"
	BookmarkStagnation          BookmarkType = "stagnation"
	BookmarkCollapse            BookmarkType = "collapse"
)

// scoreMilestones are announced the first time a generation reaches them.
var scoreMilestones = []int{10, 25, 50, 100, 250, 500, 1000}

// Bookmark marks a generation worth looking at.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector watches generation stats for notable moments.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	bestScore     int
	nextMilestone int     // index into scoreMilestones
	bestEver      float64 // best fitness seen, for stagnation
	sinceBest     int     // generations since bestEver improved
	peakMean      float64 // highest recent mean fitness
}

// NewBookmarkDetector creates a detector with the given history size. The
// history size is also the number of flat generations that counts as
// stagnation.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkScore(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	bookmarks = append(bookmarks, bd.checkMilestones(stats)...)
	if b := bd.checkBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkScore(stats GenerationStats) *Bookmark {
	if stats.Score <= bd.bestScore {
		return nil
	}
	old := bd.bestScore
	bd.bestScore = stats.Score
	return &Bookmark{
		Type:        BookmarkScoreRecord,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Score %d beats previous best %d", stats.Score, old),
	}
}

func (bd *BookmarkDetector) checkMilestones(stats GenerationStats) []Bookmark {
	var out []Bookmark
	for bd.nextMilestone < len(scoreMilestones) && stats.Score >= scoreMilestones[bd.nextMilestone] {
		out = append(out, Bookmark{
			Type:        BookmarkScoreMilestone,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Reached %d pairs", scoreMilestones[bd.nextMilestone]),
		})
		bd.nextMilestone++
	}
	return out
}

// checkBreakthrough fires when the best fitness is over twice the rolling
// average of previous bests.
func (bd *BookmarkDetector) checkBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FitnessMax
	}
	avg := total / float64(len(history))
	if avg <= 0 || stats.FitnessMax <= avg*2 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFitnessBreakthrough,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Best fitness %.2f is %.1fx average (%.2f)", stats.FitnessMax, stats.FitnessMax/avg, avg),
	}
}

// checkStagnation fires once when the best fitness has been flat for a
// full history window.
func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	first := bd.historyIdx == 0 && !bd.historyFull
	if first || stats.FitnessMax > bd.bestEver {
		bd.bestEver = stats.FitnessMax
		bd.sinceBest = 0
		return nil
	}

	bd.sinceBest++
	if bd.sinceBest != bd.historySize {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Best fitness stuck at %.2f for %d generations", bd.bestEver, bd.sinceBest),
	}
}

// checkCollapse fires when mean fitness falls below half its recent peak.
func (bd *BookmarkDetector) checkCollapse(stats GenerationStats) *Bookmark {
	if stats.FitnessMean > bd.peakMean {
		bd.peakMean = stats.FitnessMean
		return nil
	}
	if bd.peakMean <= 1 || stats.FitnessMean >= bd.peakMean*0.5 {
		return nil
	}

	oldPeak := bd.peakMean
	bd.peakMean = stats.FitnessMean
	return &Bookmark{
		Type:        BookmarkCollapse,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Mean fitness fell from %.2f to %.2f", oldPeak, stats.FitnessMean),
	}
}
