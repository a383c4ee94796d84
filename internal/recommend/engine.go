// Package recommend turns a learner's submission history into ranked
// remediation suggestions. The whole computation is a pure function of the
// history and the catalog: every refresh recomputes from scratch and swaps
// the learner's recommendation lists atomically.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/domain"
)

// BonusPayer applies a ledger entry to an already loaded learner. Satisfied
// by the points service.
type BonusPayer interface {
	Apply(ctx context.Context, learner *domain.LearnerProfile, entry domain.PointsLogEntry) error
}

// MaxRecommendations caps each recommendation list after ranking.
const MaxRecommendations = 5

// bonusStep spaces the bonus amounts: rank 0 pays the most.
const bonusStep = 10

// Engine computes and maintains a learner's recommendations.
type Engine struct {
	catalog domain.Catalog
}

// NewEngine creates a recommendation engine over the catalog.
func NewEngine(catalog domain.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// TagPerformance aggregates every scored attempt across all progress
// records into per-tag statistics. Tags and max scores come from the
// catalog in one batched lookup.
func (e *Engine) TagPerformance(ctx context.Context, learner *domain.LearnerProfile) (map[string]domain.TagStats, error) {
	ids := distinctExerciseIDs(learner)
	if len(ids) == 0 {
		return map[string]domain.TagStats{}, nil
	}

	exercises, err := e.catalog.GetExercises(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch exercises: %w", err)
	}

	samples := make(map[string][]float64)
	for _, cpi := range learner.Progress {
		for _, sub := range cpi.Submissions {
			ex, ok := exercises[sub.ExerciseID]
			if !ok {
				continue
			}
			for _, attempt := range sub.Attempts {
				norm, ok := domain.NormalizeScore(attempt.Score, ex.MaxScore)
				if !ok {
					continue
				}
				for _, tag := range ex.Tags {
					samples[tag] = append(samples[tag], norm)
				}
			}
		}
	}
	return domain.ComputeTagStats(samples), nil
}

// Refresh recomputes both recommendation lists from the learner's full
// history and replaces the current lists. It mutates only the learner in
// memory; the caller persists the document.
func (e *Engine) Refresh(ctx context.Context, learner *domain.LearnerProfile) error {
	stats, err := e.TagPerformance(ctx, learner)
	if err != nil {
		return err
	}

	gaps := domain.KnowledgeGaps(stats)
	if len(gaps) == 0 {
		learner.Recommendations = domain.Recommendations{}
		return nil
	}
	gapSet := make(map[string]bool, len(gaps))
	for _, g := range gaps {
		gapSet[g] = true
	}

	units, err := e.catalog.ListUnits(ctx)
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}

	// Units where the learner has completed at least one lesson are the
	// only ones whose exercises are reachable for remediation.
	reachable := make(map[string]bool)
	for _, cpi := range learner.Progress {
		if len(cpi.LessonsCompleted) > 0 {
			reachable[cpi.UnitID] = true
		}
	}

	var lessons, exercises []candidate
	for _, unit := range units {
		for _, lesson := range unit.Lessons {
			if tag, ok := firstGapTag(lesson.Tags, gapSet); ok {
				lessons = append(lessons, candidate{
					entry:   domain.RecommendationEntry{ContentID: lesson.ID, DisplayName: lesson.Name},
					tagMean: stats[tag].Mean,
				})
			}
		}
		if !reachable[unit.ID] {
			continue
		}
		for _, ex := range unit.Exercises {
			if tag, ok := firstGapTag(ex.Tags, gapSet); ok {
				exercises = append(exercises, candidate{
					entry:      domain.RecommendationEntry{ContentID: ex.ID, DisplayName: ex.Name},
					tagMean:    stats[tag].Mean,
					themeMatch: ex.Theme != "" && ex.Theme == learner.PreferredTheme,
				})
			}
		}
	}

	// Preference pass first, score pass second. The score pass decides the
	// order the cap sees; with stable sorting the preference pass survives
	// only as a tie-break inside equal-mean buckets.
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].themeMatch && !exercises[j].themeMatch
	})
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].tagMean < exercises[j].tagMean
	})
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].tagMean < lessons[j].tagMean
	})

	learner.Recommendations = domain.Recommendations{
		Lessons:   takeRanked(lessons),
		Exercises: takeRanked(exercises),
	}
	return nil
}

// TryRedeemBonus pays the recommendation bonus for the content id if it is
// currently recommended and has not been paid before. It reports whether a
// credit occurred. Used identically by the lesson and exercise paths.
func (e *Engine) TryRedeemBonus(ctx context.Context, payer BonusPayer, learner *domain.LearnerProfile, classroomID uuid.UUID, contentID string, kind domain.ContentKind) (bool, error) {
	entry, ok := learner.Recommendations.EntryFor(kind, contentID)
	if !ok {
		return false, nil
	}
	if learner.Redeemed.HasRedeemed(kind, contentID) {
		return false, nil
	}

	cat := domain.CategoryRecommendedLesson
	if kind == domain.ContentExercise {
		cat = domain.CategoryRecommendedExercise
	}
	log := domain.NewLogEntry(learner.ID, classroomID, domain.DirectionCredit, entry.BonusPoints, cat,
		fmt.Sprintf("bonus for recommended %s %s", kind, contentID), nil)
	if err := payer.Apply(ctx, learner, log); err != nil {
		return false, fmt.Errorf("credit recommendation bonus: %w", err)
	}

	learner.Redeemed.MarkRedeemed(kind, contentID)
	return true, nil
}

type candidate struct {
	entry      domain.RecommendationEntry
	tagMean    float64
	themeMatch bool
}

func takeRanked(candidates []candidate) []domain.RecommendationEntry {
	n := len(candidates)
	if n > MaxRecommendations {
		n = MaxRecommendations
	}
	out := make([]domain.RecommendationEntry, 0, n)
	for i := 0; i < n; i++ {
		entry := candidates[i].entry
		entry.BonusPoints = (MaxRecommendations - i) * bonusStep
		out = append(out, entry)
	}
	return out
}

// firstGapTag returns the first of the item's tags that is a knowledge gap.
// That tag is the one whose mean ranks the item.
func firstGapTag(tags []string, gaps map[string]bool) (string, bool) {
	for _, t := range tags {
		if gaps[t] {
			return t, true
		}
	}
	return "", false
}

func distinctExerciseIDs(learner *domain.LearnerProfile) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, cpi := range learner.Progress {
		for _, sub := range cpi.Submissions {
			if !seen[sub.ExerciseID] {
				seen[sub.ExerciseID] = true
				ids = append(ids, sub.ExerciseID)
			}
		}
	}
	return ids
}
