package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/clients/redislock"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/observability"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

const (
	// DefaultAggregationLimit caps one aggregation run's output.
	DefaultAggregationLimit = 20

	// synergyBoostPerFramework is the multiplier increment for each framework
	// beyond the first that independently recommends a use case.
	synergyBoostPerFramework = 0.15

	// Cross-type analysis bands.
	commonWeakThreshold   = 3.5
	commonStrongThreshold = 4.0

	aggregateLockTTL = 60 * time.Second
	// unscheduledBucket collects roadmap entries with no target quarter.
	unscheduledBucket = "Unscheduled"
)

type AggregateParams struct {
	CustomerID       uuid.UUID
	IncludeDismissed bool
	Limit            int // <= 0 means DefaultAggregationLimit
}

// DimensionComparison is one dimension's score across multiple frameworks.
type DimensionComparison struct {
	DimensionName string                           `json:"dimension_name"`
	Scores        map[types.AssessmentType]float64 `json:"scores"`
	AverageScore  float64                          `json:"average_score"`
}

type CrossTypeAnalysis struct {
	CustomerID         uuid.UUID                    `json:"customer_id"`
	AssessedFrameworks []types.AssessmentType       `json:"assessed_frameworks"`
	CommonWeaknesses   []DimensionComparison        `json:"common_weaknesses"`
	CommonStrengths    []DimensionComparison        `json:"common_strengths"`
	SynergisticCount   int                          `json:"synergistic_count"`
	Insights           []string                     `json:"insights"`
	RecommendationsBy  map[types.AssessmentType]int `json:"recommendations_by_framework"`
}

// RoadmapBucket groups aggregated recommendations scheduled into the same
// quarter. Entries without a target land in the Unscheduled bucket.
type RoadmapBucket struct {
	Label        string                            `json:"label"`
	Quarter      *int                              `json:"quarter,omitempty"`
	Year         *int                              `json:"year,omitempty"`
	Entries      []*types.AggregatedRecommendation `json:"entries"`
	CountsByType map[types.AssessmentType]int      `json:"counts_by_framework"`
}

type UnifiedRoadmap struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Buckets    []RoadmapBucket `json:"buckets"`
	Total      int             `json:"total"`
}

type AggregationService interface {
	// AggregateRecommendations merges the customer's per-framework
	// recommendations into one cross-framework list, boosting use cases that
	// more than one framework surfaced. Non-accepted aggregated rows are
	// replaced wholesale; accepted rows are left untouched.
	AggregateRecommendations(ctx context.Context, params AggregateParams) ([]*types.AggregatedRecommendation, error)
	// GetCrossTypeAnalysis compares dimension scores across frameworks. Pure
	// read; it never writes or triggers regeneration.
	GetCrossTypeAnalysis(ctx context.Context, customerID uuid.UUID) (*CrossTypeAnalysis, error)
	// BuildUnifiedRoadmap arranges aggregated recommendations into
	// quarter/year buckets. includeAccepted controls whether rows an advisor
	// already accepted appear alongside the pending ones.
	BuildUnifiedRoadmap(ctx context.Context, customerID uuid.UUID, includeAccepted bool) (*UnifiedRoadmap, error)
}

type aggregationService struct {
	db              *gorm.DB
	log             *logger.Logger
	assessments     repos.AssessmentRepo
	recommendations repos.RecommendationRepo
	aggregated      repos.AggregatedRepo
	locker          redislock.Locker // nil disables cross-instance locking
}

func NewAggregationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assessments repos.AssessmentRepo,
	recommendations repos.RecommendationRepo,
	aggregated repos.AggregatedRepo,
	locker redislock.Locker,
) AggregationService {
	return &aggregationService{
		db:              db,
		log:             baseLog.With("service", "AggregationService"),
		assessments:     assessments,
		recommendations: recommendations,
		aggregated:      aggregated,
		locker:          locker,
	}
}

// synergyBoost grows linearly with the number of frameworks that recommended
// the same use case: 1 framework = 1.0, 2 = 1.15, 3 = 1.30.
func synergyBoost(frameworkCount int) float64 {
	if frameworkCount < 1 {
		frameworkCount = 1
	}
	return 1.0 + synergyBoostPerFramework*float64(frameworkCount-1)
}

// useCaseGroup collects every framework's recommendation for one use case.
type useCaseGroup struct {
	useCaseID uuid.UUID
	title     string
	types     []types.AssessmentType
	ids       []uuid.UUID
	scoreSum  float64
	count     int
}

func (s *aggregationService) AggregateRecommendations(ctx context.Context, params AggregateParams) ([]*types.AggregatedRecommendation, error) {
	tracer := otel.Tracer("services/aggregation")
	ctx, span := tracer.Start(ctx, "AggregationService.AggregateRecommendations")
	defer span.End()
	span.SetAttributes(attribute.String("customer_id", params.CustomerID.String()))

	if params.CustomerID == uuid.Nil {
		return []*types.AggregatedRecommendation{}, nil
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultAggregationLimit
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, fmt.Sprintf("aggregate:%s", params.CustomerID), aggregateLockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	dbc := dbctx.Context{Ctx: ctx}
	source, err := s.recommendations.ListForAggregation(dbc, params.CustomerID, params.IncludeDismissed)
	if err != nil {
		return nil, err
	}

	// Group per use case, tracking each framework once.
	groups := map[uuid.UUID]*useCaseGroup{}
	order := []uuid.UUID{}
	for _, rec := range source {
		g, ok := groups[rec.UseCaseID]
		if !ok {
			g = &useCaseGroup{useCaseID: rec.UseCaseID, title: rec.Title}
			groups[rec.UseCaseID] = g
			order = append(order, rec.UseCaseID)
		}
		seen := false
		for _, t := range g.types {
			if t == rec.AssessmentType {
				seen = true
				break
			}
		}
		if !seen {
			g.types = append(g.types, rec.AssessmentType)
		}
		g.ids = append(g.ids, rec.ID)
		g.scoreSum += rec.PriorityScore
		g.count++
	}

	var out []*types.AggregatedRecommendation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		accepted, err := s.aggregated.ListByCustomer(inner, params.CustomerID, true)
		if err != nil {
			return err
		}
		acceptedUseCases := map[uuid.UUID]bool{}
		for _, a := range accepted {
			if a.IsAccepted {
				acceptedUseCases[a.UseCaseID] = true
			}
		}

		if err := s.aggregated.DeleteNonAccepted(inner, params.CustomerID); err != nil {
			return err
		}

		rows := make([]*types.AggregatedRecommendation, 0, len(order))
		for _, ucID := range order {
			g := groups[ucID]
			// An advisor-accepted aggregated row wins over a fresh merge.
			if acceptedUseCases[ucID] {
				continue
			}
			typesJSON, err := json.Marshal(g.types)
			if err != nil {
				return err
			}
			idsJSON, err := json.Marshal(g.ids)
			if err != nil {
				return err
			}
			base := g.scoreSum / float64(g.count)
			boost := synergyBoost(len(g.types))
			rows = append(rows, &types.AggregatedRecommendation{
				CustomerID:              params.CustomerID,
				UseCaseID:               ucID,
				Title:                   g.title,
				SourceAssessmentTypes:   datatypes.JSON(typesJSON),
				SourceRecommendationIDs: datatypes.JSON(idsJSON),
				BasePriorityScore:       base,
				SynergyBoost:            boost,
				CombinedPriorityScore:   base * boost,
				IsSynergistic:           len(g.types) > 1,
			})
		}

		sort.Slice(rows, func(i, j int) bool {
			return rows[i].CombinedPriorityScore > rows[j].CombinedPriorityScore
		})
		if len(rows) > limit {
			rows = rows[:limit]
		}

		if err := s.aggregated.CreateBatch(inner, rows); err != nil {
			return err
		}
		out = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.AggregationRuns.Inc()
	s.log.Info("recommendations aggregated",
		"customer_id", params.CustomerID,
		"source_count", len(source),
		"aggregated_count", len(out),
	)
	return out, nil
}

func (s *aggregationService) GetCrossTypeAnalysis(ctx context.Context, customerID uuid.UUID) (*CrossTypeAnalysis, error) {
	tracer := otel.Tracer("services/aggregation")
	ctx, span := tracer.Start(ctx, "AggregationService.GetCrossTypeAnalysis")
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	analysis := &CrossTypeAnalysis{
		CustomerID:        customerID,
		CommonWeaknesses:  []DimensionComparison{},
		CommonStrengths:   []DimensionComparison{},
		Insights:          []string{},
		RecommendationsBy: map[types.AssessmentType]int{},
	}

	assessments, err := s.assessments.ListLatestCompletedByCustomer(dbc, customerID)
	if err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return analysis, nil
	}

	// Collect each dimension's score per framework.
	dimScores := map[string]map[types.AssessmentType]float64{}
	for _, a := range assessments {
		analysis.AssessedFrameworks = append(analysis.AssessedFrameworks, a.AssessmentType)
		scores, err := a.Scores()
		if err != nil {
			return nil, err
		}
		for dim, score := range scores {
			if dimScores[dim] == nil {
				dimScores[dim] = map[types.AssessmentType]float64{}
			}
			dimScores[dim][a.AssessmentType] = score
		}
	}
	sort.Slice(analysis.AssessedFrameworks, func(i, j int) bool {
		return analysis.AssessedFrameworks[i] < analysis.AssessedFrameworks[j]
	})

	// A dimension is a common weakness when it scores below the weak band in
	// more than one framework, and a common strength when it scores above the
	// strong band in more than one. A high score elsewhere does not cancel a
	// shared weakness.
	for dim, byType := range dimScores {
		if len(byType) < 2 {
			continue
		}
		weakCount, strongCount := 0, 0
		var sum float64
		for _, score := range byType {
			sum += score
			if score < commonWeakThreshold {
				weakCount++
			}
			if score > commonStrongThreshold {
				strongCount++
			}
		}
		cmp := DimensionComparison{
			DimensionName: dim,
			Scores:        byType,
			AverageScore:  sum / float64(len(byType)),
		}
		if weakCount > 1 {
			analysis.CommonWeaknesses = append(analysis.CommonWeaknesses, cmp)
		}
		if strongCount > 1 {
			analysis.CommonStrengths = append(analysis.CommonStrengths, cmp)
		}
	}
	sort.Slice(analysis.CommonWeaknesses, func(i, j int) bool {
		if analysis.CommonWeaknesses[i].AverageScore != analysis.CommonWeaknesses[j].AverageScore {
			return analysis.CommonWeaknesses[i].AverageScore < analysis.CommonWeaknesses[j].AverageScore
		}
		return analysis.CommonWeaknesses[i].DimensionName < analysis.CommonWeaknesses[j].DimensionName
	})
	sort.Slice(analysis.CommonStrengths, func(i, j int) bool {
		if analysis.CommonStrengths[i].AverageScore != analysis.CommonStrengths[j].AverageScore {
			return analysis.CommonStrengths[i].AverageScore > analysis.CommonStrengths[j].AverageScore
		}
		return analysis.CommonStrengths[i].DimensionName < analysis.CommonStrengths[j].DimensionName
	})

	source, err := s.recommendations.ListForAggregation(dbc, customerID, false)
	if err != nil {
		return nil, err
	}
	useCaseTypes := map[uuid.UUID]map[types.AssessmentType]bool{}
	for _, rec := range source {
		analysis.RecommendationsBy[rec.AssessmentType]++
		if useCaseTypes[rec.UseCaseID] == nil {
			useCaseTypes[rec.UseCaseID] = map[types.AssessmentType]bool{}
		}
		useCaseTypes[rec.UseCaseID][rec.AssessmentType] = true
	}
	for _, byType := range useCaseTypes {
		if len(byType) > 1 {
			analysis.SynergisticCount++
		}
	}

	for _, w := range analysis.CommonWeaknesses {
		n := 0
		for _, score := range w.Scores {
			if score < commonWeakThreshold {
				n++
			}
		}
		analysis.Insights = append(analysis.Insights, fmt.Sprintf(
			"%q is weak in %d of %d frameworks (average %.1f); improvements here compound.",
			w.DimensionName, n, len(w.Scores), w.AverageScore,
		))
	}
	for _, st := range analysis.CommonStrengths {
		n := 0
		for _, score := range st.Scores {
			if score > commonStrongThreshold {
				n++
			}
		}
		analysis.Insights = append(analysis.Insights, fmt.Sprintf(
			"%q is strong in %d of %d frameworks (average %.1f); a foundation to build on.",
			st.DimensionName, n, len(st.Scores), st.AverageScore,
		))
	}
	if analysis.SynergisticCount > 0 {
		analysis.Insights = append(analysis.Insights, fmt.Sprintf(
			"%d use cases are recommended by more than one framework and deliver cross-framework value.",
			analysis.SynergisticCount,
		))
	}

	return analysis, nil
}

func (s *aggregationService) BuildUnifiedRoadmap(ctx context.Context, customerID uuid.UUID, includeAccepted bool) (*UnifiedRoadmap, error) {
	dbc := dbctx.Context{Ctx: ctx}

	rows, err := s.aggregated.ListByCustomer(dbc, customerID, includeAccepted)
	if err != nil {
		return nil, err
	}

	roadmap := &UnifiedRoadmap{CustomerID: customerID, Buckets: []RoadmapBucket{}, Total: len(rows)}

	bucketByLabel := map[string]*RoadmapBucket{}
	labels := []string{}
	for _, row := range rows {
		label := unscheduledBucket
		if row.TargetQuarter != nil && row.TargetYear != nil {
			label = fmt.Sprintf("Q%d %d", *row.TargetQuarter, *row.TargetYear)
		}
		b, ok := bucketByLabel[label]
		if !ok {
			b = &RoadmapBucket{
				Label:        label,
				Quarter:      row.TargetQuarter,
				Year:         row.TargetYear,
				Entries:      []*types.AggregatedRecommendation{},
				CountsByType: map[types.AssessmentType]int{},
			}
			bucketByLabel[label] = b
			labels = append(labels, label)
		}
		b.Entries = append(b.Entries, row)
		for _, t := range row.SourceTypes() {
			b.CountsByType[t]++
		}
	}

	// Scheduled buckets chronologically, Unscheduled last.
	sort.Slice(labels, func(i, j int) bool {
		bi, bj := bucketByLabel[labels[i]], bucketByLabel[labels[j]]
		if (bi.Year == nil) != (bj.Year == nil) {
			return bi.Year != nil
		}
		if bi.Year == nil {
			return labels[i] < labels[j]
		}
		if *bi.Year != *bj.Year {
			return *bi.Year < *bj.Year
		}
		return *bi.Quarter < *bj.Quarter
	})
	for _, label := range labels {
		b := bucketByLabel[label]
		sort.Slice(b.Entries, func(i, j int) bool {
			return b.Entries[i].CombinedPriorityScore > b.Entries[j].CombinedPriorityScore
		})
		roadmap.Buckets = append(roadmap.Buckets, *b)
	}

	return roadmap, nil
}
