package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/clients/redislock"
	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/observability"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/errs"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

const (
	// DefaultWeakThreshold is the score below which a dimension is weak.
	DefaultWeakThreshold = 3.5
	// DefaultRecommendationLimit caps one generation run's output.
	DefaultRecommendationLimit = 20

	linkedFeatureBonus = 5.0
	regenerateLockTTL  = 60 * time.Second
)

type GenerateParams struct {
	CustomerID     uuid.UUID
	AssessmentType types.AssessmentType
	Threshold      float64 // <= 0 means DefaultWeakThreshold
	Limit          int     // <= 0 means DefaultRecommendationLimit
	Regenerate     bool
}

type RecommendationService interface {
	// Generate maps the customer's weak dimensions in one framework to
	// scored roadmap recommendations. Missing assessments, empty score maps,
	// no weak dimensions and no candidate mappings all yield an empty slice,
	// never an error.
	Generate(ctx context.Context, params GenerateParams) ([]*types.RoadmapRecommendation, error)
	// GenerateAll runs Generate for every framework concurrently.
	GenerateAll(ctx context.Context, customerID uuid.UUID, threshold float64, limit int, regenerate bool) (map[types.AssessmentType][]*types.RoadmapRecommendation, error)
}

type recommendationService struct {
	db              *gorm.DB
	log             *logger.Logger
	assessments     repos.AssessmentRepo
	mappings        repos.MappingRepo
	customerUseCase repos.CustomerUseCaseRepo
	recommendations repos.RecommendationRepo
	effectiveness   repos.EffectivenessRepo
	locker          redislock.Locker // nil disables cross-instance locking
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assessments repos.AssessmentRepo,
	mappings repos.MappingRepo,
	customerUseCase repos.CustomerUseCaseRepo,
	recommendations repos.RecommendationRepo,
	effectiveness repos.EffectivenessRepo,
	locker redislock.Locker,
) RecommendationService {
	return &recommendationService{
		db:              db,
		log:             baseLog.With("service", "RecommendationService"),
		assessments:     assessments,
		mappings:        mappings,
		customerUseCase: customerUseCase,
		recommendations: recommendations,
		effectiveness:   effectiveness,
		locker:          locker,
	}
}

// dimensionGap is one weak dimension with its distance below the threshold.
type dimensionGap struct {
	Name  string
	Score float64
	Gap   float64
}

// weakDimensions returns every dimension scoring strictly below threshold,
// worst first. The gap ordering decides which dimensions win candidates when
// the output is later capped.
func weakDimensions(scores map[string]float64, threshold float64) []dimensionGap {
	out := make([]dimensionGap, 0, len(scores))
	for name, score := range scores {
		if score < threshold {
			out = append(out, dimensionGap{Name: name, Score: score, Gap: threshold - score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gap != out[j].Gap {
			return out[i].Gap > out[j].Gap
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// priorityScore blends four bounded bands: gap (0-50), impact weight (0-30),
// admin priority (0-15) and the linked-feature bonus (0-5). Gap dominates;
// admin priority can break ties but never overturn a large gap.
func priorityScore(gap, impactWeight float64, priority int, hasLinkedFeatures bool) float64 {
	score := math.Min(gap*25, 50)
	score += impactWeight * 30
	score += math.Max(0, float64(15-priority))
	if hasLinkedFeatures {
		score += linkedFeatureBonus
	}
	return score
}

// improvementPotential estimates how much of the gap the use case can close.
func improvementPotential(gap, impactWeight float64) float64 {
	return math.Min(gap*impactWeight, gap)
}

func recommendationTitle(uc *types.UseCase) string {
	if uc == nil {
		return "Improvement initiative"
	}
	if uc.HasLinkedFeatures() {
		return uc.Name + " (platform feature available)"
	}
	return uc.Name
}

type candidate struct {
	mapping *types.DimensionUseCaseMapping
	gap     dimensionGap
	score   float64
}

func (s *recommendationService) Generate(ctx context.Context, params GenerateParams) ([]*types.RoadmapRecommendation, error) {
	tracer := otel.Tracer("services/recommendation")
	ctx, span := tracer.Start(ctx, "RecommendationService.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer_id", params.CustomerID.String()),
		attribute.String("assessment_type", string(params.AssessmentType)),
		attribute.Bool("regenerate", params.Regenerate),
	)

	if params.CustomerID == uuid.Nil {
		return []*types.RoadmapRecommendation{}, nil
	}
	if !types.ValidAssessmentType(string(params.AssessmentType)) {
		return nil, fmt.Errorf("unknown assessment type %q: %w", params.AssessmentType, errs.ErrInvalidArgument)
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = DefaultWeakThreshold
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	if params.Regenerate && s.locker != nil {
		lockKey := fmt.Sprintf("regenerate:%s:%s", params.CustomerID, params.AssessmentType)
		release, err := s.locker.Acquire(ctx, lockKey, regenerateLockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	dbc := dbctx.Context{Ctx: ctx}

	assessment, err := s.assessments.GetLatestCompleted(dbc, params.CustomerID, params.AssessmentType)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return []*types.RoadmapRecommendation{}, nil
	}
	scores, err := assessment.Scores()
	if err != nil {
		return nil, err
	}
	weak := weakDimensions(scores, threshold)
	if len(weak) == 0 {
		return []*types.RoadmapRecommendation{}, nil
	}

	weakNames := make([]string, 0, len(weak))
	gapByName := make(map[string]dimensionGap, len(weak))
	for _, d := range weak {
		weakNames = append(weakNames, d.Name)
		gapByName[d.Name] = d
	}

	mappings, err := s.mappings.ListByTypeAndDimensions(dbc, params.AssessmentType, weakNames)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return []*types.RoadmapRecommendation{}, nil
	}

	statuses, err := s.customerUseCase.ListByCustomer(dbc, params.CustomerID)
	if err != nil {
		return nil, err
	}
	excluded := map[uuid.UUID]bool{}
	for _, cu := range statuses {
		if cu.Status.ExcludesFromRecommendation() {
			excluded[cu.UseCaseID] = true
		}
	}

	// Mappings arrive ordered by admin priority; only the first mapping per
	// use case feeds scoring so a use case shows up at most once.
	seen := map[uuid.UUID]bool{}
	candidates := make([]candidate, 0, len(mappings))
	for _, m := range mappings {
		if excluded[m.UseCaseID] || seen[m.UseCaseID] {
			continue
		}
		seen[m.UseCaseID] = true
		gap := gapByName[m.DimensionName]
		hasFeatures := m.UseCase.HasLinkedFeatures()
		candidates = append(candidates, candidate{
			mapping: m,
			gap:     gap,
			score:   priorityScore(gap.Gap, m.ImpactWeight, m.Priority, hasFeatures),
		})
	}
	if len(candidates) == 0 {
		return []*types.RoadmapRecommendation{}, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].mapping.Priority < candidates[j].mapping.Priority
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	var created []*types.RoadmapRecommendation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		if params.Regenerate {
			if err := s.recommendations.DeleteNonAccepted(inner, params.CustomerID, assessment.ID); err != nil {
				return err
			}
		}

		existing, err := s.recommendations.ListByCustomerAssessment(inner, params.CustomerID, assessment.ID)
		if err != nil {
			return err
		}
		existingUseCases := map[uuid.UUID]bool{}
		for _, r := range existing {
			existingUseCases[r.UseCaseID] = true
		}

		rows := make([]*types.RoadmapRecommendation, 0, len(candidates))
		mappingIDs := make([]uuid.UUID, 0, len(candidates))
		for _, c := range candidates {
			if existingUseCases[c.mapping.UseCaseID] {
				continue
			}
			rows = append(rows, &types.RoadmapRecommendation{
				CustomerID:           params.CustomerID,
				AssessmentID:         assessment.ID,
				UseCaseID:            c.mapping.UseCaseID,
				AssessmentType:       params.AssessmentType,
				Title:                recommendationTitle(c.mapping.UseCase),
				DimensionName:        c.gap.Name,
				DimensionScore:       c.gap.Score,
				PriorityScore:        c.score,
				ImprovementPotential: improvementPotential(c.gap.Gap, c.mapping.ImpactWeight),
			})
			mappingIDs = append(mappingIDs, c.mapping.ID)
		}
		if len(rows) == 0 {
			created = []*types.RoadmapRecommendation{}
			return nil
		}

		if err := s.recommendations.CreateBatch(inner, rows); err != nil {
			return err
		}
		if err := s.effectiveness.IncrementTotalRecommendations(inner, mappingIDs); err != nil {
			return err
		}
		created = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecommendationsGenerated.
		WithLabelValues(string(params.AssessmentType)).
		Add(float64(len(created)))
	s.log.Info("recommendations generated",
		"customer_id", params.CustomerID,
		"assessment_type", params.AssessmentType,
		"count", len(created),
		"regenerate", params.Regenerate,
	)
	return created, nil
}

func (s *recommendationService) GenerateAll(ctx context.Context, customerID uuid.UUID, threshold float64, limit int, regenerate bool) (map[types.AssessmentType][]*types.RoadmapRecommendation, error) {
	out := make(map[types.AssessmentType][]*types.RoadmapRecommendation, len(types.AllAssessmentTypes))
	results := make([][]*types.RoadmapRecommendation, len(types.AllAssessmentTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, at := range types.AllAssessmentTypes {
		g.Go(func() error {
			recs, err := s.Generate(gctx, GenerateParams{
				CustomerID:     customerID,
				AssessmentType: at,
				Threshold:      threshold,
				Limit:          limit,
				Regenerate:     regenerate,
			})
			if err != nil {
				return fmt.Errorf("generate %s: %w", at, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, at := range types.AllAssessmentTypes {
		out[at] = results[i]
	}
	return out, nil
}
