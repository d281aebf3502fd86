package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/observability"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/errs"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

type FeedbackInput struct {
	RecommendationID      uuid.UUID
	Action                types.FeedbackAction
	AdvisorID             uuid.UUID
	QualityRating         *int
	Thumbs                *types.ThumbsFeedback
	DismissReasonCategory *string
	FeedbackReason        *string
}

type CycleParams struct {
	// MappingIDs optionally restricts the cycle to an explicit set.
	MappingIDs []uuid.UUID
	// DryRun previews adjustments without applying them. Always allowed,
	// even when learning is globally disabled.
	DryRun  bool
	Trigger types.TriggerEvent
}

type CycleAdjustment struct {
	MappingID          uuid.UUID `json:"mapping_id"`
	DimensionName      string    `json:"dimension_name"`
	UseCaseID          uuid.UUID `json:"use_case_id"`
	OldWeight          float64   `json:"old_weight"`
	NewWeight          float64   `json:"new_weight"`
	Delta              float64   `json:"delta"`
	EffectivenessScore float64   `json:"effectiveness_score"`
	ConfidenceLevel    float64   `json:"confidence_level"`
	FeedbackCount      int       `json:"feedback_count"`
	Applied            bool      `json:"applied"`
	Explanation        string    `json:"explanation"`
}

type CycleSkip struct {
	MappingID  uuid.UUID `json:"mapping_id"`
	ReasonCode string    `json:"reason_code"`
	Reason     string    `json:"reason"`
}

type CycleSummary struct {
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	DryRun      bool              `json:"dry_run"`
	Disabled    bool              `json:"disabled"`
	Evaluated   int               `json:"evaluated"`
	Adjustments []CycleAdjustment `json:"adjustments"`
	Skipped     []CycleSkip       `json:"skipped"`
}

type MappingLearningState struct {
	Mapping       *types.DimensionUseCaseMapping `json:"mapping"`
	Effectiveness *types.MappingEffectiveness    `json:"effectiveness,omitempty"`
}

type LearningSummary struct {
	Config            LearningConfig                   `json:"config"`
	Mappings          []MappingLearningState           `json:"mappings"`
	RecentAdjustments []*types.WeightAdjustmentHistory `json:"recent_adjustments"`
}

type LearningService interface {
	// RecordFeedback appends one immutable feedback event, stamps the
	// recommendation and refreshes effectiveness for every mapping that
	// shares the recommendation's use case.
	RecordFeedback(ctx context.Context, in FeedbackInput) (*types.RecommendationFeedback, error)
	// RunLearningCycle evaluates eligible mappings and nudges their impact
	// weights within bounded deltas. Skip-worthy mappings are reported in
	// the summary, never raised as errors.
	RunLearningCycle(ctx context.Context, params CycleParams) (*CycleSummary, error)
	GetLearningSummary(ctx context.Context) (*LearningSummary, error)
}

type learningService struct {
	db              *gorm.DB
	log             *logger.Logger
	config          LearningConfigService
	mappings        repos.MappingRepo
	recommendations repos.RecommendationRepo
	feedback        repos.FeedbackRepo
	effectiveness   repos.EffectivenessRepo
	history         repos.AdjustmentHistoryRepo
}

func NewLearningService(
	db *gorm.DB,
	baseLog *logger.Logger,
	config LearningConfigService,
	mappings repos.MappingRepo,
	recommendations repos.RecommendationRepo,
	feedback repos.FeedbackRepo,
	effectiveness repos.EffectivenessRepo,
	history repos.AdjustmentHistoryRepo,
) LearningService {
	return &learningService{
		db:              db,
		log:             baseLog.With("service", "LearningService"),
		config:          config,
		mappings:        mappings,
		recommendations: recommendations,
		feedback:        feedback,
		effectiveness:   effectiveness,
		history:         history,
	}
}

func (s *learningService) RecordFeedback(ctx context.Context, in FeedbackInput) (*types.RecommendationFeedback, error) {
	tracer := otel.Tracer("services/learning")
	ctx, span := tracer.Start(ctx, "LearningService.RecordFeedback")
	defer span.End()
	span.SetAttributes(attribute.String("action", string(in.Action)))

	if !types.ValidFeedbackAction(string(in.Action)) {
		return nil, fmt.Errorf("feedback action %q: %w", in.Action, errs.ErrInvalidArgument)
	}
	if in.QualityRating != nil && (*in.QualityRating < 1 || *in.QualityRating > 5) {
		return nil, fmt.Errorf("quality rating must be 1-5: %w", errs.ErrInvalidArgument)
	}
	if in.AdvisorID == uuid.Nil {
		return nil, fmt.Errorf("advisor id required: %w", errs.ErrInvalidArgument)
	}

	var out *types.RecommendationFeedback
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		now := time.Now().UTC()

		rec, err := s.recommendations.GetByID(inner, in.RecommendationID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("recommendation %s: %w", in.RecommendationID, errs.ErrNotFound)
		}
		if in.Action == types.FeedbackActionDismiss && rec.IsAccepted {
			return fmt.Errorf("cannot dismiss an accepted recommendation: %w", errs.ErrConflict)
		}

		cfg, err := s.config.LoadCycleConfig(inner)
		if err != nil {
			return err
		}

		row := &types.RecommendationFeedback{
			RecommendationID:       rec.ID,
			UseCaseID:              rec.UseCaseID,
			CustomerID:             rec.CustomerID,
			AssessmentType:         rec.AssessmentType,
			Action:                 in.Action,
			QualityRating:          in.QualityRating,
			ThumbsFeedback:         in.Thumbs,
			DismissReasonCategory:  in.DismissReasonCategory,
			FeedbackReason:         in.FeedbackReason,
			AdvisorID:              in.AdvisorID,
			PriorityScoreSnapshot:  rec.PriorityScore,
			DimensionScoreSnapshot: rec.DimensionScore,
			CreatedAt:              now,
		}
		if err := s.feedback.Create(inner, row); err != nil {
			return err
		}

		updates := map[string]any{}
		switch in.Action {
		case types.FeedbackActionAccept:
			updates["is_accepted"] = true
			updates["accepted_at"] = now
			updates["accepted_by"] = in.AdvisorID
		case types.FeedbackActionDismiss:
			updates["is_dismissed"] = true
			updates["dismissed_at"] = now
			updates["dismissed_by"] = in.AdvisorID
			if in.DismissReasonCategory != nil {
				updates["dismiss_reason"] = *in.DismissReasonCategory
			} else if in.FeedbackReason != nil {
				updates["dismiss_reason"] = *in.FeedbackReason
			}
		}
		if in.QualityRating != nil {
			updates["quality_rating"] = *in.QualityRating
			updates["rated_at"] = now
			updates["rated_by"] = in.AdvisorID
		}
		if err := s.recommendations.UpdateFields(inner, rec.ID, updates); err != nil {
			return err
		}

		// A use case can serve several dimensions; every mapping that can
		// surface it learns from this event.
		mappings, err := s.mappings.ListByUseCaseID(inner, rec.UseCaseID)
		if err != nil {
			return err
		}
		recent, err := s.feedback.ListRecentByUseCase(inner, rec.UseCaseID, recencyWindowSize)
		if err != nil {
			return err
		}
		times := make([]time.Time, 0, len(recent))
		for _, f := range recent {
			times = append(times, f.CreatedAt)
		}

		for _, m := range mappings {
			eff, err := s.effectiveness.GetByMappingID(inner, m.ID)
			if err != nil {
				return err
			}
			if eff == nil {
				eff = &types.MappingEffectiveness{MappingID: m.ID}
			}
			applyFeedbackCounters(eff, in)
			eff.LastFeedbackAt = &now
			recalculateEffectiveness(eff, times, cfg.RecencyDecayHalfLifeDays, now)
			if err := s.effectiveness.Upsert(inner, eff); err != nil {
				return err
			}
		}

		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.FeedbackRecorded.WithLabelValues(string(in.Action)).Inc()
	s.log.Info("feedback recorded",
		"recommendation_id", in.RecommendationID,
		"action", in.Action,
		"advisor_id", in.AdvisorID,
	)
	return out, nil
}

// applyFeedbackCounters increments the raw counters for one feedback event.
func applyFeedbackCounters(eff *types.MappingEffectiveness, in FeedbackInput) {
	switch in.Action {
	case types.FeedbackActionAccept:
		eff.AcceptCount++
	case types.FeedbackActionDismiss:
		eff.DismissCount++
	}
	if in.QualityRating != nil {
		eff.RatingCount++
		eff.TotalRatingSum += float64(*in.QualityRating)
	}
	if in.Thumbs != nil {
		switch *in.Thumbs {
		case types.ThumbsUp:
			eff.ThumbsUpCount++
		case types.ThumbsDown:
			eff.ThumbsDownCount++
		}
	}
}

func (s *learningService) RunLearningCycle(ctx context.Context, params CycleParams) (*CycleSummary, error) {
	tracer := otel.Tracer("services/learning")
	ctx, span := tracer.Start(ctx, "LearningService.RunLearningCycle")
	defer span.End()
	span.SetAttributes(attribute.Bool("dry_run", params.DryRun))

	if params.Trigger == "" {
		params.Trigger = types.TriggerLearningCycle
	}

	summary := &CycleSummary{
		StartedAt:   time.Now().UTC(),
		DryRun:      params.DryRun,
		Adjustments: []CycleAdjustment{},
		Skipped:     []CycleSkip{},
	}

	dbc := dbctx.Context{Ctx: ctx}

	// Config is loaded once per cycle and passed explicitly; a long-lived
	// process never reuses stale tunables.
	cfg, err := s.config.LoadCycleConfig(dbc)
	if err != nil {
		return nil, err
	}

	if !cfg.LearningEnabled && !params.DryRun {
		summary.Disabled = true
		summary.FinishedAt = time.Now().UTC()
		s.log.Warn("learning cycle requested while learning is disabled")
		return summary, nil
	}

	mappings, err := s.mappings.ListLearningEnabled(dbc, params.MappingIDs)
	if err != nil {
		return nil, err
	}
	summary.Evaluated = len(mappings)

	for _, m := range mappings {
		if err := s.evaluateMapping(ctx, m.ID, cfg, params, summary); err != nil {
			return nil, fmt.Errorf("mapping %s: %w", m.ID, err)
		}
	}

	summary.FinishedAt = time.Now().UTC()

	mode := "live"
	if params.DryRun {
		mode = "dry_run"
	}
	observability.LearningCyclesRun.WithLabelValues(mode).Inc()
	for _, sk := range summary.Skipped {
		observability.LearningCycleMappingsSkipped.WithLabelValues(sk.ReasonCode).Inc()
	}

	s.log.Info("learning cycle finished",
		"evaluated", summary.Evaluated,
		"adjusted", len(summary.Adjustments),
		"skipped", len(summary.Skipped),
		"dry_run", params.DryRun,
	)
	return summary, nil
}

// errDryRunRollback aborts a dry-run transaction after the preview is
// collected. Never returned to callers.
var errDryRunRollback = fmt.Errorf("dry run rollback")

// evaluateMapping runs one mapping's read-compute-apply step in a single
// transaction so concurrent counter increments cannot be dropped between the
// effectiveness recompute and the weight write.
func (s *learningService) evaluateMapping(ctx context.Context, mappingID uuid.UUID, cfg LearningConfig, params CycleParams, summary *CycleSummary) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		now := time.Now().UTC()

		m, err := s.mappings.GetByID(inner, mappingID)
		if err != nil {
			return err
		}
		if m == nil || !m.IsLearningEnabled {
			return nil
		}

		eff, err := s.effectiveness.GetByMappingID(inner, m.ID)
		if err != nil {
			return err
		}

		effScore := cfg.ColdStartWeight
		confidence := 0.0
		feedbackCount := 0
		if eff != nil {
			recent, err := s.feedback.ListRecentByUseCase(inner, m.UseCaseID, recencyWindowSize)
			if err != nil {
				return err
			}
			times := make([]time.Time, 0, len(recent))
			for _, f := range recent {
				times = append(times, f.CreatedAt)
			}
			recalculateEffectiveness(eff, times, cfg.RecencyDecayHalfLifeDays, now)
			effScore = eff.EffectivenessScore
			confidence = eff.ConfidenceLevel
			feedbackCount = eff.FeedbackCount()
		}

		if feedbackCount < cfg.MinFeedbackForAdjustment {
			summary.Skipped = append(summary.Skipped, CycleSkip{
				MappingID:  m.ID,
				ReasonCode: "insufficient_feedback",
				Reason:     fmt.Sprintf("%d feedback events, %d required", feedbackCount, cfg.MinFeedbackForAdjustment),
			})
			return nil
		}
		if confidence < cfg.ConfidenceThreshold {
			summary.Skipped = append(summary.Skipped, CycleSkip{
				MappingID:  m.ID,
				ReasonCode: "low_confidence",
				Reason:     fmt.Sprintf("confidence %.3f below threshold %.3f", confidence, cfg.ConfidenceThreshold),
			})
			return nil
		}

		if eff == nil {
			// Reachable only when min_feedback_for_adjustment is zero; treat
			// the mapping as cold-start with neutral priors.
			eff = &types.MappingEffectiveness{
				MappingID:          m.ID,
				AcceptRate:         defaultAcceptRate,
				AverageRating:      defaultAverageRating,
				EffectivenessScore: effScore,
			}
		}

		newWeight, delta := boundedAdjustment(m.ImpactWeight, effScore, cfg.MaxWeightChangePerCycle)
		if !significantChange(m.ImpactWeight, newWeight) {
			summary.Skipped = append(summary.Skipped, CycleSkip{
				MappingID:  m.ID,
				ReasonCode: "no_significant_change",
				Reason:     fmt.Sprintf("weight %.4f already within tolerance of target", m.ImpactWeight),
			})
			return nil
		}

		adj := CycleAdjustment{
			MappingID:          m.ID,
			DimensionName:      m.DimensionName,
			UseCaseID:          m.UseCaseID,
			OldWeight:          m.ImpactWeight,
			NewWeight:          newWeight,
			Delta:              delta,
			EffectivenessScore: effScore,
			ConfidenceLevel:    confidence,
			FeedbackCount:      feedbackCount,
			Explanation:        adjustmentExplanation(m, eff, newWeight, confidence),
		}

		if params.DryRun {
			summary.Adjustments = append(summary.Adjustments, adj)
			// Roll back so the recomputed effectiveness is not persisted
			// either; previews leave no trace.
			return errDryRunRollback
		}

		if err := s.mappings.UpdateWeight(inner, m.ID, newWeight, now); err != nil {
			return err
		}
		if eff != nil {
			if err := s.effectiveness.Upsert(inner, eff); err != nil {
				return err
			}
		}

		snapshot, err := json.Marshal(map[string]any{
			"feedback_count":      feedbackCount,
			"accept_count":        eff.AcceptCount,
			"dismiss_count":       eff.DismissCount,
			"rating_count":        eff.RatingCount,
			"accept_rate":         eff.AcceptRate,
			"average_rating":      eff.AverageRating,
			"effectiveness_score": effScore,
			"confidence_level":    confidence,
			"target_weight":       targetWeight(effScore),
		})
		if err != nil {
			return err
		}
		hist := &types.WeightAdjustmentHistory{
			MappingID:       m.ID,
			FieldChanged:    "impact_weight",
			OldValue:        m.ImpactWeight,
			NewValue:        newWeight,
			AdjustmentType:  types.AdjustmentAutomatic,
			TriggerEvent:    params.Trigger,
			ContextSnapshot: datatypes.JSON(snapshot),
			Explanation:     adj.Explanation,
		}
		if err := s.history.Create(inner, hist); err != nil {
			return err
		}

		adj.Applied = true
		summary.Adjustments = append(summary.Adjustments, adj)
		observability.WeightAdjustmentsApplied.Inc()
		return nil
	})
	if err == errDryRunRollback {
		return nil
	}
	return err
}

func adjustmentExplanation(m *types.DimensionUseCaseMapping, eff *types.MappingEffectiveness, newWeight, confidence float64) string {
	direction := "increased"
	if newWeight < m.ImpactWeight {
		direction = "decreased"
	}
	return fmt.Sprintf(
		"%s impact weight %.3f -> %.3f for dimension %q: accept rate %.0f%%, average rating %.1f over %d feedback events (confidence %.2f)",
		direction,
		m.ImpactWeight,
		newWeight,
		m.DimensionName,
		eff.AcceptRate*100,
		eff.AverageRating,
		eff.FeedbackCount(),
		confidence,
	)
}

func (s *learningService) GetLearningSummary(ctx context.Context) (*LearningSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}

	cfg, err := s.config.LoadCycleConfig(dbc)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappings.ListLearningEnabled(dbc, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(mappings))
	for _, m := range mappings {
		ids = append(ids, m.ID)
	}
	effRows, err := s.effectiveness.GetByMappingIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	effByMapping := make(map[uuid.UUID]*types.MappingEffectiveness, len(effRows))
	for _, e := range effRows {
		effByMapping[e.MappingID] = e
	}

	states := make([]MappingLearningState, 0, len(mappings))
	for _, m := range mappings {
		states = append(states, MappingLearningState{
			Mapping:       m,
			Effectiveness: effByMapping[m.ID],
		})
	}

	recent, err := s.history.ListRecent(dbc, 50)
	if err != nil {
		return nil, err
	}

	return &LearningSummary{
		Config:            cfg,
		Mappings:          states,
		RecentAdjustments: recent,
	}, nil
}
