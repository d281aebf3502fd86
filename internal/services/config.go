package services

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/brightpathcs/brightpath-backend/internal/data/repos"
	types "github.com/brightpathcs/brightpath-backend/internal/domain"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/dbctx"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

// LearningConfig is the typed view of the learning tunables. It is loaded
// fresh at the start of every learning cycle and passed explicitly, never
// memoized across cycles.
type LearningConfig struct {
	MinFeedbackForAdjustment int     `yaml:"min_feedback_for_adjustment"`
	ConfidenceThreshold      float64 `yaml:"confidence_threshold"`
	MaxWeightChangePerCycle  float64 `yaml:"max_weight_change_per_cycle"`
	RecencyDecayHalfLifeDays float64 `yaml:"recency_decay_half_life_days"`
	ColdStartWeight          float64 `yaml:"cold_start_weight"`
	LearningEnabled          bool    `yaml:"learning_enabled"`
	AdjustmentFrequencyHours int     `yaml:"adjustment_frequency_hours"`
}

// DefaultLearningConfig returns the seeded defaults.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		MinFeedbackForAdjustment: 5,
		ConfidenceThreshold:      0.3,
		MaxWeightChangePerCycle:  0.1,
		RecencyDecayHalfLifeDays: 90,
		ColdStartWeight:          0.5,
		LearningEnabled:          true,
		AdjustmentFrequencyHours: 24,
	}
}

type LearningConfigService interface {
	// LoadCycleConfig reads the current tunables from the store. Missing or
	// malformed entries fall back to their typed defaults.
	LoadCycleConfig(dbc dbctx.Context) (LearningConfig, error)
	// SeedDefaults writes the default entries without overwriting admin
	// edits. When path is non-empty the defaults are read from a yaml file
	// first.
	SeedDefaults(dbc dbctx.Context, path string) error
}

type learningConfigService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.LearningConfigRepo
}

func NewLearningConfigService(db *gorm.DB, baseLog *logger.Logger, repo repos.LearningConfigRepo) LearningConfigService {
	return &learningConfigService{
		db:   db,
		log:  baseLog.With("service", "LearningConfigService"),
		repo: repo,
	}
}

func (s *learningConfigService) LoadCycleConfig(dbc dbctx.Context) (LearningConfig, error) {
	cfg := DefaultLearningConfig()
	rows, err := s.repo.GetAll(dbc)
	if err != nil {
		return cfg, err
	}
	for _, row := range rows {
		switch row.Key {
		case types.ConfigKeyMinFeedbackForAdjustment:
			if v, err := strconv.Atoi(row.Value); err == nil && v >= 0 {
				cfg.MinFeedbackForAdjustment = v
			}
		case types.ConfigKeyConfidenceThreshold:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v >= 0 && v <= 1 {
				cfg.ConfidenceThreshold = v
			}
		case types.ConfigKeyMaxWeightChangePerCycle:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v > 0 {
				cfg.MaxWeightChangePerCycle = v
			}
		case types.ConfigKeyRecencyDecayHalfLifeDays:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v > 0 {
				cfg.RecencyDecayHalfLifeDays = v
			}
		case types.ConfigKeyColdStartWeight:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil && v >= 0 && v <= 1 {
				cfg.ColdStartWeight = v
			}
		case types.ConfigKeyLearningEnabled:
			if v, err := strconv.ParseBool(row.Value); err == nil {
				cfg.LearningEnabled = v
			}
		case types.ConfigKeyAdjustmentFrequencyHours:
			if v, err := strconv.Atoi(row.Value); err == nil && v > 0 {
				cfg.AdjustmentFrequencyHours = v
			}
		}
	}
	return cfg, nil
}

func (s *learningConfigService) SeedDefaults(dbc dbctx.Context, path string) error {
	cfg := DefaultLearningConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read learning config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parse learning config file: %w", err)
		}
	}
	rows := []*types.LearningConfigEntry{
		{Key: types.ConfigKeyMinFeedbackForAdjustment, Value: strconv.Itoa(cfg.MinFeedbackForAdjustment), ValueType: "int", Description: "Minimum feedback events before a mapping weight can be adjusted"},
		{Key: types.ConfigKeyConfidenceThreshold, Value: formatFloat(cfg.ConfidenceThreshold), ValueType: "float", Description: "Minimum confidence level required to apply an adjustment"},
		{Key: types.ConfigKeyMaxWeightChangePerCycle, Value: formatFloat(cfg.MaxWeightChangePerCycle), ValueType: "float", Description: "Upper bound on a single cycle's weight delta"},
		{Key: types.ConfigKeyRecencyDecayHalfLifeDays, Value: formatFloat(cfg.RecencyDecayHalfLifeDays), ValueType: "float", Description: "Half life in days for feedback recency weighting"},
		{Key: types.ConfigKeyColdStartWeight, Value: formatFloat(cfg.ColdStartWeight), ValueType: "float", Description: "Effectiveness assumed for mappings with no feedback yet"},
		{Key: types.ConfigKeyLearningEnabled, Value: strconv.FormatBool(cfg.LearningEnabled), ValueType: "bool", Description: "Global switch for automatic weight adjustment"},
		{Key: types.ConfigKeyAdjustmentFrequencyHours, Value: strconv.Itoa(cfg.AdjustmentFrequencyHours), ValueType: "int", Description: "How often the scheduled learning cycle runs"},
	}
	if err := s.repo.SeedDefaults(dbc, rows); err != nil {
		return err
	}
	s.log.Info("learning config defaults seeded", "entries", len(rows))
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
