package domain

// AssessmentType identifies which maturity framework a record belongs to.
type AssessmentType string

const (
	AssessmentTypeSPM  AssessmentType = "spm"
	AssessmentTypeTBM  AssessmentType = "tbm"
	AssessmentTypeITFM AssessmentType = "itfm"
)

// AllAssessmentTypes lists every framework the engine aggregates across.
var AllAssessmentTypes = []AssessmentType{
	AssessmentTypeSPM,
	AssessmentTypeTBM,
	AssessmentTypeITFM,
}

func ValidAssessmentType(t string) bool {
	switch AssessmentType(t) {
	case AssessmentTypeSPM, AssessmentTypeTBM, AssessmentTypeITFM:
		return true
	}
	return false
}

type AssessmentStatus string

const (
	AssessmentStatusDraft      AssessmentStatus = "draft"
	AssessmentStatusInProgress AssessmentStatus = "in_progress"
	AssessmentStatusCompleted  AssessmentStatus = "completed"
)

type CustomerUseCaseStatus string

const (
	UseCaseStatusProposed    CustomerUseCaseStatus = "proposed"
	UseCaseStatusInProgress  CustomerUseCaseStatus = "in_progress"
	UseCaseStatusImplemented CustomerUseCaseStatus = "implemented"
	UseCaseStatusOptimized   CustomerUseCaseStatus = "optimized"
)

// ExcludesFromRecommendation reports whether a customer use case in this
// status should be withheld from new recommendation runs.
func (s CustomerUseCaseStatus) ExcludesFromRecommendation() bool {
	switch s {
	case UseCaseStatusInProgress, UseCaseStatusImplemented, UseCaseStatusOptimized:
		return true
	}
	return false
}

type FeedbackAction string

const (
	FeedbackActionAccept  FeedbackAction = "accept"
	FeedbackActionDismiss FeedbackAction = "dismiss"
	FeedbackActionRating  FeedbackAction = "rating"
)

func ValidFeedbackAction(a string) bool {
	switch FeedbackAction(a) {
	case FeedbackActionAccept, FeedbackActionDismiss, FeedbackActionRating:
		return true
	}
	return false
}

type ThumbsFeedback string

const (
	ThumbsUp   ThumbsFeedback = "up"
	ThumbsDown ThumbsFeedback = "down"
)

type AdjustmentType string

const (
	AdjustmentAutomatic AdjustmentType = "automatic"
	AdjustmentManual    AdjustmentType = "manual"
)

type TriggerEvent string

const (
	TriggerLearningCycle    TriggerEvent = "learning_cycle"
	TriggerScheduledCycle   TriggerEvent = "scheduled_cycle"
	TriggerManualAdjustment TriggerEvent = "manual_adjustment"
)
