package domain

import (
	"slices"
	"strings"
)

// WorkCategory identifies one cognitive-labor work type tracked by the engine.
type WorkCategory string

// WorkCategory values.
const (
	CategoryScheduling       WorkCategory = "scheduling"
	CategoryPlanning         WorkCategory = "planning"
	CategoryLogistics        WorkCategory = "logistics"
	CategoryFinances         WorkCategory = "finances"
	CategoryHealthcare       WorkCategory = "healthcare"
	CategorySocial           WorkCategory = "social"
	CategoryEmotionalSupport WorkCategory = "emotional_support"
	CategoryGeneral          WorkCategory = "general"
)

// validCategories stores supported work categories in canonical order.
var validCategories = []WorkCategory{
	CategoryScheduling,
	CategoryPlanning,
	CategoryLogistics,
	CategoryFinances,
	CategoryHealthcare,
	CategorySocial,
	CategoryEmotionalSupport,
	CategoryGeneral,
}

// Categories returns all supported work categories in canonical order.
func Categories() []WorkCategory {
	return append([]WorkCategory(nil), validCategories...)
}

// NormalizeCategory canonicalizes one work-category value.
func NormalizeCategory(category WorkCategory) WorkCategory {
	return WorkCategory(strings.TrimSpace(strings.ToLower(string(category))))
}

// IsValidCategory reports whether a work category is supported.
func IsValidCategory(category WorkCategory) bool {
	return slices.Contains(validCategories, NormalizeCategory(category))
}

// ComplexityLevel identifies one coarse complexity bucket for measured work.
type ComplexityLevel string

// ComplexityLevel values, ordered from least to most demanding.
const (
	ComplexityLow     ComplexityLevel = "low"
	ComplexityMedium  ComplexityLevel = "medium"
	ComplexityHigh    ComplexityLevel = "high"
	ComplexityExtreme ComplexityLevel = "extreme"
)

// complexityOrder stores complexity levels in ascending severity order.
var complexityOrder = []ComplexityLevel{
	ComplexityLow,
	ComplexityMedium,
	ComplexityHigh,
	ComplexityExtreme,
}

// ComplexityLevels returns all complexity levels in ascending severity order.
func ComplexityLevels() []ComplexityLevel {
	return append([]ComplexityLevel(nil), complexityOrder...)
}

// IsValidComplexityLevel reports whether a complexity level is supported.
func IsValidComplexityLevel(level ComplexityLevel) bool {
	return slices.Contains(complexityOrder, level)
}

// ComplexityRank returns the ascending severity rank of one level, or -1 when unknown.
func ComplexityRank(level ComplexityLevel) int {
	return slices.Index(complexityOrder, level)
}

// BurnoutRisk identifies one coarse burnout classification of a total load score.
type BurnoutRisk string

// BurnoutRisk values.
const (
	BurnoutLow      BurnoutRisk = "low"
	BurnoutMedium   BurnoutRisk = "medium"
	BurnoutHigh     BurnoutRisk = "high"
	BurnoutCritical BurnoutRisk = "critical"
)

// Direction identifies which way a self-report diverged from measured reality.
type Direction string

// Direction values.
const (
	DirectionUnderreported Direction = "underreported"
	DirectionOverreported  Direction = "overreported"
)
