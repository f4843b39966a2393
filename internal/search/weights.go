package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines the additive relevance bonuses. Every signal is explicit
// and hand-tunable: predictable, debuggable ranking where curation is
// guaranteed to dominate and field importance can be adjusted without
// retraining anything.
type Weights struct {
	// SponsoredBoost is added to any curated listing that still matches the
	// query. It must dwarf every organic signal combined.
	SponsoredBoost float64 `json:"sponsored_boost"`

	// Per-token field bonuses.
	TitleExact         float64 `json:"title_exact"`
	TitleToken         float64 `json:"title_token"`
	CategoryExact      float64 `json:"category_exact"`
	CategoryToken      float64 `json:"category_token"`
	DescriptionToken   float64 `json:"description_token"`
	CourseSubjectToken float64 `json:"course_subject_token"`
	AcademicYearToken  float64 `json:"academic_year_token"`
	LocationToken      float64 `json:"location_token"`
	RoomTypeToken      float64 `json:"room_type_token"`

	// Full-phrase bonuses, checked once per listing.
	TitlePhrase       float64 `json:"title_phrase"`
	DescriptionPhrase float64 `json:"description_phrase"`
	CategoryPhrase    float64 `json:"category_phrase"`

	// Recency bonuses. RecentDay replaces RecentWeek, never stacks on it.
	RecentWeek float64 `json:"recent_week"`
	RecentDay  float64 `json:"recent_day"`

	// Price-band bonus for listings priced in (0, PriceBandCeiling).
	PriceBand        float64 `json:"price_band"`
	PriceBandCeiling float64 `json:"price_band_ceiling"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"`
	Weights Weights `json:"weights"`
}

// DefaultWeights returns the stock relevance weights.
func DefaultWeights() *Weights {
	return &Weights{
		SponsoredBoost:     1000,
		TitleExact:         100,
		TitleToken:         50,
		CategoryExact:      80,
		CategoryToken:      40,
		DescriptionToken:   20,
		CourseSubjectToken: 60,
		AcademicYearToken:  30,
		LocationToken:      40,
		RoomTypeToken:      35,
		TitlePhrase:        75,
		DescriptionPhrase:  30,
		CategoryPhrase:     60,
		RecentWeek:         10,
		RecentDay:          20,
		PriceBand:          5,
		PriceBandCeiling:   50000,
	}
}

// LoadCalibration loads relevance weights from a JSON calibration file.
// Partial configurations are merged with defaults; on any error the defaults
// are returned alongside it so startup can degrade gracefully.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read search calibration, using defaults",
			"path", filePath, "error", err)
		return DefaultWeights(), fmt.Errorf("read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse search calibration, using defaults",
			"path", filePath, "error", err)
		return DefaultWeights(), fmt.Errorf("parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), &config.Weights)
	slog.Info("loaded search calibration", "path", filePath)
	return merged, nil
}

// MergeCalibration merges override weights onto base weights. Only non-zero
// override values apply, which allows sparse calibration files.
func MergeCalibration(base, override *Weights) *Weights {
	if base == nil {
		base = DefaultWeights()
	}
	result := *base
	if override == nil {
		return &result
	}

	merge := func(dst *float64, src float64) {
		if src != 0 {
			*dst = src
		}
	}

	merge(&result.SponsoredBoost, override.SponsoredBoost)
	merge(&result.TitleExact, override.TitleExact)
	merge(&result.TitleToken, override.TitleToken)
	merge(&result.CategoryExact, override.CategoryExact)
	merge(&result.CategoryToken, override.CategoryToken)
	merge(&result.DescriptionToken, override.DescriptionToken)
	merge(&result.CourseSubjectToken, override.CourseSubjectToken)
	merge(&result.AcademicYearToken, override.AcademicYearToken)
	merge(&result.LocationToken, override.LocationToken)
	merge(&result.RoomTypeToken, override.RoomTypeToken)
	merge(&result.TitlePhrase, override.TitlePhrase)
	merge(&result.DescriptionPhrase, override.DescriptionPhrase)
	merge(&result.CategoryPhrase, override.CategoryPhrase)
	merge(&result.RecentWeek, override.RecentWeek)
	merge(&result.RecentDay, override.RecentDay)
	merge(&result.PriceBand, override.PriceBand)
	merge(&result.PriceBandCeiling, override.PriceBandCeiling)

	return &result
}
