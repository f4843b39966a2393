// Package search implements keyword search over the merged listing feed,
// ranked by an additive multi-factor relevance score.
package search

import (
	"strings"
	"time"

	"github.com/studxhq/studx/internal/listing"
)

// Query is a tokenized, lowercased search query.
type Query struct {
	Phrase string
	Tokens []string
}

// ParseQuery tokenizes a raw query by whitespace into lowercase words and
// retains the full lowercase phrase. An empty result means no search.
func ParseQuery(raw string) Query {
	phrase := strings.ToLower(strings.TrimSpace(raw))
	return Query{
		Phrase: phrase,
		Tokens: strings.Fields(phrase),
	}
}

// Empty reports whether the query has no searchable content.
func (q Query) Empty() bool {
	return len(q.Tokens) == 0
}

// TextScore computes the query-match portion of the relevance score: the
// per-token field bonuses plus the full-phrase bonuses. A zero text score
// means the listing does not match the query at all and must be excluded
// before any sponsorship boost can rescue it.
func (w *Weights) TextScore(l *listing.Listing, q Query) float64 {
	title := strings.ToLower(l.Title)
	description := strings.ToLower(l.Description)
	category := strings.ToLower(l.Category)
	courseSubject := strings.ToLower(l.ExtraString("course_subject"))
	academicYear := strings.ToLower(l.ExtraString("academic_year"))
	location := strings.ToLower(l.Location)
	roomType := strings.ToLower(l.ExtraString("room_type"))

	var score float64

	for _, token := range q.Tokens {
		if title == token {
			score += w.TitleExact
		} else if strings.Contains(title, token) {
			score += w.TitleToken
		}

		if category == token {
			score += w.CategoryExact
		} else if strings.Contains(category, token) {
			score += w.CategoryToken
		}

		if strings.Contains(description, token) {
			score += w.DescriptionToken
		}
		if courseSubject != "" && strings.Contains(courseSubject, token) {
			score += w.CourseSubjectToken
		}
		if academicYear != "" && strings.Contains(academicYear, token) {
			score += w.AcademicYearToken
		}
		if location != "" && strings.Contains(location, token) {
			score += w.LocationToken
		}
		if roomType != "" && strings.Contains(roomType, token) {
			score += w.RoomTypeToken
		}
	}

	// Phrase bonuses apply once, not per token.
	if strings.Contains(title, q.Phrase) {
		score += w.TitlePhrase
	}
	if description != "" && strings.Contains(description, q.Phrase) {
		score += w.DescriptionPhrase
	}
	if category != "" && strings.Contains(category, q.Phrase) {
		score += w.CategoryPhrase
	}

	return score
}

// AuxScore computes the query-independent bonuses: recency and price band.
// The one-day bonus replaces the one-week bonus rather than stacking.
func (w *Weights) AuxScore(l *listing.Listing, now time.Time) float64 {
	var score float64

	age := now.Sub(l.CreatedAt)
	switch {
	case age < 24*time.Hour:
		score += w.RecentDay
	case age < 7*24*time.Hour:
		score += w.RecentWeek
	}

	if l.Price > 0 && l.Price < w.PriceBandCeiling {
		score += w.PriceBand
	}

	return score
}
