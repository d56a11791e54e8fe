package service

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type IssueSeverity string

const (
	SeverityHigh   IssueSeverity = "HIGH"
	SeverityMedium IssueSeverity = "MEDIUM"
	SeverityLow    IssueSeverity = "LOW"
)

// Dimension weights for the overall score.
const (
	completenessWeight = 0.4
	accuracyWeight     = 0.3
	consistencyWeight  = 0.2
	timelinessWeight   = 0.1
)

const (
	coordinatePenalty   = 50
	codePrefixPenalty   = 30
	codePrefixLength    = 3
	staleAfterDays      = 90
	veryStaleAfterDays  = 180
	staleTimeliness     = 80
	veryStaleTimeliness = 60
)

// MasterDataRecord is a partially populated master-data record to be scored.
type MasterDataRecord struct {
	Name         string       `json:"name,omitempty"`
	Code         string       `json:"code,omitempty"`
	Type         string       `json:"type,omitempty"`
	Locations    []string     `json:"locations,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Status       string       `json:"status,omitempty"`
	LastModified *time.Time   `json:"lastModified,omitempty"`
}

// QualityIssue is one finding raised while scoring.
type QualityIssue struct {
	Dimension string        `json:"dimension"`
	Field     string        `json:"field"`
	Severity  IssueSeverity `json:"severity"`
	Message   string        `json:"message"`
}

// DataQualityScore is the weighted quality assessment of a record.
type DataQualityScore struct {
	Overall      int            `json:"overall"`
	Completeness int            `json:"completeness"`
	Accuracy     int            `json:"accuracy"`
	Consistency  int            `json:"consistency"`
	Timeliness   int            `json:"timeliness"`
	Issues       []QualityIssue `json:"issues"`
}

// CalculateDataQuality scores rec as of now. The result depends only on its
// arguments.
func CalculateDataQuality(rec MasterDataRecord, now time.Time) DataQualityScore {
	score := DataQualityScore{Issues: []QualityIssue{}}

	score.Completeness = completeness(rec, &score.Issues)
	score.Accuracy = accuracy(rec, &score.Issues)
	score.Consistency = consistency(rec, &score.Issues)
	score.Timeliness = timeliness(rec, now, &score.Issues)

	overall := float64(score.Completeness)*completenessWeight +
		float64(score.Accuracy)*accuracyWeight +
		float64(score.Consistency)*consistencyWeight +
		float64(score.Timeliness)*timelinessWeight
	score.Overall = int(math.Round(overall))
	return score
}

func completeness(rec MasterDataRecord, issues *[]QualityIssue) int {
	required := []struct {
		field   string
		present bool
	}{
		{"name", strings.TrimSpace(rec.Name) != ""},
		{"code", strings.TrimSpace(rec.Code) != ""},
		{"type", strings.TrimSpace(rec.Type) != ""},
		{"locations", len(rec.Locations) > 0},
		{"status", strings.TrimSpace(rec.Status) != ""},
	}

	populated := 0
	for _, f := range required {
		if f.present {
			populated++
			continue
		}
		*issues = append(*issues, QualityIssue{
			Dimension: "completeness",
			Field:     f.field,
			Severity:  SeverityHigh,
			Message:   fmt.Sprintf("Missing required field: %s", f.field),
		})
	}
	return populated * 100 / len(required)
}

func accuracy(rec MasterDataRecord, issues *[]QualityIssue) int {
	score := 100
	if rec.Coordinates == nil {
		return score
	}
	if rec.Coordinates.Lat < -90 || rec.Coordinates.Lat > 90 {
		score -= coordinatePenalty
		*issues = append(*issues, QualityIssue{
			Dimension: "accuracy",
			Field:     "coordinates.lat",
			Severity:  SeverityHigh,
			Message:   fmt.Sprintf("Latitude %.4f is outside [-90, 90]", rec.Coordinates.Lat),
		})
	}
	if rec.Coordinates.Lng < -180 || rec.Coordinates.Lng > 180 {
		score -= coordinatePenalty
		*issues = append(*issues, QualityIssue{
			Dimension: "accuracy",
			Field:     "coordinates.lng",
			Severity:  SeverityHigh,
			Message:   fmt.Sprintf("Longitude %.4f is outside [-180, 180]", rec.Coordinates.Lng),
		})
	}
	if score < 0 {
		score = 0
	}
	return score
}

func consistency(rec MasterDataRecord, issues *[]QualityIssue) int {
	name := strings.TrimSpace(rec.Name)
	code := strings.TrimSpace(rec.Code)
	if name == "" || code == "" {
		return 100
	}
	if prefix(strings.ToUpper(code), codePrefixLength) == prefix(strings.ToUpper(name), codePrefixLength) {
		return 100
	}
	*issues = append(*issues, QualityIssue{
		Dimension: "consistency",
		Field:     "code",
		Severity:  SeverityMedium,
		Message:   fmt.Sprintf("Code %q does not follow the name prefix convention", code),
	})
	return 100 - codePrefixPenalty
}

func timeliness(rec MasterDataRecord, now time.Time, issues *[]QualityIssue) int {
	if rec.LastModified == nil {
		return 100
	}
	ageDays := now.Sub(*rec.LastModified).Hours() / 24

	switch {
	case ageDays > veryStaleAfterDays:
		*issues = append(*issues, QualityIssue{
			Dimension: "timeliness",
			Field:     "lastModified",
			Severity:  SeverityMedium,
			Message:   fmt.Sprintf("Record not updated in over %d days", veryStaleAfterDays),
		})
		return veryStaleTimeliness
	case ageDays >= staleAfterDays:
		*issues = append(*issues, QualityIssue{
			Dimension: "timeliness",
			Field:     "lastModified",
			Severity:  SeverityLow,
			Message:   fmt.Sprintf("Record not updated in over %d days", staleAfterDays),
		})
		return staleTimeliness
	default:
		return 100
	}
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
