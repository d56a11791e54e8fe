package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoringNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func northZone() MasterDataRecord {
	return MasterDataRecord{
		Name:        "North Zone",
		Code:        "NOR",
		Type:        "REGION",
		Locations:   []string{"Delhi"},
		Status:      "ACTIVE",
		Coordinates: &Coordinates{Lat: 28.7, Lng: 77.1},
	}
}

func TestCalculateDataQualityPerfect(t *testing.T) {
	score := CalculateDataQuality(northZone(), scoringNow)

	assert.Equal(t, 100, score.Overall)
	assert.Equal(t, 100, score.Completeness)
	assert.Equal(t, 100, score.Accuracy)
	assert.Equal(t, 100, score.Consistency)
	assert.Equal(t, 100, score.Timeliness)
	assert.Empty(t, score.Issues)
}

func TestCalculateDataQualityMissingCode(t *testing.T) {
	rec := northZone()
	rec.Code = ""

	score := CalculateDataQuality(rec, scoringNow)

	assert.Equal(t, 80, score.Completeness)
	assert.Equal(t, 100, score.Consistency)
	assert.Equal(t, 92, score.Overall)
	require.Len(t, score.Issues, 1)
	assert.Equal(t, SeverityHigh, score.Issues[0].Severity)
	assert.Equal(t, "code", score.Issues[0].Field)
}

func TestCalculateDataQualityAccuracyPenalties(t *testing.T) {
	rec := northZone()
	rec.Coordinates = &Coordinates{Lat: 91, Lng: 77}
	assert.Equal(t, 50, CalculateDataQuality(rec, scoringNow).Accuracy)

	rec.Coordinates = &Coordinates{Lat: -120, Lng: 200}
	score := CalculateDataQuality(rec, scoringNow)
	assert.Equal(t, 0, score.Accuracy)
	assert.Len(t, score.Issues, 2)
	assert.Equal(t, 70, score.Overall)
}

func TestCalculateDataQualityConsistency(t *testing.T) {
	rec := northZone()
	rec.Code = "sou-01"

	score := CalculateDataQuality(rec, scoringNow)
	assert.Equal(t, 70, score.Consistency)
	require.Len(t, score.Issues, 1)
	assert.Equal(t, SeverityMedium, score.Issues[0].Severity)

	rec.Code = "nor-01"
	assert.Equal(t, 100, CalculateDataQuality(rec, scoringNow).Consistency)
}

func TestCalculateDataQualityTimeliness(t *testing.T) {
	rec := northZone()

	recent := scoringNow.AddDate(0, 0, -30)
	rec.LastModified = &recent
	assert.Equal(t, 100, CalculateDataQuality(rec, scoringNow).Timeliness)

	stale := scoringNow.AddDate(0, 0, -120)
	rec.LastModified = &stale
	score := CalculateDataQuality(rec, scoringNow)
	assert.Equal(t, 80, score.Timeliness)
	assert.Equal(t, 98, score.Overall)
	require.Len(t, score.Issues, 1)
	assert.Equal(t, SeverityLow, score.Issues[0].Severity)

	ancient := scoringNow.AddDate(-1, 0, 0)
	rec.LastModified = &ancient
	assert.Equal(t, 60, CalculateDataQuality(rec, scoringNow).Timeliness)
}

func TestCalculateDataQualityEmptyRecord(t *testing.T) {
	score := CalculateDataQuality(MasterDataRecord{}, scoringNow)

	assert.Equal(t, 0, score.Completeness)
	assert.Equal(t, 60, score.Overall)
	assert.Len(t, score.Issues, 5)
}

func TestCalculateDataQualityDeterministic(t *testing.T) {
	rec := northZone()
	rec.Code = "XYZ"
	assert.Equal(t, CalculateDataQuality(rec, scoringNow), CalculateDataQuality(rec, scoringNow))
}
