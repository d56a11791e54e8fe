package service

import (
	"testing"

	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
	"github.com/pesio-ai/be-md-governance/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestPayloadValidatorAcceptsValidPayloads(t *testing.T) {
	v := NewPayloadValidator(nil)

	assert.NoError(t, v.Validate(repository.ChangeLocationCreate, map[string]any{
		"name":        "Pune Hub",
		"city":        "Pune",
		"coordinates": map[string]any{"lat": 18.52, "lng": 73.85},
	}))
	assert.NoError(t, v.Validate(repository.ChangeLaneRateChange, map[string]any{"laneId": "DEL-BOM", "rate": 42.5}))
	assert.NoError(t, v.Validate(repository.ChangeType("CUSTOM"), map[string]any{"anything": true}))
}

func TestPayloadValidatorRejectsInvalidPayloads(t *testing.T) {
	v := NewPayloadValidator(nil)

	err := v.Validate(repository.ChangeLocationCreate, map[string]any{"city": "Pune"})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "name")

	err = v.Validate(repository.ChangeLaneRateChange, map[string]any{"rate": -3})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))

	err = v.Validate(repository.ChangeVehicleCreate, map[string]any{})
	assert.Error(t, err)

	err = v.Validate(repository.ChangeLaneCreate, nil)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}
