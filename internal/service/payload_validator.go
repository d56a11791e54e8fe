package service

import (
	"fmt"
	"strings"

	"github.com/pesio-ai/be-md-governance/internal/pkg/errors"
	"github.com/pesio-ai/be-md-governance/internal/repository"
	"github.com/xeipuuv/gojsonschema"
)

func schemaString() map[string]any { return map[string]any{"type": "string", "minLength": 1} }
func schemaAmount() map[string]any { return map[string]any{"type": "number", "minimum": 0} }

func objectSchema(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":          "object",
		"properties":    props,
		"minProperties": 1,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var coordinatesSchema = map[string]any{
	"type":     "object",
	"required": []string{"lat", "lng"},
	"properties": map[string]any{
		"lat": map[string]any{"type": "number"},
		"lng": map[string]any{"type": "number"},
	},
}

// defaultPayloadSchemas describe the minimum shape of each proposed payload.
var defaultPayloadSchemas = map[repository.ChangeType]map[string]any{
	repository.ChangeLocationCreate: objectSchema([]string{"name"}, map[string]any{
		"name":        schemaString(),
		"code":        map[string]any{"type": "string"},
		"address":     map[string]any{"type": "string"},
		"city":        map[string]any{"type": "string"},
		"coordinates": coordinatesSchema,
	}),
	repository.ChangeLocationUpdate: objectSchema(nil, map[string]any{
		"name":        schemaString(),
		"coordinates": coordinatesSchema,
	}),
	repository.ChangeFuelRuleCreate: objectSchema([]string{"name"}, map[string]any{
		"name":      schemaString(),
		"basePrice": schemaAmount(),
	}),
	repository.ChangeFuelRuleUpdate: objectSchema(nil, map[string]any{
		"basePrice": schemaAmount(),
	}),
	repository.ChangeLaneCreate: objectSchema([]string{"origin", "destination"}, map[string]any{
		"origin":      schemaString(),
		"destination": schemaString(),
	}),
	repository.ChangeLaneRateChange: objectSchema([]string{"rate"}, map[string]any{
		"laneId": schemaString(),
		"rate":   schemaAmount(),
	}),
	repository.ChangeVehicleCreate: objectSchema([]string{"registrationNumber"}, map[string]any{
		"registrationNumber": schemaString(),
		"vehicleType":        map[string]any{"type": "string"},
		"capacityKg":         schemaAmount(),
	}),
	repository.ChangeAccessorialCreate: objectSchema([]string{"code", "name"}, map[string]any{
		"code":   schemaString(),
		"name":   schemaString(),
		"charge": schemaAmount(),
	}),
}

// genericPayloadSchema applies to change types without a dedicated schema.
var genericPayloadSchema = map[string]any{"type": "object", "minProperties": 1}

// PayloadValidator checks proposed payloads against per-change-type JSON
// schemas.
type PayloadValidator struct {
	schemas map[repository.ChangeType]map[string]any
}

// NewPayloadValidator creates a validator; nil selects the built-in schemas.
func NewPayloadValidator(schemas map[repository.ChangeType]map[string]any) *PayloadValidator {
	if schemas == nil {
		schemas = defaultPayloadSchemas
	}
	return &PayloadValidator{schemas: schemas}
}

// Validate returns an INVALID_INPUT error listing every schema violation.
func (v *PayloadValidator) Validate(changeType repository.ChangeType, payload map[string]any) error {
	if payload == nil {
		return errors.InvalidInput("afterData", "proposed payload is required")
	}
	schema, ok := v.schemas[changeType]
	if !ok {
		schema = genericPayloadSchema
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(payload))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to evaluate payload schema")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.InvalidInput("afterData",
		fmt.Sprintf("payload does not match %s schema: %s", changeType, strings.Join(msgs, "; ")))
}
