package service

import (
	"context"
	"time"

	"github.com/pesio-ai/be-md-governance/internal/repository"
)

// ProposeChangeInput is a change proposal. The approval chain is derived from
// ChangeType and Priority; any ApprovalLevels supplied are ignored.
type ProposeChangeInput struct {
	CreateRequestInput

	// ExistingLocations, when supplied for a location create, are checked for
	// likely duplicates of the proposed record.
	ExistingLocations []LocationCandidate `json:"existingLocations,omitempty"`
	AutoSubmit        bool                `json:"autoSubmit"`
}

// ValidationReport is advisory: it never blocks a proposal.
type ValidationReport struct {
	Address    *AddressValidation `json:"address,omitempty"`
	Geocode    *GeocodeResult     `json:"geocode,omitempty"`
	Duplicates []DuplicateMatch   `json:"duplicates,omitempty"`
	Quality    *DataQualityScore  `json:"quality,omitempty"`
}

// Proposal is the result of ProposeChange.
type Proposal struct {
	Request    *repository.WorkflowRequest `json:"request"`
	Validation *ValidationReport           `json:"validation,omitempty"`
}

// ProposeChange validates a proposed change, builds its approval chain and
// opens a request, optionally submitting it straight away. If the automatic
// submit fails, the stored draft is returned alongside the error so the caller
// can retry the submit without opening a second request.
func (s *WorkflowService) ProposeChange(ctx context.Context, in ProposeChangeInput) (*Proposal, error) {
	if err := s.validateInput(in.CreateRequestInput); err != nil {
		return nil, err
	}
	if err := s.payloads.Validate(in.ChangeType, in.AfterData); err != nil {
		return nil, err
	}

	var report *ValidationReport
	if in.ChangeType.IsLocation() && in.ChangeType != repository.ChangeLocationDelete {
		report = s.inspectLocation(in)
	}

	create := in.CreateRequestInput
	create.ApprovalLevels = s.chains.BuildChain(in.ChangeType, in.Priority)

	req, err := s.CreateRequest(ctx, create)
	if err != nil {
		return nil, err
	}
	if in.AutoSubmit {
		submitted, err := s.SubmitForApproval(ctx, req.ID, in.RequestedBy)
		if err != nil {
			return &Proposal{Request: req, Validation: report}, err
		}
		req = submitted
	}
	return &Proposal{Request: req, Validation: report}, nil
}

func (s *WorkflowService) inspectLocation(in ProposeChangeInput) *ValidationReport {
	payload := in.AfterData
	report := &ValidationReport{}

	if addr := stringField(payload, "address"); addr != "" {
		v := s.normalizer.ValidateAddress(addr)
		g := s.normalizer.GeocodeAddress(addr)
		report.Address = &v
		report.Geocode = &g
	}

	if in.ChangeType == repository.ChangeLocationCreate && len(in.ExistingLocations) > 0 {
		report.Duplicates = FindDuplicates(LocationCandidate{
			Name:    stringField(payload, "name"),
			Address: stringField(payload, "address"),
			City:    stringField(payload, "city"),
		}, in.ExistingLocations)
	}

	q := CalculateDataQuality(recordFromPayload(payload), s.now())
	report.Quality = &q
	return report
}

func recordFromPayload(payload map[string]any) MasterDataRecord {
	rec := MasterDataRecord{
		Name:   stringField(payload, "name"),
		Code:   stringField(payload, "code"),
		Type:   stringField(payload, "type"),
		Status: stringField(payload, "status"),
	}

	switch locs := payload["locations"].(type) {
	case []string:
		rec.Locations = locs
	case []any:
		for _, l := range locs {
			if s, ok := l.(string); ok && s != "" {
				rec.Locations = append(rec.Locations, s)
			}
		}
	}

	if coords, ok := payload["coordinates"].(map[string]any); ok {
		lat, latOK := toFloat(coords["lat"])
		lng, lngOK := toFloat(coords["lng"])
		if latOK && lngOK {
			rec.Coordinates = &Coordinates{Lat: lat, Lng: lng}
		}
	}

	if ts := stringField(payload, "lastModified"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.LastModified = &t
		}
	}
	return rec
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
