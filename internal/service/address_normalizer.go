package service

import (
	"fmt"
	"regexp"
	"strings"
)

const addressDelimiter = ","

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// Confidence points awarded per recognised component.
const (
	streetPoints  = 20
	cityPoints    = 30
	statePoints   = 20
	pincodePoints = 30
)

// AddressComponents is the structured form of a free-text address.
type AddressComponents struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Country string `json:"country"`
}

// AddressValidation is the outcome of ValidateAddress.
type AddressValidation struct {
	Components   AddressComponents `json:"components"`
	IsValid      bool              `json:"isValid"`
	Confidence   int               `json:"confidence"`
	Standardized string            `json:"standardized"`
	Suggestions  []string          `json:"suggestions"`
}

// GeocodeResult is the outcome of GeocodeAddress.
type GeocodeResult struct {
	Found       bool        `json:"found"`
	City        string      `json:"city,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
	Source      string      `json:"source,omitempty"`
}

// AddressNormalizer classifies address segments against a gazetteer.
// It holds no mutable state and is safe for concurrent use.
type AddressNormalizer struct {
	gaz *Gazetteer
}

// NewAddressNormalizer creates a normalizer; nil selects DefaultGazetteer.
func NewAddressNormalizer(gaz *Gazetteer) *AddressNormalizer {
	if gaz == nil {
		gaz = DefaultGazetteer
	}
	return &AddressNormalizer{gaz: gaz}
}

// ValidateAddress splits a comma-delimited address and classifies each
// segment, in order, as pincode, city, state or street. Missing parts lower
// the confidence and produce suggestions; they never fail the call.
func (n *AddressNormalizer) ValidateAddress(address string) AddressValidation {
	comps := n.parse(address)

	confidence := 0
	if comps.Street != "" {
		confidence += streetPoints
	}
	if comps.City != "" {
		confidence += cityPoints
	}
	if comps.State != "" {
		confidence += statePoints
	}
	if comps.Pincode != "" {
		confidence += pincodePoints
	}
	if confidence > 100 {
		confidence = 100
	}

	return AddressValidation{
		Components:   comps,
		IsValid:      comps.City != "" && comps.Pincode != "",
		Confidence:   confidence,
		Standardized: standardize(comps),
		Suggestions:  n.suggest(comps),
	}
}

// GeocodeAddress resolves the address's city to gazetteer coordinates.
func (n *AddressNormalizer) GeocodeAddress(address string) GeocodeResult {
	comps := n.parse(address)
	if comps.City == "" {
		return GeocodeResult{}
	}
	coords, ok := n.gaz.CityCoords[comps.City]
	if !ok {
		return GeocodeResult{City: comps.City}
	}
	return GeocodeResult{Found: true, City: comps.City, Coordinates: coords, Source: "gazetteer"}
}

func (n *AddressNormalizer) parse(address string) AddressComponents {
	comps := AddressComponents{Country: DefaultCountry}

	for _, raw := range strings.Split(address, addressDelimiter) {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			continue
		}

		if comps.Pincode == "" && pincodePattern.MatchString(seg) {
			comps.Pincode = seg
			continue
		}
		if comps.City == "" {
			if city := matchName(seg, n.gaz.Cities); city != "" {
				comps.City = city
				continue
			}
		}
		if comps.State == "" {
			if state := matchName(seg, n.gaz.States); state != "" {
				comps.State = state
				continue
			}
		}
		if comps.Street == "" {
			comps.Street = seg
		}
	}
	return comps
}

func (n *AddressNormalizer) suggest(comps AddressComponents) []string {
	suggestions := []string{}
	if comps.Street == "" {
		suggestions = append(suggestions, "Add street or building details")
	}
	if comps.City == "" {
		suggestions = append(suggestions, "Add a recognised city name")
	}
	if comps.State == "" {
		if state, ok := n.gaz.CityState[comps.City]; ok {
			suggestions = append(suggestions, fmt.Sprintf("Add state: %s", state))
		} else {
			suggestions = append(suggestions, "Add state name")
		}
	}
	if comps.Pincode == "" {
		suggestions = append(suggestions, "Add 6-digit pincode")
	}
	return suggestions
}

// matchName returns the first gazetteer name contained in seg, ignoring case.
func matchName(seg string, names []string) string {
	lower := strings.ToLower(seg)
	for _, name := range names {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

func standardize(comps AddressComponents) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{comps.Street, comps.City, comps.State, comps.Pincode, comps.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
