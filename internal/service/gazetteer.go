package service

// DefaultCountry is assigned to every parsed address.
const DefaultCountry = "India"

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Gazetteer is the static place-name reference used for address
// classification and geocoding. Lookups are case-insensitive substring matches
// performed by the normalizer; the data itself is read-only.
type Gazetteer struct {
	Cities     []string
	States     []string
	CityState  map[string]string
	CityCoords map[string]Coordinates
}

// DefaultGazetteer covers the major Indian logistics hubs.
var DefaultGazetteer = &Gazetteer{
	Cities: []string{
		"Mumbai", "Delhi", "Bangalore", "Bengaluru", "Chennai", "Kolkata",
		"Hyderabad", "Pune", "Ahmedabad", "Jaipur", "Lucknow", "Surat",
		"Nagpur", "Indore", "Kochi", "Coimbatore", "Visakhapatnam", "Chandigarh",
	},
	States: []string{
		"Maharashtra", "Karnataka", "Tamil Nadu", "West Bengal", "Telangana",
		"Gujarat", "Rajasthan", "Uttar Pradesh", "Madhya Pradesh", "Kerala",
		"Andhra Pradesh", "Punjab", "Haryana", "Delhi",
	},
	CityState: map[string]string{
		"Mumbai":        "Maharashtra",
		"Pune":          "Maharashtra",
		"Nagpur":        "Maharashtra",
		"Delhi":         "Delhi",
		"Bangalore":     "Karnataka",
		"Bengaluru":     "Karnataka",
		"Chennai":       "Tamil Nadu",
		"Coimbatore":    "Tamil Nadu",
		"Kolkata":       "West Bengal",
		"Hyderabad":     "Telangana",
		"Ahmedabad":     "Gujarat",
		"Surat":         "Gujarat",
		"Jaipur":        "Rajasthan",
		"Lucknow":       "Uttar Pradesh",
		"Indore":        "Madhya Pradesh",
		"Kochi":         "Kerala",
		"Visakhapatnam": "Andhra Pradesh",
		"Chandigarh":    "Punjab",
	},
	CityCoords: map[string]Coordinates{
		"Mumbai":        {Lat: 19.0760, Lng: 72.8777},
		"Delhi":         {Lat: 28.7041, Lng: 77.1025},
		"Bangalore":     {Lat: 12.9716, Lng: 77.5946},
		"Bengaluru":     {Lat: 12.9716, Lng: 77.5946},
		"Chennai":       {Lat: 13.0827, Lng: 80.2707},
		"Kolkata":       {Lat: 22.5726, Lng: 88.3639},
		"Hyderabad":     {Lat: 17.3850, Lng: 78.4867},
		"Pune":          {Lat: 18.5204, Lng: 73.8567},
		"Ahmedabad":     {Lat: 23.0225, Lng: 72.5714},
		"Jaipur":        {Lat: 26.9124, Lng: 75.7873},
		"Lucknow":       {Lat: 26.8467, Lng: 80.9462},
		"Surat":         {Lat: 21.1702, Lng: 72.8311},
		"Nagpur":        {Lat: 21.1458, Lng: 79.0882},
		"Indore":        {Lat: 22.7196, Lng: 75.8577},
		"Kochi":         {Lat: 9.9312, Lng: 76.2673},
		"Coimbatore":    {Lat: 11.0168, Lng: 76.9558},
		"Visakhapatnam": {Lat: 17.6868, Lng: 83.2185},
		"Chandigarh":    {Lat: 30.7333, Lng: 76.7794},
	},
}
