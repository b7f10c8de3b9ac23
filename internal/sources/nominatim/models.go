package nominatim

// ApiReverse is the subset of a /reverse?format=json answer the app reads.
type ApiReverse struct {
	DisplayName string      `json:"display_name"`
	Address     *ApiAddress `json:"address"`
}

type ApiAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Suburb  string `json:"suburb"`
	County  string `json:"county"`
	State   string `json:"state"`
	Country string `json:"country"`
}
