package pokeapi

// ApiPokemon is the subset of the /pokemon/{id} payload the app reads.
// Pointer fields distinguish absent values from zero values.
type ApiPokemon struct {
	ID      *int    `json:"id"`
	Name    *string `json:"name"`
	Height  *int    `json:"height"`
	Weight  *int    `json:"weight"`
	Sprites *struct {
		FrontDefault *string `json:"front_default"`
	} `json:"sprites"`
	Types []ApiTypeSlot `json:"types"`
}

type ApiTypeSlot struct {
	Slot int `json:"slot"`
	Type struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"type"`
}
