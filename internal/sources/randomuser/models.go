package randomuser

// ApiResponse is the envelope returned by randomuser.me.
type ApiResponse struct {
	Results []ApiUser `json:"results"`
}

type ApiUser struct {
	Login struct {
		Username string `json:"username"`
	} `json:"login"`
	Picture struct {
		Large     string `json:"large"`
		Medium    string `json:"medium"`
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}
