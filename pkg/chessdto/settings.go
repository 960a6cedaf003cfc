package chessdto

type URLResponse struct {
	URL   string `json:"url"`
	Admin string `json:"admin"`
}
