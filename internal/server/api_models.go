package server

// ScrapeRequest is the body of POST /scrape and POST /jobs.
type ScrapeRequest struct {
	URL string `json:"url" example:"https://www.harbour-realty.com.au"`
}

// HealthResponse reports liveness and the available browser backends.
type HealthResponse struct {
	Status   string   `json:"status" example:"ok"`
	Backends []string `json:"backends" example:"chromedp,rod"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid url"`
}
