// Package server exposes the renderer over HTTP: upload a photo, get back a
// job, download the video.
package server

// CreateVideoResponse is returned when a render is queued.
type CreateVideoResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VideoResponse describes a render job.
type VideoResponse struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress int     `json:"progress"`
	Duration float64 `json:"duration"`
	Frames   int     `json:"frames,omitempty"`
	// VideoURL is set once the job completed.
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
