// Package api defines the request and response shapes of the HTTP
// endpoints.
package api

// SearchRequest asks for a performer's video listings, one page at a
// time.
type SearchRequest struct {
	ActressName string `json:"actress_name"`
	Page        int    `json:"page,omitempty"`
}

// VideoListing is one search hit.
type VideoListing struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// SearchResponse returns the listings for the requested page.
type SearchResponse struct {
	Success bool           `json:"success"`
	Videos  []VideoListing `json:"videos"`
	Page    int            `json:"page"`
}

// DownloadRequest asks for one video's assets by page URL.
type DownloadRequest struct {
	VideoURL    string `json:"video_url"`
	ActressName string `json:"actress_name,omitempty"`
}

// RandomDownloadRequest asks for the assets of a randomly picked video
// from a performer's first listing page.
type RandomDownloadRequest struct {
	ActressName string `json:"actress_name"`
}

// DownloadDetails summarizes the per-asset outcome for one video.
type DownloadDetails struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Directory   string `json:"directory"`
	VideoOK     bool   `json:"video_ok"`
	ThumbnailOK bool   `json:"thumbnail_ok"`
	Screenshots int    `json:"screenshots"`
	Skipped     bool   `json:"skipped"`
}

// DownloadResponse reports a download attempt.
type DownloadResponse struct {
	Success bool             `json:"success"`
	Details *DownloadDetails `json:"details,omitempty"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
