// Package server exposes the crawler over HTTP: search by performer,
// download by video URL, and a random pick per performer.
package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/valpere/TrailerScrapexter/internal/crawl"
	"github.com/valpere/TrailerScrapexter/internal/scraper"
	"github.com/valpere/TrailerScrapexter/internal/utils"
	"github.com/valpere/TrailerScrapexter/pkg/api"
)

// Searcher lists a performer's videos; scraper.Resolver satisfies it.
type Searcher interface {
	SearchCast(ctx context.Context, name string, page int) ([]scraper.Listing, error)
}

// Downloader runs the per-video pipeline; crawl.Runner satisfies it.
type Downloader interface {
	ProcessVideo(ctx context.Context, videoURL, actressName string) (*crawl.Result, error)
}

// Config holds the HTTP server settings.
type Config struct {
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Server routes API requests onto the crawler.
type Server struct {
	searcher   Searcher
	downloader Downloader
	metrics    http.Handler
	config     Config
	log        utils.Logger
	rng        *rand.Rand
}

// New assembles the server. metricsHandler may be nil to disable
// /metrics.
func New(searcher Searcher, downloader Downloader, metricsHandler http.Handler, config Config, log utils.Logger) *Server {
	if log == nil {
		log = utils.NopLogger{}
	}
	return &Server{
		searcher:   searcher,
		downloader: downloader,
		metrics:    metricsHandler,
		config:     config,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Routes builds the request router.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods("GET")
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	// Subrouters do not inherit the parent's method-mismatch handler.
	apiRouter.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	apiRouter.HandleFunc("/search", s.handleSearch).Methods("POST")
	apiRouter.HandleFunc("/download", s.handleDownload).Methods("POST")
	apiRouter.HandleFunc("/download/random", s.handleDownloadRandom).Methods("POST")

	return r
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("address", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ActressName) == "" {
		writeError(w, http.StatusBadRequest, "actress_name is required")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}

	listings, err := s.searcher.SearchCast(r.Context(), req.ActressName, req.Page)
	if err != nil {
		s.log.WithField("error", err.Error()).Error("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if len(listings) == 0 {
		writeError(w, http.StatusNotFound, "no videos found")
		return
	}

	resp := api.SearchResponse{Success: true, Page: req.Page}
	for _, l := range listings {
		resp.Videos = append(resp.Videos, api.VideoListing{
			Title:     l.Title,
			URL:       l.URL,
			Thumbnail: l.Thumbnail,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req api.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		writeError(w, http.StatusBadRequest, "video_url is required")
		return
	}

	s.runDownload(w, r, req.VideoURL, req.ActressName)
}

func (s *Server) handleDownloadRandom(w http.ResponseWriter, r *http.Request) {
	var req api.RandomDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ActressName) == "" {
		writeError(w, http.StatusBadRequest, "actress_name is required")
		return
	}

	listings, err := s.searcher.SearchCast(r.Context(), req.ActressName, 1)
	if err != nil {
		s.log.WithField("error", err.Error()).Error("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if len(listings) == 0 {
		writeError(w, http.StatusNotFound, "no videos found")
		return
	}

	pick := listings[s.rng.Intn(len(listings))]
	s.runDownload(w, r, pick.URL, req.ActressName)
}

func (s *Server) runDownload(w http.ResponseWriter, r *http.Request, videoURL, actressName string) {
	res, err := s.downloader.ProcessVideo(r.Context(), videoURL, actressName)
	if err != nil {
		s.log.WithFields(map[string]interface{}{
			"url":   videoURL,
			"error": err.Error(),
		}).Error("download failed")
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}

	writeJSON(w, http.StatusOK, api.DownloadResponse{
		Success: res.VideoOK || res.Skipped,
		Details: &api.DownloadDetails{
			Code:        res.Code,
			Title:       res.Title,
			Directory:   res.Directory,
			VideoOK:     res.VideoOK,
			ThumbnailOK: res.ThumbnailOK,
			Screenshots: res.Screenshots,
			Skipped:     res.Skipped,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Success: false, Error: message})
}
