package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MARSWALLET/tagteam"
)

// Multipart bodies above this are rejected before reaching the pipeline.
const maxUploadBytes = 20 << 20

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type Server struct {
	hs     *http.Server
	tt     *tagteam.Tagteam
	db     *tagteam.DB
	apiKey string
	logger *log.Logger
}

func NewServer(tt *tagteam.Tagteam, db *tagteam.DB, apiKey, port string) *Server {
	srv := &Server{
		tt:     tt,
		db:     db,
		apiKey: apiKey,
		logger: log.Default(),
	}

	srv.hs = &http.Server{
		Addr:    net.JoinHostPort("0.0.0.0", port),
		Handler: srv.serveHandler(),
	}

	return srv
}

func (s *Server) Start() error {
	return s.hs.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.hs.Shutdown(ctx)
}

func (s *Server) serveHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /analyze", s.serveAnalyze())
	mux.Handle("GET /analyses", s.serveAnalyses())
	mux.Handle("GET /healthz", s.serveHealthz())

	return mux
}

func (s *Server) serveAnalyze() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		// No inference is possible without credentials, so this check comes
		// before the upload is touched.
		if s.apiKey == "" {
			s.jsonError(w, http.StatusInternalServerError, "Server configuration error: HF_API_KEY is missing.")
			return
		}

		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
		file, hdr, err := req.FormFile("file")
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "Invalid upload. Please send a single file field.")
			return
		}
		defer file.Close()

		if !strings.HasPrefix(hdr.Header.Get("Content-Type"), "image/") {
			s.jsonError(w, http.StatusBadRequest, "Invalid file type. Please upload an image.")
			return
		}

		image, err := io.ReadAll(file)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "Invalid upload. Please send a single file field.")
			return
		}

		analysis, err := s.tt.Analyze(req.Context(), image)
		if err != nil {
			s.logger.Printf("analyze error - %s", err)

			var ve *tagteam.VisionError
			var le *tagteam.LogicError
			switch {
			case errors.As(err, &ve):
				s.jsonError(w, http.StatusServiceUnavailable, fmt.Sprintf("Vision model service failed: %s", ve.Unwrap()))
			case errors.As(err, &le):
				s.jsonError(w, http.StatusServiceUnavailable, fmt.Sprintf("Logic model service failed: %s", le.Unwrap()))
			default:
				// Never leak unclassified error text to the caller.
				s.jsonError(w, http.StatusInternalServerError, "An unexpected error occurred processing your request.")
			}
			return
		}

		// Best effort, a log write failure never fails the request.
		if _, err := s.db.InsertAnalysis(req.Context(), analysis, time.Now()); err != nil {
			s.logger.Printf("analysis log insert error - %s", err)
		}

		s.writeJSON(w, http.StatusOK, analysis)
	}
}

func (s *Server) serveAnalyses() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := defaultHistoryLimit
		if l, err := strconv.Atoi(req.URL.Query().Get("limit")); err == nil && l > 0 {
			limit = min(l, maxHistoryLimit)
		}

		records, err := s.db.RecentAnalyses(req.Context(), limit)
		if err != nil {
			s.logger.Printf("analysis log query error - %s", err)
			s.jsonError(w, http.StatusInternalServerError, "An unexpected error occurred processing your request.")
			return
		}
		if records == nil {
			records = []*tagteam.AnalysisRecord{}
		}

		s.writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) serveHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !s.tt.IsHealthy() {
			s.jsonError(w, http.StatusServiceUnavailable, "inference API is not responding")
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("response encode error - %s", err)
	}
}

// All error responses share the {"detail": ...} body shape.
func (s *Server) jsonError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
