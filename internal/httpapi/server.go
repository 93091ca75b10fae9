// Package httpapi exposes the voice service over HTTP: the preprocess and
// generate endpoints, published-artifact serving, and a health probe.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/staticstore"
)

// Routes.
const (
	routePreprocess = "POST /voice/preprocess"
	routeGenerate   = "POST /voice/generate"
	routeStatic     = "GET /static/"
	routeHealth     = "GET /health"
)

// Headers.
const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// preprocessRequest is the request body for POST /voice/preprocess.
type preprocessRequest struct {
	AudioURLs []string `json:"audio_urls"`
}

// generateResponse is the response body for POST /voice/generate.
type generateResponse struct {
	AudioURL string `json:"audio_url"`
}

// errorResponse carries a human-readable failure description.
type errorResponse struct {
	Detail string `json:"detail"`
}

// healthResponse is the response body for GET /health.
type healthResponse struct {
	Status string `json:"status"`
}

// Server wires the HTTP surface to the pipeline, the inference client, and
// the static store. Validation happens before any pipeline or inference work.
type Server struct {
	pipeline  core.Preprocessor
	generator core.SpeechGenerator
	static    *staticstore.Store
	log       *logger.Logger
	mux       *http.ServeMux
}

// New builds a Server and registers its routes.
func New(
	pipeline core.Preprocessor,
	generator core.SpeechGenerator,
	static *staticstore.Store,
	log *logger.Logger,
) *Server {
	server := &Server{
		pipeline:  pipeline,
		generator: generator,
		static:    static,
		log:       log,
		mux:       http.NewServeMux(),
	}

	server.mux.HandleFunc(routePreprocess, server.handlePreprocess)
	server.mux.HandleFunc(routeGenerate, server.handleGenerate)
	server.mux.Handle(routeStatic, static.Handler())
	server.mux.HandleFunc(routeHealth, server.handleHealth)

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handlePreprocess(writer http.ResponseWriter, req *http.Request) {
	var body preprocessRequest

	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		s.writeError(writer, http.StatusBadRequest, "invalid JSON body")

		return
	}

	if len(body.AudioURLs) == 0 {
		s.writeError(writer, http.StatusBadRequest, "audio_urls cannot be empty")

		return
	}

	result, err := s.pipeline.Process(req.Context(), body.AudioURLs)
	if err != nil {
		s.log.Error("Preprocess failed: %v", err)
		s.writeError(writer, statusForError(err), err.Error())

		return
	}

	s.writeJSON(writer, http.StatusOK, result)
}

func (s *Server) handleGenerate(writer http.ResponseWriter, req *http.Request) {
	var body core.GenerateRequest

	err := json.NewDecoder(req.Body).Decode(&body)
	if err != nil {
		s.writeError(writer, http.StatusBadRequest, "invalid JSON body")

		return
	}

	audioURL, err := s.generator.Generate(req.Context(), body)
	if err != nil {
		s.log.Error("Generate failed: %v", err)
		s.writeError(writer, statusForError(err), err.Error())

		return
	}

	s.writeJSON(writer, http.StatusOK, generateResponse{AudioURL: audioURL})
}

func (s *Server) handleHealth(writer http.ResponseWriter, _ *http.Request) {
	s.writeJSON(writer, http.StatusOK, healthResponse{Status: "ok"})
}

// statusForError maps an error kind to its HTTP disposition. Fetch and decode
// failures are caller-attributable: they concern the URLs the caller supplied.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrFetch),
		errors.Is(err, core.ErrDecode),
		errors.Is(err, core.ErrUpstreamRejected),
		errors.Is(err, core.ErrUpstreamMalformed):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set(headerContentType, contentTypeJSON)
	writer.WriteHeader(status)

	err := json.NewEncoder(writer).Encode(payload)
	if err != nil {
		s.log.Warn("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(writer http.ResponseWriter, status int, detail string) {
	s.writeJSON(writer, status, errorResponse{Detail: detail})
}
