package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/infra/adapters/ai"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func attachmentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func providerName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if !ai.IsKnownProvider(name) {
		writeError(w, http.StatusNotFound, "unknown provider: "+name)
		return "", false
	}
	return name, true
}

type processRequest struct {
	Provider string `json:"provider"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}
	var req processRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	result := s.process.ProcessAttachment(r.Context(), id, req.Provider)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}
	var req processRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	result := s.process.ReprocessAttachment(r.Context(), id, req.Provider)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

type bulkEnqueueRequest struct {
	AttachmentIDs []int64 `json:"attachment_ids"`
	Provider      string  `json:"provider"`
}

func (s *Server) handleBulkEnqueue(w http.ResponseWriter, r *http.Request) {
	var req bulkEnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.AttachmentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "attachment_ids is required")
		return
	}

	results := s.queue.EnqueueMany(r.Context(), req.AttachmentIDs, req.Provider)
	queued := 0
	for _, res := range results {
		if res.Error == "" {
			queued++
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"queued":  queued,
		"results": results,
	})
}

func (s *Server) handleDrainQueue(w http.ResponseWriter, r *http.Request) {
	// Bounded independently of the client connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	go func() {
		defer cancel()
		s.drainer.Tick(ctx)
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.queue.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	removed, err := s.queue.ClearPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear queue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

type providerKeyRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleProviderTest(w http.ResponseWriter, r *http.Request) {
	name, ok := providerName(w, r)
	if !ok {
		return
	}
	var req providerKeyRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	provider, err := s.providers.Provider(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	if err := provider.TestConnection(ctx, req.APIKey); err != nil {
		status := http.StatusBadGateway
		if domain.KindOf(err) == domain.KindConfiguration {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpdateKey(w http.ResponseWriter, r *http.Request) {
	name, ok := providerName(w, r)
	if !ok {
		return
	}
	var req providerKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}
	if err := s.keys.UpdateAPIKey(r.Context(), name, req.APIKey); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	name, ok := providerName(w, r)
	if !ok {
		return
	}
	if err := s.keys.DeleteAPIKey(r.Context(), name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to delete key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
