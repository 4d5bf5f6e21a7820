// Package server exposes the webhook and upload HTTP endpoints: the
// inbound message hook, the image upload, and the manual inventory-update
// trigger.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pantrypal/internal/app"
	"pantrypal/internal/core"
)

// maxUploadBytes bounds image uploads.
const maxUploadBytes = 10 << 20

// Server is the pantry webhook server.
type Server struct {
	app    *app.App
	logger *zap.Logger
	http   *http.Server
}

// New builds the server listening on addr.
func New(addr string, application *app.App, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{app: application, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/update-inventory", s.handleUpdateInventory)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("pantry server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

type jsonResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp jsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// handleMessage accepts a messaging-provider webhook form post. The special
// body "Donate" triggers a donation lookup over currently flagged items;
// anything else is acknowledged without action.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form data", http.StatusBadRequest)
		return
	}

	from := r.PostFormValue("From")
	body := r.PostFormValue("Body")
	if from == "" || body == "" {
		s.logger.Warn("webhook missing From or Body")
		http.Error(w, "Missing data", http.StatusBadRequest)
		return
	}
	// Providers prefix the channel, e.g. "whatsapp:+15551234567".
	sender := from
	if i := strings.LastIndex(from, "whatsapp:"); i >= 0 {
		sender = from[i+len("whatsapp:"):]
	}

	if body != "Donate" {
		s.logger.Debug("ignoring message body", zap.String("from", sender))
		w.WriteHeader(http.StatusOK)
		return
	}

	s.logger.Info("donation lookup requested", zap.String("from", sender))
	if _, err := s.app.Donate(r.Context()); err != nil {
		s.logger.Error("donation lookup failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleUpload accepts a multipart image upload, classifies it, and merges
// recognized items into the ledger.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Message: "No file part in the request"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, jsonResponse{Message: "No selected file"})
		return
	}
	filename := filepath.Base(header.Filename)

	image, err := io.ReadAll(file)
	if err != nil {
		logger.Error("failed to read upload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, jsonResponse{Message: "An error occurred during file processing."})
		return
	}

	added, err := s.app.IngestImage(r.Context(), image, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("image intake failed", zap.String("file", filename), zap.Error(err))
		status := http.StatusInternalServerError
		if core.IsKind(err, core.KindMalformed) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, jsonResponse{Message: fmt.Sprintf("Upload failed: %v", err)})
		return
	}

	logger.Info("upload processed", zap.String("file", filename), zap.Int("added", added))
	writeJSON(w, http.StatusOK, jsonResponse{
		Success: true,
		Message: fmt.Sprintf("File '%s' uploaded successfully and inventory updated", filename),
	})
}

// handleUpdateInventory is the manual trigger for a full routine pass.
func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := s.app.RunRoutine(r.Context())
	if err != nil {
		s.logger.Error("inventory update failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, jsonResponse{
			Message: fmt.Sprintf("An error occurred during inventory update: %v", err),
		})
		return
	}

	msg := "No inventory update needed"
	if report.Updated {
		msg = "Inventory updated successfully"
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		Success:   true,
		Message:   msg,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
