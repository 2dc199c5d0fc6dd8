package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"voicescribe/internal/history"
	"voicescribe/internal/language"
	"voicescribe/internal/logging"
	"voicescribe/internal/services"
	"voicescribe/internal/transcription"
)

const uploadDirPattern = "voicescribe-upload-*"

var modelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeFailure(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeFailure(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	model := strings.TrimSpace(r.FormValue("model"))
	if model != "" && !modelPattern.MatchString(model) {
		s.writeFailure(w, http.StatusBadRequest, fmt.Sprintf("invalid model %q", model))
		return
	}
	lang := strings.TrimSpace(r.FormValue("language"))
	if lang != "" {
		canonical := language.Canonical(lang)
		if canonical == "" {
			s.writeFailure(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", lang))
			return
		}
		lang = canonical
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeFailure(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	if s.workDir != "" {
		if err := os.MkdirAll(s.workDir, 0o755); err != nil {
			s.writeFailure(w, http.StatusInternalServerError, "prepare upload directory")
			return
		}
	}
	dir, err := os.MkdirTemp(s.workDir, uploadDirPattern)
	if err != nil {
		s.writeFailure(w, http.StatusInternalServerError, "prepare upload directory")
		return
	}
	defer os.RemoveAll(dir)

	audioPath := filepath.Join(dir, uploadName(header.Filename))
	if err := saveUpload(file, audioPath); err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("failed to store upload", logging.Error(err))
		s.writeFailure(w, http.StatusInternalServerError, "store upload")
		return
	}

	result := s.transcriber.Transcribe(r.Context(), transcription.Request{
		AudioPath: audioPath,
		Model:     model,
		Language:  lang,
	})
	s.record(r, result, header.Filename)
	s.writeResult(w, statusFor(result), result)
}

func (s *Server) record(r *http.Request, result transcription.Result, name string) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Record(r.Context(), history.FromResult(result, name, history.SourceHTTP)); err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("failed to record history", logging.Error(err))
	}
}

// statusFor maps an outcome onto an HTTP status.
func statusFor(result transcription.Result) int {
	if result.Succeeded() {
		return http.StatusOK
	}
	switch result.Err.Kind {
	case services.KindInputNotFound:
		return http.StatusBadRequest
	case services.KindEngineTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// uploadName keeps the client's base name so the engine output stem stays
// recognisable, falling back to a fixed name for unusable input.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return "upload"
	}
	return name
}

func saveUpload(src io.Reader, dest string) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, reason string) {
	s.writeResult(w, status, transcription.Failed(services.KindInputNotFound, reason, nil))
}

func (s *Server) writeResult(w http.ResponseWriter, status int, result transcription.Result) {
	writeJSON(w, status, result)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
