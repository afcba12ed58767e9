package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

const maxHistoryLimit = 500

func (rt *Router) uploadHandout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	handout, err := rt.handouts.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, handout)
}

func (rt *Router) getHandout(w http.ResponseWriter, r *http.Request) {
	handout, err := rt.handouts.Get(r.Context(), chi.URLParam(r, "handoutID"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handout)
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	result, err := rt.handouts.Ask(r.Context(), chi.URLParam(r, "handoutID"), req.Question)
	rt.recordAnswer(result, err, time.Since(start))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) recordAnswer(result *domain.AnswerResult, err error, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	switch {
	case err != nil:
		if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrHandoutNotFound) {
			return
		}
		rt.metrics.RecordAnswer(serviceName, string(domain.QuestionFailed), 0, duration)
	case result.Found:
		rt.metrics.RecordAnswer(serviceName, string(domain.QuestionAnswered), len(result.Sources), duration)
	default:
		rt.metrics.RecordAnswer(serviceName, string(domain.QuestionNoAnswer), 0, duration)
	}
}

func (rt *Router) listQuestions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	records, err := rt.handouts.History(r.Context(), chi.URLParam(r, "handoutID"), limit)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": records})
}

func (rt *Router) exportQuestions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	handoutID := chi.URLParam(r, "handoutID")

	records, err := rt.handouts.History(r.Context(), handoutID, limit)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_questions.xlsx"`, handoutID))
	if err := writeQuestionWorkbook(w, records); err != nil {
		slog.Error("question_export_failed", "handout_id", handoutID, "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

func (rt *Router) requestHighlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	job, err := rt.handouts.RequestHighlight(r.Context(), chi.URLParam(r, "handoutID"), req.Text)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordHighlightQueued(serviceName)
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (rt *Router) downloadHighlighted(w http.ResponseWriter, r *http.Request) {
	handoutID := chi.URLParam(r, "handoutID")
	reader, err := rt.handouts.OpenHighlighted(r.Context(), handoutID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_highlighted.pdf"`, handoutID))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		slog.Warn("highlighted_download_interrupted", "handout_id", handoutID, "error", err)
	}
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"upstream_status", domain.StatusCode(err),
			"error", err,
		)
	}
	writeError(w, r, status, err.Error())
}

func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}
