package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mercator-hq/snippets/pkg/evaluation"
	"mercator-hq/snippets/pkg/lifecycle"
	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/logging"
)

const (
	pageOpen  = "<!DOCTYPE html>\n<html>\n<head>"
	bodyOpen  = "</head>\n<body>\n"
	pageClose = "</body>\n</html>\n"
)

// snippetResponse is the JSON form of a snippet row.
type snippetResponse struct {
	snippet.Snippet
	Active bool `json:"active"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// newLifecycle builds the lifecycle of r, writing function output to out.
func (s *Server) newLifecycle(r *http.Request, out io.Writer) (*lifecycle.Lifecycle, evaluation.RequestInfo) {
	info := evaluation.RequestInfoFromHTTP(r, s.config.AdminPrefix, s.config.RESTRoot)
	lc := s.engine.NewLifecycle(info, out).WithRequestID(logging.GetRequestID(r.Context()))
	return lc, info
}

// RenderPage runs lc and writes a full HTML page to w: head content
// snippets, functionOutput as the body, then footer content. lc must have
// been built to write function output into functionOutput.
func RenderPage(ctx context.Context, lc *lifecycle.Lifecycle, functionOutput *bytes.Buffer, w io.Writer) error {
	if _, err := io.WriteString(w, pageOpen); err != nil {
		return err
	}
	err := lc.Run(ctx, w, func(w io.Writer) error {
		if _, err := io.WriteString(w, bodyOpen); err != nil {
			return err
		}
		_, err := functionOutput.WriteTo(w)
		return err
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, pageClose)
	return err
}

// handlePage renders a full HTML page. The page is buffered so a failing
// snippet turns into a 500 instead of a truncated document.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var functionOutput, page bytes.Buffer
	lc, _ := s.newLifecycle(r, &functionOutput)

	if err := RenderPage(r.Context(), lc, &functionOutput, &page); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
}

// handleSnippet returns one snippet after both function passes ran.
func (s *Server) handleSnippet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lc, info := s.newLifecycle(r, io.Discard)

	if err := runPasses(ctx, lc); err != nil {
		s.fail(w, r, err)
		return
	}

	if _, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid snippet id"})
		return
	}

	// The JSON route always qualifies as an edit request, so the target
	// carries the table chosen by the "network" query parameter.
	info.IsJSON = true
	target := evaluation.ParseEditTarget(info, s.engine.RoutePrefix(), s.source.Tables())
	if target == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "snippet not found"})
		return
	}

	sn, active, err := s.source.Get(ctx, target.ID, target.Table)
	if errors.Is(err, store.ErrNotFound) || (err == nil && sn == nil) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "snippet not found"})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snippetResponse{Snippet: *sn, Active: active})
}

func runPasses(ctx context.Context, lc *lifecycle.Lifecycle) error {
	if _, err := lc.EvaluateEarly(ctx); err != nil {
		return err
	}
	return lc.EvaluateConditional(ctx)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context(), s.logger)

	var execErr *evaluation.ExecutionError
	if errors.As(err, &execErr) {
		log.Error("snippet execution failed", "snippet_id", execErr.ID, "table", execErr.Table, "error", execErr.Cause)
	} else {
		log.Error("request failed", "error", err)
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
