package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/datops/internal/charset"
	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/tabular"
)

// maxBodyBytes caps JSON request bodies; they carry paths and names only.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// decode reads a JSON body into v. Unknown fields are rejected so a typo in a
// flag name does not silently fall back to a default.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if l := s.service.Limiter(); l != nil {
		body["limits"] = l.Status()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"formats":   tabular.Names(),
		"encodings": charset.Names(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := core.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   fmt.Sprintf("invalid limit %q", v),
				Message: "limit must be between 1 and 1000",
				Code:    "REQ001",
			})
			return
		}
		limit = n
	}

	runs, err := s.service.History().List(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req core.InspectRequest
	if err := s.prepare(w, r, &req, nil, &req.File); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.Inspect(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	res.Path = s.relative(res.Path)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req core.ConvertRequest
	if err := s.prepare(w, r, &req, &req.Output, &req.File); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.Convert(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.relSummary(&res.Summary, &res.Output)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req core.CompareRequest
	if err := s.prepare(w, r, &req, nil, &req.FileA, &req.FileB); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.resolveOutput(req.Report); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.Compare(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.relSummary(&res.Summary, &res.Report)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req core.MergeRequest
	if err := decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(req.Files) == 0 {
		s.respondError(w, r, core.ErrNoInputs)
		return
	}
	files := make([]*string, len(req.Files))
	for i := range req.Files {
		files[i] = &req.Files[i]
	}
	if err := errors.Join(s.resolveAll(files...), s.resolveOutput(&req.Output)); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Merge(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.relSummary(&res.Summary)
	for i := range res.Groups {
		g := &res.Groups[i]
		g.Output = s.relative(g.Output)
		for j := range g.Files {
			g.Files[j] = s.relative(g.Files[j])
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req core.DeleteRequest
	if err := s.prepare(w, r, &req, &req.Output, &req.File); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.Delete(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.relSummary(&res.Summary, &res.KeptPath, &res.RemovedPath)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req core.SelectRequest
	if err := s.prepare(w, r, &req, &req.Output, &req.File); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.Select(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.relSummary(&res.Summary, &res.Output)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReplaceHeader(w http.ResponseWriter, r *http.Request) {
	var req core.ReplaceHeaderRequest
	if err := s.prepare(w, r, &req, &req.Output, &req.File); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.service.ReplaceHeader(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.relSummary(&res.Summary, &res.Output)
	writeJSON(w, http.StatusOK, res)
}

// prepare decodes the body into req, then confines the named input paths and
// the output directory to the data root.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request, req any, out *core.OutputOptions, inputs ...*string) error {
	if err := decode(w, r, req); err != nil {
		return err
	}
	if err := s.resolveAll(inputs...); err != nil {
		return err
	}
	return s.resolveOutput(out)
}

// relSummary rewrites output paths in a result relative to the data root.
func (s *Server) relSummary(sum *core.Summary, extra ...*string) {
	for i := range sum.Outputs {
		sum.Outputs[i] = s.relative(sum.Outputs[i])
	}
	for i := range sum.Excluded {
		sum.Excluded[i].Path = s.relative(sum.Excluded[i].Path)
	}
	for _, p := range extra {
		if *p != "" {
			*p = s.relative(*p)
		}
	}
}
