package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/kurobon/gitlanes/internal/graph"
	"github.com/kurobon/gitlanes/internal/render"
	"github.com/kurobon/gitlanes/internal/state"
)

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.buildGraph(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleGetGraphSVG(w http.ResponseWriter, r *http.Request) {
	g, ok := s.buildGraph(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.SVG(&buf, g); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

// buildGraph resolves the session and options from the query and runs the
// pipeline. On failure it writes the error response and returns false.
func (s *Server) buildGraph(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	q := r.URL.Query()
	id := q.Get("sessionId")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("sessionId is required"))
		return nil, false
	}
	opts, err := s.graphOptions(q.Get("limit"), q.Get("primary"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}

	session, ok := s.SessionManager.GetSession(id)
	if !ok {
		writeError(w, http.StatusNotFound, state.ErrSessionNotFound)
		return nil, false
	}

	g, err := session.BuildGraph(r.Context(), opts)
	if err != nil {
		var topo *graph.UnsupportedTopologyError
		if errors.As(err, &topo) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return nil, false
		}
		log.FromContext(r.Context()).Error("build graph", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return g, true
}

func (s *Server) graphOptions(limit, primary string) (graph.Options, error) {
	opts := s.Defaults
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid limit %q", limit)
		}
		opts.Limit = n
	}
	if primary != "" {
		opts.PrimaryBranch = primary
	}
	return opts, nil
}
