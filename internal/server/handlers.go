package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/procgraph/pkg/buildinfo"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/pipeline"
	"github.com/matzehuels/procgraph/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

// handleAssemble runs the pipeline on the request body. Query parameters:
// selection, structure, groups, refresh and persist.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Tiling:    s.opts.Tiling,
		Algorithm: s.opts.Algorithm,
		Selection: q.Get("selection"),
	}
	for name, dst := range map[string]*bool{
		"structure": &opts.Structure,
		"refresh":   &opts.Refresh,
		"persist":   &opts.Persist,
	} {
		if *dst, err = boolParam(q.Get(name), name); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	withGroups, err := boolParam(q.Get("groups"), "groups")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if withGroups {
		g := s.opts.Groups
		opts.Groups = &g
	}
	if opts.Persist && s.store == nil {
		s.writeError(w, r, perrors.New(perrors.ErrCodeUnsupported, "persistence is not configured"))
		return
	}

	res, err := s.runner.Execute(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheState := "miss"
	if res.CacheInfo.ModelHit {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Procgraph-Cache", cacheState)
	if res.Model.ID != "" {
		w.Header().Set("Location", "/v1/models/"+res.Model.ID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

type hullRequest struct {
	Points  []geom.Point      `json:"points"`
	Options *geom.HullOptions `json:"options,omitempty"`
	Radius  *float64          `json:"radius,omitempty"`
}

type hullResponse struct {
	Polygon geom.Polygon `json:"polygon"`
	Path    string       `json:"path"`
}

func (s *Server) handleHull(w http.ResponseWriter, r *http.Request) {
	var req hullRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode hull request"))
		return
	}

	opts := s.opts.Groups.Hull
	if req.Options != nil {
		opts = *req.Options
	}
	radius := s.opts.Groups.Radius
	if req.Radius != nil {
		radius = *req.Radius
	}
	if radius < 0 || opts.MinEdgePadding < 0 || opts.CollinearThreshold < 0 {
		s.writeError(w, r, perrors.New(perrors.ErrCodeInvalidInput, "hull parameters must not be negative"))
		return
	}

	poly, err := geom.ComputeGroupHull(req.Points, opts)
	if errors.Is(err, geom.ErrNoPoints) {
		s.writeError(w, r, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "hull needs at least one point"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hullResponse{
		Polygon: poly,
		Path:    geom.PathData(geom.RoundPolygonCorners(poly, radius)),
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, perrors.New(perrors.ErrCodeNotFound, "no model store configured"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, perrors.New(perrors.ErrCodeInvalidInput, "invalid limit: %q", v))
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, struct {
		Models []store.Summary `json:"models"`
	}{list})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := perrors.ValidateModelID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.store == nil {
		s.writeError(w, r, perrors.New(perrors.ErrCodeNotFound, "model %s not found", id))
		return
	}
	m, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func boolParam(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, perrors.New(perrors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
	}
	return b, nil
}
