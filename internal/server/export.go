package server

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
	chartio "github.com/matzehuels/chartsnap/pkg/io"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
	"github.com/matzehuels/chartsnap/pkg/sink"
)

type exportResponse struct {
	ID string `json:"id"`
	chartio.Result
	Downloads map[string]string `json:"downloads"`
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "expected a multipart upload")
	}

	primary, header, err := r.FormFile("chart")
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing form file \"chart\"")
	}
	defer primary.Close()

	var overlay multipart.File
	if f, _, err := r.FormFile("overlay"); err == nil {
		defer f.Close()
		overlay = f
	}

	snap, err := chartio.ReadSnapshot(primary, overlay)
	if err != nil {
		return nil, err
	}

	opts, err := formOptions(r, s.defaults)
	if err != nil {
		return nil, err
	}
	stem := r.FormValue("stem")
	if stem == "" {
		base := filepath.Base(header.Filename)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	job, err := opts.Job(stem, snap)
	if err != nil {
		return nil, err
	}
	mem := sink.NewMemorySink()
	runner := pipeline.NewRunner(s.cache, s.keyer, mem, s.logger, opts.RasterOptions()...)
	res, err := runner.Run(r.Context(), job)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s.store.put(id, mem)

	out := exportResponse{ID: id, Result: chartio.NewResult(job.Stem, res), Downloads: map[string]string{}}
	for _, a := range res.Artifacts {
		out.Downloads[a.Name] = path.Join("/api/exports", id, a.Name)
	}
	s.logger.Info("exported", "stem", job.Stem, "artifacts", len(res.Artifacts), "id", id)
	return out, nil
}

// formOptions overlays the request's form fields on defaults.
func formOptions(r *http.Request, defaults pipeline.Options) (pipeline.Options, error) {
	opts := pipeline.Options{
		Format:      defaults.Format,
		Mode:        defaults.Mode,
		Layers:      defaults.Layers,
		Filled:      defaults.Filled,
		Scale:       defaults.Scale,
		Quality:     defaults.Quality,
		Transparent: defaults.Transparent,
	}
	if v := r.FormValue("format"); v != "" {
		opts.Format = v
	}
	if v := r.FormValue("mode"); v != "" {
		opts.Mode = v
	}
	if v := r.FormValue("layers"); v != "" {
		opts.Layers = v
	}

	var err error
	parseBool := func(name string, dst *bool) {
		if v := r.FormValue(name); v != "" && err == nil {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = errors.New(errors.ErrCodeInvalidInput, "%s: not a boolean: %q", name, v)
				return
			}
			*dst = b
		}
	}
	parseBool("with_filled", &opts.Filled)
	parseBool("refresh", &opts.Refresh)
	parseBool("transparent", &opts.Transparent)

	if v := r.FormValue("scale"); v != "" && err == nil {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			err = errors.New(errors.ErrCodeInvalidInput, "scale: not a number: %q", v)
		}
		opts.Scale = f
	}
	if v := r.FormValue("quality"); v != "" && err == nil {
		q, perr := strconv.Atoi(v)
		if perr != nil {
			err = errors.New(errors.ErrCodeInvalidInput, "quality: not an integer: %q", v)
		}
		opts.Quality = q
	}
	if err != nil {
		return opts, err
	}
	return opts, opts.ValidateAndSetDefaults()
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")
	mem, ok := s.store.get(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "export %s not found", id))
		return
	}
	data, ok := mem.Get(name)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "export %s has no artifact %s", id, name))
		return
	}

	ctype := "application/octet-stream"
	if f, err := sink.ParseFormat(strings.TrimPrefix(path.Ext(name), ".")); err == nil {
		ctype = f.ContentType()
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// =============================================================================
// Batch
// =============================================================================

type batchRequest struct {
	Prefix         string            `json:"prefix"`
	AssetDimension string            `json:"asset_dimension,omitempty"`
	Dimensions     []batchDimension  `json:"dimensions"`
	Options        *pipeline.Options `json:"options,omitempty"`
}

type batchDimension struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) (any, error) {
	if s.orch == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "batch exports are not enabled on this server")
	}
	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode batch request")
	}

	dims := make([]batch.Dimension, len(req.Dimensions))
	for i, d := range req.Dimensions {
		dims[i] = batch.Values(d.Name, d.Values...)
	}
	plan := &batch.Plan{Prefix: req.Prefix, Dimensions: dims, AssetDimension: req.AssetDimension}

	opts := pipeline.Options{
		Format:  s.defaults.Format,
		Mode:    s.defaults.Mode,
		Layers:  s.defaults.Layers,
		Filled:  s.defaults.Filled,
		Scale:   s.defaults.Scale,
		Quality: s.defaults.Quality,

		Transparent: s.defaults.Transparent,
	}
	if req.Options != nil {
		opts = *req.Options
	}

	report, err := s.orch.Run(r.Context(), plan, opts)
	if err != nil {
		return nil, err
	}
	return chartio.NewReport(report), nil
}
