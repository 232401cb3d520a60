package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/cardscan/internal/model"
	"github.com/sells-group/cardscan/internal/monitoring"
	"github.com/sells-group/cardscan/internal/parser"
	"github.com/sells-group/cardscan/internal/pipeline"
)

// newRouter builds the HTTP API around an initialized pipeline environment.
func newRouter(env *pipelineEnv, collector *monitoring.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		snap, err := collector.Collect(req.Context(), cfg.Monitoring.SampleSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "collect metrics failed")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/files", func(w http.ResponseWriter, _ *http.Request) {
		files, err := env.Exporter.ListFiles()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list files failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": files})
	})

	r.Get("/download/{filename}", func(w http.ResponseWriter, req *http.Request) {
		path, err := env.Exporter.Resolve(chi.URLParam(req, "filename"))
		if err != nil {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		http.ServeFile(w, req, path)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/process", handleProcess(env))
		r.Post("/batch", handleBatch(env))
		r.Post("/parse-text", handleParseText)
		r.Post("/enrich", handleEnrich(env))
	})

	return r
}

func maxUploadBytes() int64 {
	mb := cfg.Server.MaxUploadMB
	if mb <= 0 {
		mb = 16
	}
	return int64(mb) << 20
}

// handleProcess accepts one card image as the multipart field "image" or as
// the raw request body.
func handleProcess(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes())

		image, name, ok := readUpload(w, req)
		if !ok {
			return
		}

		opts := []pipeline.Option{pipeline.WithImageName(name)}
		if req.URL.Query().Get("no_enrich") == "true" {
			opts = append(opts, pipeline.WithoutEnrichment())
		}
		if req.URL.Query().Get("force_fallback") == "true" {
			opts = append(opts, pipeline.ForceFallback())
		}

		result := env.Pipeline.Process(req.Context(), image, opts...)
		writeJSON(w, http.StatusOK, result)
	}
}

// handleBatch accepts multiple card images as repeated multipart "images"
// fields and returns one result per image in upload order.
func handleBatch(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes())

		if err := req.ParseMultipartForm(maxUploadBytes()); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		uploads := req.MultipartForm.File["images"]
		if len(uploads) == 0 {
			writeError(w, http.StatusBadRequest, "no images uploaded")
			return
		}

		items := make([]pipeline.Item, 0, len(uploads))
		for _, header := range uploads {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable upload")
				return
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable upload")
				return
			}
			items = append(items, pipeline.Item{Name: header.Filename, Image: data})
		}

		var opts []pipeline.Option
		if req.URL.Query().Get("no_enrich") == "true" {
			opts = append(opts, pipeline.WithoutEnrichment())
		}

		results := env.Pipeline.ProcessBatch(req.Context(), items, opts...)
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func handleParseText(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	record, fc := parser.ParseText(body.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"contact_data":     record,
		"field_confidence": fc,
	})
}

func handleEnrich(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Email   string `json:"email"`
			Company string `json:"company"`
			Website string `json:"website"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Email == "" && body.Company == "" && body.Website == "" {
			writeError(w, http.StatusBadRequest, "email, company, or website is required")
			return
		}

		record := model.ContactRecord{
			Email:   body.Email,
			Company: body.Company,
			Website: body.Website,
		}
		ce := env.Pipeline.EnrichOnly(req.Context(), record)
		writeJSON(w, http.StatusOK, ce)
	}
}

// readUpload extracts the image bytes from a multipart "image" field, or
// from the raw body for clients that post the bytes directly.
func readUpload(w http.ResponseWriter, req *http.Request) ([]byte, string, bool) {
	if err := req.ParseMultipartForm(maxUploadBytes()); err == nil {
		f, header, err := req.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "image field is required")
			return nil, "", false
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return nil, "", false
		}
		return data, header.Filename, true
	}

	data, err := io.ReadAll(req.Body)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty request body")
		return nil, "", false
	}
	return data, "upload", true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
