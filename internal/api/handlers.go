package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/yanizio/jye-barcode/internal/domain"
	"github.com/yanizio/jye-barcode/internal/label"
	"github.com/yanizio/jye-barcode/internal/labeling"
)

// maxBody caps JSON request bodies.  A full batch of ids fits easily.
const maxBody = 1 << 20

// Handler serves the labeling API over a labeling.Service.
type Handler struct {
	svc      *labeling.Service
	validate *validator.Validate
	health   func(context.Context) error
}

// New wires a Handler.  health may be nil; when set it backs /healthz.
func New(svc *labeling.Service, health func(context.Context) error) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{svc: svc, validate: v, health: health}
}

// Routes returns the router mounted at /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/codes", func(r chi.Router) {
		r.Post("/", h.generate)
		r.Get("/", h.list)
		r.Get("/search", h.search)
		r.Head("/{code}", h.exists)
		r.Get("/{code}/label", h.reprint)
	})
	r.Post("/batches", h.batch)
	r.Get("/wildcards", h.wildcards)
	return r
}

/*──────────────────────────── payloads ─────────────────────────────────────*/

type generatePayload struct {
	Wildcard string `json:"wildcard"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Dialect  string `json:"dialect"`
}

type batchItemPayload struct {
	ID       string `json:"id" validate:"required,max=36"`
	Code     string `json:"code" validate:"required"`
	Quantity int    `json:"quantity"`
}

type batchPayload struct {
	Items   []batchItemPayload `json:"items" validate:"dive"`
	Dialect string             `json:"dialect"`
}

type generateResponse struct {
	Record *domain.Record `json:"record"`
	File   label.File     `json:"file"`
}

type markFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type batchResponse struct {
	File      label.File    `json:"file"`
	Codes     int           `json:"codes"`
	Labels    int           `json:"labels"`
	Recorded  bool          `json:"recorded"`
	Succeeded []string      `json:"succeeded"`
	Failed    []markFailure `json:"failed,omitempty"`
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var p generatePayload
	if err := h.decode(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := parseDialect(p.Dialect)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Generate(r.Context(), labeling.GenerateRequest{
		Wildcard: p.Wildcard, SKU: p.SKU, Quantity: p.Quantity, Dialect: d,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/codes/search?q="+res.Record.Code)
	writeJSON(w, http.StatusCreated, generateResponse{Record: res.Record, File: res.File})
}

func (h *Handler) exists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Exists(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		status, _ := statusFor(err)
		w.WriteHeader(status)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "count": len(recs)})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// reprint streams the label file as an attachment.
func (h *Handler) reprint(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	qty := 1
	if raw := qs.Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, domain.NewFieldError("quantity", domain.ErrMalformed, "quantity must be a whole number"))
			return
		}
		qty = n
	}
	d, err := parseDialect(qs.Get("dialect"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := h.svc.Reprint(r.Context(), labeling.ReprintRequest{
		Code: chi.URLParam(r, "code"), Quantity: qty, Dialect: d,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, *file)
}

func (h *Handler) batch(w http.ResponseWriter, r *http.Request) {
	var p batchPayload
	if err := h.decode(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := parseDialect(p.Dialect)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := labeling.BatchRequest{Dialect: d, Items: make([]labeling.BatchItem, 0, len(p.Items))}
	for _, it := range p.Items {
		req.Items = append(req.Items, labeling.BatchItem{ID: it.ID, Code: it.Code, Quantity: it.Quantity})
	}

	res, err := h.svc.BatchPrint(r.Context(), req)
	if res == nil {
		writeError(w, r, err)
		return
	}

	out := batchResponse{
		File:      res.File,
		Codes:     res.Codes,
		Labels:    res.Labels,
		Recorded:  err == nil,
		Succeeded: res.Marked.Succeeded,
	}
	if out.Succeeded == nil {
		out.Succeeded = []string{}
	}
	for _, f := range res.Marked.Failed {
		out.Failed = append(out.Failed, markFailure{ID: f.ID, Error: f.Err.Error()})
	}

	status := http.StatusOK
	if err != nil {
		// The file exists but some ids still read as unprinted.
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

func (h *Handler) wildcards(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Wildcards(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wildcards": list})
}

// Healthz reports liveness and, when configured, store reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// decode reads one JSON object and runs struct validation.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewFieldError("body", domain.ErrMalformed, "invalid JSON: %v", err)
	}
	return h.validate.Struct(dst)
}

// parseFilter reads wildcard, printed, from, and to.  Dates accept
// YYYY-MM-DD or RFC 3339; a date-only `to` covers that whole day.
func parseFilter(r *http.Request) (domain.Filter, error) {
	qs := r.URL.Query()
	return domain.ParseFilter(qs.Get("wildcard"), qs.Get("printed"), qs.Get("from"), qs.Get("to"))
}

// parseDialect accepts the dialect in any case, surrounding space ignored.
func parseDialect(raw string) (label.Dialect, error) {
	d, err := label.ParseDialect(raw)
	if err != nil {
		return "", &domain.FieldError{Field: "dialect", Kind: label.ErrUnknownDialect,
			Message: fmt.Sprintf("unknown dialect %q; use epl or zpl", raw)}
	}
	return d, nil
}

func writeAttachment(w http.ResponseWriter, f label.File) {
	w.Header().Set("Content-Type", label.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("X-Label-Count", strconv.Itoa(f.Labels))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(f.Content))
}
