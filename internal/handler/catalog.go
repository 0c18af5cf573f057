package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"

	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/query"
	"g2-yoyodex/internal/service"
	"g2-yoyodex/pkg/apierror"
	"g2-yoyodex/pkg/response"
)

// CatalogHandler serves items, annotations and spec comparisons.
type CatalogHandler struct {
	catalog   *service.Catalog
	readiness Readiness
	pageSize  int
	log       *logger.Logger
}

// NewCatalogHandler creates a catalog handler. readiness may be nil.
func NewCatalogHandler(catalog *service.Catalog, readiness Readiness, pageSize int, log *logger.Logger) *CatalogHandler {
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	return &CatalogHandler{
		catalog:   catalog,
		readiness: readiness,
		pageSize:  pageSize,
		log:       logger.OrNop(log).Component("catalog_handler"),
	}
}

// ListResponse is one page of query results.
type ListResponse struct {
	Items  []model.CatalogItem                  `json:"items"`
	Facets map[query.Facet][]query.FacetOption `json:"facets"`
	State  query.State                          `json:"state"`
}

func newListResponse(res query.Result, st query.State) ListResponse {
	facets := make(map[query.Facet][]query.FacetOption, len(query.Facets))
	for _, f := range query.Facets {
		facets[f] = res.Options(f)
	}
	return ListResponse{Items: res.Items, Facets: facets, State: st}
}

func (h *CatalogHandler) meta(res query.Result) *response.Meta {
	m := response.NewMeta(res.Page, res.PageSize, int64(res.Total))
	if h.readiness != nil {
		m.LoadFailed = h.readiness.LoadFailed()
	}
	return m
}

// ListItems handles GET /api/v1/items
//
// Query parameters: q, model, colorway, type, view, sort, desc, page,
// page_size, width. The response carries an ETag; a matching If-None-Match
// yields 304.
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	st, err := stateFromQuery(r.URL.Query(), h.pageSize)
	if err != nil {
		response.Error(w, err)
		return
	}

	res, err := h.catalog.RunQuery(r.Context(), st)
	if err != nil {
		h.log.Error("query failed", "error", err)
		response.Error(w, apiError(err))
		return
	}

	writeCached(w, r, response.Response{
		Success: true,
		Data:    newListResponse(res, st),
		Meta:    h.meta(res),
	})
}

// stateFromQuery reads q, model, colorway, type, view, sort, desc, page,
// page_size and width.
func stateFromQuery(q url.Values, pageSize int) (query.State, error) {
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }

	var details []apierror.FieldError
	intParam := func(k string) int {
		s := get(k)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			details = append(details, apierror.FieldError{Field: k, Message: "must be a non-negative integer"})
			return 0
		}
		return n
	}

	p := query.Params{
		Search:   get("q"),
		Facets:   make(map[query.Facet]string, len(query.Facets)),
		View:     get("view"),
		Sort:     get("sort"),
		Page:     intParam("page"),
		PageSize: intParam("page_size"),
	}
	for _, f := range query.Facets {
		p.Facets[f] = get(string(f))
	}
	if width := intParam("width"); p.PageSize == 0 && width > 0 {
		p.PageSize = query.PageSizeForWidth(width)
	}
	if s := get("desc"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			details = append(details, apierror.FieldError{Field: "desc", Message: "must be a boolean"})
		} else {
			p.Descending = &b
		}
	}
	if len(details) > 0 {
		return query.State{}, apierror.ValidationError("invalid query parameters", details...)
	}

	st, err := query.FromParams(p, pageSize)
	if err != nil {
		return query.State{}, apierror.ValidationError(err.Error())
	}
	return st, nil
}

// writeCached encodes body once, tags it with a content hash and honours
// If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, body response.Response) {
	data, err := json.Marshal(body)
	if err != nil {
		response.Error(w, err)
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// ItemResponse is one item with its flags and rendered specs.
type ItemResponse struct {
	Item       model.CatalogItem      `json:"item"`
	Annotation model.Annotation       `json:"annotation"`
	Specs      []service.DisplayField `json:"specs"`
	Released   string                 `json:"released"`
}

// GetItem handles GET /api/v1/items/{identity}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")

	it, err := h.catalog.Item(identity)
	if err != nil {
		response.Error(w, apiError(err))
		return
	}
	ann, err := h.catalog.Annotation(r.Context(), identity)
	if err != nil {
		h.log.Error("load annotation failed", "identity", identity, "error", err)
		response.Error(w, apiError(err))
		return
	}

	response.OK(w, ItemResponse{
		Item:       it,
		Annotation: ann,
		Specs:      service.DisplaySpecs(it),
		Released:   service.FormatRelease(it.ReleaseDate),
	})
}

// AnnotationResponse is the result of changing a flag.
type AnnotationResponse struct {
	Annotation model.Annotation       `json:"annotation"`
	Counts     model.AnnotationCounts `json:"counts"`
}

// SetAnnotation handles PUT /api/v1/items/{identity}/annotations/{flag}
func (h *CatalogHandler) SetAnnotation(w http.ResponseWriter, r *http.Request) {
	h.setAnnotation(w, r, true)
}

// ClearAnnotation handles DELETE /api/v1/items/{identity}/annotations/{flag}
func (h *CatalogHandler) ClearAnnotation(w http.ResponseWriter, r *http.Request) {
	h.setAnnotation(w, r, false)
}

func (h *CatalogHandler) setAnnotation(w http.ResponseWriter, r *http.Request, on bool) {
	identity := chi.URLParam(r, "identity")
	flag := model.Flag(chi.URLParam(r, "flag"))

	ann, counts, err := h.catalog.SetAnnotation(r.Context(), identity, flag, on)
	if err != nil {
		response.Error(w, apiError(err))
		return
	}
	response.OK(w, AnnotationResponse{Annotation: ann, Counts: counts})
}

// ToggleAnnotation handles POST /api/v1/items/{identity}/annotations/{flag}/toggle
func (h *CatalogHandler) ToggleAnnotation(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	flag := model.Flag(chi.URLParam(r, "flag"))

	ann, counts, err := h.catalog.ToggleAnnotation(r.Context(), identity, flag)
	if err != nil {
		response.Error(w, apiError(err))
		return
	}
	response.OK(w, AnnotationResponse{Annotation: ann, Counts: counts})
}

// AnnotationCounts handles GET /api/v1/annotations/counts
func (h *CatalogHandler) AnnotationCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.catalog.AnnotationCounts(r.Context())
	if err != nil {
		response.Error(w, apiError(err))
		return
	}
	response.OK(w, counts)
}

// ListModels handles GET /api/v1/specs/models
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.catalog.Models())
}

// CompareSpecs handles GET /api/v1/specs/compare?model=a&model=b
func (h *CatalogHandler) CompareSpecs(w http.ResponseWriter, r *http.Request) {
	var models []string
	for _, m := range r.URL.Query()["model"] {
		for _, part := range strings.Split(m, ",") {
			if part = strings.TrimSpace(part); part != "" {
				models = append(models, part)
			}
		}
	}
	if len(models) == 0 {
		response.Error(w, apierror.ValidationError("at least one model is required",
			apierror.FieldError{Field: "model", Message: "required"}))
		return
	}

	table, err := h.catalog.CompareSpecs(models...)
	if err != nil {
		response.Error(w, apiError(err))
		return
	}
	response.OK(w, table)
}
