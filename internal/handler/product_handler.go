package handler

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := model.ProductQuery{
		Sort:       values.Get("sort"),
		Descending: strings.EqualFold(values.Get("direction"), "desc"),
	}

	if _, ok := values["q"]; ok {
		term := values.Get("q")
		query.Search = &term
	}
	if raw := values.Get("category"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				query.Categories = append(query.Categories, name)
			}
		}
	}

	var err error
	if query.Limit, err = intQuery(values.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid limit parameter", h.logger)
		return
	}
	if query.Offset, err = intQuery(values.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid offset parameter", h.logger)
		return
	}

	products, err := h.service.List(r.Context(), query)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products":           products,
		"search_term":        query.Search,
		"current_categories": query.Categories,
		"current_sorting":    currentSorting(query),
	})
}

// Get handles GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Categories handles GET /categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func intQuery(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// currentSorting renders the active ordering as "<sort>_<direction>", or
// "None_None" when unsorted.
func currentSorting(q model.ProductQuery) string {
	if q.Sort == "" {
		return "None_None"
	}
	direction := "asc"
	if q.Descending {
		direction = "desc"
	}
	return q.Sort + "_" + direction
}
