package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
)

// RecordHandler serves the create/read/update/delete routes of one entity.
type RecordHandler struct {
	service    ports.RecordService
	entity     registry.Entity
	collection string
}

// NewRecordHandler binds service to entity. collection names the list key of
// the paginated response, e.g. "products".
func NewRecordHandler(service ports.RecordService, entity registry.Entity, collection string) *RecordHandler {
	return &RecordHandler{service: service, entity: entity, collection: collection}
}

func (h *RecordHandler) label() string {
	return capitalize(string(h.entity))
}

// List handles GET /api/<collection>.
//
// @Summary      List active rows of an entity
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true   "Collection (products, pricebooks, ...)"
// @Param        page        query     int     false  "Page number (1-based)"
// @Success      200         {object}  Envelope
// @Failure      403         {object}  Envelope
// @Failure      404         {object}  Envelope
// @Router       /api/{collection} [get]
func (h *RecordHandler) List(c echo.Context) error {
	p, err := h.service.List(c.Request().Context(), actorFrom(c), h.entity, queryPage(c, 1))
	if err != nil {
		return err
	}
	data := pageData(c, p)
	return respond(c, http.StatusOK, h.collection+" retrieved successfully", map[string]any{
		h.collection: data.Results,
		"count":      data.Count,
		"next":       data.Next,
		"previous":   data.Previous,
	})
}

// Get handles GET /api/<collection>/:id.
//
// @Summary      Get one active row by id
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Param        id          path      string  true  "Row id (e.g. PRD-1A2B3C4D)"
// @Success      200         {object}  Envelope
// @Failure      403         {object}  Envelope
// @Failure      404         {object}  Envelope
// @Router       /api/{collection}/{id} [get]
func (h *RecordHandler) Get(c echo.Context) error {
	doc, err := h.service.Get(c.Request().Context(), actorFrom(c), h.entity, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.label()+" retrieved successfully", doc)
}

// Create handles POST /api/<collection>.
//
// @Summary      Create a row
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Param        body        body      object  true  "Row fields"
// @Success      201         {object}  Envelope
// @Failure      400         {object}  Envelope
// @Failure      403         {object}  Envelope
// @Failure      500         {object}  Envelope
// @Router       /api/{collection} [post]
func (h *RecordHandler) Create(c echo.Context) error {
	raw, payload, err := readPayload(c)
	if err != nil {
		return err
	}
	if newSchema, ok := createSchemas[h.entity]; ok {
		req := newSchema()
		if err := decodeStrict(raw, req); err != nil {
			return err
		}
		if err := c.Validate(req); err != nil {
			return err
		}
	}

	doc, err := h.service.Create(c.Request().Context(), actorFrom(c), h.entity, payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, h.label()+" created successfully", doc)
}

// Update handles PUT /api/<collection>/:id. Updates are partial.
//
// @Summary      Update a row
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        collection  path      string  true  "Collection"
// @Param        id          path      string  true  "Row id"
// @Param        body        body      object  true  "Fields to change"
// @Success      200         {object}  Envelope
// @Failure      400         {object}  Envelope
// @Failure      403         {object}  Envelope
// @Failure      404         {object}  Envelope
// @Router       /api/{collection}/{id} [put]
func (h *RecordHandler) Update(c echo.Context) error {
	_, payload, err := readPayload(c)
	if err != nil {
		return err
	}
	doc, err := h.service.Update(c.Request().Context(), actorFrom(c), h.entity, c.Param("id"), payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.label()+" updated successfully", doc)
}

// Delete handles DELETE /api/<collection>/:id.
//
// @Summary      Delete a row
// @Tags         records
// @Security     BearerAuth
// @Param        collection  path  string  true  "Collection"
// @Param        id          path  string  true  "Row id"
// @Success      204
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/{collection}/{id} [delete]
func (h *RecordHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), actorFrom(c), h.entity, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// readPayload reads the request body once and decodes it as a JSON object.
// Numbers are kept as json.Number so integer fields survive unchanged.
func readPayload(c echo.Context) ([]byte, map[string]any, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	payload := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw, payload, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, nil, domain.NewValidationError("body", "must be a JSON object")
	}
	return raw, payload, nil
}

// decodeStrict unmarshals raw into req, reporting type mismatches per field.
func decodeStrict(raw []byte, req any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	err := json.Unmarshal(raw, req)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field, "must be "+jsonType(typeErr.Type))
	}
	return domain.NewValidationError("body", "must be a JSON object")
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	default:
		return "a " + t.Kind().String()
	}
}
