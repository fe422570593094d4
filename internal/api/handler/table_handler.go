package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
)

// TableHandler exposes the generic list and detail dispatch over any
// registered entity.
type TableHandler struct {
	service ports.TableService
}

func NewTableHandler(service ports.TableService) *TableHandler {
	return &TableHandler{service: service}
}

// listViewRequest documents the listview body. Filter keys take the
// field__op form, e.g. {"price__gte": 10}.
type listViewRequest struct {
	Filters map[string]any `json:"filters"`
	Page    int            `json:"page"`
}

type detailRequest struct {
	ID string `json:"id"`
}

// ListView handles POST /api/tables/:table/listview.
//
// @Summary      Filtered, paginated listing of any table
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table  path      string           true   "Entity name (product, case, ...)"
// @Param        page   query     int              false  "Page number; the body page wins when both are set"
// @Param        body   body      listViewRequest  false  "Filters and page"
// @Success      200    {object}  Envelope{data=PageData}
// @Failure      400    {object}  Envelope
// @Failure      403    {object}  Envelope
// @Failure      404    {object}  Envelope
// @Failure      500    {object}  Envelope
// @Router       /api/tables/{table}/listview [post]
func (h *TableHandler) ListView(c echo.Context) error {
	_, body, err := readPayload(c)
	if err != nil {
		return err
	}
	in := ports.ListInput{Page: queryPage(c, 1)}

	if raw, ok := body["filters"]; ok && raw != nil {
		filters, ok := raw.(map[string]any)
		if !ok {
			return &domain.FilterError{Key: "filters", Reason: "must be an object"}
		}
		in.Filters = filters
	}
	if raw, ok := body["page"]; ok && raw != nil {
		n, ok := raw.(json.Number)
		if !ok {
			return domain.NewValidationError("page", "must be an integer")
		}
		page, err := n.Int64()
		if err != nil {
			return domain.NewValidationError("page", "must be an integer")
		}
		in.Page = int(page)
	}

	table := c.Param("table")
	p, err := h.service.List(c.Request().Context(), actorFrom(c), table, in)
	if err != nil {
		return err
	}
	return respondPage(c, capitalize(table)+" list retrieved successfully", p)
}

// Detail handles POST /api/tables/:table/detail with the id in the body.
//
// @Summary      Single row of any table
// @Tags         tables
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table  path      string         true  "Entity name"
// @Param        body   body      detailRequest  true  "Row id"
// @Success      200    {object}  Envelope
// @Failure      400    {object}  Envelope
// @Failure      403    {object}  Envelope
// @Failure      404    {object}  Envelope
// @Router       /api/tables/{table}/detail [post]
func (h *TableHandler) Detail(c echo.Context) error {
	var req detailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.ID) == "" {
		return domain.NewValidationError("id", "is required")
	}
	return h.detail(c, req.ID)
}

// DetailByPath handles POST /api/tables/:table/:id/detail.
//
// @Summary      Single row of any table, id in the path
// @Tags         tables
// @Produce      json
// @Security     BearerAuth
// @Param        table  path      string  true  "Entity name"
// @Param        id     path      string  true  "Row id"
// @Success      200    {object}  Envelope
// @Failure      400    {object}  Envelope
// @Failure      403    {object}  Envelope
// @Failure      404    {object}  Envelope
// @Router       /api/tables/{table}/{id}/detail [post]
func (h *TableHandler) DetailByPath(c echo.Context) error {
	return h.detail(c, c.Param("id"))
}

func (h *TableHandler) detail(c echo.Context, id string) error {
	table := c.Param("table")
	doc, err := h.service.Detail(c.Request().Context(), actorFrom(c), table, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, capitalize(table)+" detail retrieved successfully", doc)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}
