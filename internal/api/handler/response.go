package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
)

// Envelope is the uniform response body of every endpoint.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Errors  any    `json:"errors,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PageData is the data of a paginated listing.
type PageData struct {
	Results  []domain.Document `json:"results"`
	Count    int64             `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

func respondPage(c echo.Context, message string, p *ports.Page) error {
	return respond(c, http.StatusOK, message, pageData(c, p))
}

func pageData(c echo.Context, p *ports.Page) PageData {
	data := PageData{Results: p.Items, Count: p.Count}
	if data.Results == nil {
		data.Results = []domain.Document{}
	}
	if p.HasNext {
		data.Next = pageLink(c, p.Page+1)
	}
	if p.HasPrev {
		data.Previous = pageLink(c, p.Page-1)
	}
	return data
}

// pageLink is the absolute URL of the current route with page set.
func pageLink(c echo.Context, page int) *string {
	req := c.Request()
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	link := u.String()
	return &link
}

// queryPage reads ?page=N, defaulting to fallback.
func queryPage(c echo.Context, fallback int) int {
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return fallback
}
