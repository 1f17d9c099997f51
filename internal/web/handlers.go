package web

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/ansel1/merry"
	"github.com/fpawel/castings/internal/casting"
	"github.com/labstack/echo/v4"
)

const msgEmptyCasting = "Please enter a casting number"

type pageData struct {
	Title string
	Nav   string
	Error string
}

type lookupData struct {
	pageData
	Casting string
	Data    *casting.Casting
}

type browseData struct {
	pageData
	Page *casting.Page
}

type searchData struct {
	pageData
	Query  string
	Result *casting.SearchResult
}

// GET|POST /
func (s *Server) lookup(c echo.Context) error {
	d := lookupData{pageData: pageData{Title: "Lookup", Nav: "lookup"}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "index.html", d)
	}
	d.Casting = casting.NormalizeID(c.FormValue("casting"))
	if d.Casting == "" {
		d.Error = msgEmptyCasting
		return c.Render(http.StatusOK, "index.html", d)
	}
	x, err := s.api.Lookup(c.Request().Context(), d.Casting)
	if err != nil {
		d.Error = s.errorMessage(err, "casting", d.Casting)
		return c.Render(http.StatusOK, "index.html", d)
	}
	d.Data = &x
	return c.Render(http.StatusOK, "index.html", d)
}

// GET /browse?page=N
func (s *Server) browse(c echo.Context) error {
	d := browseData{pageData: pageData{Title: "Browse", Nav: "browse"}}
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = casting.DefaultPage
	}
	p, err := s.api.List(c.Request().Context(), page, s.pageSize)
	if err != nil {
		d.Error = s.errorMessage(err, "page", page)
		return c.Render(http.StatusOK, "browse.html", d)
	}
	d.Page = &p
	return c.Render(http.StatusOK, "browse.html", d)
}

// GET|POST /search
func (s *Server) search(c echo.Context) error {
	d := searchData{pageData: pageData{Title: "Search", Nav: "search"}}
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "search.html", d)
	}
	d.Query = c.FormValue("query")
	if strings.TrimSpace(d.Query) == "" {
		d.Query = ""
		return c.Render(http.StatusOK, "search.html", d)
	}
	r, err := s.api.Search(c.Request().Context(), d.Query)
	if err != nil {
		d.Error = s.errorMessage(err, "query", d.Query)
		return c.Render(http.StatusOK, "search.html", d)
	}
	d.Result = &r
	return c.Render(http.StatusOK, "search.html", d)
}

// GET /export/:casting
func (s *Server) export(c echo.Context) error {
	id := c.Param("casting")
	b, err := s.api.LookupRaw(c.Request().Context(), id)
	switch {
	case err == nil:
		c.Response().Header().Set(echo.HeaderContentDisposition,
			mime.FormatMediaType("attachment", map[string]string{"filename": casting.ExportFileName(id)}))
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, b)
	case merry.Is(err, casting.ErrNotFound):
		return c.String(http.StatusNotFound, "Error: Casting not found")
	default:
		s.log.PrintErr(err, "casting", id)
		return c.String(http.StatusInternalServerError, "Error: Unable to fetch data")
	}
}

// errorMessage turns a client error into text fit for the page.
func (s *Server) errorMessage(err error, keyvals ...interface{}) string {
	if merry.Is(err, casting.ErrNotFound) {
		return casting.ErrNotFound.Error()
	}
	s.log.Warn(err, keyvals...)
	return err.Error()
}
