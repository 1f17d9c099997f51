package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/powerman/must"
	"github.com/powerman/structlog"
)

//go:embed views/*.html
var viewsFS embed.FS

// TemplateRenderer renders the html pages of the casting browser.
type TemplateRenderer struct {
	templates *template.Template
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func newTemplateRenderer() *TemplateRenderer {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).ParseFS(viewsFS, "views/*.html")
	must.PanicIf(err)
	return &TemplateRenderer{templates: tmpl}
}

// Server is the browser-facing front end of the castings API.
type Server struct {
	Echo     *echo.Echo
	api      *Client
	pageSize int
	log      *structlog.Logger
}

func NewServer(api *Client, pageSize int) *Server {
	s := &Server{
		Echo:     echo.New(),
		api:      api,
		pageSize: pageSize,
		log:      structlog.New(structlog.KeyUnit, "web"),
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Renderer = newTemplateRenderer()
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.accessLog)

	s.Echo.GET("/", s.lookup)
	s.Echo.POST("/", s.lookup)
	s.Echo.GET("/browse", s.browse)
	s.Echo.GET("/search", s.search)
	s.Echo.POST("/search", s.search)
	s.Echo.GET("/export/:casting", s.export)
	return s
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		req, resp := c.Request(), c.Response()
		keyvals := []interface{}{
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.Status,
			"dur", time.Since(start),
		}
		if resp.Status >= 500 {
			s.log.PrintErr("request failed", keyvals...)
			return nil
		}
		s.log.Debug("request", keyvals...)
		return nil
	}
}
