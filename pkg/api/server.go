// Package api exposes the file store over HTTP.
package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/your-org/fileserver/pkg/index"
	"github.com/your-org/fileserver/pkg/ingest"
)

// Server wires the ingest pipeline and the metadata index to the HTTP routes.
type Server struct {
	Echo      *echo.Echo
	ingestSvc *ingest.Service
	idx       *index.Index
}

// healthPaths are excluded from request logging.
var healthPaths = map[string]bool{
	"/status":              true,
	"/front/health-status": true,
}

// NewServer creates the echo server with middleware installed.
func NewServer(ingestSvc *ingest.Service, idx *index.Index) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return healthPaths[c.Request().URL.Path]
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Origin", "X-Requested-With", echo.HeaderContentType, "Accept"},
		AllowMethods: []string{http.MethodPost, http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))

	return &Server{
		Echo:      e,
		ingestSvc: ingestSvc,
		idx:       idx,
	}
}

// RegisterRoutes registers the API routes
func RegisterRoutes(e *echo.Echo, s *Server) {
	// Health check endpoints
	e.GET("/status", s.handleStatus)
	e.GET("/front/health-status", s.handleHealth)

	// File endpoints
	e.PUT("/upload", s.handleUpload)
	e.GET("/download/:sha1", s.handleDownload)
	e.GET("/info/:sha1", s.handleInfo)
	e.DELETE("/delete/:sha1", s.handleDelete)

	// Upload-month catalog endpoints
	e.GET("/catalog", s.handleCatalog)
	e.GET("/catalog/:date", s.handleCatalogMonth)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "success",
		"msg":  map[string]interface{}{},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"msg":  "success",
		"data": map[string]interface{}{},
	})
}

// handleUpload streams the request body through the ingest pipeline. The
// original filename arrives percent-encoded in the x-filename header.
func (s *Server) handleUpload(c echo.Context) error {
	filename, err := url.PathUnescape(c.Request().Header.Get("x-filename"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"code": 1,
			"msg":  "invalid x-filename header",
		})
	}

	rec, err := s.ingestSvc.Save(c.Request().Context(), requestOrigin(c), filename, c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"code": 1,
			"msg":  fmt.Sprintf("Upload failed: %v", err),
		})
	}

	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDownload(c echo.Context) error {
	rec, err := s.idx.Get(c.Request().Context(), c.Param("sha1"))
	if err != nil {
		return s.recordError(c, err)
	}

	f, err := os.Open(rec.Path)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"code": 1,
			"msg":  fmt.Sprintf("Failed to open file: %v", err),
		})
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(rec.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", escapeFilename(rec.Name)))

	return c.Stream(http.StatusOK, contentType, f)
}

func (s *Server) handleInfo(c echo.Context) error {
	rec, err := s.idx.Get(c.Request().Context(), c.Param("sha1"))
	if err != nil {
		return s.recordError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"msg":  "success",
		"data": rec,
	})
}

// handleDelete removes the metadata record. Deleting an unknown fingerprint
// succeeds; the blob stays on disk either way.
func (s *Server) handleDelete(c echo.Context) error {
	if err := s.idx.Delete(c.Request().Context(), c.Param("sha1")); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"code": 1,
			"msg":  fmt.Sprintf("Delete failed: %v", err),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"msg":  "success",
	})
}

func (s *Server) handleCatalog(c echo.Context) error {
	entries, err := s.idx.Catalog(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"code": 1,
			"msg":  fmt.Sprintf("Catalog failed: %v", err),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"msg":  "success",
		"data": entries,
	})
}

func (s *Server) handleCatalogMonth(c echo.Context) error {
	records, err := s.idx.ListMonth(c.Request().Context(), c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"code": 1,
			"msg":  fmt.Sprintf("Listing failed: %v", err),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"msg":  "success",
		"data": records,
	})
}

func (s *Server) recordError(c echo.Context, err error) error {
	if errors.Is(err, index.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"code": 1,
			"msg":  "File not found",
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"code": 1,
		"msg":  fmt.Sprintf("Lookup failed: %v", err),
	})
}

func requestOrigin(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

// escapeFilename percent-encodes a filename for the Content-Disposition
// header, leaving bare exactly the characters encodeURIComponent leaves bare,
// so sub-delims like & and + are escaped too.
func escapeFilename(name string) string {
	const upperhex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '~' ||
			c == '!' || c == '*' || c == '\'' || c == '(' || c == ')':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}
