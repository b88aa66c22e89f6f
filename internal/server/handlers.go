package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"dashmetrics/internal/api"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/project"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	codeOK         = 0
	codeBadRequest = 1001
	codeAuth       = 2001
	codeNotFound   = 4004
	codeConflict   = 4009
	codeUpstream   = 5002
)

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: codeOK, Message: "success", Data: data})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{Code: code, Message: message})
}

// fail maps domain errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		errorResponse(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, project.ErrInvalidURL),
		errors.Is(err, project.ErrNameRequired),
		errors.Is(err, project.ErrNoCategories),
		errors.Is(err, project.ErrUnknownCategory),
		errors.Is(err, dashboard.ErrUnknownCategory):
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
	case api.IsAuthExpired(err), errors.Is(err, dashboard.ErrClosed):
		errorResponse(c, http.StatusUnauthorized, codeAuth, api.UserMessage(&api.HTTPError{Status: 401, Kind: api.KindAuthExpired}))
	case errors.Is(err, dashboard.ErrStale):
		errorResponse(c, http.StatusConflict, codeConflict, err.Error())
	default:
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		errorResponse(c, http.StatusBadGateway, codeUpstream, api.UserMessage(err))
	}
}

func (s *Server) listProjects(c *gin.Context) {
	q := project.Query{
		Filter: project.Filter(c.DefaultQuery("filter", string(project.FilterAll))),
		Search: c.Query("search"),
		Sort:   project.SortBy(c.DefaultQuery("sort", string(project.SortByDate))),
	}
	list, err := s.projects.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []project.Project{}
	}
	success(c, list)
}

func (s *Server) createProject(c *gin.Context) {
	var req struct {
		Name           string   `json:"name"`
		SpreadsheetURL string   `json:"spreadsheet_url"`
		Categories     []string `json:"categories"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	p, err := s.projects.Create(c.Request.Context(), req.Name, req.SpreadsheetURL, req.Categories)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, p)
}

func (s *Server) archiveProject(c *gin.Context) {
	var req struct {
		Archived *bool `json:"archived"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Archived == nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "archived is required")
		return
	}
	p, err := s.projects.Archive(c.Param("id"), *req.Archived)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	p, err := s.projects.Delete(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, p)
}

func (s *Server) selectCategory(c *gin.Context) {
	p, err := s.projects.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	v, err := s.dash.Select(c.Request.Context(), p, c.Param("category"))
	if fatal(v, err) {
		fail(c, err)
		return
	}
	success(c, v)
}

func (s *Server) refreshProject(c *gin.Context) {
	p, err := s.projects.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	v, err := s.dash.Refresh(c.Request.Context(), p)
	if fatal(v, err) {
		fail(c, err)
		return
	}
	success(c, v)
}

func (s *Server) currentView(c *gin.Context) {
	success(c, s.dash.View())
}

func (s *Server) cacheStats(c *gin.Context) {
	success(c, s.dash.Cache().Stats())
}

func (s *Server) clearCache(c *gin.Context) {
	s.dash.Cache().Clear()
	success(c, gin.H{"cleared": true})
}

func (s *Server) insightHistory(c *gin.Context) {
	entries := s.dash.History().Entries()
	if category := c.Query("category"); category != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	success(c, entries)
}

func (s *Server) notices(c *gin.Context) {
	success(c, s.dash.Notices())
}

func (s *Server) index(c *gin.Context) {
	v := s.dash.View()
	if v.State == dashboard.StateIdle {
		s.renderPage(c, charts.PageData{
			Title:   "dashmetrics",
			Theme:   s.dash.Theme(),
			Notices: []string{"Nenhuma categoria selecionada. Abra /projects/<projeto>/<categoria>."},
		})
		return
	}
	s.renderPage(c, v.PageData(s.dash.Theme(), noticeMessages(s.dash.Notices())))
}

func (s *Server) page(c *gin.Context) {
	p, err := s.projects.Get(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, err.Error())
		return
	}
	v, err := s.dash.Select(c.Request.Context(), p, c.Param("category"))
	notices := noticeMessages(s.dash.Notices())
	if fatal(v, err) {
		c.String(http.StatusBadRequest, api.UserMessage(err))
		return
	}
	if v.Err != "" {
		notices = append(notices, v.Err)
	}
	s.renderPage(c, v.PageData(s.dash.Theme(), notices))
}

func (s *Server) renderPage(c *gin.Context, d charts.PageData) {
	var buf bytes.Buffer
	if err := charts.Page(&buf, d); err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard page")
		c.String(http.StatusInternalServerError, "failed to render dashboard")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// fatal reports whether a selection error has no view to show. A failed fetch
// still yields an error-state view unless the session ended.
func fatal(v dashboard.View, err error) bool {
	if err == nil {
		return false
	}
	return v.State != dashboard.StateError || api.IsAuthExpired(err)
}

func noticeMessages(list []dashboard.Notice) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if msg := strings.TrimSpace(n.Message); msg != "" {
			out = append(out, msg)
		}
	}
	return out
}
