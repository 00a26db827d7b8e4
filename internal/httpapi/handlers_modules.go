package httpapi

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnah/go-textbook/internal/store"
)

type restoreRequest struct {
	VersionID string `json:"versionId"`
}

func (s *Server) listModules(c *gin.Context) {
	mods, err := s.store.ListModules(c.Request.Context(), c.Param("id"), c.GetString(userIDKey),
		c.Query("search"), c.DefaultQuery("type", store.TypeAll))
	if err != nil {
		s.fail(c, "list modules", err)
		return
	}
	respondOK(c, mods)
}

func (s *Server) createModule(c *gin.Context) {
	var req store.ModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := s.store.CreateModule(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), req)
	if err != nil {
		s.fail(c, "create module", err)
		return
	}
	respondCreated(c, m)
}

func (s *Server) getModule(c *gin.Context) {
	m, err := s.store.GetModule(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "get module", err)
		return
	}
	respondOK(c, m)
}

func (s *Server) updateModule(c *gin.Context) {
	var req store.ModuleInput
	if !bindJSON(c, &req) {
		return
	}
	m, err := s.store.UpdateModule(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), req)
	if err != nil {
		s.fail(c, "update module", err)
		return
	}
	respondOK(c, m)
}

func (s *Server) deleteModule(c *gin.Context) {
	if err := s.store.DeleteModule(c.Request.Context(), c.Param("id"), c.GetString(userIDKey)); err != nil {
		s.fail(c, "delete module", err)
		return
	}
	respondOK(c, gin.H{"ok": true})
}

func (s *Server) downloadMarkdown(c *gin.Context) {
	m, err := s.store.GetModule(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "download markdown", err)
		return
	}
	c.Header("Content-Disposition", attachment(m.Title+".md"))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(m.ContentMarkdown))
}

func (s *Server) listVersions(c *gin.Context) {
	versions, err := s.store.ListVersions(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "list versions", err)
		return
	}
	respondOK(c, versions)
}

func (s *Server) restoreVersion(c *gin.Context) {
	var req restoreRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.VersionID == "" {
		respondError(c, http.StatusBadRequest, "invalid_input", "versionId is required")
		return
	}
	m, err := s.store.RestoreVersion(c.Request.Context(), c.Param("id"), req.VersionID, c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "restore version", err)
		return
	}
	respondOK(c, m)
}

// attachment builds a Content-Disposition value with a safely quoted name.
func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
