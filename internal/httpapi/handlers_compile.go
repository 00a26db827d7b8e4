package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/store"
)

type compileRequest struct {
	CompilationID string `json:"compilationId"`
	HTMLOnly      bool   `json:"htmlOnly"`
}

type compileResponse struct {
	HTML      string   `json:"html"`
	PDFBase64 string   `json:"pdfBase64,omitempty"`
	Modules   []string `json:"modules"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (s *Server) listCompilations(c *gin.Context) {
	courseID := c.Query("courseId")
	if courseID == "" {
		respondError(c, http.StatusBadRequest, "invalid_input", "courseId is required")
		return
	}
	list, err := s.store.ListCompilations(c.Request.Context(), courseID, c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "list compilations", err)
		return
	}
	respondOK(c, list)
}

func (s *Server) saveCompilation(c *gin.Context) {
	var req store.CompilationInput
	if !bindJSON(c, &req) {
		return
	}
	comp, err := s.store.SaveCompilation(c.Request.Context(), c.GetString(userIDKey), req)
	if err != nil {
		s.fail(c, "save compilation", err)
		return
	}
	if req.ID == "" {
		respondCreated(c, comp)
		return
	}
	respondOK(c, comp)
}

func (s *Server) getCompilation(c *gin.Context) {
	comp, err := s.store.GetCompilation(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "get compilation", err)
		return
	}
	respondOK(c, comp)
}

func (s *Server) compile(c *gin.Context) {
	var req compileRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.CompilationID == "" {
		respondError(c, http.StatusBadRequest, "invalid_input", "compilationId is required")
		return
	}
	_, res, err := s.runCompilation(c.Request.Context(), req.CompilationID, c.GetString(userIDKey), req.HTMLOnly)
	if err != nil {
		s.fail(c, "compile", err)
		return
	}
	resp := compileResponse{HTML: res.HTML, Modules: res.Modules, Warnings: res.Warnings}
	if res.PDF != nil {
		resp.PDFBase64 = base64.StdEncoding.EncodeToString(res.PDF)
	}
	respondOK(c, resp)
}

func (s *Server) downloadPDF(c *gin.Context) {
	comp, res, err := s.runCompilation(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), false)
	if err != nil {
		s.fail(c, "download pdf", err)
		return
	}
	c.Header("Content-Disposition", attachment(comp.Name+".pdf"))
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

// runCompilation loads a saved compilation with its course content and
// compiles it. Results are never cached.
func (s *Server) runCompilation(ctx context.Context, compilationID, userID string, htmlOnly bool) (*store.Compilation, *textbook.Result, error) {
	comp, err := s.store.GetCompilation(ctx, compilationID, userID)
	if err != nil {
		return nil, nil, err
	}
	courseName, err := s.store.GetCourseName(ctx, comp.CourseID)
	if err != nil {
		return nil, nil, err
	}
	mods, err := s.store.CourseModules(ctx, comp.CourseID)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.compiler.Compile(ctx, textbook.Input{
		CourseName:      courseName,
		CompilationName: comp.Name,
		Order:           comp.ModuleOrder,
		Modules:         mods,
		HTMLOnly:        htmlOnly,
	})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range res.Warnings {
		s.log.Warn("compile warning", "compilationID", comp.ID, "warning", w)
	}
	s.log.Info("compiled", "compilationID", comp.ID, "modules", len(res.Modules), "pdf", res.PDF != nil)
	return comp, res, nil
}
