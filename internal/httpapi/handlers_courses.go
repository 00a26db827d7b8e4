package httpapi

import (
	"github.com/gin-gonic/gin"
)

type courseRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type joinRequest struct {
	Code string `json:"code"`
}

func (s *Server) listCourses(c *gin.Context) {
	courses, err := s.store.ListCourses(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "list courses", err)
		return
	}
	respondOK(c, courses)
}

func (s *Server) createCourse(c *gin.Context) {
	var req courseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := s.store.CreateCourse(c.Request.Context(), c.GetString(userIDKey), req.Name, req.Code, req.Description)
	if err != nil {
		s.fail(c, "create course", err)
		return
	}
	respondCreated(c, course)
}

func (s *Server) joinCourse(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := s.store.JoinCourse(c.Request.Context(), c.GetString(userIDKey), req.Code)
	if err != nil {
		s.fail(c, "join course", err)
		return
	}
	respondOK(c, course)
}

func (s *Server) getCourse(c *gin.Context) {
	course, err := s.store.GetCourse(c.Request.Context(), c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		s.fail(c, "get course", err)
		return
	}
	respondOK(c, course)
}
