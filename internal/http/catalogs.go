package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
	"github.com/example/checkflow/internal/service"
)

func (s *Server) listOffices(c *gin.Context) {
	offices, err := s.offices.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, offices)
}

func (s *Server) getOffice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	office, err := s.offices.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, office)
}

func (s *Server) listUsers(c *gin.Context) {
	if actorFrom(c) == nil {
		apperror.Respond(c, apperror.Unauthenticated("authentication required", nil))
		return
	}
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) listTemplates(c *gin.Context) {
	templates, err := s.templates.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (s *Server) getTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tmpl, err := s.templates.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (s *Server) createTemplate(c *gin.Context) {
	var payload struct {
		Name        string                    `json:"name" binding:"required"`
		Type        string                    `json:"type" binding:"required"`
		Description string                    `json:"description"`
		Sections    []models.ChecklistSection `json:"sections" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tmpl, err := s.templates.Create(c.Request.Context(), actorFrom(c), service.CreateTemplateInput{
		Name:        payload.Name,
		Type:        models.ChecklistType(payload.Type),
		Description: payload.Description,
		Sections:    payload.Sections,
	})
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (s *Server) updateTemplateSections(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Sections []models.ChecklistSection `json:"sections" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tmpl, err := s.templates.UpdateSections(c.Request.Context(), actorFrom(c), id, payload.Sections)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (s *Server) publishTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tmpl, err := s.templates.Publish(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (s *Server) archiveTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tmpl, err := s.templates.Archive(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}
