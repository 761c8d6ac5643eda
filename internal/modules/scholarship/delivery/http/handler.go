package handler

import (
	"net/http"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/dto"
	scholarship "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/service"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/response"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ScholarshipHandler struct {
	service scholarship.ScholarshipService
}

func NewScholarshipHandler(service scholarship.ScholarshipService) *ScholarshipHandler {
	return &ScholarshipHandler{service: service}
}

func (h *ScholarshipHandler) CreateScholarship(c *gin.Context) {
	var req dto.CreateScholarshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	created, err := h.service.CreateScholarship(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ScholarshipHandler) GetScholarship(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	sc, err := h.service.GetScholarship(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, sc)
}

func (h *ScholarshipHandler) GetAllScholarships(c *gin.Context) {
	var filter dto.ScholarshipFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.GetAllScholarships(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ScholarshipHandler) DeleteScholarship(c *gin.Context) {
	id, err := response.ParamUUID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteScholarship(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "scholarship deleted successfully"})
}
