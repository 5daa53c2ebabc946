package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/api/middleware"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/models"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Desk Handler
// ============================================

type DeskHandler struct {
	deskService service.DeskService
}

func (h *DeskHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	desks, err := h.deskService.List(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.DeskResponse, len(desks))
	for i, d := range desks {
		response[i] = toDeskResponse(d)
	}

	c.JSON(http.StatusOK, response)
}

func (h *DeskHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateDeskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	desk, err := h.deskService.Create(c.Request.Context(), userID, req.Name, req.IsCollaborative)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDeskResponse(desk))
}

func (h *DeskHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	desk, err := h.deskService.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDeskResponse(desk))
}

func (h *DeskHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateDeskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	desk, err := h.deskService.Rename(c.Request.Context(), c.Param("id"), userID, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDeskResponse(desk))
}

func (h *DeskHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.deskService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Desk deleted successfully"})
}
