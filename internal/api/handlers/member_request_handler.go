package handlers

import (
	"log"
	"net/http"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/api/middleware"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/models"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Member Request Handler
// ============================================

type MemberRequestHandler struct {
	requestService service.MemberRequestService
}

// Create proposes adding a friend to a desk. When the caller owns the desk the
// friend is added at once and the response carries the member instead.
func (h *MemberRequestHandler) Create(c *gin.Context) {
	requesterID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	deskID := c.Param("id")

	var req models.CreateMemberRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.requestService.RequestAdd(c.Request.Context(), deskID, requesterID, req.TargetFriendID)
	if err != nil {
		log.Printf("[MemberRequestHandler][Create] deskID=%s target=%s requester=%s error=%v", deskID, req.TargetFriendID, requesterID, err)
		handleServiceError(c, err)
		return
	}

	var response models.RequestAddResponse
	if result.Request != nil {
		r := toMemberRequestResponse(result.Request)
		response.Request = &r
	}
	if result.Member != nil {
		m := toMemberResponse(result.Member)
		response.Member = &m
	}

	c.JSON(http.StatusCreated, response)
}

// ListPending lists pending requests for a desk. Owner only.
func (h *MemberRequestHandler) ListPending(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	views, err := h.requestService.ListPendingRequests(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.MemberRequestResponse, len(views))
	for i, v := range views {
		response[i] = toPendingRequestResponse(v)
	}

	c.JSON(http.StatusOK, response)
}

// Respond approves or declines a pending request. Owner only.
func (h *MemberRequestHandler) Respond(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.RespondMemberRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolved, err := h.requestService.Respond(c.Request.Context(), c.Param("id"), actorID, req.Decision)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMemberRequestResponse(resolved))
}
