package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/api/middleware"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/models"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Friend Handler
// ============================================

type FriendHandler struct {
	friendService service.FriendService
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.UserResponse, len(friends))
	for i, u := range friends {
		response[i] = toUserResponse(u)
	}

	c.JSON(http.StatusOK, response)
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	views, err := h.friendService.ListFriendRequests(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.FriendRequestResponse, len(views))
	for i, v := range views {
		response[i] = toFriendRequestViewResponse(v)
	}

	c.JSON(http.StatusOK, response)
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.friendService.SendFriendRequest(c.Request.Context(), userID, req.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFriendRequestResponse(created, userID))
}

func (h *FriendHandler) RespondRequest(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.friendService.RespondFriendRequest(c.Request.Context(), c.Param("id"), userID, *req.Accept)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFriendRequestResponse(updated, userID))
}
