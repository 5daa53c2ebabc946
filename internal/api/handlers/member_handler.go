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
// Member Handler
// ============================================

type MemberHandler struct {
	memberService service.MemberService
}

// ListMembers lists the desk's members ordered for the viewer
func (h *MemberHandler) ListMembers(c *gin.Context) {
	viewerID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	deskID := c.Param("id")

	members, err := h.memberService.ListMembers(c.Request.Context(), deskID, viewerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response := make([]models.MemberResponse, len(members))
	for i, m := range members {
		response[i] = toMemberViewResponse(deskID, m)
	}

	c.JSON(http.StatusOK, response)
}

// AddMember adds a user directly. Owner only.
func (h *MemberHandler) AddMember(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	deskID := c.Param("id")

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.memberService.AddMember(c.Request.Context(), deskID, actorID, req.UserID)
	if err != nil {
		log.Printf("[MemberHandler][AddMember] deskID=%s userID=%s actorID=%s error=%v", deskID, req.UserID, actorID, err)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMemberResponse(member))
}

// RemoveMember removes a non-owner member. Owner only.
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	actorID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	deskID := c.Param("id")
	userID := c.Param("userId")

	if err := h.memberService.RemoveMember(c.Request.Context(), deskID, actorID, userID); err != nil {
		log.Printf("[MemberHandler][RemoveMember] deskID=%s userID=%s actorID=%s error=%v", deskID, userID, actorID, err)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// Leave removes the caller from a desk they do not own
func (h *MemberHandler) Leave(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.memberService.LeaveDesk(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left desk successfully"})
}
