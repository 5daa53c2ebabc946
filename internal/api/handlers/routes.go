package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public and authenticated API on api. protect runs
// before every authenticated route.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, protect ...gin.HandlerFunc) {
	// ============================================
	// Public routes (no auth required)
	// ============================================
	api.GET("/health", h.System.Health)
	api.GET("/capabilities", h.System.Capabilities)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	// ============================================
	// Protected routes (require auth middleware)
	// ============================================
	protected := api.Group("")
	protected.Use(protect...)
	{
		users := protected.Group("/users")
		{
			users.GET("/me", h.User.GetCurrentUser)
			users.PUT("/me", h.User.UpdateCurrentUser)
			users.GET("/search", h.User.SearchUsers)
		}

		desks := protected.Group("/desks")
		{
			desks.GET("", h.Desk.List)
			desks.POST("", h.Desk.Create)
			desks.GET("/:id", h.Desk.Get)
			desks.PUT("/:id", h.Desk.Update)
			desks.DELETE("/:id", h.Desk.Delete)

			desks.GET("/:id/members", h.Member.ListMembers)
			desks.POST("/:id/members", h.Member.AddMember)
			desks.DELETE("/:id/members/:userId", h.Member.RemoveMember)
			desks.POST("/:id/leave", h.Member.Leave)

			desks.GET("/:id/member-requests", h.MemberRequest.ListPending)
			desks.POST("/:id/member-requests", h.MemberRequest.Create)
		}

		protected.POST("/member-requests/:id/respond", h.MemberRequest.Respond)

		protected.GET("/friends", h.Friend.ListFriends)
		friendRequests := protected.Group("/friend-requests")
		{
			friendRequests.GET("", h.Friend.ListRequests)
			friendRequests.POST("", h.Friend.SendRequest)
			friendRequests.POST("/:id/respond", h.Friend.RespondRequest)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/count", h.Notification.Count)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.DELETE("/:id", h.Notification.Delete)
		}
	}
}
