package routes

import (
	"civicbridge-be/config"
	"civicbridge-be/controllers"
	"civicbridge-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes. Listing and detail are public;
// everything that mutates requires a session.
func IssueRoutes(r *gin.Engine) {
	issues := r.Group("/api/issues")
	{
		issues.GET("", controllers.GetAllIssues)
		issues.POST("",
			middlewares.AuthMiddleware(),
			middlewares.IssueRateLimiter(config.Get().IssueCreateDailyLimit),
			controllers.CreateIssue,
		)
		issues.GET("/:id", controllers.GetIssue)
		issues.PATCH("/:id/status", middlewares.AuthMiddleware(), controllers.UpdateIssueStatus)
		issues.POST("/:id/upvote", middlewares.AuthMiddleware(), controllers.UpvoteIssue)
		issues.POST("/:id/satisfied", middlewares.AuthMiddleware(), controllers.ToggleSatisfaction)
	}
}
