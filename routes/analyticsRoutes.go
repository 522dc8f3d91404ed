package routes

import (
	"civicbridge-be/controllers"

	"github.com/gin-gonic/gin"
)

// AnalyticsRoutes sets up the analytics summary route
func AnalyticsRoutes(r *gin.Engine) {
	r.GET("/api/analytics", controllers.GetAnalytics)
}
