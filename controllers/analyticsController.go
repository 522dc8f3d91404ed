package controllers

import (
	"context"
	"net/http"
	"time"

	"civicbridge-be/services"
	"civicbridge-be/store"

	"github.com/gin-gonic/gin"
)

// GetAnalytics returns the summary statistics over the full issue
// collection, recomputed fresh on every call
func GetAnalytics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issues, err := issueStore().Find(ctx, store.Filter{}, store.Newest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	c.JSON(http.StatusOK, services.Summarize(issues))
}
