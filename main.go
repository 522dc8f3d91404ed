package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"civicbridge-be/config"
	"civicbridge-be/routes"
	"civicbridge-be/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	issueStore := store.NewMongoIssueStore(config.GetCollection("issues"))
	if err := issueStore.EnsureIndexes(ctx); err != nil {
		log.Printf("Failed to ensure issue indexes: %v", err)
	}
	cancel()

	r := gin.Default()

	routes.AuthRoutes(r)
	routes.IssueRoutes(r)
	routes.AnalyticsRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":" + config.Get().Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
