package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"desludge-be/config"
	"desludge-be/models"
	"desludge-be/routes"

	"github.com/gin-contrib/cors"
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

	if err := models.EnsureRequestIndexes(config.GetCollection("requests")); err != nil {
		log.Printf("Failed to ensure request indexes: %v", err)
	}
	if err := models.EnsureProjectIndexes(config.GetCollection("communityprojects")); err != nil {
		log.Printf("Failed to ensure project indexes: %v", err)
	}

	config.ConnectRedis()
	config.ConnectCloudinary()

	requestLimit := 10
	if v := os.Getenv("DAILY_REQUEST_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			requestLimit = n
		}
	}

	r := gin.Default()
	r.Use(cors.Default())

	routes.AuthRoutes(r)
	routes.RequestRoutes(r, requestLimit)
	routes.CommunityRoutes(r)
	routes.AdminRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
