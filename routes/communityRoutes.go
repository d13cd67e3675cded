package routes

import (
	"desludge-be/controllers"
	"desludge-be/middlewares"

	"github.com/gin-gonic/gin"
)

// CommunityRoutes sets up the community project routes. Listing and detail
// are public; all mutations require authentication.
func CommunityRoutes(r *gin.Engine) {
	community := r.Group("/api/community")
	{
		community.POST("/", middlewares.AuthMiddleware(), controllers.CreateProject)
		community.GET("/", controllers.GetProjects)
		community.GET("/:id", controllers.GetProjectByID)
		community.POST("/:id/join", middlewares.AuthMiddleware(), controllers.JoinProject)
		community.POST("/:id/leave", middlewares.AuthMiddleware(), controllers.LeaveProject)
		community.PUT("/:id/status", middlewares.AuthMiddleware(), controllers.UpdateProjectStatus)
		community.POST("/:id/notes", middlewares.AuthMiddleware(), controllers.AddProjectNote)
	}
}
