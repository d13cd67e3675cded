package routes

import (
	"desludge-be/controllers"
	"desludge-be/middlewares"
	"desludge-be/models"

	"github.com/gin-gonic/gin"
)

// RequestRoutes sets up the service request routes
func RequestRoutes(r *gin.Engine, requestLimit int) {
	request := r.Group("/api/requests")
	{
		request.POST("/", middlewares.AuthMiddleware(), middlewares.RequestRateLimiter(requestLimit), controllers.CreateRequest)
		request.GET("/", middlewares.AuthMiddleware(), controllers.GetRequests)
		request.GET("/:id", middlewares.AuthMiddleware(), controllers.GetRequestByID)

		// assign (admin roles)
		request.PUT("/:id/assign", middlewares.AuthMiddleware(),
			middlewares.AllowRoles(models.RoleWardAdmin, models.RoleSuperAdmin),
			controllers.AssignOperator)

		// status update (operator or admin)
		request.PUT("/:id/status", middlewares.AuthMiddleware(),
			middlewares.AllowRoles(models.RoleOperator, models.RoleWardAdmin, models.RoleSuperAdmin),
			controllers.UpdateStatus)

		// add note (operator/admin)
		request.POST("/:id/notes", middlewares.AuthMiddleware(),
			middlewares.AllowRoles(models.RoleOperator, models.RoleWardAdmin, models.RoleSuperAdmin),
			controllers.AddNote)

		// feedback (citizen)
		request.POST("/:id/feedback", middlewares.AuthMiddleware(),
			middlewares.AllowRoles(models.RoleCitizen),
			controllers.AddFeedback)
	}
}
