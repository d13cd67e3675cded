package routes

import (
	"desludge-be/controllers"
	"desludge-be/middlewares"
	"desludge-be/models"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin dashboard and management routes
func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin")
	admin.Use(middlewares.AuthMiddleware())
	{
		admin.GET("/dashboard", middlewares.AllowRoles(models.RoleWardAdmin, models.RoleSuperAdmin), controllers.GetDashboardSummary)
		admin.GET("/analytics", middlewares.AllowRoles(models.RoleWardAdmin, models.RoleSuperAdmin), controllers.GetAnalytics)
		admin.GET("/wards", middlewares.AllowRoles(models.RoleWardAdmin, models.RoleSuperAdmin), controllers.GetWards)
		admin.GET("/operators", middlewares.AllowRoles(models.RoleWardAdmin, models.RoleSuperAdmin), controllers.GetOperators)
		admin.POST("/operators", middlewares.AllowRoles(models.RoleSuperAdmin), controllers.CreateOperator)
	}
}
