package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/rest/middleware"
)

// RegisterSocialRoutes mounts the like and link endpoints under /social
func RegisterSocialRoutes(r gin.IRouter, likes *LikeHandler, links *linksHandler, jwtSecret string) {
	social := r.Group("/social")
	social.Use(middleware.AuthMiddleware(jwtSecret))

	social.GET("/likes/*pkg", likes.GetStatus)
	social.GET("/links/*pkg", links.Summary)

	authorized := social.Group("/")
	authorized.Use(middleware.RequireScope(domain.LikesScope))
	{
		authorized.POST("/like", likes.Like)
		authorized.DELETE("/like", likes.Unlike)
	}
}
