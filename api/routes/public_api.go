package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tenet/api/handlers"
	"tenet/api/middleware"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.POST("auth/register", handlers.Register)
		publicEndpoints.POST("auth/login", handlers.Login)
		publicEndpoints.POST("auth/logout", middleware.AuthMiddleware(), handlers.Logout)

		publicEndpoints.GET("feed", middleware.OptionalAuthMiddleware(), handlers.GetFeed)
		publicEndpoints.GET("posts/:post_id", middleware.OptionalAuthMiddleware(), handlers.GetPost)
		publicEndpoints.GET("posts/:post_id/replies", middleware.OptionalAuthMiddleware(), handlers.GetReplies)

		authed := publicEndpoints.Group("", middleware.AuthMiddleware())
		{
			authed.POST("posts/create", handlers.CreatePost)
			authed.DELETE("posts/:post_id", handlers.DeletePost)
			authed.POST("posts/:post_id/score", handlers.SetScore)
			authed.POST("posts/:post_id/echo", handlers.ToggleEcho)
			authed.POST("posts/:post_id/replies", handlers.SubmitReply)
			authed.GET("ws/feed", handlers.WSFeedHandler)
		}
	}
	return publicEndpoints
}
