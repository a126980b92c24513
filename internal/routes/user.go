package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/handlers"
	"github.com/imisi99/Spotify-api/internal/middleware"
	"github.com/imisi99/Spotify-api/internal/spotify"
)

func RegisterUserRoutes(r gin.IRouter, issuer *auth.Issuer, sp *spotify.Client) {
	user := r.Group("/user")
	{
		// OAuth flow, rate limited harder than the rest
		user.GET("/login", middleware.AuthRateLimit(), handlers.Login)
		user.GET("/callback", middleware.AuthRateLimit(), handlers.Callback)
		user.GET("/logout", handlers.Logout)

		protected := user.Group("")
		protected.Use(middleware.RequireSession(issuer, sp))
		{
			protected.GET("/profile", handlers.GetProfile)
			protected.DELETE("/account", handlers.DeleteAccount)

			protected.POST("/follow/:id", handlers.Follow)
			protected.DELETE("/follow/:id", handlers.Unfollow)
		}

		// Public social data
		user.GET("/:id/followers", handlers.GetFollowers)
		user.GET("/:id/following", handlers.GetFollowing)
	}
}
