package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/handlers"
	"github.com/imisi99/Spotify-api/internal/middleware"
	"github.com/imisi99/Spotify-api/internal/spotify"
)

func RegisterPlayRoutes(r gin.IRouter, issuer *auth.Issuer, sp *spotify.Client) {
	play := r.Group("/play")
	{
		protected := play.Group("")
		protected.Use(middleware.RequireSession(issuer, sp))
		{
			protected.POST("/create", handlers.CreatePlaylist)
			protected.POST("/create-private", handlers.CreatePrivatePlaylist)
			protected.GET("/search", handlers.SearchTracks)

			protected.PUT("/:id/visibility", handlers.SetVisibility)
			protected.POST("/:id/tracks", handlers.AddTracks)
			protected.DELETE("/:id/tracks", handlers.RemoveTracks)
			protected.DELETE("/:id", handlers.DeletePlaylist)

			protected.POST("/:id/like", handlers.Like)
			protected.POST("/:id/dislike", handlers.Dislike)
			protected.POST("/:id/rate", handlers.Rate)
			protected.POST("/:id/discussion", handlers.Comment)
		}

		// Listening and browsing work without a session
		public := play.Group("")
		public.Use(middleware.OptionalSession(issuer))
		{
			public.GET("/top", handlers.RankTop)
			public.GET("/:id", handlers.GetPlaylist)
			public.GET("/:id/listen", handlers.Listen)
			public.GET("/:id/discussion", handlers.GetDiscussion)
		}
	}
}
