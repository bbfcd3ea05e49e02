package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
)

type Deps struct {
	JWT config.JWTSettings

	Session    *handlers.SessionHandler
	Transcript *handlers.TranscriptHandler
	Response   *handlers.ResponseHandler
	Result     *handlers.ResultHandler
	Admin      *handlers.AdminHandler
	WS         *handlers.WSHandler // nil disables the status stream
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWT))

	auth.POST("/sessions", d.Session.Start)
	auth.GET("/sessions/:session_id", d.Session.Get)
	auth.GET("/sessions/:session_id/transcripts", d.Session.ListTranscripts)
	auth.POST("/sessions/:session_id/transcripts", d.Transcript.StoreText)
	auth.POST("/sessions/:session_id/transcripts/audio", d.Transcript.UploadAudio)
	auth.POST("/sessions/:session_id/responses", d.Response.Submit)
	auth.POST("/sessions/:session_id/finalize", d.Result.Finalize)
	auth.GET("/sessions/:session_id/result", d.Result.Get)

	auth.GET("/results/me", d.Result.Mine)

	if d.WS != nil {
		auth.GET("/ws/sessions/:session_id", d.WS.SessionWS)
	}

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireStaff())
	admin.PATCH("/sessions/:session_id", d.Admin.UpdateSession)
	admin.PATCH("/results/:session_id/status", d.Admin.SetResultStatus)
	admin.DELETE("/sessions/:session_id", middleware.RequireAdmin(), d.Admin.DeleteSession)
	admin.DELETE("/results/:session_id", middleware.RequireAdmin(), d.Admin.DeleteResult)
}
