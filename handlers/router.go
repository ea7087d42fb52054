package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"learnscope/api/middleware"
	"learnscope/api/store"
)

// NewRouter assembles the full HTTP surface over the given stores.
func NewRouter(events store.EventStore, users store.UserStore, content store.ContentStore, log *logrus.Logger) *gin.Engine {
	clickstream := NewClickstreamHandlers(events, log)
	auth := NewAuthHandlers(users, log)
	contentHandlers := NewContentHandlers(content, log)
	health := NewHealthHandlers(users, content, events, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/clickstream", clickstream.Ingest)
		api.GET("/analytics/clickstream", clickstream.Query)
		api.GET("/clickstream/user/:userId", clickstream.UserHistory)

		api.POST("/auth/register", auth.Register)
		api.POST("/auth/login", auth.Login)

		api.GET("/content", contentHandlers.List)
		api.POST("/content", contentHandlers.Create)

		api.GET("/health", health.Check)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(log))
		{
			protected.GET("/profile", auth.Profile)
		}
	}
	return r
}
