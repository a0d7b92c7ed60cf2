package dashboard

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// NewRouter builds the gin engine serving every dashboard route.
func NewRouter(h *Handler, pages *template.Template, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(log), RequestLogger(log), Metrics())
	router.SetHTMLTemplate(pages)

	router.GET("/", h.Home)
	router.GET("/healthz", h.Healthz)
	router.GET("/error/:code", h.ErrorPage)

	projects := router.Group("/projects/:id")
	projects.GET("", h.ProjectPage)
	projects.GET("/map", h.MapPage)
	projects.GET("/stats", h.GetProjectStats)
	projects.GET("/leaderboard", h.GetProjectLeaderboard)
	projects.POST("/contribute/:userid", h.Contribute)

	router.GET("/users/:name", h.UserPage)
	router.GET("/lib/:module/*file", h.Lib)
	router.GET("/docs/:name", h.Doc)
	if h.assets.StaticDir != "" {
		router.Static("/static", h.assets.StaticDir)
	}

	router.NoRoute(h.NotFound)

	return router
}
