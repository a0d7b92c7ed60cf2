// Package dashboard provides the HTTP handlers of the campaign dashboard: project pages,
// statistics and contribution endpoints, user profiles and bundled assets.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/registry"
	"github.com/osm-campaigns/dashboard/internal/service/badges"
	"github.com/osm-campaigns/dashboard/internal/service/contributions"
	"github.com/osm-campaigns/dashboard/internal/service/leaderboard"
	"github.com/osm-campaigns/dashboard/internal/service/stats"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// StatsService interface for statistics aggregation.
type StatsService interface {
	Aggregate(ctx context.Context, project *models.Project, osmUser string) map[string]any
}

// ContributionService interface for contribution recording.
type ContributionService interface {
	Record(ctx context.Context, sub contributions.Submission) ([]models.BadgeChange, error)
}

// BadgeService interface for badge operations.
type BadgeService interface {
	UserBadges(ctx context.Context, userID int64) ([]badges.ProjectBadges, error)
}

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	ProjectLeaderboard(ctx context.Context, project string) ([]models.LeaderboardEntry, error)
	GetUserStats(ctx context.Context, username string) (*leaderboard.UserStats, error)
}

// HealthChecker interface for the database ping.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// libAllowList maps a front-end module to the files that may be served from it.
var libAllowList = map[string]map[string]bool{
	"chart.js": {
		"dist/chart.umd.js": true,
	},
	"maplibre-gl": {
		"dist/maplibre-gl.js":  true,
		"dist/maplibre-gl.css": true,
	},
	"osm-auth": {
		"dist/osm-auth.iife.min.js": true,
	},
}

// docAllowList maps a document name to its file.
var docAllowList = map[string]string{
	"LICENSE": "LICENSE",
	"README":  "README.md",
}

// Handler handles dashboard requests.
type Handler struct {
	registry            *registry.Registry
	statsService        StatsService
	contributionService ContributionService
	badgeService        BadgeService
	leaderboardService  LeaderboardService
	health              HealthChecker
	assets              config.AssetsConfig
	now                 func() time.Time
	log                 *logger.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(
	reg *registry.Registry,
	statsService *stats.Service,
	contributionService *contributions.Service,
	badgeService *badges.Service,
	leaderboardService *leaderboard.Service,
	health HealthChecker,
	assets config.AssetsConfig,
	log *logger.Logger,
) *Handler {
	return NewHandlerWithInterfaces(reg, statsService, contributionService, badgeService, leaderboardService, health, assets, time.Now, log)
}

// NewHandlerWithInterfaces creates a new dashboard handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	reg *registry.Registry,
	statsService StatsService,
	contributionService ContributionService,
	badgeService BadgeService,
	leaderboardService LeaderboardService,
	health HealthChecker,
	assets config.AssetsConfig,
	now func() time.Time,
	log *logger.Logger,
) *Handler {
	return &Handler{
		registry:            reg,
		statsService:        statsService,
		contributionService: contributionService,
		badgeService:        badgeService,
		leaderboardService:  leaderboardService,
		health:              health,
		assets:              assets,
		now:                 now,
		log:                 log,
	}
}

// Home redirects to the current project, else the next one, else the last finished one.
// GET /.
func (h *Handler) Home(c *gin.Context) {
	home := h.registry.Filter(h.now()).Home()
	if home == nil {
		h.redirectError(c, http.StatusNotFound)
		return
	}
	c.Redirect(http.StatusFound, "/projects/"+home.ID)
}

// ErrorPage renders an error page with the given status. Codes outside 4xx and 5xx render a 404.
// GET /error/:code.
func (h *Handler) ErrorPage(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 400 || code > 599 {
		code = http.StatusNotFound
	}
	message := http.StatusText(code)
	if message == "" {
		message = "Error"
	}

	c.HTML(code, "error.html", gin.H{
		"Title":   message,
		"Code":    code,
		"Message": message,
	})
}

// ProjectPage renders the project detail page.
// GET /projects/:id.
func (h *Handler) ProjectPage(c *gin.Context) {
	h.renderProject(c, "project.html")
}

// MapPage renders the map editor of a project.
// GET /projects/:id/map.
func (h *Handler) MapPage(c *gin.Context) {
	h.renderProject(c, "map.html")
}

func (h *Handler) renderProject(c *gin.Context, page string) {
	project, ok := h.registry.Get(c.Param("id"))
	if !ok {
		h.redirectError(c, http.StatusNotFound)
		return
	}

	part := h.registry.Filter(h.now())
	c.HTML(http.StatusOK, page, gin.H{
		"Title":     project.Title,
		"Project":   project,
		"IsCurrent": part.Current != nil && part.Current.ID == project.ID,
		"IsNext":    part.Next != nil && part.Next.ID == project.ID,
	})
}

// GetProjectStats returns the aggregated statistics of a project.
// GET /projects/:id/stats?osm_user=.
func (h *Handler) GetProjectStats(c *gin.Context) {
	project, ok := h.registry.Get(c.Param("id"))
	if !ok {
		h.errorResponse(c, http.StatusNotFound, "unknown project")
		return
	}

	result := h.statsService.Aggregate(c.Request.Context(), project, c.Query("osm_user"))
	c.JSON(http.StatusOK, result)
}

// GetProjectLeaderboard returns the leaderboard of a project.
// GET /projects/:id/leaderboard.
func (h *Handler) GetProjectLeaderboard(c *gin.Context) {
	project, ok := h.registry.Get(c.Param("id"))
	if !ok {
		h.errorResponse(c, http.StatusNotFound, "unknown project")
		return
	}

	entries, err := h.leaderboardService.ProjectLeaderboard(c.Request.Context(), project.ID)
	if err != nil {
		h.logger(c).Error().Err(err).Str("project", project.ID).Msg("Failed to get project leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":       project.ID,
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  h.now().UTC(),
	})
}

// Contribute records a contribution and returns the badges it changed.
// POST /projects/:id/contribute/:userid?username=&type=.
func (h *Handler) Contribute(c *gin.Context) {
	sub := contributions.Submission{
		ProjectID: c.Param("id"),
		UserID:    c.Param("userid"),
		Username:  c.Query("username"),
		Type:      c.Query("type"),
	}

	changes, err := h.contributionService.Record(c.Request.Context(), sub)
	if err != nil {
		if contributions.IsRejection(err) {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger(c).Error().Err(err).Str("project", sub.ProjectID).Msg("Failed to record contribution")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record contribution")
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": changes})
}

// UserPage renders the profile of a user: leaderboard positions and badges.
// GET /users/:name.
func (h *Handler) UserPage(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	userStats, err := h.leaderboardService.GetUserStats(ctx, name)
	if errors.Is(err, leaderboard.ErrUserNotFound) {
		h.redirectError(c, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger(c).Error().Err(err).Str("username", name).Msg("Failed to get user stats")
		h.redirectError(c, http.StatusInternalServerError)
		return
	}

	groups, err := h.badgeService.UserBadges(ctx, userStats.UserID)
	if err != nil {
		h.logger(c).Error().Err(err).Int64("user_id", userStats.UserID).Msg("Failed to get user badges")
		h.redirectError(c, http.StatusInternalServerError)
		return
	}

	c.HTML(http.StatusOK, "user.html", gin.H{
		"Title":  userStats.Username,
		"Stats":  userStats,
		"Badges": groups,
	})
}

// Lib serves a bundled front-end asset from the allow-list.
// GET /lib/:module/*file.
func (h *Handler) Lib(c *gin.Context) {
	module := c.Param("module")
	file := strings.TrimPrefix(c.Param("file"), "/")
	if module == "" || file == "" {
		h.errorResponse(c, http.StatusBadRequest, "module and file are required")
		return
	}

	if !libAllowList[module][file] {
		h.errorResponse(c, http.StatusNotFound, "not found")
		return
	}

	c.File(filepath.Join(h.assets.ModulesDir, module, filepath.FromSlash(path.Clean(file))))
}

// Doc serves a repository document from the allow-list.
// GET /docs/:name.
func (h *Handler) Doc(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		h.errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}

	file, ok := docAllowList[name]
	if !ok {
		h.errorResponse(c, http.StatusNotFound, "not found")
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.File(filepath.Join(h.assets.DocsDir, file))
}

// Healthz reports whether the database answers.
// GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.Health(ctx); err != nil {
		h.logger(c).Warn().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  err.Error(),
			"timestamp": h.now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"projects":  h.registry.Len(),
		"timestamp": h.now().UTC(),
	})
}

// NotFound redirects unmatched routes to the 404 page.
func (h *Handler) NotFound(c *gin.Context) {
	h.redirectError(c, http.StatusNotFound)
}

// Helper functions

func (h *Handler) logger(c *gin.Context) *logger.Logger {
	return logger.FromContext(c.Request.Context(), h.log)
}

// redirectError sends page routes to the error page.
func (h *Handler) redirectError(c *gin.Context, code int) {
	c.Redirect(http.StatusFound, "/error/"+strconv.Itoa(code))
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": h.now().UTC(),
	})
}
