package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gtxykn0504/penguin-query/internal/appcontext"
	"github.com/gtxykn0504/penguin-query/internal/http/middleware"
)

// 100 requests per client per minute on the anonymous query surface.
const (
	publicRateLimit  = 100
	publicRateWindow = time.Minute
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	v1 := h.engine.Group("/api/v1")
	h.setupAuthRoutes(v1)
	h.setupDatasetRoutes(v1)
	h.setupQueryLinkRoutes(v1)
	h.setupSearchRoutes(v1)

	h.setupPublicQueryRoutes()
}

func (h *APIService) setupAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")

	auth.GET("/login", Login(h.context))
	auth.GET("/callback", Callback(h.context))
	auth.POST("/logout", Logout(h.context))
	auth.GET("/me", middleware.JWTAuthMiddleware(), GetUserInfo(h.context))
	auth.POST("/invite", middleware.JWTAuthMiddleware(), InviteUser(h.context))
}

func (h *APIService) setupDatasetRoutes(group *gin.RouterGroup) {
	datasets := group.Group("/datasets")
	datasets.Use(middleware.JWTAuthMiddleware())

	datasets.POST("/upload", UploadDataset(h.context))
	datasets.GET("/", GetDatasets(h.context))
	datasets.GET("/:datasetID", GetDataset(h.context))
	datasets.PUT("/:datasetID", RenameDataset(h.context))
	datasets.DELETE("/:datasetID", DeleteDataset(h.context))
	datasets.GET("/:datasetID/data", GetDatasetData(h.context))
	datasets.PUT("/:datasetID/data", UpdateDatasetCell(h.context))
}

func (h *APIService) setupQueryLinkRoutes(group *gin.RouterGroup) {
	links := group.Group("/links")
	links.Use(middleware.JWTAuthMiddleware())

	links.POST("/", CreateQueryLink(h.context))
	links.GET("/", GetQueryLinks(h.context))
	links.GET("/:linkID", GetQueryLink(h.context))
	links.PUT("/:linkID", UpdateQueryLink(h.context))
	links.DELETE("/:linkID", DeleteQueryLink(h.context))
}

func (h *APIService) setupSearchRoutes(group *gin.RouterGroup) {
	group.GET("/search", middleware.JWTAuthMiddleware(), SearchResources(h.context))
}

// The public query surface is anonymous and read-only; the rate limiter is the
// only gate in front of it.
func (h *APIService) setupPublicQueryRoutes() {
	limiter := middleware.NewRateLimiter(publicRateLimit, publicRateWindow)

	public := h.engine.Group("/api/query")
	public.Use(limiter.Middleware())

	public.GET("/:slug/conditions", GetQueryConditions(h.context))
	public.POST("/:slug", ExecuteQuery(h.context))
}
