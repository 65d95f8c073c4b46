package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/velvoice/companiond/pkg/config"
	"github.com/velvoice/companiond/pkg/logger"
	"github.com/velvoice/companiond/pkg/middleware"
	"github.com/velvoice/companiond/pkg/voice"
	"github.com/velvoice/companiond/pkg/voice/vapi"
)

// ClientFactory builds a provider client for one session. Injected so tests
// can substitute an in-memory fake.
type ClientFactory func() voice.Client

// Handlers owns the HTTP surface. One instance per process.
type Handlers struct {
	db        *gorm.DB
	sessions  *sessionManager
	newClient ClientFactory
}

func NewHandlers(db *gorm.DB) *Handlers {
	return &Handlers{
		db:       db,
		sessions: newSessionManager(),
		newClient: func() voice.Client {
			return vapi.New(vapi.Config{
				URL:    config.GlobalConfig.ProviderURL,
				APIKey: config.GlobalConfig.ProviderAPIKey,
				Log:    logger.Lg,
			})
		},
	}
}

// SetClientFactory overrides the provider client constructor (tests).
func (h *Handlers) SetClientFactory(factory ClientFactory) {
	h.newClient = factory
}

// Register mounts all API routes under the configured prefix.
func (h *Handlers) Register(engine *gin.Engine) {
	prefix := "/api"
	if config.GlobalConfig != nil && config.GlobalConfig.APIPrefix != "" {
		prefix = config.GlobalConfig.APIPrefix
	}
	r := engine.Group(prefix)

	r.Use(middleware.InjectDB(h.db))

	r.GET("/healthz", h.HealthCheck)

	authed := r.Group("")
	authed.Use(h.RequireUser())

	h.registerCompanionRoutes(authed)
	h.registerSessionRoutes(authed)
}

func (h *Handlers) registerCompanionRoutes(r *gin.RouterGroup) {
	r.POST("/companions", h.CreateCompanion)
	r.GET("/companions", h.ListCompanions)
	r.GET("/companions/mine", h.ListMyCompanions)
	r.GET("/companions/:id", h.GetCompanion)
	r.GET("/companions/quota", h.CreationQuota)
}

func (h *Handlers) registerSessionRoutes(r *gin.RouterGroup) {
	r.POST("/companions/:id/sessions", h.StartSession)
	r.GET("/sessions/history", h.SessionHistory)
	r.GET("/sessions/:id", h.GetSession)
	r.DELETE("/sessions/:id", h.StopSession)
	r.POST("/sessions/:id/mute", h.ToggleMute)
}
