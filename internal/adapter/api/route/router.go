package route

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/hugohenrick/kommand/internal/adapter/api/controller"
	"github.com/hugohenrick/kommand/pkg/auth"
	"github.com/hugohenrick/kommand/pkg/middleware"
)

// Controllers reúne os controladores da API
type Controllers struct {
	Auth      *controller.AuthController
	Command   *controller.CommandController
	Broadcast *controller.BroadcastController
	Health    *controller.HealthController
}

// Options configura o roteador
type Options struct {
	BasePath       string
	AllowedOrigins []string
	JWT            *auth.JWTService
	LoginLimiter   *middleware.KeyedLimiter
	Swagger        bool
}

// NewRouter monta o roteador com CORS, documentação e as rotas da API
func NewRouter(c Controllers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(opts.AllowedOrigins) == 0 || (len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/health", c.Health.Health)
	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(opts.BasePath)
	SetupAuthRoutes(api, c.Auth, opts.JWT, opts.LoginLimiter)
	SetupCommandRoutes(api, c.Command, opts.JWT)
	SetupBroadcastRoutes(api, c.Broadcast, opts.JWT)
	return router
}
