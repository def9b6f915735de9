package bootstrap

import (
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
	"github.com/adminboard/go-admin-backend/internal/api/http/middleware"
	"github.com/adminboard/go-admin-backend/internal/auth"
	"github.com/adminboard/go-admin-backend/internal/projects"
	"github.com/adminboard/go-admin-backend/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	WebOrigin   string
	JWTSecret   string
	DB          *pgxpool.Pool
	StaticDir   string
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{dep.WebOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	userRepo := users.NewRepo(dep.DB)
	projectRepo := projects.NewRepo(dep.DB)

	issuer := auth.NewTokenIssuer([]byte(dep.JWTSecret), auth.SessionTTL)

	authHandler := auth.NewHandler(issuer, userRepo)
	authHandler.Register(r)

	authed := r.Group("", auth.RequireAuth(issuer, userRepo))
	authed.GET("/me", auth.Me)
	users.Register(authed.Group("/users"), userRepo)
	projects.Register(authed.Group("/projects"), projectRepo)

	if dep.StaticDir != "" {
		r.StaticFile("/", filepath.Join(dep.StaticDir, "index.html"))
		r.StaticFile("/app.js", filepath.Join(dep.StaticDir, "app.js"))
		r.StaticFile("/styles.css", filepath.Join(dep.StaticDir, "styles.css"))
	}

	return r
}
