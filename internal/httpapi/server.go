// Package httpapi exposes courses, modules, version history and textbook
// compilation over a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/logger"
	"github.com/alnah/go-textbook/internal/store"
)

// Store is the persistence the handlers need. *store.Store implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, username, name, passwordHash string) (*store.User, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)

	CreateCourse(ctx context.Context, userID, name, code, description string) (*store.CourseSummary, error)
	JoinCourse(ctx context.Context, userID, code string) (*store.CourseSummary, error)
	ListCourses(ctx context.Context, userID string) ([]store.CourseSummary, error)
	GetCourse(ctx context.Context, courseID, userID string) (*store.CourseSummary, error)
	GetCourseName(ctx context.Context, courseID string) (string, error)

	CreateModule(ctx context.Context, courseID, userID string, in store.ModuleInput) (*store.ModuleDetail, error)
	UpdateModule(ctx context.Context, moduleID, userID string, in store.ModuleInput) (*store.ModuleDetail, error)
	RestoreVersion(ctx context.Context, moduleID, versionID, userID string) (*store.ModuleDetail, error)
	DeleteModule(ctx context.Context, moduleID, userID string) error
	GetModule(ctx context.Context, moduleID, userID string) (*store.ModuleDetail, error)
	ListModules(ctx context.Context, courseID, userID, search, typ string) ([]store.ModuleSummary, error)
	ListVersions(ctx context.Context, moduleID, userID string) ([]store.VersionEntry, error)
	CourseModules(ctx context.Context, courseID string) ([]textbook.Module, error)

	SaveCompilation(ctx context.Context, userID string, in store.CompilationInput) (*store.Compilation, error)
	ListCompilations(ctx context.Context, courseID, userID string) ([]store.Compilation, error)
	GetCompilation(ctx context.Context, id, userID string) (*store.Compilation, error)
}

var _ Store = (*store.Store)(nil)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Tokens issues and verifies session tokens. *auth.Authenticator implements it.
type Tokens interface {
	TokenVerifier
	Issue(userID string) (string, time.Time, error)
}

// Compiler turns an input into a textbook. *textbook.CompilerPool implements it.
type Compiler interface {
	Compile(ctx context.Context, input textbook.Input) (*textbook.Result, error)
}

var _ Compiler = (*textbook.CompilerPool)(nil)

// Config wires a Server.
type Config struct {
	Store       Store
	Tokens      Tokens
	Compiler    Compiler
	Log         *logger.Logger
	CORSOrigins []string
}

// Server holds handler dependencies.
type Server struct {
	store    Store
	tokens   Tokens
	compiler Compiler
	log      *logger.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		compiler: cfg.Compiler,
		log:      log.With("component", "httpapi"),
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.log), CORS(cfg.CORSOrigins), LimitBody(maxBodyBytes))

	// Public
	router.GET("/healthcheck", s.healthcheck)
	public := router.Group("/api/auth")
	public.POST("/signup", s.signup)
	public.POST("/login", s.login)

	// Protected
	api := router.Group("/api", RequireAuth(s.tokens))
	api.GET("/auth/me", s.me)

	api.GET("/courses", s.listCourses)
	api.POST("/courses", s.createCourse)
	api.POST("/courses/join", s.joinCourse)
	api.GET("/courses/:id", s.getCourse)
	api.GET("/courses/:id/modules", s.listModules)
	api.POST("/courses/:id/modules", s.createModule)

	api.GET("/modules/:id", s.getModule)
	api.PUT("/modules/:id", s.updateModule)
	api.DELETE("/modules/:id", s.deleteModule)
	api.GET("/modules/:id/markdown", s.downloadMarkdown)
	api.GET("/modules/:id/versions", s.listVersions)
	api.POST("/modules/:id/restore", s.restoreVersion)

	api.GET("/compilations", s.listCompilations)
	api.POST("/compilations", s.saveCompilation)
	api.GET("/compilations/:id", s.getCompilation)
	api.GET("/compilations/:id/pdf", s.downloadPDF)
	api.POST("/compile", s.compile)

	return router
}
