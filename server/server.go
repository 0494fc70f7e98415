// ABOUTME: Reference REST backend for the CRM client
// ABOUTME: Serves the JSON API under /api with CORS, bearer auth and graceful shutdown
package server

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/config"
)

type Server struct {
	db  *sql.DB
	cfg config.ServerConfig
}

func NewServer(database *sql.DB, cfg config.ServerConfig) *Server {
	return &Server{db: database, cfg: cfg}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	origins := s.cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthHandler)
	s.RegisterRoutes(r.Group("/api"))
	return r
}

// RegisterRoutes mounts the API on router.
func (s *Server) RegisterRoutes(router *gin.RouterGroup) {
	router.Use(requestID())

	auth := router.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)

	authed := router.Group("")
	authed.Use(s.requireAuth())

	authed.GET("/auth/me", s.me)
	authed.POST("/auth/logout", s.logout)
	authed.POST("/auth/change-password", s.changePassword)

	authed.GET("/contacts", s.listContacts)
	authed.POST("/contacts", s.createContact)
	authed.GET("/contacts/tags", s.contactTags)
	authed.GET("/contacts/:id", s.getContact)
	authed.PUT("/contacts/:id", s.updateContact)
	authed.PATCH("/contacts/:id/status", s.updateContactStatus)
	authed.DELETE("/contacts/:id", s.deleteContact)

	authed.GET("/companies", s.listCompanies)
	authed.POST("/companies", s.createCompany)
	authed.GET("/companies/:id", s.getCompany)
	authed.PUT("/companies/:id", s.updateCompany)
	authed.DELETE("/companies/:id", s.deleteCompany)

	authed.GET("/deals", s.listDeals)
	authed.POST("/deals", s.createDeal)
	authed.GET("/deals/stages", s.listStages)
	authed.GET("/deals/:id", s.getDeal)
	authed.PUT("/deals/:id", s.updateDeal)
	authed.DELETE("/deals/:id", s.deleteDeal)

	authed.GET("/activities", s.listActivities)
	authed.POST("/activities", s.createActivity)
	authed.GET("/activities/:id", s.getActivity)
	authed.PUT("/activities/:id", s.updateActivity)
	authed.DELETE("/activities/:id", s.deleteActivity)

	contactNotes := &noteHandlers{s: s, kind: contactNoteKind}
	authed.GET("/contact-notes", contactNotes.list)
	authed.POST("/contact-notes", contactNotes.create)
	authed.PUT("/contact-notes/:id", contactNotes.update)
	authed.DELETE("/contact-notes/:id", contactNotes.remove)

	activityNotes := &noteHandlers{s: s, kind: activityNoteKind}
	authed.GET("/activity-notes", activityNotes.list)
	authed.POST("/activity-notes", activityNotes.create)
	authed.PUT("/activity-notes/:id", activityNotes.update)
	authed.DELETE("/activity-notes/:id", activityNotes.remove)

	authed.GET("/shares/shared-by-me", s.sharedByMe)
	authed.GET("/shares/shared-with-me", s.sharedWithMe)
	authed.GET("/shares/users", s.shareableUsers)
	authed.POST("/shares", s.createShare)
	authed.DELETE("/shares/:id", s.deleteShare)

	admin := authed.Group("/admin")
	admin.Use(requireAdmin())
	admin.GET("/users", s.listUsers)
	admin.POST("/users", s.createUser)
	admin.GET("/users/:id", s.getUser)
	admin.PUT("/users/:id", s.updateUser)
	admin.DELETE("/users/:id", s.deleteUser)
}

func (s *Server) healthHandler(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting API server at http://localhost%s/api", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
