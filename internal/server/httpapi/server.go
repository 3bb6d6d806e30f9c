// Package httpapi exposes the REST surface of the training platform:
// authentication, user profiles, VR session codes, simulation results,
// license administration and educational-module progress.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roadsvr/backend/internal/logging"
	"github.com/roadsvr/backend/internal/server/auth"
	"github.com/roadsvr/backend/internal/server/config"
	"github.com/roadsvr/backend/internal/server/services"
)

type Server struct {
	address       string
	logger        logging.Logger
	users         *services.UserService
	codes         *services.CodeService
	results       *services.ResultService
	license       *services.LicenseService
	modules       *services.ModuleService
	jwtSecret     []byte
	tokenValidity time.Duration
	corsOrigin    string
}

func NewServer(cfg *config.Config, l logging.Logger, us *services.UserService, cs *services.CodeService, rs *services.ResultService, ls *services.LicenseService, ms *services.ModuleService) *Server {
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		logger:        l.With("module", "http_server"),
		users:         us,
		codes:         cs,
		results:       rs,
		license:       ls,
		modules:       ms,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidity,
		corsOrigin:    cfg.CORSOrigin,
	}
}

// routes assembles the router. Route groups mirror the error-code
// namespaces: /auth -1000s, /user -2000s, /codes -3000s, /license -4000s,
// /results -5000s, /modules -6000s.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(s.cors)
	r.NotFound(s.notFound)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/create/{email}/{password}/{name}", s.handleRegister)
		r.Get("/recovery/{email}", s.handleRecovery)
		r.Get("/{email}/{password}", s.handleLogin)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/", s.handleProfile)
		r.Get("/code/{scene}", s.handleIssueCode)
		r.Get("/name/{name}", s.handleChangeName)
		r.Get("/password/{newpass}/{oldpass}", s.handleChangePassword)
		r.Get("/image", s.handleGetImage)
		r.Post("/image", s.handleUploadImage)
		r.Get("/results/vr", s.handleVRResults)
		r.Get("/results/vr/{scene}", s.handleVRResult)
		r.Get("/results/web", s.handleWebResults)
		r.Get("/results/web/{scene}", s.handleWebResult)
		r.Post("/results/web", s.handleSubmitWebResult)
	})

	// Session codes are self-validating, headsets reach them without a
	// token.
	r.Route("/codes", func(r chi.Router) {
		r.Get("/validate/{code}", s.handleValidateCode)
		r.Get("/image/{code}", s.handleCodeImage)
		r.Post("/close/{code}", s.handleCloseCode)
	})

	r.Route("/license", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.requireTier(auth.TierSupervisor))
		r.Get("/userslist/{offset}/{limit}", s.handleUsersList)
		r.Get("/extend/{userid}/{days}", s.handleExtendLicense)
		r.Get("/set/{userid}/{days}", s.handleSetLicense)
		// Historical route name, clients depend on the spelling.
		r.Get("/revoque/{userid}", s.handleRevokeLicense)
		r.Get("/level/{userid}/{level}", s.handleSetLevel)
	})

	r.Route("/results", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.requireTier(auth.TierSupervisor))
		r.Get("/all", s.handleAllVRResults)
	})

	r.Route("/modules", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/", s.handleModulesList)
		r.Get("/{id}", s.handleModuleGet)
		r.Get("/progress/{id}/{value}", s.handleModuleProgress)
		r.Get("/quizz/{id}/{state}", s.handleModuleQuizz)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
