// Package server exposes the auth core over HTTP: the login surface, the
// "who am I" endpoint, and the guard middleware every downstream route handler
// composes with.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/carelink/care-auth-server/auth"
	"github.com/carelink/care-auth-server/credentials"
	"github.com/carelink/care-auth-server/internal/config"
	"github.com/carelink/care-auth-server/principals"
	"github.com/carelink/care-auth-server/sessions"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "production")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	gateway   *auth.Gateway
	directory principals.Directory
	secrets   *credentials.SecretBox
}

func New(config config.Config, directory principals.Directory, sessionStore sessions.Store, options ...auth.GatewayOption) (*Server, error) {
	gatewayOptions := append([]auth.GatewayOption{auth.WithSessionTTL(config.GetSessionTTL())}, options...)
	gateway, err := auth.NewGateway(auth.Deps{Directory: directory, Sessions: sessionStore}, gatewayOptions...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create gateway: %w", err)
	}

	secrets, err := credentials.NewSecretBox(config.GetEncryptionSecret())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create secret box: %w", err)
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		gateway:   gateway,
		directory: directory,
		secrets:   secrets,
	}
	s.env = config.GetEnv()

	// Bootstrap: ensure a super admin account exists
	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Gateway exposes the guard surface for out-of-process composition (tests,
// embedding servers).
func (s *Server) Gateway() *auth.Gateway {
	return s.gateway
}

// Secrets exposes the process-wide secret box for collaborators that store
// encrypted third-party keys.
func (s *Server) Secrets() *credentials.SecretBox {
	return s.secrets
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
