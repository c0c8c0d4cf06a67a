package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/carelink/care-auth-server/internal/config"
	"github.com/carelink/care-auth-server/principals"
	"github.com/carelink/care-auth-server/principals/pgrepo"
	"github.com/carelink/care-auth-server/principals/repofake"
	"github.com/carelink/care-auth-server/server"
	"github.com/carelink/care-auth-server/sessions"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	directory, cleanup, err := newDirectory(c)
	if err != nil {
		return fmt.Errorf("newDirectory: %w", err)
	}
	defer cleanup()

	authServer, err := server.New(c, directory, sessions.NewInMemoryStore())
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: authServer}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		// Bind or accept failure before any stop signal
		return err
	case <-stopSignal():
	}
	returnError = shutdown(httpServer)
	return returnError
}

// newDirectory selects the PostgreSQL directory when DATABASE_URL is set and
// falls back to the in-memory fake for local development.
func newDirectory(c config.Config) (principals.Directory, func(), error) {
	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory user directory\n")
		return repofake.NewFakeDirectory(), func() {}, nil
	}

	pool, err := pgrepo.NewDB(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("pgrepo.NewDB: %w", err)
	}
	return pgrepo.NewDirectory(pool), pool.Close, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func stopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
