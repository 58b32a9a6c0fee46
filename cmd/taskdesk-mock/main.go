// Command taskdesk-mock serves an in-memory task-management backend for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdesk-cli/internal/logging"
	"taskdesk-cli/internal/mockapi"
	"taskdesk-cli/internal/model"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:5000", "listen address")
	seed := pflag.Bool("seed", true, "seed an admin (admin@example.com / admin123) and sample data")
	level := pflag.String("log-level", "info", "log level (debug, info, warn, error)")
	pflag.Parse()

	log, err := logging.New(*level, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	srv := mockapi.New(mockapi.WithLogger(log))
	if *seed {
		seedDemo(srv)
	}

	httpSrv := &http.Server{Addr: *addr, Handler: srv, ReadHeaderTimeout: 5 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("mock backend listening", zap.String("addr", *addr), zap.Bool("seeded", *seed))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("serve", zap.Error(err))
		os.Exit(1)
	}
}

func seedDemo(s *mockapi.Server) {
	admin := s.SeedUser("admin", "admin@example.com", "admin123", true)
	work := s.SeedCategory(admin.ID, "Work", "#2196f3")
	s.SeedCategory(admin.ID, "Personal", "#4caf50")
	due := model.NewTime(time.Now().Add(48 * time.Hour))
	s.SeedTask(admin.ID, model.Task{
		Title:       "Prepare quarterly report",
		Description: "Collect numbers from every team.",
		Priority:    model.PriorityHigh,
		CategoryID:  &work.ID,
		DueDate:     &due,
	})
	s.SeedTask(admin.ID, model.Task{Title: "Book dentist appointment", Priority: model.PriorityLow})
	s.SeedMessage(model.ContactMessage{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Subject: "Hello",
		Message: "Just trying out the contact form.",
	})
}
