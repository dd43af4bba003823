package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/command"
	"github.com/quyk67uet/ai-assistant-workflow/internal/server"
)

// Run starts the HTTP server and blocks until interrupted.
func (s *ServeCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, s.Config)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	if rt.cfg.Store.Watch {
		go func() {
			if err := rt.store.Watch(ctx); err != nil {
				rt.logger.Warn("roster watcher stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              rt.cfg.Server.Addr,
		Handler:           server.New(rt.svc, rt.store, rt.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		rt.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Run handles one instruction from the command line and prints the
// aggregated response as JSON.
func (r *RunCmd) Run() error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx, r.Config)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	result, err := rt.svc.Handle(ctx, command.Request{
		TutorID: r.Tutor,
		Text:    strings.Join(r.Text, " "),
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
