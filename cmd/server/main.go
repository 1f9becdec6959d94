package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/douglascorrea/todo-api/internal/config"
	httpserver "github.com/douglascorrea/todo-api/internal/http"
	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/msgraph"
	"github.com/douglascorrea/todo-api/internal/service"
	"github.com/douglascorrea/todo-api/internal/store"
	tasksync "github.com/douglascorrea/todo-api/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{})
		logging.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, JSONOutput: cfg.Log.JSON})
	log := logging.WithComponent("main")
	log.Info().Str("listen_addr", cfg.ListenAddr).Msg("starting todo api server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create db pool")
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	st := store.New(pool)

	auth, err := msgraph.NewAuthenticator(ctx, cfg, st.TokenCache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize microsoft authenticator")
	}

	engine := tasksync.New(st.Users, st.TodoLists, st.Todos,
		func(ctx context.Context, accountID string) tasksync.Provider {
			return auth.ClientFor(ctx, accountID)
		})

	users := service.NewUserService(st.Users)
	lists := service.NewTodoListService(st.TodoLists, st.Todos, engine)
	todos := service.NewTodoService(st.Todos, st.TodoLists, engine)

	handler := httpserver.NewHandler(users, lists, todos, httpserver.WrapAuthenticator(auth), engine)
	router := httpserver.NewRouter(cfg, st, handler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
