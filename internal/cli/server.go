package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/config"
	"live-trivia-service/internal/infra/memory"
	"live-trivia-service/internal/infra/postgres"
	infraredis "live-trivia-service/internal/infra/redis"
	"live-trivia-service/internal/realtime"
	transport "live-trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backend groups the stores behind one deployment mode.
type backend struct {
	sessions app.SessionRepository
	players  app.PlayerRepository
	ledger   app.AnswerLedger
	quizzes  app.QuizRepository
	broker   realtime.Broker
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var loader memory.QuizLoader = app.NewContentLoader(memory.NewStaticContent(memory.DemoQuiz()))
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = app.NewContentLoader(postgres.NewContentStore(pool))
	}

	clock := clockwork.NewRealClock()
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var b backend
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		ttl := config.TTLDuration(cfg.Redis.TTL, 6*time.Hour)
		b = backend{
			sessions: infraredis.NewSessionStore(client, ttl),
			players:  infraredis.NewPlayerStore(client, ttl),
			ledger:   infraredis.NewAnswerLedger(client, ttl),
			quizzes:  infraredis.NewQuizRepository(client, loader, quizTTL),
			broker:   infraredis.NewBroker(client),
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis backend")
	} else {
		players := memory.NewPlayerStore()
		b = backend{
			sessions: memory.NewSessionStore(),
			players:  players,
			ledger:   memory.NewAnswerLedger(players),
			quizzes:  memory.NewQuizRepository(loader, quizTTL, clock),
			broker:   realtime.NewMemoryBroker(),
		}
		log.Info().Msg("using in-process backend")
	}

	opts := []app.Option{
		app.WithClock(clock),
		app.WithMaxTimerSeconds(cfg.Session.MaxTimerSeconds),
		app.WithJoinCodeAttempts(cfg.Session.JoinCodeAttempts),
		app.WithTickInterval(config.TTLDuration(cfg.Session.TickInterval, 100*time.Millisecond)),
	}
	sessions := app.NewSessionService(b.sessions, b.quizzes, b.broker, opts...)
	players := app.NewPlayerService(b.sessions, b.players, b.ledger, b.quizzes, b.broker, opts...)

	router := transport.NewRouter(sessions, players, transport.Defaults{
		TimerSeconds: cfg.Session.DefaultTimerSeconds,
		AutoClose:    cfg.Session.AutoClose(),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
