package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	bunmigrate "github.com/uptrace/bun/migrate"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/infra/memory"
	"live-trivia-service/internal/infra/postgres"
	pgmigrations "live-trivia-service/internal/infra/postgres/migrations"
	infraredis "live-trivia-service/internal/infra/redis"
)

func TestLiveSessionEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrate(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	content := postgres.NewContentStore(pool)
	if err := content.SaveQuiz(ctx, memory.DemoQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	ttl := 5 * time.Minute
	sessionStore := infraredis.NewSessionStore(redisClient, ttl)
	quizRepo := infraredis.NewQuizRepository(redisClient, app.NewContentLoader(content), ttl)
	broker := infraredis.NewBroker(redisClient)
	sessions := app.NewSessionService(sessionStore, quizRepo, broker)
	players := app.NewPlayerService(sessionStore, infraredis.NewPlayerStore(redisClient, ttl), infraredis.NewAnswerLedger(redisClient, ttl), quizRepo, broker)

	session, err := sessions.CreateSession(ctx, "demo", 30, true)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	alice, err := players.JoinByCode(ctx, session.JoinCode, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	bob, err := players.JoinByCode(ctx, session.JoinCode, "Bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := sessions.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := sessions.OpenQuestion(ctx, session.ID); err != nil {
		t.Fatalf("open: %v", err)
	}

	correct, err := players.SubmitAnswer(ctx, session.ID, bob.ID, "demo-q1", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !correct.IsCorrect || correct.PointsEarned < 900 {
		t.Fatalf("expected a fast correct answer, got %+v", correct)
	}
	if _, err := players.SubmitAnswer(ctx, session.ID, alice.ID, "demo-q1", 3); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := players.SubmitAnswer(ctx, session.ID, bob.ID, "demo-q1", 1); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	if _, err := sessions.CloseQuestion(ctx, session.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	results, err := players.Results(ctx, session.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 || results[0].PlayerID != bob.ID {
		t.Fatalf("expected bob leading, got %+v", results)
	}

	if _, err := sessions.End(ctx, session.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, found, _ := sessions.FindLiveSession(ctx, session.JoinCode); found {
		t.Fatalf("ended session must release its join code")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "trivia"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/trivia?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrate(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := bunmigrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
