package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"live-trivia-service/internal/infra/memory"
	"live-trivia-service/internal/infra/postgres"
	infraredis "live-trivia-service/internal/infra/redis"
)

// NewSeedCmd loads the demo quiz into Postgres and drops any copy cached in Redis.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo quiz into the content database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			quiz := memory.DemoQuiz()
			if err := postgres.NewContentStore(pool).SaveQuiz(cmd.Context(), quiz); err != nil {
				return err
			}
			log.Info().Str("quiz_id", quiz.ID).Int("questions", quiz.QuestionCount()).Msg("demo quiz seeded")

			if cfg.Redis.Addr == "" {
				return nil
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			cache := infraredis.NewQuizRepository(client, nil, 0)
			if err := cache.Invalidate(cmd.Context(), quiz.ID); err != nil {
				return fmt.Errorf("invalidate cached quiz: %w", err)
			}
			return nil
		},
	}
}
