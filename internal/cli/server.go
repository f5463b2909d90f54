package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/config"
	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/infra/memory"
	pgstore "quiz-game-service/internal/infra/postgres"
	redisstore "quiz-game-service/internal/infra/redis"
	transport "quiz-game-service/internal/transport/http"
)

// idleEvictor is satisfied by both registry implementations; the janitor
// sweeps abandoned sessions through it.
type idleEvictor interface {
	EvictIdle(maxIdle time.Duration, now time.Time) int
}

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Game.SessionTTL, 30*time.Minute)
	var store app.SessionRepository
	var evictor idleEvictor
	if redisClient != nil {
		rs := redisstore.NewSessionStore(redisClient, sessionTTL)
		store, evictor = rs, rs
	} else {
		ms := memory.NewSessionStore()
		store, evictor = ms, ms
	}

	var responses app.ResponseStore
	switch {
	case pool != nil:
		responses = pgstore.NewResponseStore(pool)
	case redisClient != nil:
		responses = redisstore.NewResponseStore(redisClient, sessionTTL)
	default:
		responses = memory.NewResponseStore()
	}

	service := app.NewGameService(store, quizRepo, responses, app.Options{
		Policy: app.ScoringPolicy{
			BaseScore:     config.IntOr(cfg.Game.BaseScore, 100),
			MaxSpeedBonus: config.IntOr(cfg.Game.MaxSpeedBonus, 100),
		},
		QuestionDuration: time.Duration(config.IntOr(cfg.Game.QuestionSeconds, 20)) * time.Second,
		TimerTick:        config.TTLDuration(cfg.Game.TimerTick, time.Second),
		Logger:           logger,
	})
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	janitorStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-janitorStop:
				return
			case now := <-ticker.C:
				if n := evictor.EvictIdle(sessionTTL, now); n > 0 {
					logger.Info().Int("evicted", n).Msg("idle sessions swept")
				}
			}
		}
	}()

	go func() {
		logger.Info().Str("port", finalPort).Msg("starting game service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server")
	}
	close(janitorStop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides demo quiz content; a Postgres-backed loader replaces
// this in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warmup",
			Questions: []domain.Question{
				{
					ID:       "q1",
					Position: 0,
					Type:     domain.QuestionSingleChoice,
					Prompt:   "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5"},
					},
				},
				{
					ID:       "q2",
					Position: 1,
					Type:     domain.QuestionBoolean,
					Prompt:   "The sky is green.",
					Options: []domain.Option{
						{ID: "true", Text: "True"},
						{ID: "false", Text: "False", Correct: true},
					},
				},
				{
					ID:       "q3",
					Position: 2,
					Type:     domain.QuestionMultipleChoice,
					Prompt:   "Select the prime numbers.",
					Options: []domain.Option{
						{ID: "o1", Text: "2", Correct: true},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "5", Correct: true},
					},
				},
				{
					ID:       "q4",
					Position: 3,
					Type:     domain.QuestionFreeText,
					Prompt:   "One word that describes this quiz?",
				},
				{
					ID:           "q5",
					Position:     4,
					Type:         domain.QuestionMatchingPairs,
					Prompt:       "Match the capital to its country.",
					AllowPartial: true,
					Pairs: []domain.Pair{
						{LeftID: "l1", LeftText: "France", RightID: "r1", RightText: "Paris"},
						{LeftID: "l2", LeftText: "Japan", RightID: "r2", RightText: "Tokyo"},
					},
				},
			},
		},
	}
}
