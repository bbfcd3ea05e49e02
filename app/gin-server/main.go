package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/api/routes"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/questions"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/workers"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(settings.Log.Level, settings.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	log.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	log.Info("Redis connected")

	db := config.MongoDatabase()
	sessionRepo := mongorepo.NewSessionRepo(db)
	transcriptRepo := mongorepo.NewTranscriptRepo(db)
	resultRepo := pgrepo.NewResultRepo(config.PostgresDB)
	resultCache := cache.NewRedisCache(config.RedisClient)

	provider := llm.NewLazy(settings.LLM.Provider, llmFactory(settings.LLM))
	defer provider.Close()

	templates := questions.DefaultTemplates()
	if path := settings.Questions.TemplatesFile; path != "" {
		if templates, err = questions.LoadTemplateSet(path); err != nil {
			log.Fatalf("question templates error: %v", err)
		}
	}

	var speech stt.Provider
	if settings.Speech.Enabled {
		gs, err := stt.NewGoogleSpeech(ctx, settings.Speech.Language)
		if err != nil {
			log.Fatalf("speech init error: %v", err)
		}
		defer gs.Close()
		speech = gs
	}

	// interfaces stay nil (not typed-nil) when the bucket is unset
	var audioUp storage.Uploader
	var audioRm storage.Remover
	if bucket := settings.Storage.AudioBucket; bucket != "" {
		gcs, err := storage.NewGCSStore(ctx, bucket)
		if err != nil {
			log.Fatalf("storage init error: %v", err)
		}
		defer gcs.Close()
		audioUp, audioRm = gcs, gcs
	}

	questionSvc := services.NewQuestionService(provider, services.QuestionConfig{
		Probe: llm.ProbeConfig{
			Retries: settings.LLM.ProbeRetries,
			Timeout: settings.LLM.ProbeTimeout,
			Backoff: settings.LLM.ProbeBackoff,
		},
		Timeout:   settings.LLM.Timeout,
		Templates: templates,
	}, log)
	evaluationSvc := services.NewEvaluationService(provider, services.EvaluationConfig{Timeout: settings.LLM.Timeout}, log)

	sessionSvc := services.NewSessionService(sessionRepo, transcriptRepo, questionSvc, audioRm, resultCache, log)
	transcriptSvc := services.NewTranscriptService(sessionRepo, transcriptRepo, speech, audioUp, log)
	trigger := &workers.StreamTrigger{
		Broker: config.RedisClient,
		Claims: resultCache,
		Stream: settings.Eval.Stream,
		Logger: log,
	}
	resultSvc := services.NewResultService(sessionSvc, transcriptRepo, resultRepo, evaluationSvc, trigger, resultCache, settings.Eval.ResultCacheTTL, log)
	responseSvc := services.NewResponseService(sessionRepo, transcriptRepo, trigger, log)

	pool := &workers.EvaluationWorkerPool{
		Redis:      config.RedisClient,
		Results:    resultSvc,
		Claims:     resultCache,
		NumWorkers: settings.Eval.Workers,
		Logger:     log,
		Stream:     settings.Eval.Stream,
		Group:      settings.Eval.Group,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("evaluation workers error: %v", err)
	}

	if settings.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		JWT:        settings.JWT,
		Session:    handlers.NewSessionHandler(sessionSvc, transcriptSvc),
		Transcript: handlers.NewTranscriptHandler(sessionSvc, transcriptSvc),
		Response:   handlers.NewResponseHandler(sessionSvc, responseSvc),
		Result:     handlers.NewResultHandler(sessionSvc, resultSvc),
		Admin:      handlers.NewAdminHandler(sessionSvc, resultSvc),
		WS:         handlers.NewWSHandler(sessionSvc, config.RedisClient),
	})

	srv := &http.Server{
		Addr:              ":" + settings.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	pool.Wait()

	_ = config.RedisClient.Close()
	_ = config.ClosePostgres()
	_ = config.CloseMongo(shutdownCtx)
}

func llmFactory(s config.LLMSettings) llm.Factory {
	return func(ctx context.Context) (llm.Provider, error) {
		switch s.Provider {
		case "vertex":
			return llm.NewVertexGemini(ctx, s.VertexProjectID, s.VertexLocation, s.VertexModel)
		case "gemini":
			return llm.NewGemini(ctx, s.GeminiAPIKey, s.GeminiModel)
		case "ollama":
			return llm.NewOllama(s.OllamaBaseURL, s.OllamaModel, &http.Client{Timeout: s.Timeout + 5*time.Second})
		default:
			return nil, llm.ErrNotConfigured
		}
	}
}
