package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"teachassist/internal/ai"
	"teachassist/internal/app"
	"teachassist/internal/cache"
	"teachassist/internal/config"
	"teachassist/internal/docrender"
	"teachassist/internal/model"
	"teachassist/internal/platform/awsclient"
	"teachassist/internal/platform/logger"
	mysqlClient "teachassist/internal/platform/mysql"
	rabbitmqClient "teachassist/internal/platform/rabbitmq"
	redisClient "teachassist/internal/platform/redis"
	"teachassist/internal/platform/tracing"
	"teachassist/internal/repository"
	"teachassist/internal/storage"
	"teachassist/internal/worker"
)

// Services are the application services the HTTP layer is built on.
type Services struct {
	Auth          *app.AuthService
	Catalog       *app.CatalogService
	Artifacts     *app.ArtifactService
	Lectures      *app.LectureService
	Transcription *app.TranscriptionService
	Presentations *app.PresentationService
}

type App struct {
	Config        *config.Config
	Log           *logger.Logger
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	ReindexWorker *worker.ReindexWorker
	Materials     storage.Store
	Artifacts     storage.Store
	Services      Services

	StartedAt       time.Time
	TracingEnabled  bool
	shutdownTracing func(context.Context) error
	stopBackground  context.CancelFunc
	background      sync.WaitGroup
}

const resumeJobsLimit = 100

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.resumeTranscriptions()
	log.Info("application initialized",
		"storage", cfg.Storage.Driver,
		"llm", cfg.LLM.Provider,
		"reindex", cfg.Reindex.Mode,
	)
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Setup(ctx, tracing.Options{
			ServiceName: cfg.App.Name,
			Environment: cfg.App.Env,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		}, a.Log)
		if err != nil {
			return err
		}
		a.shutdownTracing = shutdown
		a.TracingEnabled = true
	}

	sess, err := awsclient.New(awsclient.Options{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.Endpoint,
	})
	if err != nil {
		return err
	}

	switch cfg.Storage.Driver {
	case "memory":
		a.Materials = storage.NewMemoryStore(cfg.Storage.MaterialsBucket)
		a.Artifacts = storage.NewMemoryStore(cfg.Storage.ArtifactsBucket)
	default:
		a.Materials = storage.NewS3Store(sess, cfg.Storage.MaterialsBucket)
		a.Artifacts = storage.NewS3Store(sess, cfg.Storage.ArtifactsBucket)
	}

	a.MySQL, err = mysqlClient.New(ctx, mysqlClient.Options{
		DSN:   cfg.MySQLDSN(),
		Debug: cfg.App.Env == "dev",
	})
	if err != nil {
		return err
	}
	if err := a.MySQL.AutoMigrate(&model.User{}, &model.TranscriptionJob{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}

	ingestor := ai.NewIngestor(sess, cfg.Bedrock.KnowledgeBaseID, cfg.Bedrock.DataSourceID)
	reindexer, err := a.reindexer(ctx, ingestor)
	if err != nil {
		return err
	}

	logoPNG, err := docrender.LoadLogo(cfg.Letterhead.LogoPath, cfg.Letterhead.Institution)
	if err != nil {
		return err
	}
	letterhead := docrender.NewLetterhead(cfg.Letterhead.Institution, cfg.Letterhead.PoweredBy, logoPNG)

	textModel, lectureModel := a.generators(sess)
	presignTTL := time.Duration(cfg.Storage.PresignTTLSecond) * time.Second
	rag := app.NewRAGService(ai.NewKnowledgeBase(sess, cfg.Bedrock.KnowledgeBaseID), textModel, a.Log.With("component", "rag"))
	catalog := app.NewCatalogService(a.Materials, a.Artifacts, rag, reindexer, presignTTL, a.Log.With("component", "catalog"))

	a.Services = Services{
		Auth: app.NewAuthService(
			repository.NewUserRepository(a.MySQL),
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		Catalog:   catalog,
		Artifacts: app.NewArtifactService(a.Artifacts, catalog, rag, letterhead, presignTTL, a.Log.With("component", "artifacts")),
		Lectures:  app.NewLectureService(a.Artifacts, lectureModel, letterhead, presignTTL, a.Log.With("component", "lectures")),
		Transcription: app.NewTranscriptionService(
			repository.NewTranscriptionJobRepository(a.MySQL),
			ai.NewAWSTranscriber(sess),
			a.Artifacts,
			app.TranscriptionOptions{
				MediaBucket:  cfg.Storage.ArtifactsBucket,
				LanguageCode: cfg.Transcribe.LanguageCode,
				Timeout:      time.Duration(cfg.Transcribe.TimeoutSeconds) * time.Second,
				PollInitial:  time.Duration(cfg.Transcribe.PollInitialSeconds) * time.Second,
				PollMax:      time.Duration(cfg.Transcribe.PollMaxSeconds) * time.Second,
			},
			a.Log.With("component", "transcription"),
		),
		Presentations: app.NewPresentationService(
			rag,
			cache.NewDraftCache(a.Redis, time.Duration(cfg.Presentation.DraftTTLMinutes)*time.Minute),
			app.TemplateDeck(cfg.Presentation.TemplatePath),
			cfg.Letterhead.Institution,
			a.Log.With("component", "presentations"),
		),
	}
	return nil
}

// resumeTranscriptions re-polls jobs a previous process left unfinished.
func (a *App) resumeTranscriptions() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopBackground = cancel
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		if _, err := a.Services.Transcription.ResumePending(ctx, resumeJobsLimit); err != nil && ctx.Err() == nil {
			a.Log.Warn("resume transcription jobs failed", "error", err)
		}
	}()
}

// generators returns the model used for grounded generation and the one used
// on lecture transcripts.
func (a *App) generators(sess *session.Session) (ai.Generator, ai.Generator) {
	cfg := a.Config
	if cfg.LLM.Provider == "openai" {
		client := ai.NewOpenAICompatibleClient(ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
		return client, client
	}
	return ai.NewBedrockGenerator(sess, cfg.Bedrock.TextModel), ai.NewBedrockGenerator(sess, cfg.Bedrock.LectureModel)
}

func (a *App) reindexer(ctx context.Context, ingestor *ai.Ingestor) (app.Reindexer, error) {
	cfg := a.Config
	switch cfg.Reindex.Mode {
	case "off":
		return app.NoopReindexer{}, nil
	case "queue":
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name)
		if err != nil {
			return nil, err
		}
		a.MQConn = conn
		a.ReindexWorker = worker.NewReindexWorker(
			conn,
			ingestor,
			cfg.RabbitMQ.ReindexQueue,
			time.Duration(cfg.Reindex.DebounceSeconds)*time.Second,
			a.Log.With("component", "reindex-worker"),
		)
		if err := a.ReindexWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start reindex worker failed: %w", err)
		}
		return rabbitmqClient.NewReindexPublisher(conn, cfg.RabbitMQ.ReindexQueue), nil
	default:
		return app.NewDirectReindexer(ingestor, a.Log.With("component", "reindex")), nil
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.stopBackground != nil {
		a.stopBackground()
		a.background.Wait()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ReindexWorker != nil {
		a.ReindexWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			closeErr = err
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return closeErr
}
