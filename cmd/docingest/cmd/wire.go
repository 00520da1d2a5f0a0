package cmd

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rezonia/docingest/internal/blobstore"
	"github.com/rezonia/docingest/internal/config"
	"github.com/rezonia/docingest/internal/extraction"
	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/logging"
	"github.com/rezonia/docingest/internal/metrics"
	"github.com/rezonia/docingest/internal/ocr"
	"github.com/rezonia/docingest/internal/pipeline"
	"github.com/rezonia/docingest/internal/repository"
	"github.com/rezonia/docingest/internal/taskqueue"

	"github.com/prometheus/client_golang/prometheus"
)

// app bundles every long-lived resource a command might need to close
// cleanly on shutdown, alongside the wired pipeline.Service.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	service   *pipeline.Service
	pgPool    *pgxpool.Pool
	natsQueue *taskqueue.NATSQueue // nil unless task_queue.url is configured
	natsCnn   *nats.Conn
	redis     *redis.Client
}

func (a *app) Close() {
	if a.pgPool != nil {
		a.pgPool.Close()
	}
	if a.natsCnn != nil {
		a.natsCnn.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// buildApp loads configuration and wires every collaborator the Document
// Service needs. Pipeline enqueues run synchronously in-process
// (InlineQueue) unless task_queue.url is set, in which case they go over
// NATS to the worker command.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level := logging.InfoLevel
	if verbose {
		level = logging.DebugLevel
	}
	log := logging.New(logging.Config{Level: level, JSONOutput: !verbose})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	a := &app{cfg: cfg, log: log, metrics: m}

	blob, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var docRepo repository.DocumentRepository
	var borrowerRepo repository.BorrowerRepository
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pgPool = pool
		docRepo = repository.NewPostgresDocumentRepository(pool)
		borrowerRepo = repository.NewPostgresBorrowerRepository(pool)
	} else {
		log.Warn().Msg("DATABASE_URL not set, falling back to in-process memory repositories")
		docRepo = repository.NewMemoryDocumentRepository()
		borrowerRepo = repository.NewMemoryBorrowerRepository()
	}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	ocrRouter := buildOCRRouter(cfg, m, log)
	extractionRouter := buildExtractionRouter(cfg, log)

	deps := pipeline.Deps{
		Blob:          blob,
		Documents:     docRepo,
		Borrowers:     borrowerRepo,
		OCR:           ocrRouter,
		Extraction:    extractionRouter,
		Metrics:       m,
		Log:           log,
		MaxRetryCount: cfg.MaxRetryCount,
	}

	svc := pipeline.New(deps)

	queue, natsConn, err := buildQueue(cfg, svc, log)
	if err != nil {
		return nil, err
	}
	a.natsCnn = natsConn
	if nq, ok := queue.(*taskqueue.NATSQueue); ok {
		a.natsQueue = nq
	}
	deps.Queue = queue
	svc = pipeline.New(deps)

	a.service = svc
	return a, nil
}

func buildBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	if cfg.Blob.Bucket == "" {
		return blobstore.NewMemoryStore(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Blob.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Blob.Region != "" {
			o.Region = cfg.Blob.Region
		}
	})
	return blobstore.NewS3Store(client, cfg.Blob.Bucket), nil
}

func buildOCRRouter(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *ocr.Router {
	parser := ocr.NewParser()
	if cfg.OCR.ServiceURL == "" {
		return ocr.NewRouter(nil, parser, m, log)
	}
	signer := ocr.NewHMACSigner([]byte(cfg.OCR.SigningSecret), cfg.OCR.Issuer)
	client := ocr.NewClient(cfg.OCR.ServiceURL, signer, cfg.OCR.Audience)
	return ocr.NewRouter(client, parser, m, log)
}

func buildExtractionRouter(cfg *config.Config, log zerolog.Logger) *extraction.Router {
	var opts []llm.ClientOption
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}
	client := llm.NewClient(cfg.LLM.APIKey, opts...)
	return extraction.NewRouter(client, log)
}

func buildQueue(cfg *config.Config, svc *pipeline.Service, log zerolog.Logger) (pipeline.Enqueuer, *nats.Conn, error) {
	if cfg.TaskQueue.URL == "" {
		queue := taskqueue.NewInlineQueue(func(task taskqueue.Task) error {
			return svc.Process(context.Background(), task)
		}, cfg.MaxRetryCount)
		return queue, nil, nil
	}

	conn, err := nats.Connect(cfg.TaskQueue.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to nats at %s: %w", cfg.TaskQueue.URL, err)
	}
	return taskqueue.NewNATSQueue(conn, cfg.TaskQueue.Subject, cfg.MaxRetryCount, log), conn, nil
}
