package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"news-ingest/internal/config"
	"news-ingest/internal/dedup"
	"news-ingest/internal/domain"
	"news-ingest/internal/feed"
	"news-ingest/internal/images"
	"news-ingest/internal/infrastructure/imagesearch"
	"news-ingest/internal/infrastructure/imaging"
	"news-ingest/internal/infrastructure/scheduler"
	"news-ingest/internal/infrastructure/scrape"
	"news-ingest/internal/infrastructure/storage"
	"news-ingest/internal/logging"
	"news-ingest/internal/pacing"
	"news-ingest/internal/sourcefilter"
	"news-ingest/internal/usecase"
)

// publishable categories a config value may map to.
var knownCategories = map[string]domain.Category{
	string(domain.CategoryNational):      domain.CategoryNational,
	string(domain.CategoryInternational): domain.CategoryInternational,
	string(domain.CategoryPolitics):      domain.CategoryPolitics,
	string(domain.CategorySports):        domain.CategorySports,
	string(domain.CategoryBusiness):      domain.CategoryBusiness,
	string(domain.CategoryEntertainment): domain.CategoryEntertainment,
	string(domain.CategoryTechnology):    domain.CategoryTechnology,
	string(domain.CategoryHealth):        domain.CategoryHealth,
	string(domain.CategoryGeneral):       domain.CategoryGeneral,
}

// Application wires config to the ingestion pipeline and its scheduler.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	client    *mongo.Client
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
}

// New connects the document store and assembles the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := storage.NewMongoStore(client, cfg.Mongo.Database, cfg.Mongo.Collection)
	if err := store.EnsureIndexes(connectCtx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	httpClient := &http.Client{Timeout: 20 * time.Second}
	filter := sourcefilter.New(cfg.Filter.Sources)

	fetcher := feed.NewFetcher(httpClient, filter, parseCategories(cfg.Categories, baseLogger), baseLogger.With("component", "fetcher"))
	gate := dedup.NewGate(store, cfg.Ingest.MaxSlugAttempts, baseLogger.With("component", "dedup"))

	chain := images.NewChain(
		images.Config{
			Dir:          cfg.Images.Dir,
			PublicPrefix: cfg.Images.PublicPrefix,
			Caption:      cfg.Images.Caption,
			Width:        cfg.Images.Width,
			Height:       cfg.Images.Height,
			Quality:      cfg.Images.Quality,
			MaxRetries:   cfg.Images.MaxRetries,
			RetryDelay:   time.Duration(cfg.Images.RetryDelaySeconds) * time.Second,
		},
		imagesearch.NewClient(cfg.Images.SearchEndpoint, cfg.Images.SearchAPIKey, httpClient),
		scrape.NewPageScraper(httpClient),
		imaging.NewProcessor(cfg.Images.Width, cfg.Images.Height, cfg.Images.Quality),
		httpClient,
		baseLogger.With("component", "images"),
	)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feeds:         toDomainFeeds(cfg.Feeds),
		Fetcher:       fetcher,
		Gate:          gate,
		Images:        chain,
		Store:         store,
		Pacer:         pacing.NewHostPacer(time.Duration(cfg.Ingest.FeedDelaySeconds) * time.Second),
		Logger:        baseLogger.With("component", "pipeline"),
		BackfillLimit: cfg.Images.BackfillLimit,
	})

	sched := usecase.NewScheduler(
		scheduler.NewCronDriver(cfg.Scheduler.Location()),
		pipeline,
		cfg.Scheduler.FeedOnlySpec,
		cfg.Scheduler.FullSpec,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		client:    client,
		pipeline:  pipeline,
		scheduler: sched,
	}, nil
}

// Run enables the scheduler, performs one immediate full cycle, then blocks
// until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Enable(ctx); err != nil {
		return fmt.Errorf("enable scheduler: %w", err)
	}

	summary, err := a.scheduler.TriggerNow(ctx)
	if err != nil {
		a.logger.Error("initial cycle failed", "error", err)
	} else {
		a.logger.Info("initial cycle done",
			"saved", summary.Saved,
			"duplicates", summary.Duplicates,
			"failed", summary.Failed,
		)
	}

	<-ctx.Done()
	return a.shutdown()
}

func (a *Application) shutdown() error {
	a.scheduler.Disable()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}

func toDomainFeeds(cfg []config.FeedConfig) []domain.FeedSource {
	feeds := make([]domain.FeedSource, 0, len(cfg))
	for _, f := range cfg {
		feeds = append(feeds, domain.FeedSource{
			Name:     f.Name,
			URL:      f.URL,
			Category: f.Category,
		})
	}
	return feeds
}

func parseCategories(cfg map[string]string, logger *slog.Logger) map[string]domain.Category {
	out := make(map[string]domain.Category, len(cfg))
	for tag, value := range cfg {
		cat, ok := knownCategories[value]
		if !ok {
			logger.Warn("unknown category in config, using general", "tag", tag, "value", value)
			cat = domain.CategoryGeneral
		}
		out[tag] = cat
	}
	return out
}
