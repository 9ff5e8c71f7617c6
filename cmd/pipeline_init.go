package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/quota"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/scrape"
	"github.com/sells-group/leadgen-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/google"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/notion"
	"github.com/sells-group/leadgen-cli/pkg/tavily"
	"github.com/sells-group/leadgen-cli/pkg/yelp"
)

// hunterSearchLimit caps how many addresses one domain search returns.
const hunterSearchLimit = 10

// pipelineEnv holds the initialized store, tracker, and pipeline shared by
// the run/discover/serve commands.
type pipelineEnv struct {
	Store      store.Store
	Tracker    *quota.Tracker
	Pipeline   *pipeline.Pipeline
	Aggregator *discovery.Aggregator
	Anthropic  anthropicpkg.Client
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.SQLitePath)
}

// initTracker opens the store, migrates it, and loads the quota tracker.
// Callers own the returned store.
func initTracker(ctx context.Context) (store.Store, *quota.Tracker, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}
	return st, quota.New(ctx, st, cfg.Quota.Providers), nil
}

// initPipeline wires the store, tracker, API clients, discovery sources,
// enrichers, and scorer into a Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, tracker, err := initTracker(ctx)
	if err != nil {
		return nil, err
	}

	httpFetcher := fetcher.New(fetcher.Options{
		Timeout:      time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	// Discovery sources in priority order. Sources without a key are left
	// out; the synthetic fallback covers any shortfall.
	var sources []discovery.Source
	if cfg.Yelp.Key != "" {
		yelpClient := yelp.NewClient(cfg.Yelp.Key,
			yelp.WithBaseURL(cfg.Yelp.BaseURL),
			yelp.WithHTTPClient(httpFetcher.Client()),
		)
		sources = append(sources, discovery.NewYelpSource(yelpClient, tracker))
	} else {
		zap.L().Warn("yelp key not set, primary discovery source disabled")
	}

	var placesSource *discovery.PlacesSource
	if cfg.Places.Key != "" {
		googleClient := google.NewClient(cfg.Places.Key,
			google.WithBaseURL(cfg.Places.BaseURL),
			google.WithHTTPClient(httpFetcher.Client()),
		)
		placesSource = discovery.NewPlacesSource(googleClient, tracker)
		sources = append(sources, placesSource)
	} else {
		zap.L().Warn("google places key not set, secondary discovery source disabled")
	}

	fallback := discovery.NewSampleSource(uint64(time.Now().UnixNano()))

	var profile discovery.ProfileFiller
	if placesSource != nil {
		profile = placesSource
	}
	agg := discovery.NewAggregator(sources, fallback, profile, tracker, cfg.Dedup.ExcludedDomains)

	// Baseline enrichment: website signal inspection.
	scraper := scrape.NewScraper(httpFetcher, time.Duration(cfg.Scrape.CacheTTLHours)*time.Hour)
	enrichers := []enrich.Enricher{
		enrich.NewWebsiteEnricher(scraper, cfg.Scrape.Concurrency),
	}

	// Tier-gated enrichment: email lookup, then reputation research.
	var tierGated []enrich.Enricher
	if cfg.Hunter.Key != "" {
		hunterClient := hunter.NewClient(cfg.Hunter.Key,
			hunter.WithBaseURL(cfg.Hunter.BaseURL),
			hunter.WithHTTPClient(httpFetcher.Client()),
		)
		tierGated = append(tierGated, enrich.NewEmailFinder(hunterClient, tracker, hunterSearchLimit))
	}
	if cfg.Tavily.Key != "" {
		tavilyClient := tavily.NewClient(cfg.Tavily.Key,
			tavily.WithBaseURL(cfg.Tavily.BaseURL),
			tavily.WithHTTPClient(httpFetcher.Client()),
		)
		tierGated = append(tierGated, enrich.NewResearcher(tavilyClient, tracker))
	}

	weights := scorer.DefaultWeights()
	if cfg.Scoring.WeightsFile != "" {
		weights, err = scorer.LoadWeights(cfg.Scoring.WeightsFile)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load scoring weights")
		}
	}
	engine := scorer.NewEngine(weights)

	var syncer pipeline.Syncer
	if cfg.Notion.Token != "" && cfg.Notion.LeadDB != "" {
		notionClient := notion.NewClient(cfg.Notion.Token, cfg.Notion.LeadDB)
		syncer = export.NewNotionSyncer(notionClient, model.TierB)
		zap.L().Info("notion sync enabled")
	}

	var anthropicClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		anthropicClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
	}

	p := pipeline.New(pipeline.Options{
		Aggregator: agg,
		Enrichers:  enrichers,
		TierGated:  tierGated,
		Engine:     engine,
		Store:      st,
		Syncer:     syncer,
		OutDir:     cfg.Export.OutputDir,
	})

	return &pipelineEnv{
		Store:      st,
		Tracker:    tracker,
		Pipeline:   p,
		Aggregator: agg,
		Anthropic:  anthropicClient,
	}, nil
}
