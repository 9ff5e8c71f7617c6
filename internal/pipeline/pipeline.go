// Package pipeline orchestrates the full lead generation run: discovery,
// enrichment, scoring, tier-gated enrichment, rescoring, and export.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// Aggregator is the discovery stage dependency.
type Aggregator interface {
	Discover(ctx context.Context, query discovery.Query) *discovery.Result
}

// Syncer pushes the final list to an external CRM.
type Syncer interface {
	Sync(ctx context.Context, leads []*model.Lead) (int, error)
}

// Params describe one run.
type Params struct {
	Vertical   string
	Region     string
	MaxResults int
	WriteXLSX  bool
}

// Pipeline wires the stages together.
type Pipeline struct {
	agg       Aggregator
	enrichers []enrich.Enricher // baseline pass, before scoring
	tierGated []enrich.Enricher // expensive pass, after scoring
	engine    *scorer.Engine
	store     store.Store
	syncer    Syncer // optional
	outDir    string
	now       func() time.Time
}

// Options configure pipeline construction.
type Options struct {
	Aggregator Aggregator
	Enrichers  []enrich.Enricher
	TierGated  []enrich.Enricher
	Engine     *scorer.Engine
	Store      store.Store
	Syncer     Syncer
	OutDir     string
	Now        func() time.Time
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutDir == "" {
		opts.OutDir = "exports"
	}
	return &Pipeline{
		agg:       opts.Aggregator,
		enrichers: opts.Enrichers,
		tierGated: opts.TierGated,
		engine:    opts.Engine,
		store:     opts.Store,
		syncer:    opts.Syncer,
		outDir:    opts.OutDir,
		now:       opts.Now,
	}
}

// Run executes every stage for one query. Expected provider failures are
// contained inside the stages; an error returned here is a contract
// violation or an export/storage fault and fails the whole run.
func (p *Pipeline) Run(ctx context.Context, params Params) (*model.Run, error) {
	if params.Vertical == "" || params.Region == "" {
		return nil, eris.New("pipeline: vertical and region are required")
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 50
	}

	log := zap.L().With(
		zap.String("vertical", params.Vertical),
		zap.String("region", params.Region),
	)
	log.Info("pipeline: starting run", zap.Int("max_results", params.MaxResults))

	run, err := p.store.CreateRun(ctx, params.Vertical, params.Region, params.MaxResults)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run record")
	}

	result, err := p.execute(ctx, params)
	if err != nil {
		result = &model.RunResult{Error: err.Error()}
		if storeErr := p.store.CompleteRun(ctx, run.ID, model.RunStatusFailed, result); storeErr != nil {
			log.Error("pipeline: record failed run", zap.Error(storeErr))
		}
		run.Status = model.RunStatusFailed
		run.Result = result
		return run, err
	}

	if err := p.store.CompleteRun(ctx, run.ID, model.RunStatusComplete, result); err != nil {
		log.Error("pipeline: record completed run", zap.Error(err))
	}
	run.Status = model.RunStatusComplete
	run.Result = result

	log.Info("pipeline: run complete",
		zap.Int("leads", result.LeadsExported),
		zap.Int("duplicates", result.DuplicatesMerged),
		zap.String("export", result.ExportPath),
	)
	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, params Params) (*model.RunResult, error) {
	// Stage 1: discovery and aggregation.
	discovered := p.agg.Discover(ctx, discovery.Query{
		Vertical:   params.Vertical,
		Region:     params.Region,
		MaxResults: params.MaxResults,
	})
	leads := discovered.Leads
	zap.L().Info("pipeline: discovery done",
		zap.Int("leads", len(leads)),
		zap.Int("duplicates", discovered.Duplicates),
	)

	// Stage 2: baseline enrichment.
	for _, e := range p.enrichers {
		before := len(leads)
		leads = e.Enrich(ctx, leads)
		if len(leads) != before {
			return nil, eris.Errorf("pipeline: enricher %s changed batch size from %d to %d", e.Name(), before, len(leads))
		}
	}

	// Stage 3: baseline scoring.
	p.engine.ApplyAll(leads)

	// Stage 4: tier-gated enrichment, then rescore so new signals count.
	for _, e := range p.tierGated {
		before := len(leads)
		leads = e.Enrich(ctx, leads)
		if len(leads) != before {
			return nil, eris.Errorf("pipeline: enricher %s changed batch size from %d to %d", e.Name(), before, len(leads))
		}
	}
	p.engine.ApplyAll(leads)

	// Stage 5: export.
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "pipeline: create export dir")
	}
	at := p.now()
	csvPath := filepath.Join(p.outDir, export.Filename(params.Vertical, params.Region, at, "csv"))
	if err := export.WriteCSV(leads, csvPath); err != nil {
		return nil, err
	}
	if params.WriteXLSX {
		xlsxPath := filepath.Join(p.outDir, export.Filename(params.Vertical, params.Region, at, "xlsx"))
		if err := export.WriteXLSX(leads, xlsxPath); err != nil {
			return nil, err
		}
	}
	reportPath := filepath.Join(p.outDir, export.Filename(params.Vertical, params.Region, at, "txt"))
	if err := export.WriteReport(leads, params.Vertical, params.Region, reportPath, at); err != nil {
		return nil, err
	}

	if p.syncer != nil {
		if _, err := p.syncer.Sync(ctx, leads); err != nil {
			// CRM sync is additive; local exports already succeeded.
			zap.L().Error("pipeline: crm sync failed", zap.Error(err))
		}
	}

	return &model.RunResult{
		LeadsDiscovered:  len(leads) + discovered.Duplicates,
		DuplicatesMerged: discovered.Duplicates,
		LeadsExported:    len(leads),
		TierCounts:       export.TierCounts(leads),
		ExportPath:       csvPath,
		ReportPath:       reportPath,
	}, nil
}
