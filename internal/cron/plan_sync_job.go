package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/globelconnect/esim-backend/internal/plans"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
	"github.com/globelconnect/esim-backend/pkg/logger"
	"github.com/globelconnect/esim-backend/pkg/metrics"
)

const planSyncJobName = "plan_sync"

type feedFetcher interface {
	Fetch(ctx context.Context, url string) ([]plans.Row, error)
}

type packageLister interface {
	ListPackages(ctx context.Context) ([]plans.Plan, error)
}

type catalogWriter interface {
	ReplaceAll(items []plans.Plan)
}

// PlanSyncJobParams configures the catalog refresh job.
type PlanSyncJobParams struct {
	Logger  *logger.Logger
	Store   catalogWriter
	Feed    feedFetcher
	Vendor  packageLister
	CSVURL  string
	Metrics *metrics.CatalogMetrics
}

// SyncResult describes a successful sync run.
type SyncResult struct {
	Source plans.Source
	Count  int
}

// PlanSyncJob reloads the plan catalog from the CSV feed when one is
// configured, otherwise from the vendor package listing.
type PlanSyncJob struct {
	logg    *logger.Logger
	store   catalogWriter
	feed    feedFetcher
	vendor  packageLister
	csvURL  string
	metrics *metrics.CatalogMetrics
	now     func() time.Time
}

// NewPlanSyncJob constructs the plan sync cron job.
func NewPlanSyncJob(params PlanSyncJobParams) (*PlanSyncJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	csvURL := strings.TrimSpace(params.CSVURL)
	if csvURL != "" && params.Feed == nil {
		return nil, fmt.Errorf("feed fetcher required when a csv url is configured")
	}
	if csvURL == "" && params.Vendor == nil {
		return nil, fmt.Errorf("vendor client required when no csv url is configured")
	}
	return &PlanSyncJob{
		logg:    params.Logger,
		store:   params.Store,
		feed:    params.Feed,
		vendor:  params.Vendor,
		csvURL:  csvURL,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (j *PlanSyncJob) Name() string { return planSyncJobName }

// Source reports which source the next run will read.
func (j *PlanSyncJob) Source() plans.Source {
	if j.csvURL != "" {
		return plans.SourceCSV
	}
	return plans.SourceVendor
}

// Run satisfies Job.
func (j *PlanSyncJob) Run(ctx context.Context) error {
	_, err := j.Sync(ctx)
	return err
}

// Sync performs one run. The catalog is replaced only after every record
// was loaded; on error it is left untouched.
func (j *PlanSyncJob) Sync(ctx context.Context) (SyncResult, error) {
	source := j.Source()
	ctx = j.logg.WithPlanSource(ctx, source.String())

	loaded, err := j.load(ctx, source)
	if err != nil {
		return SyncResult{Source: source}, err
	}

	j.store.ReplaceAll(loaded)
	j.metrics.ObserveSync(source.String(), len(loaded), j.now())

	ctx = j.logg.WithField(ctx, "count", len(loaded))
	j.logg.Info(ctx, fmt.Sprintf("plan sync completed. Loaded %d plans.", len(loaded)))
	return SyncResult{Source: source, Count: len(loaded)}, nil
}

func (j *PlanSyncJob) load(ctx context.Context, source plans.Source) ([]plans.Plan, error) {
	switch source {
	case plans.SourceCSV:
		rows, err := j.feed.Fetch(ctx, j.csvURL)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeSourceFetch) {
				return nil, err
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeSourceFetch, err, "fetch plans csv")
		}
		return plans.NormalizeRows(rows), nil
	case plans.SourceVendor:
		// Vendor records are already plan-shaped and skip normalization.
		listed, err := j.vendor.ListPackages(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeVendorListing, err, "list vendor packages")
		}
		if listed == nil {
			listed = []plans.Plan{}
		}
		return listed, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unsupported plan source %q", source))
}
