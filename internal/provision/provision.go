// Package provision implements idempotent find-or-create for every entity
// type as one state machine driven by an entity descriptor.
//
// A run checks for the entity by natural key, creates it when absent, and,
// when the store reports that the natural key was taken concurrently,
// re-reads it exactly once. No lock is held between check and create: the
// store's unique index is the only synchronization point, so concurrent runs
// for the same key converge on one row.
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/repository"
	"github.com/blackwell-systems/forge-provisioner/internal/resolver"
	"github.com/blackwell-systems/forge-provisioner/internal/store"
	"github.com/blackwell-systems/forge-provisioner/internal/telemetry"
)

// Descriptor describes one entity to find or create. Dependencies are
// resolved before a descriptor is built.
type Descriptor struct {
	Kind model.Kind
	// Key is the natural key, as understood by resolver.Resolve.
	Key string
	// NaturalKey is the store constraint that guards Key.
	NaturalKey string
	// Create persists the entity, including any sub-entities that must exist
	// with it.
	Create func(ctx context.Context) (model.Entity, error)
	// AfterCreate runs only after a successful Create. Its error is logged
	// and otherwise ignored.
	AfterCreate func(ctx context.Context, e model.Entity) error
}

// Settings are the invocation-wide parameters of the provisioner.
type Settings struct {
	// AdminUsername is the user that creates projects and owns the lazily
	// created default organization.
	AdminUsername  string
	DefaultOrgName string
	DefaultOrgPath string
}

type Provisioner struct {
	store    store.Store
	resolve  *resolver.Resolver
	repos    repository.Service
	log      zerolog.Logger
	tracer   trace.Tracer
	settings Settings
	now      func() time.Time

	defaultOrg *model.Organization
}

// New returns a Provisioner. repos may be nil, in which case projects get no
// on-disk repository.
func New(s store.Store, repos repository.Service, log zerolog.Logger, settings Settings) *Provisioner {
	return &Provisioner{
		store:    s,
		resolve:  resolver.New(s),
		repos:    repos,
		log:      log,
		tracer:   telemetry.Tracer(),
		settings: settings,
		now:      time.Now,
	}
}

// Run drives d to a terminal outcome.
func (p *Provisioner) Run(ctx context.Context, d Descriptor) outcome.Outcome {
	ctx, span := p.tracer.Start(ctx, "provision."+string(d.Kind), trace.WithAttributes(
		attribute.String("entity.kind", string(d.Kind)),
		attribute.String("entity.key", d.Key),
	))
	defer span.End()

	log := p.log.With().Str("kind", string(d.Kind)).Str("key", d.Key).Logger()
	o := p.run(ctx, d, log)

	span.SetAttributes(attribute.String("provision.state", o.State.String()))
	if o.Err != nil {
		span.SetStatus(codes.Error, o.Err.Message)
		log.Error().Str("error_kind", o.Err.Kind.String()).Msg(o.Err.Message)
		return o
	}
	span.SetAttributes(attribute.Int64("entity.id", o.ID))
	log.Info().Int64("id", o.ID).Str("state", o.State.String()).Msg("provisioned")
	return o
}

func (p *Provisioner) run(ctx context.Context, d Descriptor, log zerolog.Logger) outcome.Outcome {
	existing, err := p.resolve.Resolve(ctx, d.Kind, d.Key)
	if err == nil {
		return outcome.Success(existing.EntityID(), outcome.AlreadyExists)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return outcome.Failure(outcome.Classify(err))
	}

	created, err := d.Create(ctx)
	if err == nil {
		if d.AfterCreate != nil {
			if aerr := d.AfterCreate(ctx, created); aerr != nil {
				log.Warn().Err(aerr).Int64("id", created.EntityID()).Msg("post-create step failed")
			}
		}
		return outcome.Success(created.EntityID(), outcome.Created)
	}

	var uv *store.UniqueViolation
	if errors.As(err, &uv) {
		if uv.Constraint != d.NaturalKey {
			return outcome.Failure(outcome.Invalid([]string{uv.Error()}, err))
		}
		log.Debug().Msg("natural key taken concurrently, re-reading")
		return p.reconcile(ctx, d, err)
	}

	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return outcome.Failure(outcome.Invalid(ve.Messages, err))
	}
	return outcome.Failure(outcome.Classify(err))
}

// reconcile re-reads the entity after a lost creation race.
func (p *Provisioner) reconcile(ctx context.Context, d Descriptor, conflict error) outcome.Outcome {
	existing, err := p.resolve.Resolve(ctx, d.Kind, d.Key)
	switch {
	case err == nil:
		return outcome.Success(existing.EntityID(), outcome.ConflictReconciled)
	case errors.Is(err, store.ErrNotFound):
		return outcome.Failure(&outcome.Error{
			Kind:    outcome.ReconciliationFailed,
			Message: fmt.Sprintf("%s '%s' was reported as taken but could not be found", d.Kind, d.Key),
			Err:     conflict,
		})
	default:
		return outcome.Failure(outcome.Classify(err))
	}
}
