/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package pipeline runs the two-phase analysis of a CBC sample: an immediate
// local classification, then a single augmentation attempt that settles on
// model guidance or canned fallback content. The settled result is published
// before it is appended to the archive.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/humaidq/hemoscan/archive"
	"github.com/humaidq/hemoscan/augment"
	"github.com/humaidq/hemoscan/cbc"
	"github.com/humaidq/hemoscan/logging"
)

// Config configures a Pipeline. Zero fields take defaults: the built-in
// reference table, a disabled augmenter, an in-memory archive, time.Now and
// random UUIDs.
type Config struct {
	Engine    *cbc.Engine
	Augmenter augment.Augmenter
	Archive   archive.Archive
	Logger    *log.Logger
	Now       func() time.Time
	NewID     func() string
}

// Pipeline runs analyses. Each analysis is an independent state machine; the
// archive append is the only step serialized across analyses.
type Pipeline struct {
	engine    *cbc.Engine
	augmenter augment.Augmenter
	archive   archive.Archive
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	archiveMu sync.Mutex
	inflight  sync.WaitGroup
}

// New returns a pipeline for cfg.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		engine:    cfg.Engine,
		augmenter: cfg.Augmenter,
		archive:   cfg.Archive,
		logger:    cfg.Logger,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if p.engine == nil {
		p.engine = cbc.DefaultEngine()
	}
	if p.augmenter == nil {
		p.augmenter = augment.Disabled{}
	}
	if p.archive == nil {
		p.archive = archive.NewMemory()
	}
	if p.logger == nil {
		p.logger = logging.Logger(logging.SourcePipeline)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// Archive returns the archive settled analyses are appended to.
func (p *Pipeline) Archive() archive.Archive {
	return p.archive
}

// Engine returns the rule engine.
func (p *Pipeline) Engine() *cbc.Engine {
	return p.engine
}

// Observer receives every update of an analysis, in order. Observers run on
// the pipeline's goroutines and must not block for long. A panicking observer
// is logged and skipped.
type Observer func(Update)

// Update is a published transition. Result carries guidance and a diet plan
// only in terminal states.
//
// After the terminal update one more update with Archived set follows, with
// the same state and result. Record or ArchiveErr carry the outcome of the
// archive append.
type Update struct {
	RequestID  string
	State      State
	Sample     cbc.Sample
	Result     augment.Result
	Archived   bool
	Record     *archive.Record
	ArchiveErr error
}

func (u Update) clone() Update {
	u.Result = u.Result.Clone()
	if u.Record != nil {
		rec := *u.Record
		rec.Result = rec.Result.Clone()
		u.Record = &rec
	}
	return u
}

// Analysis is a running analysis.
type Analysis struct {
	id        string
	sample    cbc.Sample
	local     augment.Result
	observers []Observer
	logger    *log.Logger

	updates chan Update
	settled chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	state   State
	outcome Update
}

// ID returns the request ID, which is also the archived record ID.
func (a *Analysis) ID() string { return a.id }

// Sample returns the validated sample.
func (a *Analysis) Sample() cbc.Sample { return a.sample }

// Local returns the locally computed result, without guidance.
func (a *Analysis) Local() augment.Result { return a.local.Clone() }

// State returns the current state.
func (a *Analysis) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Updates delivers LocalReady, the terminal update and the archive update,
// and is closed after the archive update.
func (a *Analysis) Updates() <-chan Update { return a.updates }

// Settled is closed once the terminal result has been published.
func (a *Analysis) Settled() <-chan struct{} { return a.settled }

// Done is closed once the settled result has been archived, or the archive
// append has failed.
func (a *Analysis) Done() <-chan struct{} { return a.done }

// Wait blocks until the analysis settles or ctx is done. It does not wait for
// the archive append; Record and ArchiveErr are set only if that has already
// finished. Giving up on a wait does not stop the analysis.
func (a *Analysis) Wait(ctx context.Context) (Update, error) {
	return a.waitFor(ctx, a.settled)
}

// WaitArchived is Wait, but also waits for the archive append.
func (a *Analysis) WaitArchived(ctx context.Context) (Update, error) {
	return a.waitFor(ctx, a.done)
}

func (a *Analysis) waitFor(ctx context.Context, ch <-chan struct{}) (Update, error) {
	select {
	case <-ch:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.outcome.clone(), nil
	case <-ctx.Done():
		return Update{}, ctx.Err()
	}
}

func (a *Analysis) publish(u Update) {
	a.mu.Lock()
	a.state = u.State
	if u.State.Terminal() {
		a.outcome = u
	}
	a.mu.Unlock()

	for _, obs := range a.observers {
		a.notify(obs, u)
	}

	// Buffered for exactly the three published updates.
	a.updates <- u.clone()

	switch {
	case u.Archived:
		close(a.updates)
		close(a.done)
	case u.State.Terminal():
		close(a.settled)
	}
}

func (a *Analysis) notify(obs Observer, u Update) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Observer panicked", "request_id", a.id, "state", u.State, "panic", r)
		}
	}()
	obs(u.clone())
}

// Start validates in, classifies it and publishes LocalReady before the
// augmentation attempt is issued. A validation error is returned without any
// transition. ctx bounds the augmentation attempt; cancelling it settles the
// analysis on fallback content.
func (p *Pipeline) Start(ctx context.Context, in cbc.Input, observers ...Observer) (*Analysis, error) {
	sample, err := in.Validate()
	if err != nil {
		observeInvalid()
		return nil, err
	}
	return p.StartSample(ctx, sample, observers...)
}

// StartSample is Start for an already validated sample.
func (p *Pipeline) StartSample(ctx context.Context, sample cbc.Sample, observers ...Observer) (*Analysis, error) {
	diagnosis, err := p.engine.Classify(sample)
	if err != nil {
		observeInvalid()
		return nil, err
	}

	a := &Analysis{
		id:        p.newID(),
		sample:    sample,
		local:     augment.Local(diagnosis),
		observers: observers,
		logger:    p.logger,
		updates:   make(chan Update, 3),
		settled:   make(chan struct{}),
		done:      make(chan struct{}),
		state:     StatePending,
	}

	p.logger.Debug("Local result ready",
		"request_id", a.id,
		"severity", diagnosis.Severity,
		"risk", diagnosis.RiskLevel,
		"morphology", diagnosis.MorphologyType,
	)

	a.publish(Update{
		RequestID: a.id,
		State:     StateLocalReady,
		Sample:    sample,
		Result:    a.local.Clone(),
	})

	p.inflight.Add(1)
	go p.settle(ctx, a)

	return a, nil
}

// Run starts an analysis and blocks until it settles, then until it is
// archived or ctx is done. The settle wait is bounded by the augmenter's own
// timeout, so a cancelled ctx still yields a settled fallback result; it is
// returned without the archive outcome.
func (p *Pipeline) Run(ctx context.Context, in cbc.Input, observers ...Observer) (Update, error) {
	a, err := p.Start(ctx, in, observers...)
	if err != nil {
		return Update{}, err
	}
	<-a.Settled()
	if out, err := a.WaitArchived(ctx); err == nil {
		return out, nil
	}
	return a.Wait(context.Background())
}

// Drain waits for every in-flight analysis to settle and be archived, or for
// ctx.
func (p *Pipeline) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) settle(ctx context.Context, a *Analysis) {
	defer p.inflight.Done()

	started := time.Now()
	diagnosis := a.local.Diagnosis

	var (
		result augment.Result
		state  State
	)

	guidance, err := p.attempt(ctx, a.sample, diagnosis)
	if err != nil {
		p.logger.Warn("Augmentation failed, using fallback guidance",
			"request_id", a.id,
			"severity", diagnosis.Severity,
			"error", err,
		)
		result = a.local.Merge(augment.Fallback(diagnosis.Severity), augment.SourceFallback)
		state = StateFallback
	} else {
		result = a.local.Merge(guidance, augment.SourceModel)
		state = StateAugmented
	}

	observeSettled(state, time.Since(started))

	p.logger.Debug("Analysis settled", "request_id", a.id, "state", state)

	a.publish(Update{
		RequestID: a.id,
		State:     state,
		Sample:    a.sample,
		Result:    result.Clone(),
	})

	// The record outlives the request that asked for it.
	record, archiveErr := p.store(context.WithoutCancel(ctx), a, result)

	a.publish(Update{
		RequestID:  a.id,
		State:      state,
		Sample:     a.sample,
		Result:     result,
		Archived:   true,
		Record:     record,
		ArchiveErr: archiveErr,
	})
}

// attempt makes the single augmentation call. Panics and malformed payloads
// are failures like any other.
func (p *Pipeline) attempt(ctx context.Context, sample cbc.Sample, diagnosis cbc.Diagnosis) (g augment.Guidance, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = augment.Guidance{}
			err = fmt.Errorf("%w: augmenter panicked: %v", augment.ErrUnavailable, r)
		}
	}()

	g, err = p.augmenter.Augment(ctx, sample, diagnosis.Clone())
	if err != nil {
		return augment.Guidance{}, err
	}
	if err := g.Validate(); err != nil {
		return augment.Guidance{}, err
	}
	return g, nil
}

// store stamps and appends the record while holding the archive lock, so the
// archive order matches completion order.
func (p *Pipeline) store(ctx context.Context, a *Analysis, result augment.Result) (*archive.Record, error) {
	p.archiveMu.Lock()
	defer p.archiveMu.Unlock()

	rec := archive.Record{
		ID:        a.id,
		CreatedAt: p.now().UTC(),
		Sample:    a.sample,
		Result:    result.Clone(),
	}

	if err := p.archive.Append(ctx, rec); err != nil {
		archiveFailuresTotal.Inc()
		p.logger.Warn("Failed to archive report", "request_id", a.id, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	return &rec, nil
}
