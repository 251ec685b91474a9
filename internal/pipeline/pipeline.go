// Package pipeline drives a single generation job from intake to completion:
// prompt assembly, provider calls, slot substitution and persistence of the
// finished document.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coinforge/internal/domain"
	"coinforge/internal/infra"
	"coinforge/internal/providers/image"
	"coinforge/internal/providers/text"
	"coinforge/internal/tracker"
)

// Checkpoint schedule. Percentages are a coarse heartbeat tied to pipeline
// stages, not a measure of elapsed work; polling clients only rely on
// monotonic forward motion.
const (
	checkpointValidated = 10
	checkpointComposed  = 20
	checkpointSlots     = 40
	checkpointImageBase = 50
	checkpointImageStep = 10
	checkpointMerged    = 80
	checkpointFinalized = 90
)

const defaultCallTimeout = 90 * time.Second

// Pipeline turns branding inputs into a finished single-document artifact.
type Pipeline struct {
	texts    text.Generator
	images   image.Generator
	jobs     *tracker.Tracker
	accounts domain.AccountRepository
	logger   infra.Logger

	slots       []Slot
	callTimeout time.Duration
}

type Options struct {
	Texts    text.Generator
	Images   image.Generator
	Jobs     *tracker.Tracker
	Accounts domain.AccountRepository
	Logger   infra.Logger

	// Slots overrides the default slot set; used by tests.
	Slots []Slot
	// CallTimeout bounds each external provider call.
	CallTimeout time.Duration
}

func New(opts Options) *Pipeline {
	slots := opts.Slots
	if len(slots) == 0 {
		slots = defaultSlots
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Pipeline{
		texts:       opts.Texts,
		images:      opts.Images,
		jobs:        opts.Jobs,
		accounts:    opts.Accounts,
		logger:      opts.Logger,
		slots:       slots,
		callTimeout: timeout,
	}
}

// Run executes the whole pipeline for one job and reports the terminal state
// through the tracker. The returned error mirrors a failed job so the caller
// can apply its compensating action (credit refund); image failures are
// absorbed with a placeholder and never surface here.
func (p *Pipeline) Run(ctx context.Context, jobID string, in Inputs, walletAddress string) error {
	if err := in.Validate(); err != nil {
		p.failJob(jobID, "validate inputs", err)
		return fmt.Errorf("validate inputs: %w", err)
	}
	p.progress(jobID, checkpointValidated)

	p.progress(jobID, checkpointComposed)
	doc, err := p.generateDocument(ctx, in)
	if err != nil {
		p.failJob(jobID, "generate document", err)
		return fmt.Errorf("generate document: %w", err)
	}

	p.progress(jobID, checkpointSlots)
	uris := p.generateSlotAssets(ctx, jobID, in)

	p.progress(jobID, checkpointMerged)
	for _, slot := range p.slots {
		doc = strings.ReplaceAll(doc, slot.Token, uris[slot.Token])
	}

	p.progress(jobID, checkpointFinalized)
	doc = strings.TrimSpace(doc)

	if err := p.jobs.Complete(jobID, doc); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	p.persistHistory(ctx, jobID, walletAddress, doc)
	p.logger.Info().Str("job_id", jobID).Int("bytes", len(doc)).Msg("pipeline: job done")
	return nil
}

func (p *Pipeline) generateDocument(ctx context.Context, in Inputs) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	raw, err := p.texts.Generate(callCtx, buildPagePrompt(in, p.slots))
	if err != nil {
		return "", err
	}
	doc := stripCodeFences(raw)
	if doc == "" {
		return "", fmt.Errorf("%w: blank document", domain.ErrProviderFailure)
	}
	return doc, nil
}

// generateSlotAssets produces one inline data URI per slot, sequentially. A
// failed slot gets the fixed placeholder; image failures never abort the job.
func (p *Pipeline) generateSlotAssets(ctx context.Context, jobID string, in Inputs) map[string]string {
	uris := make(map[string]string, len(p.slots))
	for i, slot := range p.slots {
		p.progress(jobID, checkpointImageBase+i*checkpointImageStep)
		uris[slot.Token] = p.generateSlotAsset(ctx, jobID, slot, in)
	}
	return uris
}

func (p *Pipeline) generateSlotAsset(ctx context.Context, jobID string, slot Slot, in Inputs) string {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	asset, err := p.images.Generate(callCtx, image.Request{
		Prompt:    buildSlotPrompt(slot, in),
		Width:     slot.Width,
		Height:    slot.Height,
		RequestID: jobID,
	})
	if err != nil {
		p.logger.Warn().Err(err).
			Str("job_id", jobID).
			Str("slot", slot.Name).
			Msg("pipeline: image slot failed, using placeholder")
		return image.PlaceholderDataURI()
	}
	return asset.DataURI()
}

// persistHistory appends the redacted document to the account's generated
// file history. The tracker already serves the full artifact, so a failed
// append is logged as a reconciliation concern rather than failing the job.
func (p *Pipeline) persistHistory(ctx context.Context, jobID, walletAddress, doc string) {
	file := domain.GeneratedFile{
		JobID:     jobID,
		Content:   redactInlineImages(doc),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.accounts.AppendGeneratedFile(ctx, walletAddress, file); err != nil {
		p.logger.Error().Err(err).
			Str("job_id", jobID).
			Str("wallet", walletAddress).
			Msg("pipeline: history append failed, artifact only in tracker")
	}
}

func (p *Pipeline) progress(jobID string, percent int) {
	if err := p.jobs.SetProgress(jobID, percent); err != nil {
		p.logger.Warn().Err(err).Str("job_id", jobID).Msg("pipeline: progress update failed")
	}
}

func (p *Pipeline) failJob(jobID, stage string, err error) {
	p.logger.Error().Err(err).Str("job_id", jobID).Str("stage", stage).Msg("pipeline: job failed")
	if failErr := p.jobs.Fail(jobID); failErr != nil {
		p.logger.Warn().Err(failErr).Str("job_id", jobID).Msg("pipeline: fail transition rejected")
	}
}
