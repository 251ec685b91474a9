package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coinforge/internal/domain"
	"coinforge/internal/pipeline"
	"coinforge/internal/tracker"
)

type startGenerationRequest struct {
	WalletAddress string `json:"walletAddress"`
	UserInputs    struct {
		CoinName           string `json:"coinName"`
		ColorPalette       string `json:"colorPalette"`
		ProjectDescription string `json:"projectDescription"`
	} `json:"userInputs"`
}

// StartGeneration debits one credit, creates a tracker entry and launches the
// pipeline detached from the request. Validation happens before the debit;
// any failure after the debit is compensated with a refund.
func (a *App) StartGeneration(w http.ResponseWriter, r *http.Request) {
	var req startGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	address := strings.TrimSpace(req.WalletAddress)
	if address == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress is required")
		return
	}
	inputs := pipeline.Inputs{
		CoinName:           req.UserInputs.CoinName,
		ColorPalette:       req.UserInputs.ColorPalette,
		ProjectDescription: req.UserInputs.ProjectDescription,
	}
	if err := inputs.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if _, err := a.Accounts.GetByAddress(r.Context(), address); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "unknown_account", "account not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}

	ok, err := a.Accounts.DebitCredits(r.Context(), address, jobCost)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to debit credits")
		return
	}
	if !ok {
		a.error(w, http.StatusBadRequest, "insufficient_credits", "not enough credits to start a job")
		return
	}

	jobID := a.Jobs.Create()
	go a.runJob(jobID, inputs, address)

	a.json(w, http.StatusAccepted, map[string]any{"jobId": jobID})
}

// runJob executes the pipeline outside the request/response cycle. Panics
// are captured here so a misbehaving provider cannot take down the process,
// and every failure path refunds the debited credit.
func (a *App) runJob(jobID string, inputs pipeline.Inputs, address string) {
	ctx := context.Background()
	defer func() {
		if rec := recover(); rec != nil {
			a.Logger.Error().
				Str("job_id", jobID).
				Interface("panic", rec).
				Msg("generation: pipeline panicked")
			if err := a.Jobs.Fail(jobID); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
				a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("generation: fail transition rejected")
			}
			a.refund(ctx, jobID, address)
		}
	}()
	if err := a.Pipeline.Run(ctx, jobID, inputs, address); err != nil {
		a.refund(ctx, jobID, address)
	}
}

func (a *App) refund(ctx context.Context, jobID, address string) {
	if err := a.Accounts.RefundCredits(ctx, address, jobCost); err != nil {
		a.Logger.Error().Err(err).
			Str("job_id", jobID).
			Str("wallet", address).
			Msg("generation: refund failed")
	}
}

// Progress reports job status and percent complete.
func (a *App) Progress(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("jobId"))
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "jobId is required")
		return
	}
	snap, err := a.Jobs.Get(jobID)
	if err != nil {
		a.error(w, http.StatusBadRequest, "unknown_job", "job not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":  snap.Status,
		"percent": snap.Percent,
	})
}

// Result returns the finished artifact for a done job.
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("jobId"))
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "jobId is required")
		return
	}
	snap, err := a.Jobs.Get(jobID)
	if err != nil {
		a.error(w, http.StatusBadRequest, "unknown_job", "job not found")
		return
	}
	if snap.Status != tracker.StatusDone {
		a.error(w, http.StatusBadRequest, "not_ready", fmt.Sprintf("job is %s", snap.Status))
		return
	}
	a.json(w, http.StatusOK, map[string]any{"artifact": snap.Artifact})
}

// Export streams the artifact as a downloadable HTML document. Format "raw"
// is the artifact verbatim; "templated" guarantees a full document shell for
// model output that omitted the boilerplate.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("jobId"))
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "jobId is required")
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "raw"
	}
	if format != "raw" && format != "templated" {
		a.error(w, http.StatusBadRequest, "bad_request", "format must be raw or templated")
		return
	}
	snap, err := a.Jobs.Get(jobID)
	if err != nil {
		a.error(w, http.StatusBadRequest, "unknown_job", "job not found")
		return
	}
	if snap.Status != tracker.StatusDone {
		a.error(w, http.StatusBadRequest, "not_ready", fmt.Sprintf("job is %s", snap.Status))
		return
	}
	doc := snap.Artifact
	if format == "templated" {
		doc = wrapTemplated(doc)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=site-%s.html", jobID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// wrapTemplated wraps a bare fragment in a standard document shell. Documents
// that already declare a doctype pass through unchanged.
func wrapTemplated(doc string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(doc)), "<!doctype") {
		return doc
	}
	return "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n</head>\n<body>\n" +
		doc +
		"\n</body>\n</html>\n"
}
