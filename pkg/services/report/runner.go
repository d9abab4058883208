package report

import (
	"context"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Dispatcher delivers a rendered message to destination channels, isolating
// per-channel failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg domain.Message, channels []string) domain.DispatchOutcome
}

// Runner is the report-run entry point shared by the HTTP trigger, the
// scheduler and the one-shot CLI.
type Runner struct {
	assembler  *Assembler
	dispatcher Dispatcher
	channels   []string
}

func NewRunner(assembler *Assembler, dispatcher Dispatcher, channels []string) *Runner {
	return &Runner{
		assembler:  assembler,
		dispatcher: dispatcher,
		channels:   channels,
	}
}

// Run builds and delivers one report. The run fails only when no metrics
// could be produced or when every destination channel rejected delivery.
func (r *Runner) Run(ctx context.Context) domain.RunResult {
	logger := zerolog.Ctx(ctx)

	rep, err := r.assembler.BuildReport(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("report generation failed")
		return domain.RunResult{Success: false, Err: err.Error()}
	}

	outcome := r.dispatcher.Dispatch(ctx, rep.Message, r.channels)
	if !outcome.Success() {
		logger.Error().Int("channels", len(r.channels)).Msg("delivery failed on every channel")
		return domain.RunResult{
			Success:  false,
			Report:   rep,
			Dispatch: outcome,
			Err:      "delivery failed on every channel",
		}
	}

	if len(outcome.Failed) > 0 {
		logger.Warn().
			Int("delivered", len(outcome.Successful)).
			Int("failed", len(outcome.Failed)).
			Msg("partial delivery")
	}

	return domain.RunResult{Success: true, Report: rep, Dispatch: outcome}
}
