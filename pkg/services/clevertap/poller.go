package clevertap

import (
	"context"
	"time"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// errMaxAttempts is the terminal error when a job never leaves pending.
const errMaxAttempts = "Max polling attempts reached"

// SubmitFunc performs the initial count request.
type SubmitFunc func(ctx context.Context) (countReply, error)

// PollFunc checks on a pending count job by request id.
type PollFunc func(ctx context.Context, reqID string) (countReply, error)

// PollUntilDone drives one asynchronous count job to a terminal state. The
// submit reply is honored immediately when already terminal; otherwise the
// job is polled every interval until success, failure, or maxAttempts
// pending responses. The attempt bound guarantees termination even when the
// remote job never finishes.
func PollUntilDone(ctx context.Context, submit SubmitFunc, poll PollFunc, maxAttempts int, interval time.Duration) domain.CountResult {
	logger := zerolog.Ctx(ctx)

	reply, err := submit(ctx)
	if err != nil {
		return failResult(err.Error())
	}

	switch reply.status() {
	case domain.CountSuccess:
		return domain.CountResult{Status: domain.CountSuccess, Count: reply.Count}
	case domain.CountFail:
		return failResult(jobError(reply))
	}

	reqID := reply.ReqID.String()
	if reqID == "" {
		return failResult("no request id in pending response")
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return failResult(ctx.Err().Error())
		case <-time.After(interval):
		}

		reply, err = poll(ctx, reqID)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("req_id", reqID).Msg("polling attempt failed")
			return failResult(err.Error())
		}

		switch reply.status() {
		case domain.CountSuccess:
			return domain.CountResult{Status: domain.CountSuccess, Count: reply.Count}
		case domain.CountFail:
			return failResult(jobError(reply))
		}
	}

	return failResult(errMaxAttempts)
}

func jobError(reply countReply) string {
	if reply.Error != "" {
		return "job failed: " + reply.Error
	}
	return "job failed: unknown error"
}

func failResult(msg string) domain.CountResult {
	return domain.CountResult{Status: domain.CountFail, Err: msg}
}
