package slack

import (
	"context"
	"sync"

	"github.com/letsmultiply/pulse/pkg/models/domain"
	"github.com/rs/zerolog"
	slackapi "github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"
)

// Poster is the slice of the Slack API the dispatcher needs.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Dispatcher sends a rendered message to each destination channel
// independently; one channel's failure never blocks the others.
type Dispatcher struct {
	api Poster
}

func NewDispatcher(botToken string) *Dispatcher {
	return &Dispatcher{api: slackapi.New(botToken)}
}

// NewDispatcherWithClient injects a Poster, primarily for tests.
func NewDispatcherWithClient(api Poster) *Dispatcher {
	return &Dispatcher{api: api}
}

// Dispatch fans the message out to every channel and collects a per-channel
// outcome. The overall dispatch succeeds when at least one channel does.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.Message, channels []string) domain.DispatchOutcome {
	logger := zerolog.Ctx(ctx)
	blocks := toBlocks(msg)

	var mu sync.Mutex
	var outcome domain.DispatchOutcome
	var g errgroup.Group

	for _, channel := range channels {
		channel := channel
		g.Go(func() error {
			_, _, err := d.api.PostMessageContext(ctx, channel,
				slackapi.MsgOptionText(msg.FallbackText, false),
				slackapi.MsgOptionBlocks(blocks...),
			)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error().Err(err).Str("channel", channel).Msg("slack delivery failed")
				outcome.Failed = append(outcome.Failed, domain.DeliveryFailure{Channel: channel, Err: err.Error()})
			} else {
				outcome.Successful = append(outcome.Successful, channel)
			}
			return nil
		})
	}
	// Failures are collected in the outcome, never returned.
	_ = g.Wait()

	return outcome
}

func toBlocks(msg domain.Message) []slackapi.Block {
	blocks := make([]slackapi.Block, 0, len(msg.Blocks))
	for _, b := range msg.Blocks {
		switch b.Type {
		case domain.BlockHeader:
			blocks = append(blocks, slackapi.NewHeaderBlock(
				slackapi.NewTextBlockObject(slackapi.PlainTextType, b.Text, true, false)))
		case domain.BlockDivider:
			blocks = append(blocks, slackapi.NewDividerBlock())
		default:
			blocks = append(blocks, slackapi.NewSectionBlock(
				slackapi.NewTextBlockObject(slackapi.MarkdownType, b.Text, false, false), nil, nil))
		}
	}
	return blocks
}
