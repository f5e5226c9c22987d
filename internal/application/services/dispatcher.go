package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/config"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/infrastructure/metrics"
	"github.com/socialdesk/core/internal/ports"
)

// Dispatcher sends due scheduled posts to their channels and reports the
// outcome back through the post workflow.
type Dispatcher struct {
	posts       ports.PostService
	channels    ports.ChannelService
	platform Platform
	cfg      config.DispatcherConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
	clock    func() time.Time
}

// NewDispatcher creates a dispatcher
func NewDispatcher(
	posts ports.PostService,
	channels ports.ChannelService,
	platform Platform,
	cfg config.DispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Dispatcher{
		posts:    posts,
		channels: channels,
		platform: platform,
		cfg:      cfg,
		logger:   logger.WithComponent("dispatcher"),
		metrics:  metrics,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Run dispatches due posts every interval until ctx is done
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	d.logger.Infow("Dispatcher started", "interval", d.cfg.Interval)
	for {
		select {
		case <-ticker.C:
			d.DispatchDue(ctx)
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopped")
			return
		}
	}
}

// DispatchDue sends every post due now and returns how many were marked
// sent and failed.
func (d *Dispatcher) DispatchDue(ctx context.Context) (sent, failed int) {
	due, err := d.posts.DuePosts(ctx, d.clock())
	if err != nil {
		d.logger.WithError(err).Error("Failed to list due posts")
		return 0, 0
	}

	p := pool.NewWithResults[bool]().WithMaxGoroutines(d.cfg.Workers)
	for _, post := range due {
		post := post
		p.Go(func() bool {
			if ctx.Err() != nil {
				return false
			}
			return d.dispatch(ctx, post)
		})
	}

	for _, ok := range p.Wait() {
		if ok {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}

// dispatch delivers post to every target channel. Any undeliverable
// channel fails the whole post.
func (d *Dispatcher) dispatch(ctx context.Context, post entities.Post) bool {
	platformIDs := make(map[string]string, len(post.ChannelIDs))
	var problems *multierror.Error

	out, err := prepare(post, d.cfg.MediaDir)
	switch {
	case err != nil:
		problems = multierror.Append(problems, err)
	case d.platform.Client == nil:
		problems = multierror.Append(problems, ports.ErrNoPlatform)
	default:
		problems = d.deliver(ctx, post, out, platformIDs)
	}

	log := d.logger.WithFields("post_id", post.ID)
	if problems.ErrorOrNil() != nil {
		problems.ErrorFormat = joinErrors
		reason := problems.Error()
		if _, err := d.posts.MarkFailed(ctx, post.ID, reason); err != nil {
			log.WithError(err).Warn("Failed to mark post failed")
		}
		log.Warnw("Post dispatch failed", "reason", reason)
		return false
	}

	if _, err := d.posts.MarkSent(ctx, post.ID, platformIDs); err != nil {
		log.WithError(err).Warn("Failed to mark post sent")
		return false
	}
	log.Infow("Post dispatched", "channels", len(platformIDs))
	return true
}

// deliver sends out to every target channel, recording remote ids in
// platformIDs.
func (d *Dispatcher) deliver(ctx context.Context, post entities.Post, out outgoing, platformIDs map[string]string) *multierror.Error {
	var problems *multierror.Error
	for _, channelID := range post.ChannelIDs {
		channel, err := d.channels.GetChannel(ctx, channelID)
		if err != nil {
			problems = multierror.Append(problems, fmt.Errorf("%s: %s", channelID, UnknownChannelLabel))
			continue
		}
		if !channel.Connected {
			problems = multierror.Append(problems, fmt.Errorf("%s: channel disconnected", channel.Name))
			continue
		}

		remoteID, err := d.send(ctx, post, out, channel)
		if err != nil {
			problems = multierror.Append(problems, fmt.Errorf("%s: %w", channel.Name, err))
			continue
		}
		platformIDs[channelID] = remoteID
	}
	return problems
}

// send publishes to one channel, retrying retryable failures with
// exponential backoff.
func (d *Dispatcher) send(ctx context.Context, post entities.Post, out outgoing, channel entities.Channel) (string, error) {
	creds := d.platform.credentials(channel)

	backoff := d.cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		id, err := d.attempt(ctx, creds, post, out)
		d.metrics.ObserveDispatch(string(channel.Platform), err)
		if err == nil {
			return id, nil
		}
		lastErr = err

		var perr *ports.PlatformError
		if errors.As(err, &perr) && !perr.Retryable {
			return "", err
		}
		if attempt == d.cfg.MaxAttempts {
			break
		}

		d.logger.Debugw("Retrying platform send",
			"post_id", post.ID,
			"channel_id", channel.ID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		backoff *= 2
	}
	return "", lastErr
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

// attempt makes one platform call. Video uploads go out as reels and
// publish immediately.
func (d *Dispatcher) attempt(ctx context.Context, creds ports.ChannelCredentials, post entities.Post, out outgoing) (string, error) {
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}
	if out.video {
		return d.platform.Client.ScheduleReel(ctx, ports.ReelRequest{
			Channel:     creds,
			Description: out.message,
			Video:       *out.upload,
		})
	}
	return d.platform.Client.SchedulePost(ctx, ports.PublishRequest{
		Channel:       creds,
		Message:       out.message,
		ScheduledTime: post.ScheduledFor,
		Media:         out.upload,
	})
}
