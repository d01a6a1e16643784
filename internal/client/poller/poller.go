// Package poller watches non-terminal document jobs. While any job is pending
// or processing it fetches each one's status on a fixed interval, feeds the
// result back to the listing and asks for a full refresh once a job finishes.
// It stops by itself when nothing is left to watch.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = 3 * time.Second

// JobSource is read at every tick, so the poller always works on the current
// set of jobs.
type JobSource interface {
	NonTerminal() []models.Document
	UpdateStatus(st models.ProcessingStatus) bool
}

type StatusFetcher interface {
	FetchStatus(ctx context.Context, id int64) (*models.ProcessingStatus, error)
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type Poller struct {
	source    JobSource
	fetcher   StatusFetcher
	refresher Refresher
	interval  time.Duration
	log       logging.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopping int
	failures int
}

func New(source JobSource, fetcher StatusFetcher, refresher Refresher, interval time.Duration, log logging.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:    source,
		fetcher:   fetcher,
		refresher: refresher,
		interval:  interval,
		log:       log.With("component", "poller"),
	}
}

// Ensure starts the loop if there is something to watch and it is not
// already running. It reports whether a loop is running afterwards. While a
// Stop is in progress it does nothing, so a tick that is still finishing
// cannot restart the loop it belongs to.
func (p *Poller) Ensure(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopping > 0 {
		return false
	}
	if p.done != nil {
		select {
		case <-p.done:
			p.done, p.cancel = nil, nil
		default:
			return true
		}
	}
	if len(p.source.NonTerminal()) == 0 {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		p.run(ctx)
	}()
	p.log.Debug(ctx, "poller started", "interval", p.interval)
	return true
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	if cancel == nil {
		p.mu.Unlock()
		return
	}
	p.stopping++
	p.mu.Unlock()

	cancel()
	<-done

	p.mu.Lock()
	p.stopping--
	if p.done == done {
		p.cancel, p.done = nil, nil
	}
	p.mu.Unlock()
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Failures is the number of status fetches that failed since the poller was
// created.
func (p *Poller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !p.tick(ctx) {
				p.log.Debug(ctx, "poller stopped, no active jobs")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// tick polls every job that was non-terminal when it started, in order. At
// most one refresh is requested, after the last job. It returns false when
// there is nothing left to watch.
func (p *Poller) tick(ctx context.Context) bool {
	jobs := p.source.NonTerminal()
	if len(jobs) == 0 {
		return false
	}

	refresh := false
	for _, job := range jobs {
		if ctx.Err() != nil {
			return false
		}
		st, err := p.fetcher.FetchStatus(ctx, job.ID)
		if err != nil {
			p.mu.Lock()
			p.failures++
			n := p.failures
			p.mu.Unlock()
			p.log.Warn(ctx, "status fetch failed", "document_id", job.ID, "failures", n, "error", err)
			continue
		}
		p.source.UpdateStatus(*st)
		if st.Status.Terminal() {
			refresh = true
		}
	}

	if refresh {
		if err := p.refresher.Refresh(ctx); err != nil {
			p.log.Warn(ctx, "refresh after status change failed", "error", err)
		}
	}
	return len(p.source.NonTerminal()) > 0
}
