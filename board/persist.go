package board

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"servex-board/client"
)

type persistJob struct {
	name   string
	method string
	path   string
	body   any
	revert func()
}

// persister carries best-effort writes to the API off the event loop. A full
// buffer falls back to a bounded handoff wait and then to running the job
// inline, so a write is never dropped before it was attempted. Failures are
// logged; job.revert, when set, undoes the optimistic local mutation.
type persister struct {
	api     *client.Client
	log     *log.Logger
	jobs    chan persistJob
	timeout time.Duration
	handoff time.Duration
	wg      sync.WaitGroup
}

// newPersister starts the worker pool. workers < 0 disables the pool and
// makes every submit run inline.
func newPersister(api *client.Client, logger *log.Logger, workers, buffer int, timeout, handoff time.Duration) *persister {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if workers == 0 {
		workers = 4
	}
	p := &persister{api: api, log: logger, timeout: timeout, handoff: handoff}
	if workers > 0 {
		if buffer <= 0 {
			buffer = 64
		}
		p.jobs = make(chan persistJob, buffer)
		for i := 0; i < workers; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	}
	return p
}

func (p *persister) submit(job persistJob) {
	if p.jobs == nil {
		p.run(job)
		return
	}
	if ok, closed := p.trySend(job); ok {
		return
	} else if !closed && p.handoff > 0 {
		timer := time.NewTimer(p.handoff)
		defer timer.Stop()
		if ok, _ := p.sendWithTimer(job, timer.C); ok {
			return
		}
	}
	p.log.Warnf("persist buffer saturated; running %s inline", job.name)
	p.run(job)
}

func (p *persister) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *persister) run(job persistJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if _, err := p.api.Request(ctx, job.method, job.path, job.body, nil); err != nil {
		p.log.Errorf("%s persist failed, err: %v, path: %s", job.name, err, job.path)
		if job.revert != nil {
			job.revert()
		}
	}
}

func (p *persister) trySend(job persistJob) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case p.jobs <- job:
		return true, false
	default:
		return false, false
	}
}

func (p *persister) sendWithTimer(job persistJob, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case p.jobs <- job:
		return true, false
	case <-timer:
		return false, false
	}
}

// close drains the pool; pending jobs finish first.
func (p *persister) close() {
	if p.jobs != nil {
		close(p.jobs)
	}
	p.wg.Wait()
}
