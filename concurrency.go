package loom

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// contextKind tags which variant a Context currently holds (§5's
// WORLD_MAGIC / THREAD_MAGIC disambiguation, replaced here with a
// typed tagged union instead of a magic-number prefix).
type contextKind int

const (
	worldContext contextKind = iota
	workerContext
)

// Context lets API callers pass either the world itself or a specific
// worker's stage through one parameter type; receivers resolve to the
// right stage via Stage().
type Context struct {
	kind  contextKind
	world *World
	stage *Stage
}

// WorldCtx wraps w so operations route through its active stage: the
// main stage, or the temp stage while iteration is in progress.
func WorldCtx(w *World) Context { return Context{kind: worldContext, world: w} }

// WorkerCtx wraps a worker's stage so operations route through it
// directly.
func WorkerCtx(s *Stage) Context { return Context{kind: workerContext, stage: s, world: s.world} }

// Stage resolves the context to a concrete stage.
func (c Context) Stage() *Stage {
	if c.kind == worldContext {
		return c.world.activeStage()
	}
	return c.stage
}

// World returns the world the context ultimately belongs to.
func (c Context) World() *World { return c.world }

// Job is one unit of parallel work: a contiguous row range
// [Offset,Offset+Limit) within a single matched table (§5). System
// receives the Context bound to the worker running it, so
// AddComponentIn/RemoveComponentIn called with that Context, and CreateIn
// called with ctx.Stage(), record their changes in that worker's own
// stage rather than main. SetComponentIn writes into the worker stage's
// rows only for entities that stage holds; for any other entity it
// writes the main-stage row directly. Destroy takes no Context and uses
// the world's active stage.
type Job struct {
	Table  MatchedTable
	System func(ctx Context, m MatchedTable, offset, limit int)
	Offset int
	Limit  int
}

// worker is one pool thread, bound to its own stage, fed by a bounded
// job channel.
type worker struct {
	id    uint32
	stage *Stage
	jobs  chan Job
}

// WorkerPool is the parallel scheduling mode of §5: a fixed set of
// worker goroutines each bound to its own Stage, receiving jobs
// through a bounded per-worker queue.
type WorkerPool struct {
	world   *World
	workers []*worker

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	threadCond     *sync.Cond
	jobCond        *sync.Cond
	jobsFinished   int
	threadsRunning int

	quitWorkers bool
	shouldQuit  bool
}

// NewWorkerPool starts n worker goroutines against w, each bound to
// its own stage (w.WorkerStage(i)).
func NewWorkerPool(w *World, n int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	p := &WorkerPool{
		world:  w,
		group:  group,
		ctx:    gctx,
		cancel: cancel,
	}
	p.threadCond = sync.NewCond(&p.mu)
	p.jobCond = sync.NewCond(&p.mu)

	for i := 0; i < n; i++ {
		wk := &worker{
			id:    uint32(i),
			stage: w.WorkerStage(uint32(i)),
			jobs:  make(chan Job, Config.MaxJobsPerWorker),
		}
		p.workers = append(p.workers, wk)
		p.threadsRunning++
		p.group.Go(func() error {
			return p.run(wk)
		})
	}
	return p
}

func (p *WorkerPool) run(wk *worker) error {
	for {
		select {
		case <-p.ctx.Done():
			return nil
		case job, ok := <-wk.jobs:
			if !ok {
				return nil
			}
			if p.checkQuit() {
				return nil
			}
			job.System(WorkerCtx(wk.stage), job.Table, job.Offset, job.Limit)
			p.mu.Lock()
			p.jobsFinished++
			p.jobCond.Signal()
			p.mu.Unlock()
		}
	}
}

func (p *WorkerPool) checkQuit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quitWorkers
}

// Dispatch posts jobs round-robin to the worker queues, then blocks
// until every job has signalled completion via jobCond (§5's
// job_cond contract).
func (p *WorkerPool) Dispatch(jobs []Job) {
	if len(jobs) == 0 {
		return
	}
	p.mu.Lock()
	p.jobsFinished = 0
	p.mu.Unlock()

	for i, j := range jobs {
		wk := p.workers[i%len(p.workers)]
		wk.jobs <- j
	}

	p.mu.Lock()
	for p.jobsFinished < len(jobs) {
		p.jobCond.Wait()
	}
	p.mu.Unlock()
}

// RequestQuit sets the cooperative shouldQuit flag, which ShouldQuit
// reports. The pool itself does not act on it; Stop is what ends the
// workers.
func (p *WorkerPool) RequestQuit() {
	p.mu.Lock()
	p.shouldQuit = true
	p.mu.Unlock()
}

// ShouldQuit reports the cooperative quit request.
func (p *WorkerPool) ShouldQuit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shouldQuit
}

// Stop causes every worker to quit at the next schedule fence and
// waits for them to exit.
func (p *WorkerPool) Stop() error {
	p.mu.Lock()
	p.quitWorkers = true
	p.mu.Unlock()
	p.cancel()
	for _, wk := range p.workers {
		close(wk.jobs)
	}
	return p.group.Wait()
}
