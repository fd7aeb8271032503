package daemon

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

// syncTimeout bounds one full sync-all pass across all registered jobs.
const syncTimeout = 2 * time.Minute

// SyncFunc runs one sync-all pass for a single entity kind.
type SyncFunc func(ctx context.Context) error

// AutoSync runs registered sync jobs when connectivity returns.
//
// Each job is registered under a stable name; registering the same name
// again replaces the job without scheduling an extra run. A job runs
// once at registration if the monitor is already online, and once per
// offline-to-online transition thereafter.
type AutoSync struct {
	monitor *Monitor
	logger  *log.Logger

	mu   sync.Mutex
	jobs map[string]SyncFunc

	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewAutoSync creates a scheduler bound to a monitor. If logger is nil,
// a default stderr logger is used.
func NewAutoSync(monitor *Monitor, logger *log.Logger) *AutoSync {
	if logger == nil {
		logger = log.New(os.Stderr, "[autosync] ", log.LstdFlags)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AutoSync{
		monitor: monitor,
		logger:  logger,
		jobs:    make(map[string]SyncFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

var (
	sharedMu   sync.Mutex
	sharedAuto *AutoSync
)

// Shared returns the process-wide scheduler, creating it on first call.
// Later calls return the same instance and ignore the arguments.
func Shared(monitor *Monitor, logger *log.Logger) *AutoSync {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedAuto == nil {
		sharedAuto = NewAutoSync(monitor, logger)
	}
	return sharedAuto
}

// Register adds a sync job under name. If the monitor currently reports
// online, the job runs once immediately in the background; otherwise it
// waits for the next connectivity transition.
func (a *AutoSync) Register(name string, fn SyncFunc) {
	a.mu.Lock()
	_, existed := a.jobs[name]
	a.jobs[name] = fn
	a.mu.Unlock()

	if existed {
		return
	}

	if a.monitor.Online() {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.runOne(name, fn)
		}()
	}
}

// Start begins consuming connectivity transitions. Calling Start on a
// running scheduler is a no-op.
func (a *AutoSync) Start() {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.mu.Unlock()

	a.wg.Add(1)
	go a.loop()
}

// Stop shuts the scheduler down and waits for in-flight sync passes.
func (a *AutoSync) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		a.cancel()
		a.wg.Wait()
		return
	}
	a.running = false
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}

// Wait blocks until all in-flight sync passes finish, without stopping
// the scheduler. Used by tests.
func (a *AutoSync) Wait() {
	a.wg.Wait()
}

func (a *AutoSync) loop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case online := <-a.monitor.Events():
			if !online {
				continue
			}
			a.logger.Println("Back online, running all sync jobs")
			a.runAll()
		}
	}
}

// runAll runs every registered job once, in name order so runs are
// deterministic.
func (a *AutoSync) runAll() {
	a.mu.Lock()
	names := make([]string, 0, len(a.jobs))
	for name := range a.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	jobs := make([]SyncFunc, len(names))
	for i, name := range names {
		jobs[i] = a.jobs[name]
	}
	a.mu.Unlock()

	for i, name := range names {
		a.runOne(name, jobs[i])
	}
}

func (a *AutoSync) runOne(name string, fn SyncFunc) {
	ctx, cancel := context.WithTimeout(a.ctx, syncTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		a.logger.Printf("WARNING: sync job %s failed: %v", name, err)
	}
}
