package watch

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"
)

type commandKind uint8

const (
	commandWatch commandKind = iota
	commandUnwatch
)

type command struct {
	kind commandKind
	path string
}

// Callback is invoked on the agent's goroutine for every canonical
// event or error the manager produces. Returning a non-nil error
// terminates the agent.
type Callback func(Result) error

// Agent is a goroutine-owning wrapper around a Monitor and a Manager.
// It accepts Watch/Unwatch commands over a channel and delivers
// canonical events to a Callback, running a biased select loop in
// priority order: commands, then raw monitor events, then the
// debounce timer (armed only while events are pending).
type Agent struct {
	opts       AgentOptions
	cmds       chan command
	terminated atomic.Bool
	done       chan struct{}
}

// NewAgent creates and starts an agent. The goroutine runs until the
// callback returns an error, the monitor's backend channels close, or
// Close is called.
func NewAgent(opts AgentOptions, callback Callback) (*Agent, error) {
	if opts.DebounceTimeout <= 0 {
		opts.DebounceTimeout = DefaultAgentOptions().DebounceTimeout
	}
	if opts.MaxSymlinkDepth <= 0 {
		opts.MaxSymlinkDepth = defaultMaxSymlinkDepth
	}

	monitor, err := NewMonitor()
	if err != nil {
		return nil, err
	}
	monitor.SetMaxDepth(opts.MaxSymlinkDepth)

	manager := NewManager()
	manager.SetMaxDepth(opts.MaxSymlinkDepth)

	a := &Agent{
		opts: opts,
		cmds: make(chan command, 64),
		done: make(chan struct{}),
	}
	go a.run(monitor, manager, callback)
	return a, nil
}

// Watch starts watching path, recursively, once the command reaches
// the agent's goroutine. The path is only made absolute here; it is
// resolved on the agent's goroutine, and an error for a path that does
// not exist goes to the callback. Watch itself fails only when the
// agent has terminated.
func (a *Agent) Watch(path string) error {
	return a.send(commandWatch, path)
}

// Unwatch stops watching path.
func (a *Agent) Unwatch(path string) error {
	return a.send(commandUnwatch, path)
}

func (a *Agent) send(kind commandKind, path string) error {
	canon, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	select {
	case a.cmds <- command{kind: kind, path: canon}:
		return nil
	case <-a.done:
		return fmt.Errorf("watch: agent has terminated")
	}
}

// IsTerminated reports whether the agent's goroutine has exited.
func (a *Agent) IsTerminated() bool { return a.terminated.Load() }

// Close stops the agent. Its goroutine exits on the next loop
// iteration; pending commands are discarded.
func (a *Agent) Close() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *Agent) run(monitor *Monitor, manager *Manager, callback Callback) {
	defer a.terminated.Store(true)
	defer monitor.Close()

	var queue []string

	deliver := func(results []Result) bool {
		for _, r := range results {
			if err := callback(r); err != nil {
				return false
			}
		}
		return true
	}

	for {
		// Priority 1: commands. A non-blocking pass first, so a
		// backlog of watch/unwatch requests never starves behind a
		// burst of filesystem events, mirroring select_biased's fixed
		// priority order rather than Go's default random selection
		// among ready cases.
		select {
		case cmd, open := <-a.cmds:
			if !open {
				return
			}
			if !a.applyCommand(monitor, cmd, callback, &queue) {
				return
			}
			continue
		case <-a.done:
			return
		default:
		}

		// Priority 2: raw monitor events, also drained non-blocking
		// before falling through to the blocking select below.
		select {
		case path, open := <-monitor.Events():
			if !open {
				return
			}
			queue = append(queue, path)
			continue
		case err, open := <-monitor.Errors():
			if !open {
				return
			}
			if !deliver([]Result{fail(err)}) {
				return
			}
			continue
		default:
		}

		var timeout <-chan time.Time
		if len(queue) > 0 {
			timeout = time.After(a.opts.DebounceTimeout)
		}

		select {
		case cmd, open := <-a.cmds:
			if !open {
				return
			}
			if !a.applyCommand(monitor, cmd, callback, &queue) {
				return
			}

		case path, open := <-monitor.Events():
			if !open {
				return
			}
			queue = append(queue, path)

		case err, open := <-monitor.Errors():
			if !open {
				return
			}
			if !deliver([]Result{fail(err)}) {
				return
			}

		case <-timeout:
			pending := queue
			queue = nil
			if !deliver(manager.Handle(pending)) {
				return
			}

		case <-a.done:
			return
		}
	}
}

func (a *Agent) applyCommand(monitor *Monitor, cmd command, callback Callback, queue *[]string) bool {
	var err error
	switch cmd.kind {
	case commandWatch:
		_, err = monitor.Watch(cmd.path)
	case commandUnwatch:
		_, err = monitor.Unwatch(cmd.path)
	}
	if err != nil {
		return callback(fail(err)) == nil
	}
	*queue = append(*queue, cmd.path)
	return true
}
