package watch

import "time"

// AgentOptions configures an Agent's debounce window and recursion
// limits. Scoped to the operational knobs a caller would reasonably
// want to tune; path selection happens through Watch/Unwatch, not here.
type AgentOptions struct {
	// DebounceTimeout is how long the agent waits after the last raw
	// event before handing the accumulated batch to the manager.
	DebounceTimeout time.Duration `mapstructure:"debounce_timeout"`

	// MaxSymlinkDepth bounds recursive directory walks performed by
	// the monitor's initial scan and the manager's Create/Rename
	// walks.
	MaxSymlinkDepth int `mapstructure:"max_symlink_depth"`
}

// DefaultAgentOptions returns the agent's default 20ms debounce window
// and a 64-level recursion cap.
func DefaultAgentOptions() AgentOptions {
	return AgentOptions{
		DebounceTimeout: 20 * time.Millisecond,
		MaxSymlinkDepth: defaultMaxSymlinkDepth,
	}
}
