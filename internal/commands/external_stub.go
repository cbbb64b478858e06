package commands

import "context"

// ExternalHandler is the seam for command families this module
// deliberately doesn't implement (lyrics, chatgpt, osint *): out-of-core
// per spec §1's Non-goals, but still worth a real extension point so a
// future package can register one without the orchestrator layer
// pretending to own those subsystems.
type ExternalHandler func(ctx context.Context, d Deps, guildID, channelID, invokingUserID, args string) (*PlayResult, error)

// Dispatcher routes registered external command names to their handlers.
type Dispatcher struct {
	external map[string]ExternalHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{external: map[string]ExternalHandler{}}
}

// RegisterExternal wires an out-of-core command name to its handler. No
// package in this module calls it for lyrics/chatgpt/osint today.
func (disp *Dispatcher) RegisterExternal(name string, fn ExternalHandler) {
	disp.external[name] = fn
}

// External looks up a registered external handler by name.
func (disp *Dispatcher) External(name string) (ExternalHandler, bool) {
	fn, ok := disp.external[name]
	return fn, ok
}
