package agents

import (
	"fmt"
	"sync"
)

// Registry maps agent ids to Agents. Registration happens once at wiring
// time; lookups come from concurrent workflow executions.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

func (r *Registry) Register(a Agent) error {
	if a == nil {
		return fmt.Errorf("nil agent")
	}
	id := a.ID()
	if id == "" {
		return fmt.Errorf("agent ID() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("agent already registered for id=%s", id)
	}
	r.agents[id] = a
	return nil
}

func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	return a, ok
}

// Infos returns the metadata of every registered agent, for the UI estimate
// endpoint. Order is unspecified.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.Info())
	}
	return out
}
