// Package toolprovider resolves the toolset a specialist runs with. The local
// provider serves the bundled tools; remote providers proxy JSON-RPC tool
// servers; the mux merges both according to the topology config.
package toolprovider

import (
	"context"

	"goa.design/conductor/agents"
	"goa.design/conductor/tools"
	"goa.design/conductor/tools/bundled"
)

// Provider resolves the tools available to one agent for one ticket.
type Provider interface {
	Toolset(ctx context.Context, agent agents.Type, scope bundled.Scope) ([]tools.Tool, error)
}

// Local serves the bundled toolsets.
type Local struct {
	registry *bundled.Registry
}

// NewLocal wraps the bundled registry as a Provider.
func NewLocal(registry *bundled.Registry) *Local {
	return &Local{registry: registry}
}

// Toolset implements Provider.
func (l *Local) Toolset(_ context.Context, agent agents.Type, scope bundled.Scope) ([]tools.Tool, error) {
	return l.registry.For(agent, scope), nil
}

type binding struct {
	remote *Remote
	agents map[agents.Type]bool
}

// Mux merges the local toolset with any remote servers bound to the agent.
// Remote tools are appended after local ones; on a name clash the local tool
// wins and the remote one is dropped.
type Mux struct {
	local    Provider
	bindings []binding
}

// NewMux builds a mux over the local provider.
func NewMux(local Provider) *Mux {
	return &Mux{local: local}
}

// Bind attaches a remote server to the given agent types. An empty agent list
// binds the server to every agent.
func (m *Mux) Bind(remote *Remote, agentTypes ...agents.Type) {
	b := binding{remote: remote}
	if len(agentTypes) > 0 {
		b.agents = make(map[agents.Type]bool, len(agentTypes))
		for _, a := range agentTypes {
			b.agents[a] = true
		}
	}
	m.bindings = append(m.bindings, b)
}

// Toolset implements Provider.
func (m *Mux) Toolset(ctx context.Context, agent agents.Type, scope bundled.Scope) ([]tools.Tool, error) {
	set, err := m.local.Toolset(ctx, agent, scope)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(set))
	for _, t := range set {
		taken[t.Name] = true
	}
	for _, b := range m.bindings {
		if b.agents != nil && !b.agents[agent] {
			continue
		}
		remote, err := b.remote.Tools(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range remote {
			if taken[t.Name] {
				continue
			}
			taken[t.Name] = true
			set = append(set, t)
		}
	}
	return set, nil
}
