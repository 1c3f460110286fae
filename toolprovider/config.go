package toolprovider

import (
	"fmt"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"goa.design/conductor/agents"
)

type (
	// Config is the tool server topology: which remote servers exist and
	// which agents may use them.
	Config struct {
		Servers []ServerConfig `yaml:"servers"`
	}

	// ServerConfig declares one remote tool server.
	ServerConfig struct {
		// Name identifies the server.
		Name string `yaml:"name"`
		// Endpoint is the JSON-RPC HTTP endpoint.
		Endpoint string `yaml:"endpoint"`
		// Agents lists the agent types the server is exposed to. Empty
		// exposes it to all agents.
		Agents []string `yaml:"agents"`
	}
)

// LoadConfig reads a tool server topology from a YAML file. A missing path
// yields an empty topology.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read tool config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse tool config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Servers))
	for i, srv := range c.Servers {
		if srv.Endpoint == "" {
			return fmt.Errorf("tool server %d (%s): endpoint is required", i, srv.Name)
		}
		if srv.Name != "" && seen[srv.Name] {
			return fmt.Errorf("duplicate tool server name %q", srv.Name)
		}
		seen[srv.Name] = true
		for _, a := range srv.Agents {
			if !agents.Type(a).Valid() {
				return fmt.Errorf("tool server %s: unknown agent type %q", srv.Name, a)
			}
		}
	}
	return nil
}

// BuildMux constructs the provider mux: the local provider plus one remote
// binding per configured server.
func (c *Config) BuildMux(local Provider, client *http.Client) (*Mux, error) {
	mux := NewMux(local)
	for _, srv := range c.Servers {
		remote, err := NewRemote(RemoteOptions{
			Name:     srv.Name,
			Endpoint: srv.Endpoint,
			Client:   client,
		})
		if err != nil {
			return nil, fmt.Errorf("tool server %s: %w", srv.Name, err)
		}
		types := make([]agents.Type, len(srv.Agents))
		for i, a := range srv.Agents {
			types[i] = agents.Type(a)
		}
		mux.Bind(remote, types...)
	}
	return mux, nil
}
