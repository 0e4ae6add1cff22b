// Package registry manages the lifecycle of showcase modules: validation,
// dependency ordering, init, start and stop.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/pkg/plugin"
)

// Registry holds registered modules. Optional modules that fail validation
// or Init are disabled, along with every module depending on them;
// required ones abort startup.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]plugin.Plugin
	order    []string
	disabled map[string]string // name -> reason
	started  []string
	logger   *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]plugin.Plugin),
		disabled: make(map[string]string),
		logger:   logger,
	}
}

// Register adds a module. Names must be unique and non-empty.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("module has empty name")
	}
	if _, exists := r.plugins[info.Name]; exists {
		return fmt.Errorf("module %q already registered", info.Name)
	}

	r.plugins[info.Name] = p
	r.order = append(r.order, info.Name)
	r.logger.Info("module registered",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
	)
	return nil
}

// Disable turns a module off before Validate, e.g. from configuration.
// Disabling a required module makes Validate fail.
func (r *Registry) Disable(name, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[name]; ok {
		r.disabled[name] = reason
	}
}

// Validate checks API versions and dependencies, disables what cannot run
// and orders the remaining modules so dependencies come first.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		info := r.plugins[name].Info()
		if reason, ok := r.disabled[name]; ok && info.Required {
			return fmt.Errorf("required module %q disabled: %s", name, reason)
		}
		if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
			reason := fmt.Sprintf("API version %d outside supported range %d..%d",
				info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
			if err := r.disable(info, reason); err != nil {
				return err
			}
		}
	}

	// Cascade until no more modules are disabled.
	for changed := true; changed; {
		changed = false
		for _, name := range r.order {
			if _, off := r.disabled[name]; off {
				continue
			}
			info := r.plugins[name].Info()
			for _, dep := range info.Dependencies {
				reason := ""
				if _, ok := r.plugins[dep]; !ok {
					reason = fmt.Sprintf("missing dependency %q", dep)
				} else if _, off := r.disabled[dep]; off {
					reason = fmt.Sprintf("dependency %q is disabled", dep)
				}
				if reason == "" {
					continue
				}
				if err := r.disable(info, reason); err != nil {
					return err
				}
				changed = true
				break
			}
		}
	}

	order, err := r.topoSort()
	if err != nil {
		return err
	}
	r.order = order
	return nil
}

// disable records reason, or returns an error for a required module.
// Caller holds r.mu.
func (r *Registry) disable(info plugin.PluginInfo, reason string) error {
	if info.Required {
		return fmt.Errorf("required module %q: %s", info.Name, reason)
	}
	r.disabled[info.Name] = reason
	r.logger.Warn("module disabled",
		zap.String("name", info.Name),
		zap.String("reason", reason),
	)
	return nil
}

// topoSort orders every module (disabled ones keep a stable position) so
// that dependencies precede dependents. Caller holds r.mu.
func (r *Registry) topoSort() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(r.order))
	out := make([]string, 0, len(r.order))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle: %s -> %s", strings.Join(path, " -> "), name)
		}
		state[name] = visiting
		deps := append([]string(nil), r.plugins[name].Info().Dependencies...)
		sort.Strings(deps)
		for _, dep := range deps {
			if _, ok := r.plugins[dep]; !ok {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		out = append(out, name)
		return nil
	}

	for _, name := range r.order {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InitAll initializes enabled modules in dependency order. deps builds the
// Dependencies for each module by name.
func (r *Registry) InitAll(ctx context.Context, deps func(name string) plugin.Dependencies) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		p := r.plugins[name]
		info := p.Info()

		if dep, off := r.disabledDependency(info); off {
			if err := r.disable(info, fmt.Sprintf("dependency %q is disabled", dep)); err != nil {
				return err
			}
			continue
		}

		r.logger.Info("initializing module", zap.String("name", name))
		if err := p.Init(ctx, deps(name)); err != nil {
			if info.Required {
				return fmt.Errorf("initialize module %q: %w", name, err)
			}
			r.logger.Error("module init failed", zap.String("name", name), zap.Error(err))
			r.disabled[name] = "init failed: " + err.Error()
			continue
		}

		if v, ok := p.(plugin.Validator); ok {
			if err := v.ValidateConfig(); err != nil {
				if err := r.disable(info, "invalid config: "+err.Error()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Registry) disabledDependency(info plugin.PluginInfo) (string, bool) {
	for _, dep := range info.Dependencies {
		if _, off := r.disabled[dep]; off {
			return dep, true
		}
	}
	return "", false
}

// StartAll starts enabled modules in dependency order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if _, off := r.disabled[name]; off {
			continue
		}
		r.logger.Info("starting module", zap.String("name", name))
		if err := r.plugins[name].Start(ctx); err != nil {
			return fmt.Errorf("start module %q: %w", name, err)
		}
		r.started = append(r.started, name)
	}
	return nil
}

// StopAll stops started modules in reverse start order. Errors are logged.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.started) - 1; i >= 0; i-- {
		name := r.started[i]
		r.logger.Info("stopping module", zap.String("name", name))
		if err := r.plugins[name].Stop(ctx); err != nil {
			r.logger.Error("module stop failed", zap.String("name", name), zap.Error(err))
		}
	}
	r.started = nil
}

// IsDisabled reports whether a module has been disabled.
func (r *Registry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, off := r.disabled[name]
	return off
}

// Get returns a registered module by name, enabled or not.
func (r *Registry) Get(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// All returns the enabled modules in dependency order.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		if _, off := r.disabled[name]; !off {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// AllRoutes returns the routes of every enabled HTTPProvider, keyed by
// module name.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	routes := make(map[string][]plugin.Route)
	for _, p := range r.All() {
		hp, ok := p.(plugin.HTTPProvider)
		if !ok {
			continue
		}
		if pr := hp.Routes(); len(pr) > 0 {
			routes[p.Info().Name] = pr
		}
	}
	return routes
}

// Health collects the status of every enabled HealthChecker.
func (r *Registry) Health(ctx context.Context) map[string]plugin.HealthStatus {
	out := make(map[string]plugin.HealthStatus)
	for _, p := range r.All() {
		if hc, ok := p.(plugin.HealthChecker); ok {
			out[p.Info().Name] = hc.Health(ctx)
		}
	}
	return out
}
