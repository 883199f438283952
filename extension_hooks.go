package shortlink

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-shortlink/tenant"
)

// StrategyPack is a named group of tenant resolution strategies an embedding
// application contributes before the resolver is built.
type StrategyPack struct {
	Name       string
	Strategies []tenant.Strategy
}

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

// ExtensionHooks collects host-application extensions: extra tenant
// resolution strategies and command/query bundles built around the service.
// Registration order does not matter; packs apply in name order.
type ExtensionHooks struct {
	mu sync.RWMutex

	strategyPacks map[string]StrategyPack
	bundles       map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		strategyPacks: map[string]StrategyPack{},
		bundles:       map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterStrategyPack(pack StrategyPack) error {
	if h == nil {
		return fmt.Errorf("shortlink: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("shortlink: strategy pack name is required")
	}
	if len(pack.Strategies) == 0 {
		return fmt.Errorf("shortlink: strategy pack %q has no strategies", name)
	}
	for _, strategy := range pack.Strategies {
		if strategy == nil {
			return fmt.Errorf("shortlink: strategy pack %q contains nil strategy", name)
		}
	}

	normalized := StrategyPack{
		Name:       name,
		Strategies: append([]tenant.Strategy(nil), pack.Strategies...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.strategyPacks[name]; exists {
		return fmt.Errorf("shortlink: strategy pack %q already registered", name)
	}
	h.strategyPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("shortlink: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("shortlink: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("shortlink: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("shortlink: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// StrategyPacks returns registered packs in name order.
func (h *ExtensionHooks) StrategyPacks() []StrategyPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.strategyPacks))
	for name := range h.strategyPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]StrategyPack, 0, len(names))
	for _, name := range names {
		pack := h.strategyPacks[name]
		out = append(out, StrategyPack{
			Name:       pack.Name,
			Strategies: append([]tenant.Strategy(nil), pack.Strategies...),
		})
	}
	return out
}

// Strategies flattens all registered packs into one ordered strategy list
// suitable for tenant.WithStrategies.
func (h *ExtensionHooks) Strategies() []tenant.Strategy {
	packs := h.StrategyPacks()
	out := []tenant.Strategy{}
	for _, pack := range packs {
		out = append(out, pack.Strategies...)
	}
	return out
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("shortlink: command/query service is required")
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
