package providers

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/chaperone/internal/providers/groq"
	"github.com/baalimago/chaperone/internal/providers/huggingface"
	"github.com/baalimago/chaperone/internal/providers/ollama"
	"github.com/baalimago/chaperone/internal/sanitize"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// GeneratorFactory constructs the adapter for a backend and concrete model.
type GeneratorFactory func(backend models.BackendKind, model string) (models.Generator, error)

type resolved struct {
	gen models.Generator
	san models.Sanitizer
}

// Registry resolves logical roles into a generator and the sanitizer for its
// output. It does no network I/O.
type Registry struct {
	table      map[string]models.ProviderDescriptor
	newAdapter GeneratorFactory

	mu    sync.Mutex
	cache map[string]resolved
	debug bool
}

// NewRegistry validates cfg and builds a registry using the real vendor
// adapters.
func NewRegistry(cfg Config) (*Registry, error) {
	return NewRegistryWithFactory(cfg, NewGenerator)
}

func NewRegistryWithFactory(cfg Config, factory GeneratorFactory) (*Registry, error) {
	table, err := cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("failed to validate provider config: %w", err)
	}
	return &Registry{
		table:      table,
		newAdapter: factory,
		cache:      make(map[string]resolved),
		debug:      misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_PROVIDERS")),
	}, nil
}

// Descriptor returns the descriptor of role, with the model resolved to its
// concrete id.
func (r *Registry) Descriptor(role string) (models.ProviderDescriptor, error) {
	d, ok := r.table[role]
	if !ok {
		return models.ProviderDescriptor{}, fmt.Errorf("%w: no such role: '%v'", models.ErrConfiguration, role)
	}
	return d, nil
}

// Resolve returns the generator and sanitizer for role. Both are constructed
// on first use and reused for every subsequent call.
func (r *Registry) Resolve(role string) (models.Generator, models.Sanitizer, error) {
	d, err := r.Descriptor(role)
	if err != nil {
		return nil, nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.cache[role]; ok {
		return res.gen, res.san, nil
	}
	gen, err := r.newAdapter(d.Backend, d.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to construct adapter for role '%v': %w", models.ErrConfiguration, role, err)
	}
	san, err := sanitize.New(d.Parser)
	if err != nil {
		return nil, nil, err
	}
	if r.debug {
		ancli.Okf("resolved role: '%v' to model: '%v' on backend: '%v', parser: '%v'\n", role, d.Model, d.Backend, d.Parser)
	}
	r.cache[role] = resolved{gen: gen, san: san}
	return gen, san, nil
}

func (r *Registry) Roles() []string {
	ret := make([]string, 0, len(r.table))
	for role := range r.table {
		ret = append(ret, role)
	}
	slices.Sort(ret)
	return ret
}

// NewGenerator constructs and sets up the vendor adapter of backend.
func NewGenerator(backend models.BackendKind, model string) (models.Generator, error) {
	switch backend {
	case models.BackendLocal:
		o := ollama.OLLAMA_DEFAULT
		o.Model = model
		if err := o.Setup(); err != nil {
			return nil, fmt.Errorf("failed to setup ollama: %w", err)
		}
		return &o, nil
	case models.BackendRemoteInference:
		h := huggingface.DefaultChat
		h.Model = model
		if err := h.Setup(); err != nil {
			return nil, fmt.Errorf("failed to setup huggingface: %w", err)
		}
		return &h, nil
	case models.BackendCloudInference:
		g := groq.GROQ_DEFAULT
		g.Model = model
		if err := g.Setup(); err != nil {
			return nil, fmt.Errorf("failed to setup groq: %w", err)
		}
		return &g, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend: '%v'", models.ErrConfiguration, backend)
	}
}
