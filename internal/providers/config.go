package providers

import (
	"fmt"

	"github.com/baalimago/chaperone/internal/models"
)

const ConfigFileName = "providersConfig.json"

// Catalog maps a model alias to the concrete model identifier each backend
// knows it by.
type Catalog map[string]map[models.BackendKind]string

// Config is the provider table. It's built once at startup and handed to
// NewRegistry, which keeps its own copy.
type Config struct {
	Catalog Catalog                     `json:"catalog"`
	Roles   []models.ProviderDescriptor `json:"roles"`
}

const defaultSystemPrompt = `You are a patient and friendly virtual assistant. Keep replies short, clear and kind. Answer only for yourself and never write the next message of the human.`

var DEFAULT = Config{
	Catalog: Catalog{
		"deepseek-r1:1.5b": {
			models.BackendRemoteInference: "deepseek-ai/DeepSeek-R1-Distill-Qwen-1.5B",
			models.BackendLocal:           "deepseek-r1:1.5b",
		},
		"deepseek-r1:32b": {
			models.BackendCloudInference: "deepseek-r1-distill-qwen-32b",
		},
		"mistral-7b": {
			models.BackendRemoteInference: "mistralai/Mistral-7B-Instruct-v0.2",
		},
		"llama:70b": {
			models.BackendCloudInference: "llama3-70b-8192",
		},
		"phi": {
			models.BackendRemoteInference: "microsoft/phi-2",
			models.BackendLocal:           "phi",
		},
		"falcon3:3b": {
			models.BackendRemoteInference: "tiiuae/Falcon3-3B-Base",
			models.BackendLocal:           "falcon3:3b",
		},
		"smollm": {
			models.BackendRemoteInference: "HuggingFaceTB/SmolLM-1.7B",
			models.BackendLocal:           "smollm",
		},
		"gemma:2b": {
			models.BackendLocal: "gemma:2b",
		},
		"stablelm-zephyr": {
			models.BackendLocal: "stablelm-zephyr",
		},
	},
	Roles: []models.ProviderDescriptor{
		{
			Role:         "virtual_assistant",
			Model:        "llama:70b",
			Backend:      models.BackendCloudInference,
			Parser:       models.ParserPlain,
			Priming:      true,
			SystemPrompt: defaultSystemPrompt,
		},
		{
			Role:    "enquiry_chatbot",
			Model:   "deepseek-r1:1.5b",
			Backend: models.BackendLocal,
			Parser:  models.ParserThinkAnnotated,
		},
	},
}

// resolveModel returns the concrete model id for the descriptor. Models which
// aren't catalog aliases are taken to already be concrete.
func (c Catalog) resolveModel(d models.ProviderDescriptor) (string, error) {
	byBackend, isAlias := c[d.Model]
	if !isAlias {
		return d.Model, nil
	}
	id, ok := byBackend[d.Backend]
	if !ok {
		return "", fmt.Errorf("%w: model '%v' is not available on backend '%v'", models.ErrConfiguration, d.Model, d.Backend)
	}
	return id, nil
}

// validate checks the table and returns a copy with every model resolved to
// its concrete id.
func (c Config) validate() (map[string]models.ProviderDescriptor, error) {
	table := make(map[string]models.ProviderDescriptor, len(c.Roles))
	for _, d := range c.Roles {
		if d.Role == "" {
			return nil, fmt.Errorf("%w: descriptor without role: %+v", models.ErrConfiguration, d)
		}
		if _, exists := table[d.Role]; exists {
			return nil, fmt.Errorf("%w: duplicate role: '%v'", models.ErrConfiguration, d.Role)
		}
		if !d.Backend.Valid() {
			return nil, fmt.Errorf("%w: role '%v' has unknown backend: '%v'", models.ErrConfiguration, d.Role, d.Backend)
		}
		if !d.Parser.Valid() {
			return nil, fmt.Errorf("%w: role '%v' has unknown parser: '%v'", models.ErrConfiguration, d.Role, d.Parser)
		}
		if d.Model == "" {
			return nil, fmt.Errorf("%w: role '%v' has no model", models.ErrConfiguration, d.Role)
		}
		if d.Priming && d.SystemPrompt == "" {
			return nil, fmt.Errorf("%w: role '%v' is primed but has no system prompt", models.ErrConfiguration, d.Role)
		}
		id, err := c.Catalog.resolveModel(d)
		if err != nil {
			return nil, fmt.Errorf("role '%v': %w", d.Role, err)
		}
		d.Model = id
		table[d.Role] = d
	}
	return table, nil
}
