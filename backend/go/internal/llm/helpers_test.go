package llm

import "HealthMate/backend/go/internal/config"

func configFor(provider string) config.ModelConfig {
	return config.ModelConfig{Provider: provider, Model: "m", APIKey: "k"}
}
