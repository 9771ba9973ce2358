package producer

import (
	"fmt"

	"skillscope/internal/config"
	"skillscope/internal/domain"
	"skillscope/internal/port"
)

// ProviderFactory is a function that creates an EvidenceProducer from a provider config.
type ProviderFactory func(cfg *config.ProducerProviderConfig) (port.EvidenceProducer, error)

// registry of producer provider factories, populated by init() in each provider
// package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a producer provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProducer creates an EvidenceProducer from a provider config using the registered factory.
func NewProducer(cfg *config.ProducerProviderConfig) (port.EvidenceProducer, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProvider, cfg.Provider)
	}
	return factory(cfg)
}
