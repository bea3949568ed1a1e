package parser

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/brfinance/extrato/internal/domain"
)

// Registry resolves a normalized bank identifier to its parser. It is built
// once at startup from static configuration; lookups never discover banks
// dynamically.
type Registry struct {
	parsers map[string]Parser
	banks   []string
}

func NewRegistry(log *slog.Logger, extractor TextExtractor, configs ...*Config) (*Registry, error) {
	r := &Registry{parsers: make(map[string]Parser, len(configs))}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid bank config: %w", err)
		}

		var p Parser
		if cfg.CSV != nil {
			p = NewCSVParser(log, cfg)
		} else {
			p = NewPDFParser(log, cfg, extractor)
		}

		r.parsers[cfg.Key] = p
		r.banks = append(r.banks, cfg.Key)
	}

	return r, nil
}

// Resolve returns the parser for the given bank identifier. Every failure
// mode is reported as ErrUnsupportedBank to keep the external contract
// stable.
func (r *Registry) Resolve(bank string) (Parser, error) {
	key := strings.ToLower(strings.TrimSpace(bank))
	if key == "" {
		return nil, fmt.Errorf("%w: blank bank identifier", domain.ErrUnsupportedBank)
	}

	p, ok := r.parsers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedBank, bank)
	}

	return p, nil
}

// Banks returns the configured identifier list.
func (r *Registry) Banks() []string {
	return slices.Clone(r.banks)
}
