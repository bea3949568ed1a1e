package parser

import (
	"context"

	"github.com/brfinance/extrato/internal/domain"
)

// Parser turns raw statement file content into candidate transactions.
// Implementations never fail on malformed individual lines: such lines are
// dropped, and only I/O failure while reading the source is fatal to Parse.
type Parser interface {
	ParseLine(line string) (*domain.Transaction, bool)
	Parse(ctx context.Context, filename string, content []byte) ([]*domain.Transaction, error)
	Supports(filename string) bool
	BankName() string
	Config() *Config
}

// TextExtractor yields the plain text of a binary document. PDF extraction
// is an external collaborator; parsers consume only its output lines.
type TextExtractor interface {
	ExtractText(content []byte) (string, error)
}
