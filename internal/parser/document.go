package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brfinance/extrato/internal/domain"
)

// PDFParser implements the document-format strategy over the text yielded
// by the extraction collaborator.
type PDFParser struct {
	log       *slog.Logger
	cfg       *Config
	validator *PDFValidator
	extractor TextExtractor
}

func NewPDFParser(log *slog.Logger, cfg *Config, extractor TextExtractor) *PDFParser {
	return &PDFParser{
		log:       log,
		cfg:       cfg,
		validator: NewPDFValidator(cfg),
		extractor: extractor,
	}
}

func (p *PDFParser) ParseLine(line string) (*domain.Transaction, bool) {
	line = strings.TrimSpace(line)
	if !p.validator.IsValidTransactionLine(line) {
		return nil, false
	}

	fields, ok := p.validator.ExtractFields(line)
	if !ok {
		return nil, false
	}

	date, err := time.Parse(p.cfg.PDF.DateFormat, fields.Date)
	if err != nil {
		p.log.Debug("dropping line with unparsable date", slog.String("line", line))
		return nil, false
	}

	amount, currency, err := p.validator.ParseAmount(fields.Amount)
	if err != nil {
		p.log.Debug("dropping line with unparsable amount", slog.String("line", line))
		return nil, false
	}

	return &domain.Transaction{
		Date:           date,
		Entry:          fields.Description,
		Details:        fields.Description,
		DocumentNumber: p.validator.DocumentNumber(fields.Description),
		Amount:         amount,
		Currency:       currency,
		EntryType:      p.validator.EntryType(amount),
		Category:       domain.DefaultCategory,
		Bank:           p.cfg.Name,
	}, true
}

func (p *PDFParser) Parse(ctx context.Context, filename string, content []byte) ([]*domain.Transaction, error) {
	text, err := p.extractor.ExtractText(content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %q: %w", filename, err)
	}

	var transactions []*domain.Transaction
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if tx, ok := p.ParseLine(line); ok {
			transactions = append(transactions, tx)
		}
	}

	p.log.DebugContext(ctx, "parsed document statement",
		slog.String("filename", filename),
		slog.Int("transactions", len(transactions)),
	)

	return transactions, nil
}

func (p *PDFParser) Supports(filename string) bool { return p.cfg.Supports(filename) }

func (p *PDFParser) BankName() string { return p.cfg.Name }

func (p *PDFParser) Config() *Config { return p.cfg }
