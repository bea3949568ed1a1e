package parser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/brfinance/extrato/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

// CSVParser implements the delimited-format strategy: skip the configured
// header lines, split the rest on the configured separator and validate each
// line independently. Lines have no cross-line dependency, so they are
// parsed in parallel; input order is preserved in the result.
type CSVParser struct {
	log       *slog.Logger
	cfg       *Config
	validator *CSVValidator
}

func NewCSVParser(log *slog.Logger, cfg *Config) *CSVParser {
	return &CSVParser{
		log:       log,
		cfg:       cfg,
		validator: NewCSVValidator(cfg),
	}
}

func (p *CSVParser) ParseLine(line string) (*domain.Transaction, bool) {
	fields := splitDelimited(line, p.cfg.CSV.Separator)
	if !p.validator.IsValidLine(fields) {
		return nil, false
	}

	date, err := time.Parse(p.cfg.CSV.DateFormat, CleanField(fields[colDate]))
	if err != nil {
		return nil, false
	}

	amount, currency, err := p.validator.ParseAmount(fields[colAmount])
	if err != nil {
		return nil, false
	}

	return &domain.Transaction{
		Date:           date,
		Entry:          CleanField(fields[colEntry]),
		Details:        CleanField(fields[colDetails]),
		DocumentNumber: CleanField(fields[colDocumentNumber]),
		Amount:         amount,
		Currency:       currency,
		EntryType:      CleanField(fields[colEntryType]),
		Category:       domain.DefaultCategory,
		Bank:           p.cfg.Name,
	}, true
}

func (p *CSVParser) Parse(ctx context.Context, filename string, content []byte) ([]*domain.Transaction, error) {
	lines, err := p.readLines(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filename, err)
	}

	if len(lines) <= p.cfg.CSV.SkipLines {
		return nil, nil
	}
	lines = lines[p.cfg.CSV.SkipLines:]

	results := make([]*domain.Transaction, len(lines))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, line := range lines {
		g.Go(func() error {
			if tx, ok := p.ParseLine(line); ok {
				results[i] = tx
			}
			return nil
		})
	}
	_ = g.Wait() // line workers never fail; malformed lines are dropped

	transactions := make([]*domain.Transaction, 0, len(results))
	for _, tx := range results {
		if tx != nil {
			transactions = append(transactions, tx)
		}
	}

	p.log.Debug("parsed delimited statement",
		slog.String("filename", filename),
		slog.Int("lines", len(lines)),
		slog.Int("transactions", len(transactions)),
	)

	return transactions, nil
}

// readLines decodes the Latin-1 encoded export into UTF-8 lines.
func (p *CSVParser) readLines(content []byte) ([]string, error) {
	reader := charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(content))

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (p *CSVParser) Supports(filename string) bool { return p.cfg.Supports(filename) }

func (p *CSVParser) BankName() string { return p.cfg.Name }

func (p *CSVParser) Config() *Config { return p.cfg }

// splitDelimited splits on the separator without splitting inside quoted
// fields. Trailing empty fields are kept.
func splitDelimited(line, separator string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			quoted = !quoted
			current.WriteByte(line[i])
		case !quoted && strings.HasPrefix(line[i:], separator):
			fields = append(fields, current.String())
			current.Reset()
			i += len(separator) - 1
		default:
			current.WriteByte(line[i])
		}
	}

	return append(fields, current.String())
}
