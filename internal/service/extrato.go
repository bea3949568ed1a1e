// Package service orchestrates statement processing: bank resolution,
// file-level deduplication, parsing and transactional persistence.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brfinance/extrato/internal/domain"
	"github.com/brfinance/extrato/internal/parser"
	"github.com/brfinance/extrato/internal/repository/postgresql"
)

type UploadsRepository interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	CreateUpload(ctx context.Context, upload *domain.Upload) (int64, error)
}

type TransactionsRepository interface {
	SaveAll(ctx context.Context, transactions ...*domain.Transaction) error
	SaveOne(ctx context.Context, t *domain.Transaction) (bool, error)
	TransactionsByBank(ctx context.Context, bank string, limit, offset uint64) ([]*domain.Transaction, int, error)
	TransactionsByPeriod(ctx context.Context, from, to time.Time) ([]*domain.Transaction, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ExtratoService struct {
	log          *slog.Logger
	registry     *parser.Registry
	uploads      UploadsRepository
	transactions TransactionsRepository
	tx           Transactor
	metrics      *Metrics
}

func New(
	log *slog.Logger,
	registry *parser.Registry,
	uploads UploadsRepository,
	transactions TransactionsRepository,
	tx Transactor,
	metrics *Metrics,
) *ExtratoService {
	return &ExtratoService{
		log:          log,
		registry:     registry,
		uploads:      uploads,
		transactions: transactions,
		tx:           tx,
		metrics:      metrics,
	}
}

// ProcessFile runs the full ingestion for one statement file. Validation
// failures surface as errors; a resubmitted file and a parse failure are
// reported through the result instead, since both are expected outcomes.
func (s *ExtratoService) ProcessFile(
	ctx context.Context,
	bank, filename string,
	content []byte,
) (*domain.ProcessingResult, error) {
	p, err := s.registry.Resolve(bank)
	if err != nil {
		return nil, err
	}

	if len(content) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrEmptyFile, filename)
	}

	if !p.Supports(filename) {
		return nil, fmt.Errorf("%w: %q is not a %s statement", domain.ErrInvalidFormat, filename, p.BankName())
	}

	hash := ContentHash(content)

	exists, err := s.uploads.ExistsByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check file hash: %w", err)
	}
	if exists {
		s.log.InfoContext(ctx, "file already processed, skipping",
			slog.String("filename", filename),
			slog.String("bank", p.BankName()),
		)
		s.metrics.RecordDuplicateFile()

		return domain.DuplicateFile(filename), nil
	}

	transactions, err := p.Parse(ctx, filename, content)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to parse statement",
			slog.String("filename", filename),
			slog.String("err", err.Error()),
		)

		return domain.Failed(filename, err.Error()), nil
	}

	upload := &domain.Upload{
		ContentHash: hash,
		Filename:    filename,
		UploadDate:  time.Now(),
		Bank:        p.BankName(),
	}

	saved, duplicates, uploadID, err := s.persist(ctx, upload, transactions)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFile(p.BankName(), saved, duplicates)
	s.log.InfoContext(ctx, "statement processed",
		slog.String("filename", filename),
		slog.String("bank", p.BankName()),
		slog.Int("processed", len(transactions)),
		slog.Int("saved", saved),
		slog.Int("duplicates", duplicates),
	)

	return domain.Succeeded(filename, len(transactions), saved, duplicates, uploadID), nil
}

// persist writes the upload record and its transactions atomically. The
// fast path copies the whole batch in one round trip; a unique violation
// aborts it, so the slow path retries row by row, skipping duplicates.
func (s *ExtratoService) persist(
	ctx context.Context,
	upload *domain.Upload,
	transactions []*domain.Transaction,
) (saved, duplicates int, uploadID int64, err error) {
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		uploadID, err = s.uploads.CreateUpload(ctx, upload)
		if err != nil {
			return fmt.Errorf("failed to create upload: %w", err)
		}

		if len(transactions) == 0 {
			return nil
		}

		for _, t := range transactions {
			t.UploadID = uploadID
		}

		return s.transactions.SaveAll(ctx, transactions...)
	})
	if err == nil {
		return len(transactions), 0, uploadID, nil
	}
	if !postgresql.IsUniqueViolation(err) {
		return 0, 0, 0, fmt.Errorf("failed to persist statement: %w", err)
	}

	s.log.DebugContext(ctx, "bulk insert hit duplicates, retrying row by row",
		slog.String("filename", upload.Filename),
	)

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		uploadID, err = s.uploads.CreateUpload(ctx, upload)
		if err != nil {
			return fmt.Errorf("failed to create upload: %w", err)
		}

		saved, duplicates = 0, 0
		for _, t := range transactions {
			t.UploadID = uploadID

			inserted, err := s.transactions.SaveOne(ctx, t)
			if err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			if inserted {
				saved++
			} else {
				duplicates++
			}
		}

		return nil
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to persist statement: %w", err)
	}

	return saved, duplicates, uploadID, nil
}

// Banks returns the bank identifiers accepted by ProcessFile.
func (s *ExtratoService) Banks() []string {
	return s.registry.Banks()
}

// Transactions lists persisted transactions, newest first. When both from
// and to are set the period filter wins over pagination.
func (s *ExtratoService) Transactions(
	ctx context.Context,
	bank string,
	from, to *time.Time,
	limit, offset uint64,
) ([]*domain.Transaction, int, error) {
	if from != nil && to != nil {
		transactions, err := s.transactions.TransactionsByPeriod(ctx, *from, *to)
		if err != nil {
			return nil, -1, err
		}

		return transactions, len(transactions), nil
	}

	return s.transactions.TransactionsByBank(ctx, bank, limit, offset)
}
