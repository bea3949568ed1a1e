package postgresql

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/brfinance/extrato/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TableTransactions = "transactions"

	// ConstraintTransactionUnique enforces per-record uniqueness on
	// (date, document_number, amount, bank).
	ConstraintTransactionUnique = "uk_transactions_unique"
)

var transactionColumns = []string{
	"date",
	"entry",
	"details",
	"document_number",
	"amount",
	"currency",
	"entry_type",
	"category",
	"bank",
	"upload_id",
}

type TransactionsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewTransactionsRepository(pool *pgxpool.Pool) *TransactionsRepository {
	return &TransactionsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveAll bulk-inserts transactions with COPY. A unique violation aborts
// the whole batch; callers fall back to SaveOne to keep the valid rows.
func (r *TransactionsRepository) SaveAll(ctx context.Context, transactions ...*domain.Transaction) error {
	db := extractDB(ctx, r.pool)

	copied, err := db.CopyFrom(ctx, pgx.Identifier{TableTransactions}, transactionColumns,
		pgx.CopyFromSlice(len(transactions), func(i int) ([]any, error) {
			t := transactions[i]
			return []any{
				t.Date,
				t.Entry,
				t.Details,
				t.DocumentNumber,
				t.Amount,
				t.Currency,
				t.EntryType,
				t.Category,
				t.Bank,
				t.UploadID,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	if copied != int64(len(transactions)) {
		return fmt.Errorf("failed to save transactions: copied %d rows, expected %d", copied, len(transactions))
	}

	return nil
}

// SaveOne inserts a single transaction, reporting false when the row is a
// duplicate under the uniqueness constraint.
func (r *TransactionsRepository) SaveOne(ctx context.Context, t *domain.Transaction) (bool, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableTransactions).
		Columns(transactionColumns...).
		Values(
			t.Date,
			t.Entry,
			t.Details,
			t.DocumentNumber,
			t.Amount,
			t.Currency,
			t.EntryType,
			t.Category,
			t.Bank,
			t.UploadID,
		).
		Suffix("ON CONFLICT ON CONSTRAINT " + ConstraintTransactionUnique + " DO NOTHING").
		ToSql()
	if err != nil {
		return false, createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return false, executeQueryError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// TransactionsByBank lists persisted transactions newest first, optionally
// filtered by bank.
func (r *TransactionsRepository) TransactionsByBank(
	ctx context.Context,
	bank string,
	limit, offset uint64,
) ([]*domain.Transaction, int, error) {
	db := extractDB(ctx, r.pool)

	countQuery := r.qb.Select("COUNT(*)").From(TableTransactions)
	listQuery := r.qb.
		Select(append([]string{"id"}, transactionColumns...)...).
		From(TableTransactions).
		OrderBy("date DESC", "id DESC").
		Limit(limit).
		Offset(offset)

	if bank != "" {
		countQuery = countQuery.Where(sq.Eq{"bank": bank})
		listQuery = listQuery.Where(sq.Eq{"bank": bank})
	}

	sql, args, err := countQuery.ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	sql, args, err = listQuery.ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	transactions, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Transaction])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return transactions, total, nil
}

// TransactionsByPeriod lists transactions whose date falls within [from, to].
func (r *TransactionsRepository) TransactionsByPeriod(
	ctx context.Context,
	from, to time.Time,
) ([]*domain.Transaction, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(append([]string{"id"}, transactionColumns...)...).
		From(TableTransactions).
		Where(sq.GtOrEq{"date": from}).
		Where(sq.LtOrEq{"date": to}).
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	transactions, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Transaction])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return transactions, nil
}
