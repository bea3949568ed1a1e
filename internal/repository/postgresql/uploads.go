package postgresql

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/brfinance/extrato/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableUploads = "uploads"

type UploadsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewUploadsRepository(pool *pgxpool.Pool) *UploadsRepository {
	return &UploadsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ExistsByHash reports whether a file with the given content hash was
// already accepted.
func (r *UploadsRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("1").
		Prefix("SELECT EXISTS (").
		From(TableUploads).
		Where(sq.Eq{"content_hash": hash}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, createQueryError(err)
	}

	var exists bool
	if err := db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, scanRowError(err)
	}

	return exists, nil
}

// CreateUpload inserts the upload record for an accepted file and returns
// its id.
func (r *UploadsRepository) CreateUpload(ctx context.Context, upload *domain.Upload) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableUploads).
		Columns(
			"content_hash",
			"filename",
			"upload_date",
			"bank",
		).
		Values(
			upload.ContentHash,
			upload.Filename,
			upload.UploadDate,
			upload.Bank,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, scanRowError(err)
	}

	return id, nil
}
