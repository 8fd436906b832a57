package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/pkg/errcodes"
)

const (
	selectSaleForUpdate = `SELECT * FROM sales WHERE listing_key = $1 FOR UPDATE`
	deleteSale          = `DELETE FROM sales WHERE listing_key = $1`
)

type SaleRepository struct {
	db *sqlx.DB
}

func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Save вставляет продажу или заменяет существующую с тем же ключом.
func (r *SaleRepository) Save(ctx context.Context, sale *entity.Sale) error {
	schema, err := fromSale(sale)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to encode sale")
	}

	query := `
		INSERT INTO sales (
			listing_key, collection_id, asset_id, owner_id, approval_id,
			conditions, bids, created_at, updated_at
		) VALUES (
			:listing_key, :collection_id, :asset_id, :owner_id, :approval_id,
			:conditions, :bids, :created_at, :updated_at
		)
		ON CONFLICT (listing_key) DO UPDATE SET
			collection_id = EXCLUDED.collection_id,
			asset_id      = EXCLUDED.asset_id,
			owner_id      = EXCLUDED.owner_id,
			approval_id   = EXCLUDED.approval_id,
			conditions    = EXCLUDED.conditions,
			bids          = EXCLUDED.bids,
			created_at    = EXCLUDED.created_at,
			updated_at    = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, schema); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to save sale")
	}
	return nil
}

func (r *SaleRepository) Get(ctx context.Context, key value.ListingKey) (*entity.Sale, error) {
	var schema saleSchema
	if err := r.db.GetContext(ctx, &schema, `SELECT * FROM sales WHERE listing_key = $1`, key.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get sale")
	}

	sale, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode sale")
	}
	return sale, nil
}

// Update блокирует строку, применяет fn и сохраняет результат.
func (r *SaleRepository) Update(
	ctx context.Context,
	key value.ListingKey,
	fn func(sale *entity.Sale) error,
) (*entity.Sale, error) {
	var updated *entity.Sale

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sale, err := lockSale(ctx, tx, key)
		if err != nil {
			return err
		}

		if err := fn(sale); err != nil {
			return err
		}

		schema, err := fromSale(sale)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to encode sale")
		}

		query := `
			UPDATE sales SET
				owner_id    = :owner_id,
				approval_id = :approval_id,
				conditions  = :conditions,
				bids        = :bids,
				updated_at  = :updated_at
			WHERE listing_key = :listing_key`

		if _, err := tx.NamedExecContext(ctx, query, schema); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to update sale")
		}

		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete удаляет продажу, если check не вернул ошибку.
func (r *SaleRepository) Delete(
	ctx context.Context,
	key value.ListingKey,
	check func(sale *entity.Sale) error,
) (*entity.Sale, error) {
	var removed *entity.Sale

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sale, err := lockSale(ctx, tx, key)
		if err != nil {
			return err
		}

		if err := check(sale); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, deleteSale, key.String()); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to delete sale")
		}

		removed = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func lockSale(ctx context.Context, tx *sqlx.Tx, key value.ListingKey) (*entity.Sale, error) {
	var schema saleSchema
	if err := tx.GetContext(ctx, &schema, selectSaleForUpdate, key.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to lock sale")
	}

	sale, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode sale")
	}
	return sale, nil
}
