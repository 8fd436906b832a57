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

type SettlementRepository struct {
	db *sqlx.DB
}

func NewSettlementRepository(db *sqlx.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Reserve атомарно снимает продажу с рынка и записывает расчёт по ней.
func (r *SettlementRepository) Reserve(
	ctx context.Context,
	key value.ListingKey,
	fn func(sale *entity.Sale) (*entity.Settlement, error),
) (*entity.Settlement, error) {
	var reserved *entity.Settlement

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sale, err := lockSale(ctx, tx, key)
		if err != nil {
			return err
		}

		settlement, err := fn(sale)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, deleteSale, key.String()); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to delete sale")
		}

		schema, err := fromSettlement(settlement)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to encode settlement")
		}

		query := `
			INSERT INTO settlements (
				id, listing_key, currency, buyer_id, price, sale, status,
				payout, leftover, failure_reason, created_at, updated_at, resolved_at
			) VALUES (
				:id, :listing_key, :currency, :buyer_id, :price, :sale, :status,
				:payout, :leftover, :failure_reason, :created_at, :updated_at, :resolved_at
			)`

		if _, err := tx.NamedExecContext(ctx, query, schema); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert settlement")
		}

		reserved = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reserved, nil
}

func (r *SettlementRepository) Get(ctx context.Context, id string) (*entity.Settlement, error) {
	var schema settlementSchema
	if err := r.db.GetContext(ctx, &schema, `SELECT * FROM settlements WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSettlementNotFound
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get settlement")
	}

	settlement, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode settlement")
	}
	return settlement, nil
}

// Update блокирует расчёт, применяет fn и сохраняет изменившиеся поля.
func (r *SettlementRepository) Update(
	ctx context.Context,
	id string,
	fn func(settlement *entity.Settlement) error,
) (*entity.Settlement, error) {
	var updated *entity.Settlement

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current settlementSchema
		if err := tx.GetContext(ctx, &current, `SELECT * FROM settlements WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrSettlementNotFound
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to lock settlement")
		}

		settlement, err := current.toDomain()
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to decode settlement")
		}

		if err := fn(settlement); err != nil {
			return err
		}

		schema, err := fromSettlement(settlement)
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to encode settlement")
		}

		query := `
			UPDATE settlements SET
				status         = :status,
				payout         = :payout,
				leftover       = :leftover,
				failure_reason = :failure_reason,
				updated_at     = :updated_at,
				resolved_at    = :resolved_at
			WHERE id = :id`

		if _, err := tx.NamedExecContext(ctx, query, schema); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to update settlement")
		}

		updated = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *SettlementRepository) ListByStatus(
	ctx context.Context,
	status entity.SettlementStatus,
	afterID string,
	limit int,
) ([]*entity.Settlement, error) {
	query := `SELECT * FROM settlements WHERE status = $1 AND id > $2 ORDER BY id`
	args := []any{status.String(), afterID}

	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	var schemas []settlementSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list settlements")
	}

	settlements := make([]*entity.Settlement, 0, len(schemas))

	for i := range schemas {
		settlement, err := schemas[i].toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to decode settlement")
		}

		settlements = append(settlements, settlement)
	}

	return settlements, nil
}
