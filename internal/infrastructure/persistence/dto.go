package persistence

import (
	"database/sql"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// saleSchema: строка таблицы sales.
type saleSchema struct {
	ListingKey   string    `db:"listing_key"`
	CollectionID string    `db:"collection_id"`
	AssetID      string    `db:"asset_id"`
	OwnerID      string    `db:"owner_id"`
	ApprovalID   int64     `db:"approval_id"`
	Conditions   []byte    `db:"conditions"`
	Bids         []byte    `db:"bids"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func fromSale(sale *entity.Sale) (saleSchema, error) {
	conditions, err := json.Marshal(nonNil(sale.Conditions))
	if err != nil {
		return saleSchema{}, err
	}

	bids, err := json.Marshal(nonNil(sale.Bids))
	if err != nil {
		return saleSchema{}, err
	}

	return saleSchema{
		ListingKey:   sale.Key().String(),
		CollectionID: sale.CollectionID,
		AssetID:      sale.AssetID,
		OwnerID:      sale.OwnerID.String(),
		ApprovalID:   int64(sale.ApprovalID), //nolint:gosec
		Conditions:   conditions,
		Bids:         bids,
		CreatedAt:    sale.CreatedAt,
		UpdatedAt:    sale.UpdatedAt,
	}, nil
}

func (s *saleSchema) toDomain() (*entity.Sale, error) {
	sale := &entity.Sale{
		CollectionID: s.CollectionID,
		AssetID:      s.AssetID,
		OwnerID:      value.AccountID(s.OwnerID),
		ApprovalID:   uint64(s.ApprovalID), //nolint:gosec
		Conditions:   map[value.Currency]decimal.Decimal{},
		Bids:         map[value.Currency]entity.Bid{},
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}

	if len(s.Conditions) > 0 {
		if err := json.Unmarshal(s.Conditions, &sale.Conditions); err != nil {
			return nil, err
		}
	}

	if len(s.Bids) > 0 {
		if err := json.Unmarshal(s.Bids, &sale.Bids); err != nil {
			return nil, err
		}
	}

	return sale, nil
}

// settlementSchema: строка таблицы settlements.
type settlementSchema struct {
	ID            string          `db:"id"`
	ListingKey    string          `db:"listing_key"`
	Currency      string          `db:"currency"`
	BuyerID       string          `db:"buyer_id"`
	Price         decimal.Decimal `db:"price"`
	Sale          []byte          `db:"sale"`
	Status        string          `db:"status"`
	Payout        []byte          `db:"payout"`
	Leftover      decimal.Decimal `db:"leftover"`
	FailureReason string          `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	ResolvedAt    sql.NullTime    `db:"resolved_at"`
}

func fromSettlement(settlement *entity.Settlement) (settlementSchema, error) {
	sale, err := json.Marshal(settlement.Sale)
	if err != nil {
		return settlementSchema{}, err
	}

	var payout []byte
	if settlement.Payout != nil {
		if payout, err = json.Marshal(settlement.Payout); err != nil {
			return settlementSchema{}, err
		}
	}

	schema := settlementSchema{
		ID:            settlement.ID,
		ListingKey:    settlement.ListingKey.String(),
		Currency:      settlement.Currency.String(),
		BuyerID:       settlement.BuyerID.String(),
		Price:         settlement.Price,
		Sale:          sale,
		Status:        settlement.Status.String(),
		Payout:        payout,
		Leftover:      settlement.Leftover,
		FailureReason: settlement.FailureReason,
		CreatedAt:     settlement.CreatedAt,
		UpdatedAt:     settlement.UpdatedAt,
	}

	if settlement.ResolvedAt != nil {
		schema.ResolvedAt = sql.NullTime{Time: *settlement.ResolvedAt, Valid: true}
	}

	return schema, nil
}

func (s *settlementSchema) toDomain() (*entity.Settlement, error) {
	settlement := &entity.Settlement{
		ID:            s.ID,
		ListingKey:    value.ListingKey(s.ListingKey),
		Currency:      value.Currency(s.Currency),
		BuyerID:       value.AccountID(s.BuyerID),
		Price:         s.Price,
		Status:        entity.SettlementStatus(s.Status),
		Leftover:      s.Leftover,
		FailureReason: s.FailureReason,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}

	if err := json.Unmarshal(s.Sale, &settlement.Sale); err != nil {
		return nil, err
	}

	if len(s.Payout) > 0 {
		if err := json.Unmarshal(s.Payout, &settlement.Payout); err != nil {
			return nil, err
		}
	}

	if s.ResolvedAt.Valid {
		resolvedAt := s.ResolvedAt.Time
		settlement.ResolvedAt = &resolvedAt
	}

	return settlement, nil
}

func nonNil[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}

	return m
}
