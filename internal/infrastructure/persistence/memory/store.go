// Package memory keeps sales and settlements in process memory. It backs the
// memory storage driver and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

type Store struct {
	mu          sync.Mutex
	sales       map[value.ListingKey]*entity.Sale
	settlements map[string]*entity.Settlement
}

func NewStore() *Store {
	return &Store{
		sales:       make(map[value.ListingKey]*entity.Sale),
		settlements: make(map[string]*entity.Settlement),
	}
}

func (s *Store) Sales() *SaleRepository {
	return &SaleRepository{store: s}
}

func (s *Store) Settlements() *SettlementRepository {
	return &SettlementRepository{store: s}
}

type SaleRepository struct {
	store *Store
}

func (r *SaleRepository) Save(_ context.Context, sale *entity.Sale) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.sales[sale.Key()] = sale.Clone()

	return nil
}

func (r *SaleRepository) Get(_ context.Context, key value.ListingKey) (*entity.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sale, ok := r.store.sales[key]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}

	return sale.Clone(), nil
}

func (r *SaleRepository) Update(
	_ context.Context,
	key value.ListingKey,
	fn func(sale *entity.Sale) error,
) (*entity.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sale, ok := r.store.sales[key]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}

	updated := sale.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	r.store.sales[key] = updated

	return updated.Clone(), nil
}

func (r *SaleRepository) Delete(
	_ context.Context,
	key value.ListingKey,
	check func(sale *entity.Sale) error,
) (*entity.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sale, ok := r.store.sales[key]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}

	if err := check(sale.Clone()); err != nil {
		return nil, err
	}

	delete(r.store.sales, key)

	return sale, nil
}

type SettlementRepository struct {
	store *Store
}

func (r *SettlementRepository) Reserve(
	_ context.Context,
	key value.ListingKey,
	fn func(sale *entity.Sale) (*entity.Settlement, error),
) (*entity.Settlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sale, ok := r.store.sales[key]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}

	settlement, err := fn(sale.Clone())
	if err != nil {
		return nil, err
	}

	delete(r.store.sales, key)
	r.store.settlements[settlement.ID] = cloneSettlement(settlement)

	return settlement, nil
}

func (r *SettlementRepository) Get(_ context.Context, id string) (*entity.Settlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	settlement, ok := r.store.settlements[id]
	if !ok {
		return nil, domain.ErrSettlementNotFound
	}

	return cloneSettlement(settlement), nil
}

func (r *SettlementRepository) Update(
	_ context.Context,
	id string,
	fn func(settlement *entity.Settlement) error,
) (*entity.Settlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	settlement, ok := r.store.settlements[id]
	if !ok {
		return nil, domain.ErrSettlementNotFound
	}

	updated := cloneSettlement(settlement)
	if err := fn(updated); err != nil {
		return nil, err
	}

	r.store.settlements[id] = updated

	return cloneSettlement(updated), nil
}

// ListByStatus returns settlements in id order, which for xid ids is also
// creation order.
func (r *SettlementRepository) ListByStatus(
	_ context.Context,
	status entity.SettlementStatus,
	afterID string,
	limit int,
) ([]*entity.Settlement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []*entity.Settlement

	for _, settlement := range r.store.settlements {
		if settlement.Status == status && settlement.ID > afterID {
			result = append(result, cloneSettlement(settlement))
		}
	}

	slices.SortFunc(result, func(a, b *entity.Settlement) int {
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func cloneSettlement(settlement *entity.Settlement) *entity.Settlement {
	c := *settlement
	c.Sale = *settlement.Sale.Clone()

	if settlement.Payout != nil {
		c.Payout = make(entity.Payout, len(settlement.Payout))
		for receiver, amount := range settlement.Payout {
			c.Payout[receiver] = amount
		}
	}

	if settlement.ResolvedAt != nil {
		resolvedAt := *settlement.ResolvedAt
		c.ResolvedAt = &resolvedAt
	}

	return &c
}
