package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/internal/infrastructure/persistence/memory"
)

func newSale(owner value.AccountID) *entity.Sale {
	return &entity.Sale{
		CollectionID: "nft.near",
		AssetID:      "7",
		OwnerID:      owner,
		Conditions:   map[value.Currency]decimal.Decimal{value.NativeCurrency: decimal.NewFromInt(10)},
	}
}

func TestSaleRepository(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	sales := memory.NewStore().Sales()
	sale := newSale("alice.near")

	rq.NoError(sales.Save(ctx, sale))

	got, err := sales.Get(ctx, sale.Key())
	rq.NoError(err)
	rq.Equal(value.AccountID("alice.near"), got.OwnerID)

	// Returned sales are copies.
	got.Conditions[value.NativeCurrency] = decimal.NewFromInt(99)
	again, err := sales.Get(ctx, sale.Key())
	rq.NoError(err)
	rq.True(decimal.NewFromInt(10).Equal(again.Conditions[value.NativeCurrency]))

	errStop := errors.New("stop")

	_, err = sales.Update(ctx, sale.Key(), func(s *entity.Sale) error {
		s.OwnerID = "mallory.near"
		return errStop
	})
	rq.ErrorIs(err, errStop)

	again, err = sales.Get(ctx, sale.Key())
	rq.NoError(err)
	rq.Equal(value.AccountID("alice.near"), again.OwnerID, "failed update leaves the sale untouched")

	_, err = sales.Delete(ctx, sale.Key(), func(*entity.Sale) error { return errStop })
	rq.ErrorIs(err, errStop)

	removed, err := sales.Delete(ctx, sale.Key(), func(*entity.Sale) error { return nil })
	rq.NoError(err)
	rq.Equal(sale.Key(), removed.Key())

	_, err = sales.Get(ctx, sale.Key())
	rq.ErrorIs(err, domain.ErrSaleNotFound)

	_, err = sales.Delete(ctx, sale.Key(), func(*entity.Sale) error { return nil })
	rq.ErrorIs(err, domain.ErrSaleNotFound)
}

func TestSaleRepositorySaveReplacesCollidingListing(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	sales := memory.NewStore().Sales()

	first := &entity.Sale{CollectionID: "a:b", AssetID: "c", OwnerID: "alice.near", ApprovalID: 1}
	second := &entity.Sale{CollectionID: "a", AssetID: "b:c", OwnerID: "carol.near", ApprovalID: 7}

	rq.NoError(sales.Save(ctx, first))
	rq.NoError(sales.Save(ctx, second))

	got, err := sales.Get(ctx, first.Key())
	rq.NoError(err)
	rq.Equal("a", got.CollectionID)
	rq.Equal("b:c", got.AssetID)
	rq.Equal(uint64(7), got.ApprovalID)
}

func TestSettlementRepositoryReserveIsExclusive(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.NewStore()
	sale := newSale("alice.near")
	rq.NoError(store.Sales().Save(ctx, sale))

	const buyers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		reserved  int
		notFounds int
	)

	for i := range buyers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := store.Settlements().Reserve(ctx, sale.Key(), func(s *entity.Sale) (*entity.Settlement, error) {
				return &entity.Settlement{
					ID:         string(rune('a' + i)),
					ListingKey: s.Key(),
					Sale:       *s,
					Status:     entity.SettlementReserved,
				}, nil
			})

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				reserved++
			} else if errors.Is(err, domain.ErrSaleNotFound) {
				notFounds++
			}
		}()
	}

	wg.Wait()

	rq.Equal(1, reserved)
	rq.Equal(buyers-1, notFounds)

	_, err := store.Sales().Get(ctx, sale.Key())
	rq.ErrorIs(err, domain.ErrSaleNotFound)

	list, err := store.Settlements().ListByStatus(ctx, entity.SettlementReserved, "", 0)
	rq.NoError(err)
	rq.Len(list, 1)
}

func TestSettlementRepositoryUpdate(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := memory.NewStore()
	rq.NoError(store.Sales().Save(ctx, newSale("alice.near")))

	settlement, err := store.Settlements().Reserve(ctx, "nft.near:7", func(s *entity.Sale) (*entity.Settlement, error) {
		return &entity.Settlement{ID: "s1", Status: entity.SettlementReserved, CreatedAt: time.Now()}, nil
	})
	rq.NoError(err)

	_, err = store.Settlements().Update(ctx, settlement.ID, func(s *entity.Settlement) error {
		s.Status = entity.SettlementAwaitingResult
		return nil
	})
	rq.NoError(err)

	got, err := store.Settlements().Get(ctx, "s1")
	rq.NoError(err)
	rq.Equal(entity.SettlementAwaitingResult, got.Status)

	_, err = store.Settlements().Get(ctx, "missing")
	rq.ErrorIs(err, domain.ErrSettlementNotFound)

	_, err = store.Settlements().Update(ctx, "missing", func(*entity.Settlement) error { return nil })
	rq.ErrorIs(err, domain.ErrSettlementNotFound)
}
