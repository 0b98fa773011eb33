package batches

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wonrang2/auskorphi/internal/shared"
)

type memoryRepo struct {
	batches   map[int64]*BatchWithProduct
	allocated map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{batches: make(map[int64]*BatchWithProduct), allocated: make(map[int64]bool)}
}

func (r *memoryRepo) List(ctx context.Context, productID int64) ([]BatchWithProduct, error) {
	out := []BatchWithProduct{}
	for _, b := range r.batches {
		if productID == 0 || b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (BatchWithProduct, error) {
	b, ok := r.batches[id]
	if !ok {
		return BatchWithProduct{}, shared.ErrNotFound
	}
	return *b, nil
}

func (r *memoryRepo) Create(ctx context.Context, in CreateInput) (int64, error) {
	r.nextID++
	r.batches[r.nextID] = &BatchWithProduct{Batch: Batch{
		ID:           r.nextID,
		ProductID:    in.ProductID,
		PurchaseDate: in.PurchaseDate,
		Quantity:     in.Quantity,
		RemainingQty: in.Quantity,
		UnitPrice:    in.UnitPrice,
		ExchangeRate: in.ExchangeRate,
		Freight:      in.Freight,
		Customs:      in.Customs,
		Notes:        in.Notes,
	}}
	return r.nextID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, in CreateInput) error {
	b, ok := r.batches[id]
	if !ok {
		return shared.ErrNotFound
	}
	b.ProductID = in.ProductID
	b.PurchaseDate = in.PurchaseDate
	b.Quantity = in.Quantity
	b.RemainingQty = in.Quantity
	b.UnitPrice = in.UnitPrice
	b.ExchangeRate = in.ExchangeRate
	b.Freight = in.Freight
	b.Customs = in.Customs
	b.Notes = in.Notes
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.batches[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.batches, id)
	return nil
}

func (r *memoryRepo) HasAllocations(ctx context.Context, id int64) (bool, error) {
	return r.allocated[id], nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func validInput() CreateInput {
	return CreateInput{
		ProductID:    1,
		PurchaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Quantity:     10,
		UnitPrice:    d("100"),
		ExchangeRate: d("38.5"),
		Freight:      d("20"),
		Customs:      d("50"),
	}
}

func TestCreateStartsFull(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	b, err := svc.Create(context.Background(), validInput(), 1)
	require.NoError(t, err)
	require.Equal(t, b.Quantity, b.RemainingQty)
	// 100*38.5 + 20*38.5/10 + 50/10 = 3932
	require.True(t, b.LandedUnitCost().Equal(d("3932")))
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	in := validInput()
	in.ProductID = 0
	_, err := svc.Create(ctx, in, 1)
	require.ErrorIs(t, err, ErrMissingFields)

	in = validInput()
	in.Quantity = 0
	_, err = svc.Create(ctx, in, 1)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	in = validInput()
	in.ExchangeRate = decimal.Zero
	_, err = svc.Create(ctx, in, 1)
	require.ErrorIs(t, err, ErrInvalidMoney)

	in = validInput()
	in.Freight = d("-1")
	_, err = svc.Create(ctx, in, 1)
	require.ErrorIs(t, err, ErrInvalidMoney)
}

func TestUpdateResetsRemaining(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), 1)
	require.NoError(t, err)

	in := validInput()
	in.Quantity = 25
	updated, err := svc.Update(ctx, created.ID, in, 1)
	require.NoError(t, err)
	require.EqualValues(t, 25, updated.Quantity)
	require.EqualValues(t, 25, updated.RemainingQty)
}

func TestUpdateAndDeleteLockAfterAllocation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), 1)
	require.NoError(t, err)
	repo.allocated[created.ID] = true

	_, err = svc.Update(ctx, created.ID, validInput(), 1)
	require.ErrorIs(t, err, ErrBatchLocked)
	require.ErrorIs(t, svc.Delete(ctx, created.ID, 1), ErrBatchLocked)

	repo.allocated[created.ID] = false
	require.NoError(t, svc.Delete(ctx, created.ID, 1))
}

func TestDeleteNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	require.ErrorIs(t, svc.Delete(context.Background(), 404, 1), shared.ErrNotFound)
}
