package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wonrang2/auskorphi/internal/shared"
)

type memProduct struct {
	id       int64
	name     string
	sku      string
	category string
}

type memBatch struct {
	id        int64
	productID int64
	quantity  int64
	remaining int64
}

type memSale struct {
	id        int64
	productID int64
	date      time.Time
	quantity  int64
}

type memAllocation struct {
	saleID  int64
	batchID int64
	units   int64
	cost    decimal.Decimal
}

type memoryRepo struct {
	products    []memProduct
	batches     []memBatch
	sales       []memSale
	allocations []memAllocation
	nextID      int64

	failOnSale bool
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := *r
	snapshot.products = append([]memProduct(nil), r.products...)
	snapshot.batches = append([]memBatch(nil), r.batches...)
	snapshot.sales = append([]memSale(nil), r.sales...)
	snapshot.allocations = append([]memAllocation(nil), r.allocations...)
	if err := fn(ctx, r); err != nil {
		*r = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) FindProductBySKU(ctx context.Context, sku string) (int64, error) {
	for _, p := range r.products {
		if p.sku == sku && sku != "" {
			return p.id, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (r *memoryRepo) FindProductByName(ctx context.Context, name string) (int64, error) {
	for _, p := range r.products {
		if p.name == name {
			return p.id, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (r *memoryRepo) InsertProduct(ctx context.Context, name, sku, category string) (int64, error) {
	r.nextID++
	r.products = append(r.products, memProduct{id: r.nextID, name: name, sku: sku, category: category})
	return r.nextID, nil
}

func (r *memoryRepo) InsertBatch(ctx context.Context, productID int64, row Row, purchaseDate time.Time, remaining int64) (int64, error) {
	r.nextID++
	r.batches = append(r.batches, memBatch{id: r.nextID, productID: productID, quantity: row.Quantity, remaining: remaining})
	return r.nextID, nil
}

func (r *memoryRepo) InsertSale(ctx context.Context, productID int64, row Row, saleDate time.Time) (int64, error) {
	if r.failOnSale {
		return 0, errors.New("insert sale failed")
	}
	r.nextID++
	r.sales = append(r.sales, memSale{id: r.nextID, productID: productID, date: saleDate, quantity: row.QuantitySold})
	return r.nextID, nil
}

func (r *memoryRepo) InsertAllocation(ctx context.Context, saleID, batchID, units int64, cost decimal.Decimal) error {
	r.allocations = append(r.allocations, memAllocation{saleID: saleID, batchID: batchID, units: units, cost: cost})
	return nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func validRow() Row {
	return Row{
		ProductName:  "Nike Dunk Low",
		SKU:          "DD1391",
		Category:     " sneakers ",
		PurchaseDate: "2024-01-01",
		Quantity:     10,
		UnitPrice:    d("100"),
		ExchangeRate: d("38.5"),
		Freight:      d("20"),
	}
}

func TestImportCreatesProductsBatchesAndSales(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)

	sold := validRow()
	sold.QuantitySold = 4
	sold.SalePrice = d("5500")
	sold.SaleDate = "2024-02-01"

	reuse := validRow()
	reuse.PurchaseDate = "2024-03-01"

	other := Row{
		ProductName:  "Adidas Samba",
		PurchaseDate: "2024-01-15",
		Quantity:     5,
		UnitPrice:    d("80"),
		ExchangeRate: d("39"),
	}

	result, err := svc.Import(context.Background(), []Row{sold, reuse, other}, 1)
	require.NoError(t, err)

	// Two distinct products; the second row reuses the first by SKU.
	require.Equal(t, 2, result.Products)
	require.Equal(t, 3, result.Batches)
	require.Equal(t, 1, result.Sales)
	require.Equal(t, 0, result.Skipped)

	require.Len(t, repo.products, 2)
	require.Equal(t, "sneakers", repo.products[0].category)
	require.Len(t, repo.batches, 3)
	require.Equal(t, repo.batches[0].productID, repo.batches[1].productID)

	// The sold units come straight off the imported batch.
	require.EqualValues(t, 6, repo.batches[0].remaining)
	require.EqualValues(t, 10, repo.batches[1].remaining)

	require.Len(t, repo.allocations, 1)
	alloc := repo.allocations[0]
	require.Equal(t, repo.batches[0].id, alloc.batchID)
	require.EqualValues(t, 4, alloc.units)
	// 100*38.5 + 20*38.5/10 = 3927, customs always zero on import.
	require.True(t, alloc.cost.Equal(d("3927")))
}

func TestImportSkipsBadRows(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)

	noName := validRow()
	noName.ProductName = "  "
	badDate := validRow()
	badDate.PurchaseDate = "01/02/2024"
	oversold := validRow()
	oversold.QuantitySold = 11
	oversold.SalePrice = d("1")

	result, err := svc.Import(context.Background(), []Row{validRow(), noName, badDate, oversold}, 1)
	require.NoError(t, err)

	require.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 3)
	require.Equal(t, 1, result.Batches)
}

func TestImportAllRowsBadIsRejected(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)

	bad := validRow()
	bad.Quantity = 0

	_, err := svc.Import(context.Background(), []Row{bad}, 1)
	require.ErrorIs(t, err, ErrEmptyImport)
	require.Empty(t, repo.products)
}

func TestImportRollsBackOnFailure(t *testing.T) {
	repo := &memoryRepo{failOnSale: true}
	svc := NewService(repo, nil)

	sold := validRow()
	sold.QuantitySold = 2
	sold.SalePrice = d("100")

	_, err := svc.Import(context.Background(), []Row{validRow(), sold}, 1)
	require.Error(t, err)

	// The first row had already been written inside the transaction.
	require.Empty(t, repo.products)
	require.Empty(t, repo.batches)
	require.Empty(t, repo.sales)
}
