package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopsmoke/internal/product/domain"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
	"github.com/utafrali/shopsmoke/pkg/pagination"
)

func newProductTestFixture(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:          "p-1",
		Name:        "Widget",
		Slug:        "widget",
		Description: "A widget",
		Price:       1999,
		Stock:       10,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productColumns() []string {
	return []string{"id", "name", "slug", "description", "price", "stock", "created_at", "updated_at"}
}

func productRow(p *domain.Product) *pgxmock.Rows {
	return pgxmock.NewRows(productColumns()).AddRow(
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
}

func TestProductRepository_Create_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs(p.ID).
		WillReturnRows(productRow(p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Stock, got.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_ReturnsPageAndTotal(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	p := sampleProduct()
	params := pagination.Params{Page: 1, PerPage: 10}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM products ORDER BY created_at DESC").
		WithArgs(params.PerPage, params.Offset).
		WillReturnRows(productRow(p))

	products, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(p.Name, p.Slug, p.Description, p.Price, p.Stock, pgxmock.AnyArg(), p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	p := sampleProduct()
	p.Stock = 8

	mock.ExpectQuery("UPDATE products").
		WithArgs(-2, pgxmock.AnyArg(), p.ID).
		WillReturnRows(productRow(p))

	got, err := repo.AdjustStock(context.Background(), p.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_Insufficient(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	p := sampleProduct()

	// Conditional update matches no rows; the follow-up read finds the
	// product, so the failure is insufficient stock.
	mock.ExpectQuery("UPDATE products").
		WithArgs(-1000, pgxmock.AnyArg(), p.ID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs(p.ID).
		WillReturnRows(productRow(p))

	_, err := repo.AdjustStock(context.Background(), p.ID, -1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_AdjustStock_NotFound(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE products").
		WithArgs(-1, pgxmock.AnyArg(), "missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.AdjustStock(context.Background(), "missing", -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_Success(t *testing.T) {
	repo, mock := newProductTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM products").
		WithArgs("p-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "p-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
