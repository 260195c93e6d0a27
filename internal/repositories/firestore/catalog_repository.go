package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chung140204/storefront-api/internal/domain"
	pfirestore "github.com/chung140204/storefront-api/internal/platform/firestore"
	"github.com/chung140204/storefront-api/internal/repositories"
)

const defaultProductListLimit = 100

// CatalogRepository provides product and category access. Writes exist for
// the admin seeding endpoints; stock changes from the order workflows go
// through the stock ledger instead.
type CatalogRepository struct {
	provider *pfirestore.Provider
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{provider: provider}, nil
}

// GetProduct loads a single product.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "product id is required", nil)
	}
	client, err := r.client(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	snap, err := client.Collection(productsCollection).Doc(productID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Product{}, repositories.NewOrderError(repositories.OrderErrorNotFound,
			fmt.Sprintf("product %s not found", productID), err)
	}
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.get", err)
	}

	var doc productDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", productID, err)
	}
	return doc.toDomain(productID), nil
}

// ListProducts returns active products ordered by name.
func (r *CatalogRepository) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > defaultProductListLimit {
		limit = defaultProductListLimit
	}
	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	iter := client.Collection(productsCollection).
		Where("active", "==", true).
		OrderBy("name", firestore.Asc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var products []domain.Product
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("products.list", err)
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
		}
		products = append(products, doc.toDomain(snap.Ref.ID))
	}
	return products, nil
}

// GetCategory loads a single category.
func (r *CatalogRepository) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return domain.Category{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "category id is required", nil)
	}
	client, err := r.client(ctx)
	if err != nil {
		return domain.Category{}, err
	}

	snap, err := client.Collection(categoriesCollection).Doc(categoryID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Category{}, repositories.NewOrderError(repositories.OrderErrorNotFound,
			fmt.Sprintf("category %s not found", categoryID), err)
	}
	if err != nil {
		return domain.Category{}, pfirestore.WrapError("categories.get", err)
	}

	var doc categoryDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Category{}, fmt.Errorf("decode category %s: %w", categoryID, err)
	}
	return doc.toDomain(categoryID), nil
}

// UpsertProduct creates or replaces a product document.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return domain.Product{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "product id is required", nil)
	}
	client, err := r.client(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	doc := productDocument{
		Name:       product.Name,
		Price:      product.Price,
		Stock:      int64(product.Stock),
		CategoryID: product.CategoryID,
		Active:     product.Active,
		UpdatedAt:  time.Now().UTC(),
	}
	if _, err := client.Collection(productsCollection).Doc(productID).Set(ctx, doc); err != nil {
		return domain.Product{}, pfirestore.WrapError("products.upsert", err)
	}
	return doc.toDomain(productID), nil
}

// UpsertCategory creates or replaces a category document.
func (r *CatalogRepository) UpsertCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	categoryID := strings.TrimSpace(category.ID)
	if categoryID == "" {
		return domain.Category{}, repositories.NewOrderError(repositories.OrderErrorInvalidInput, "category id is required", nil)
	}
	client, err := r.client(ctx)
	if err != nil {
		return domain.Category{}, err
	}

	doc := categoryDocument{
		Name:      category.Name,
		TaxRate:   category.TaxRate,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := client.Collection(categoriesCollection).Doc(categoryID).Set(ctx, doc); err != nil {
		return domain.Category{}, pfirestore.WrapError("categories.upsert", err)
	}
	return doc.toDomain(categoryID), nil
}

func (r *CatalogRepository) client(ctx context.Context) (*firestore.Client, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("catalog repository not initialised")
	}
	return r.provider.Client(ctx)
}
