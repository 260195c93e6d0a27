package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chung140204/storefront-api/internal/domain"
	"github.com/chung140204/storefront-api/internal/repositories"
)

// Catalog failure sentinels, matched by the HTTP layer via errors.Is.
var (
	ErrCatalogInvalidInput    = errors.New("catalog: invalid input")
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
)

// CatalogServiceDeps wires the catalog service.
type CatalogServiceDeps struct {
	Catalog     repositories.CatalogRepository
	Clock       Clock
	IDGenerator IDGenerator
	Logger      Logger
}

type catalogService struct {
	catalog repositories.CatalogRepository
	clock   Clock
	idGen   IDGenerator
	logger  Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service requires catalog repository")
	}
	svc := &catalogService{
		catalog: deps.Catalog,
		clock:   deps.Clock,
		idGen:   deps.IDGenerator,
		logger:  deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = defaultClock
	}
	if svc.idGen == nil {
		svc.idGen = NewULIDGenerator()
	}
	if svc.logger == nil {
		svc.logger = noopLogger
	}
	return svc, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, s.translateCatalogError(err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx, limit)
	if err != nil {
		return nil, s.translateCatalogError(err)
	}
	return products, nil
}

// UpsertProduct validates and writes the product. A missing ID means create;
// the ID is minted here so the handler can return it.
func (s *catalogService) UpsertProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.ID = strings.TrimSpace(product.ID)
	product.Name = strings.TrimSpace(product.Name)
	product.CategoryID = strings.TrimSpace(product.CategoryID)
	if product.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if product.Price < 0 {
		return domain.Product{}, fmt.Errorf("%w: product price must not be negative", ErrCatalogInvalidInput)
	}
	if product.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: product stock must not be negative", ErrCatalogInvalidInput)
	}
	if product.CategoryID == "" {
		return domain.Product{}, fmt.Errorf("%w: product category is required", ErrCatalogInvalidInput)
	}
	if _, err := s.catalog.GetCategory(ctx, product.CategoryID); err != nil {
		var orderErr *repositories.OrderError
		if errors.As(err, &orderErr) && orderErr.Code == repositories.OrderErrorNotFound {
			return domain.Product{}, fmt.Errorf("%w: unknown category %s", ErrCatalogInvalidInput, product.CategoryID)
		}
		return domain.Product{}, err
	}
	if product.ID == "" {
		product.ID = s.idGen()
	}
	product.UpdatedAt = s.clock().UTC()

	saved, err := s.catalog.UpsertProduct(ctx, product)
	if err != nil {
		return domain.Product{}, s.translateCatalogError(err)
	}
	s.logger(ctx, "catalog.product_upserted", map[string]any{"product_id": saved.ID})
	return saved, nil
}

// UpsertCategory validates and writes the category.
func (s *catalogService) UpsertCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	category.ID = strings.TrimSpace(category.ID)
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return domain.Category{}, fmt.Errorf("%w: category name is required", ErrCatalogInvalidInput)
	}
	if category.TaxRate < 0 || category.TaxRate > 1 {
		return domain.Category{}, fmt.Errorf("%w: category tax rate must be between 0 and 1", ErrCatalogInvalidInput)
	}
	if category.ID == "" {
		category.ID = s.idGen()
	}
	category.UpdatedAt = s.clock().UTC()

	saved, err := s.catalog.UpsertCategory(ctx, category)
	if err != nil {
		return domain.Category{}, s.translateCatalogError(err)
	}
	s.logger(ctx, "catalog.category_upserted", map[string]any{"category_id": saved.ID})
	return saved, nil
}

func (s *catalogService) translateCatalogError(err error) error {
	var orderErr *repositories.OrderError
	if errors.As(err, &orderErr) {
		switch orderErr.Code {
		case repositories.OrderErrorNotFound:
			return fmt.Errorf("%w: %s", ErrCatalogProductNotFound, orderErr.Message)
		case repositories.OrderErrorInvalidInput:
			return fmt.Errorf("%w: %s", ErrCatalogInvalidInput, orderErr.Message)
		}
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrCatalogProductNotFound, err)
	}
	return err
}
