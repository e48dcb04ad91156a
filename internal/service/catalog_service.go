package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"farmmarket/internal/access"
	"farmmarket/internal/events"
	"farmmarket/internal/ids"
	"farmmarket/internal/models"
	"farmmarket/internal/repository"
	"farmmarket/internal/security"
)

var errProductNotFound = fmt.Errorf("%w: product not found", ErrNotFound)

type CatalogService struct {
	products ProductStore
	events   EventPublisher
	log      zerolog.Logger
}

func NewCatalogService(products ProductStore, events EventPublisher, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		events:   events,
		log:      log,
	}
}

func (s *CatalogService) ListPublic(ctx context.Context) ([]models.ProductListing, error) {
	listings, err := s.products.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return listings, nil
}

func (s *CatalogService) ListMine(ctx context.Context, owner security.Claims) ([]models.Product, error) {
	if err := access.RequireApprovedFarmer.Check(owner); err != nil {
		return nil, err
	}
	products, err := s.products.ListByFarmer(ctx, owner.UserID)
	if err != nil {
		return nil, fmt.Errorf("list own products: %w", err)
	}
	return products, nil
}

type CreateProductInput struct {
	Name        string
	Price       *float64
	Quantity    *int
	ImageURL    *string
	Description *string
}

// Create keeps the historical required-field rule: a zero price or zero
// quantity counts as missing.
func (s *CatalogService) Create(ctx context.Context, owner security.Claims, input CreateProductInput) (models.Product, error) {
	if err := access.RequireApprovedFarmer.Check(owner); err != nil {
		return models.Product{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price == nil || *input.Price == 0 || input.Quantity == nil || *input.Quantity == 0 {
		return models.Product{}, fmt.Errorf("%w: name, price and quantity are required", ErrValidation)
	}
	price, err := checkPrice(*input.Price)
	if err != nil {
		return models.Product{}, err
	}
	if err := checkQuantity(*input.Quantity); err != nil {
		return models.Product{}, err
	}

	product, err := s.products.Create(ctx, models.Product{
		ID:          ids.New(),
		FarmerID:    owner.UserID,
		Name:        name,
		Price:       price,
		Quantity:    *input.Quantity,
		ImageURL:    optional(input.ImageURL),
		Description: optional(input.Description),
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.emit(ctx, events.ProductCreated, owner, product.ID, map[string]any{"name": product.Name})
	return product, nil
}

// Update merges the provided fields onto the owner's product. Fields left
// out keep their value; optional fields can be replaced but not cleared.
func (s *CatalogService) Update(ctx context.Context, owner security.Claims, productID string, patch models.ProductPatch) (models.Product, error) {
	if err := access.RequireApprovedFarmer.Check(owner); err != nil {
		return models.Product{}, err
	}

	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return models.Product{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		patch.Name = &trimmed
	}
	if patch.Price != nil {
		price, err := checkPrice(*patch.Price)
		if err != nil {
			return models.Product{}, err
		}
		patch.Price = &price
	}
	if patch.Quantity != nil {
		if err := checkQuantity(*patch.Quantity); err != nil {
			return models.Product{}, err
		}
	}
	// Blank optional fields are treated as omitted; they cannot be cleared.
	patch.ImageURL = optional(patch.ImageURL)
	patch.Description = optional(patch.Description)

	product, err := s.products.UpdateOwned(ctx, productID, owner.UserID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Product{}, errProductNotFound
		}
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}

	s.emit(ctx, events.ProductUpdated, owner, product.ID, map[string]any{"name": product.Name})
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, owner security.Claims, productID string) error {
	if err := access.RequireApprovedFarmer.Check(owner); err != nil {
		return err
	}

	if err := s.products.DeleteOwned(ctx, productID, owner.UserID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return errProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.emit(ctx, events.ProductDeleted, owner, productID, nil)
	return nil
}

func (s *CatalogService) emit(ctx context.Context, t events.Type, owner security.Claims, productID string, data map[string]any) {
	publish(ctx, s.events, s.log, events.Event{
		Type:       t,
		SubjectID:  productID,
		ActorID:    owner.UserID,
		Data:       data,
		OccurredAt: time.Now(),
	})
}

const (
	minPrice = 0.01
	// maxPrice is the largest value a NUMERIC(12,2) column holds.
	maxPrice    = 9999999999.99
	maxQuantity = math.MaxInt32
)

// checkPrice rounds to cents, the precision prices are stored at, and
// rejects values the products table cannot hold.
func checkPrice(price float64) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	cents := math.Round(price*100) / 100
	if cents < minPrice {
		return 0, fmt.Errorf("%w: price must be at least %.2f", ErrValidation, minPrice)
	}
	if cents > maxPrice {
		return 0, fmt.Errorf("%w: price must not exceed %.2f", ErrValidation, maxPrice)
	}
	return cents, nil
}

func checkQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	if int64(quantity) > maxQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", ErrValidation, maxQuantity)
	}
	return nil
}

func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
