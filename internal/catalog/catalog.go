package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_shop/internal/domain"
)

// Catalog resolves products for cart reads and validation. It is
// read-only from the order core's perspective.
type Catalog interface {
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
}

// ProductSource is the authoritative backing store for products.
type ProductSource interface {
	ProductByID(ctx context.Context, productID int64) (*domain.Product, error)
}

type Service struct {
	source ProductSource
	cache  ProductCache
	sfg    singleflight.Group // Prevents cache stampede
}

func NewService(source ProductSource, cache ProductCache) *Service {
	return &Service{
		source: source,
		cache:  cache,
	}
}

func (s *Service) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(fmt.Sprint(productID), func() (interface{}, error) {
		product, err := s.cache.Get(ctx, productID)
		if err == nil {
			return product, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		product, errGet := s.source.ProductByID(ctx, productID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), product); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return product, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}
