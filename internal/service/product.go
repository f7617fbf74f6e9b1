package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/catalog"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/repository"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/cache"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
)

type ListProductsParams struct {
	PageNum  int
	PageSize int
}

type ProductService interface {
	// IngestCSV parses data as a product CSV and inserts every valid row whose
	// sku is not yet stored, all in one transaction.
	IngestCSV(ctx context.Context, data []byte) (model.IngestReport, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error)
	SearchProducts(ctx context.Context, filter model.SearchFilter) ([]model.Product, error)
}

type productService struct {
	logger        *slog.Logger
	db            db.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	validator     *catalog.Validator
	cache         cache.Cache
	now           func() time.Time
}

func NewProductService(
	logger *slog.Logger,
	db db.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	validator *catalog.Validator,
	cache cache.Cache,
) ProductService {
	return &productService{
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		validator:     validator,
		cache:         cache,
		now:           time.Now,
	}
}

func (s *productService) ListProducts(ctx context.Context, params ListProductsParams) ([]model.Product, error) {
	pageNum := max(params.PageNum, 1)
	pageSize := max(params.PageSize, 1)

	// pages past the largest representable offset are empty
	if int64(pageNum-1) > math.MaxInt64/int64(pageSize) {
		return []model.Product{}, nil
	}

	key := fmt.Sprintf("list:%d:%d", pageNum, pageSize)
	return s.cached(ctx, key, func() ([]model.Product, error) {
		products, err := s.productRepo.ListProducts(ctx, repository.ListProductsParams{
			Offset: int64(pageNum-1) * int64(pageSize),
			Limit:  int64(pageSize),
		})
		if err != nil {
			return nil, fmt.Errorf("product repository list products: %w", err)
		}
		return products, nil
	})
}

func (s *productService) SearchProducts(ctx context.Context, filter model.SearchFilter) ([]model.Product, error) {
	return s.cached(ctx, searchCacheKey(filter), func() ([]model.Product, error) {
		products, err := s.productRepo.SearchProducts(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("product repository search products: %w", err)
		}
		return products, nil
	})
}

// cached serves key from the cache and fills it on a miss. The cache version
// is read before loading, so rows loaded ahead of a concurrent ingest are stored
// under the version that ingest retires. Cache failures are logged and fall
// through to the repository.
func (s *productService) cached(ctx context.Context, key string, load func() ([]model.Product, error)) ([]model.Product, error) {
	version, err := s.cache.Version(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "error reading query cache version", slog.Any("error", err))
		return load()
	}

	var products []model.Product
	hit, err := s.cache.Get(ctx, version, key, &products)
	if err != nil {
		s.logger.WarnContext(ctx, "error reading query cache", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return products, nil
	}

	products, err = load()
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, version, key, products); err != nil {
		s.logger.WarnContext(ctx, "error writing query cache", slog.String("key", key), slog.Any("error", err))
	}

	return products, nil
}

func searchCacheKey(filter model.SearchFilter) string {
	text := func(s *string) string {
		if s == nil || *s == "" {
			return "-"
		}
		return strconv.Quote(strings.ToLower(*s))
	}
	num := func(f *float64) string {
		if f == nil {
			return "-"
		}
		return strconv.FormatFloat(*f, 'g', -1, 64)
	}

	return strings.Join([]string{
		"search",
		text(filter.Brand),
		text(filter.Color),
		num(filter.MinPrice),
		num(filter.MaxPrice),
	}, ":")
}
