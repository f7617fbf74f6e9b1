package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/metric"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/service"
)

const (
	uploadField      = "product_file"
	uploadFieldAlias = "file"

	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

type productResponse struct {
	Sku      string  `json:"sku"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Color    *string `json:"color"`
	Size     *string `json:"size"`
	Mrp      float64 `json:"mrp"`
	Price    float64 `json:"price"`
	Quantity *int    `json:"quantity"`
}

type productHandler struct {
	productSvc service.ProductService
	uploadCfg  config.Upload
	metrics    *metric.Metrics

	// defaultPageSize applies when page_size is omitted.
	defaultPageSize int
}

func newProductHandler(
	productSvc service.ProductService,
	uploadCfg config.Upload,
	defaultPageSize uint32,
	metrics *metric.Metrics,
) *productHandler {
	return &productHandler{
		productSvc:      productSvc,
		uploadCfg:       uploadCfg,
		defaultPageSize: int(defaultPageSize),
		metrics:         metrics,
	}
}

func (h *productHandler) Upload(w http.ResponseWriter, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadCfg.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.FileTooLargeErr.WrapParent(err)
		}
		return nil, apperr.MissingFileErr.WrapParent(err)
	}
	//nolint:errcheck
	defer r.MultipartForm.RemoveAll()

	file, err := formFile(r)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	report, err := h.productSvc.IngestCSV(r.Context(), data)
	if err != nil {
		return nil, fmt.Errorf("product service ingest csv: %w", err)
	}

	h.metrics.IngestedRows.WithLabelValues("accepted").Add(float64(report.Accepted))
	h.metrics.IngestedRows.WithLabelValues("rejected").Add(float64(len(report.Rejected)))

	return report, nil
}

func formFile(r *http.Request) (multipart.File, error) {
	for _, field := range []string{uploadField, uploadFieldAlias} {
		file, _, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, apperr.MissingFileErr.WrapParent(err)
		}
		return file, nil
	}
	return nil, apperr.MissingFileErr
}

func (h *productHandler) ListProducts(_ http.ResponseWriter, r *http.Request) (any, error) {
	query := r.URL.Query()

	pageNum := 1
	pageSize := h.defaultPageSize
	if err := runtime.BindQueryParameter("form", true, false, "page_num", query, &pageNum); err != nil {
		return nil, apperr.ValidationErr.WrapParent(err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_size", query, &pageSize); err != nil {
		return nil, apperr.ValidationErr.WrapParent(err)
	}

	products, err := h.productSvc.ListProducts(r.Context(), service.ListProductsParams{
		PageNum:  pageNum,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("product service list products: %w", err)
	}

	return toProductResponses(products), nil
}

func (h *productHandler) SearchProducts(_ http.ResponseWriter, r *http.Request) (any, error) {
	query := r.URL.Query()

	var filter model.SearchFilter
	binds := []struct {
		name string
		dest any
	}{
		{"brand_filter", &filter.Brand},
		{"color_filter", &filter.Color},
		{"min_price_filter", &filter.MinPrice},
		{"max_price_filter", &filter.MaxPrice},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return nil, apperr.ValidationErr.WrapParent(err)
		}
	}

	products, err := h.productSvc.SearchProducts(r.Context(), filter)
	if err != nil {
		return nil, fmt.Errorf("product service search products: %w", err)
	}

	return toProductResponses(products), nil
}

func toProductResponses(products []model.Product) []productResponse {
	items := make([]productResponse, 0, len(products))
	for _, p := range products {
		items = append(items, productResponse{
			Sku:      p.Sku,
			Name:     p.Name,
			Brand:    p.Brand,
			Color:    p.Color,
			Size:     p.Size,
			Mrp:      p.Mrp,
			Price:    p.Price,
			Quantity: p.Quantity,
		})
	}
	return items
}
