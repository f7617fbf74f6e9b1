package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/catalog"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/event"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/log"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/repository"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/outbox"
)

func (s *productService) IngestCSV(ctx context.Context, data []byte) (model.IngestReport, error) {
	rows, err := catalog.Decode(data)
	if err != nil {
		return model.IngestReport{}, apperr.CSVFormatErr.WrapParent(err)
	}

	uploadID := uuid.NewString()
	ctx = log.NewContext(ctx, slog.String("upload_id", uploadID))

	var report model.IngestReport
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		report, err = s.ingestRows(ctx, db, uploadID, rows)
		return err
	}); err != nil {
		return model.IngestReport{}, fmt.Errorf("db with tx: %w", err)
	}

	if report.Accepted > 0 {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.ErrorContext(ctx, "error invalidating query cache", slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "csv ingested",
		slog.Int("rows", len(rows)),
		slog.Int("accepted", report.Accepted),
		slog.Int("rejected", len(report.Rejected)),
	)

	return report, nil
}

// ingestRows processes rows in file order on the given transaction. A sku
// staged earlier in the same file counts as already stored.
func (s *productService) ingestRows(
	ctx context.Context,
	db db.DB,
	uploadID string,
	rows []catalog.Row,
) (model.IngestReport, error) {
	productRepo := s.productRepo.WithDB(db)
	outboxMsgRepo := s.outboxMsgRepo.WithDB(db)
	headers := outbox.BuildHeaders(ctx)

	report := model.IngestReport{Rejected: []model.RejectedRow{}}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		product, err := s.validator.Validate(row)
		if err != nil {
			var rej *catalog.Rejection
			if errors.As(err, &rej) {
				report.Rejected = append(report.Rejected, model.RejectedRow{Row: row.Line, Reason: rej.Reason()})
				continue
			}
			return model.IngestReport{}, err
		}

		if _, dup := seen[product.Sku]; dup {
			continue
		}
		seen[product.Sku] = struct{}{}

		_, exists, err := productRepo.GetProductBySku(ctx, product.Sku)
		if err != nil {
			return model.IngestReport{}, fmt.Errorf("product repository get product by sku: %w", err)
		}
		if exists {
			continue
		}

		product.ID, err = uuid.NewV7()
		if err != nil {
			return model.IngestReport{}, fmt.Errorf("generate uuid v7: %w", err)
		}
		product.CreatedAt = s.now()

		inserted, err := productRepo.CreateProduct(ctx, product)
		if err != nil {
			return model.IngestReport{}, fmt.Errorf("product repository create product: %w", err)
		}
		if !inserted {
			// committed by a concurrent upload after the lookup
			continue
		}

		if err := stageIngestedEvent(ctx, outboxMsgRepo, headers, uploadID, product); err != nil {
			return model.IngestReport{}, err
		}

		report.Accepted++
	}

	return report, nil
}

func stageIngestedEvent(
	ctx context.Context,
	repo repository.OutboxMsgRepository,
	headers map[string]string,
	uploadID string,
	product model.Product,
) error {
	payload, err := json.Marshal(event.ProductIngestedEvent{
		UploadID:  uploadID,
		ProductID: product.ID.String(),
		Sku:       product.Sku,
		Name:      product.Name,
		Brand:     product.Brand,
		Mrp:       product.Mrp,
		Price:     product.Price,
		Quantity:  product.Quantity,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	sku := product.Sku
	if err := repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        event.TopicProductIngested,
		Headers:      headers,
		Payload:      payload,
		PartitionKey: &sku,
	}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
