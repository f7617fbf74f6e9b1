package event

import (
	"context"
	"log/slog"
)

const TopicProductIngested = "catalog.product.ingested"

// ProductIngestedEvent is published once for every product accepted by a CSV upload.
// Events staged by the same upload share UploadID.
type ProductIngestedEvent struct {
	UploadID  string  `json:"upload_id"`
	ProductID string  `json:"product_id"`
	Sku       string  `json:"sku"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Mrp       float64 `json:"mrp"`
	Price     float64 `json:"price"`
	Quantity  *int    `json:"quantity,omitempty"`
}

func (s *Service) handleProductIngestedEvent(ctx context.Context, ev ProductIngestedEvent) error {
	s.logger.InfoContext(ctx, "product ingested",
		slog.String("upload_id", ev.UploadID),
		slog.String("product_id", ev.ProductID),
		slog.String("sku", ev.Sku),
		slog.String("brand", ev.Brand),
		slog.Float64("price", ev.Price),
	)
	return nil
}
