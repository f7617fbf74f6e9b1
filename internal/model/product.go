package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry keyed by Sku. Color, Size and Quantity are optional.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Sku       string    `json:"sku"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Color     *string   `json:"color"`
	Size      *string   `json:"size"`
	Mrp       float64   `json:"mrp"`
	Price     float64   `json:"price"`
	Quantity  *int      `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestReport summarizes one CSV upload.
type IngestReport struct {
	Accepted int           `json:"accepted"`
	Rejected []RejectedRow `json:"rejected"`
}

// RejectedRow points at a source line of the uploaded file; the header is row 1.
type RejectedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// SearchFilter narrows a product search. Nil fields impose no constraint.
type SearchFilter struct {
	Brand    *string
	Color    *string
	MinPrice *float64
	MaxPrice *float64
}
