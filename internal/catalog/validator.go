package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/model"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/validator"
)

// Rejection is a row level validation failure. Its message is the stable
// reason reported back to the uploader.
type Rejection struct {
	reason string
}

func (r *Rejection) Error() string {
	return r.reason
}

// Reason returns the user facing rejection reason.
func (r *Rejection) Reason() string {
	return r.reason
}

// Rejections in the order they are checked.
var (
	ErrMissingField     = &Rejection{reason: "a required field is missing"}
	ErrInvalidNumber    = &Rejection{reason: "a numeric field is not a valid number"}
	ErrPriceAboveMRP    = &Rejection{reason: "sale price exceeds MRP"}
	ErrNegativeQuantity = &Rejection{reason: "stock quantity cannot be negative"}
)

// Validator applies the row rules. It is safe for concurrent use.
type Validator struct {
	v validator.Validator
}

// NewValidator creates a row validator backed by v.
func NewValidator(v validator.Validator) *Validator {
	return &Validator{v: v}
}

// Validate checks row and returns the normalized product, or a *Rejection
// describing the first rule the row breaks. The returned product has no ID.
func (val *Validator) Validate(row Row) (model.Product, error) {
	if err := val.v.Validate(row); err != nil {
		if validator.IsValidationError(err) {
			return model.Product{}, ErrMissingField
		}
		return model.Product{}, fmt.Errorf("validate row %d: %w", row.Line, err)
	}

	mrp, err := parseAmount(*row.Mrp)
	if err != nil {
		return model.Product{}, ErrInvalidNumber
	}
	price, err := parseAmount(*row.Price)
	if err != nil {
		return model.Product{}, ErrInvalidNumber
	}

	if price > mrp {
		return model.Product{}, ErrPriceAboveMRP
	}

	var quantity *int
	if row.Quantity != nil {
		q, err := parseQuantity(*row.Quantity)
		if err != nil {
			return model.Product{}, ErrInvalidNumber
		}
		quantity = &q
	}

	if quantity != nil && *quantity < 0 {
		return model.Product{}, ErrNegativeQuantity
	}

	return model.Product{
		Sku:      *row.Sku,
		Name:     *row.Name,
		Brand:    *row.Brand,
		Color:    row.Color,
		Size:     row.Size,
		Mrp:      mrp,
		Price:    price,
		Quantity: quantity,
	}, nil
}

var errNotFinite = errors.New("not a finite number")

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// parseQuantity accepts integers and integral decimals such as "5.0", which is
// how spreadsheet exports often write whole numbers.
func parseQuantity(s string) (int, error) {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), nil
	}

	f, err := parseAmount(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("quantity %q is not an integer", s)
	}
	return int(f), nil
}
