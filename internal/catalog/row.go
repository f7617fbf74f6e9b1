// Package catalog turns uploaded CSV bytes into validated products.
//
// Decoding yields one Row per data line with every recognized column as an
// optional raw string. Validate converts a Row into a model.Product or rejects
// it with one of the Reason errors, checked in a fixed order.
package catalog

// Row is one decoded data line. Absent cells are nil; present cells are trimmed
// and never empty.
type Row struct {
	// Line is the source row number; the header is row 1.
	Line int `csv:"-"`

	Sku      *string `csv:"sku" validate:"required"`
	Name     *string `csv:"name" validate:"required"`
	Brand    *string `csv:"brand" validate:"required"`
	Color    *string `csv:"color"`
	Size     *string `csv:"size"`
	Mrp      *string `csv:"mrp" validate:"required"`
	Price    *string `csv:"price" validate:"required"`
	Quantity *string `csv:"quantity"`
}

// Columns lists the recognized header names.
var Columns = []string{"sku", "name", "brand", "color", "size", "mrp", "price", "quantity"}

func (r *Row) set(column string, value *string) bool {
	switch column {
	case "sku":
		r.Sku = value
	case "name":
		r.Name = value
	case "brand":
		r.Brand = value
	case "color":
		r.Color = value
	case "size":
		r.Size = value
	case "mrp":
		r.Mrp = value
	case "price":
		r.Price = value
	case "quantity":
		r.Quantity = value
	default:
		return false
	}
	return true
}
