package zerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/catalog-ingest/pkg/zerror"
)

func TestZError(t *testing.T) {
	base := zerror.NewBadRequest("CSV_PARSE_FAILED", "Failed to parse provided csv file")

	t.Run("Should format without parent", func(t *testing.T) {
		assert.Equal(t, "Code=CSV_PARSE_FAILED, Msg=Failed to parse provided csv file", base.Error())
		assert.Equal(t, "Failed to parse provided csv file", base.Detail())
		assert.Nil(t, base.Parent())
	})

	t.Run("Should keep predefined error untouched when wrapping", func(t *testing.T) {
		cause := errors.New("bare \" in non-quoted field")
		wrapped := base.WrapParent(cause)

		assert.Nil(t, base.Parent())
		assert.Equal(t, cause, wrapped.Parent())
		assert.Equal(t, "Failed to parse provided csv file: bare \" in non-quoted field", wrapped.Detail())
		assert.Equal(t, zerror.StatusBadRequest, wrapped.Status())
	})

	t.Run("Should match by code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("ingest: %w", base.WrapParent(errors.New("boom")))

		assert.ErrorIs(t, err, base)
		assert.NotErrorIs(t, err, zerror.NewBadRequest("OTHER", "other"))

		var zErr zerror.ZError
		assert.True(t, errors.As(err, &zErr))
		assert.Equal(t, "CSV_PARSE_FAILED", zErr.Code())
	})

	t.Run("Should ignore nil parent", func(t *testing.T) {
		assert.Equal(t, base, base.WrapParent(nil))
	})
}
