package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/apierr"
	"github.com/tuanvumaihuynh/catalog-ingest/pkg/validator"
)

func TestNew(t *testing.T) {
	t.Run("Should map a wrapped csv format error to 400 with detail", func(t *testing.T) {
		err := fmt.Errorf("ingest: %w", apperr.CSVFormatErr.WrapParent(errors.New("too many fields")))

		res := apierr.New(err)

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Equal(t, apperr.CSVParseErrorCode, res.Code)
		assert.Equal(t, "Failed to parse provided csv file: too many fields", res.Detail)
	})

	t.Run("Should omit detail without a parent", func(t *testing.T) {
		res := apierr.New(apperr.MissingFileErr)

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Empty(t, res.Detail)
	})

	t.Run("Should map oversize uploads to 413", func(t *testing.T) {
		res := apierr.New(apperr.FileTooLargeErr)
		assert.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
	})

	t.Run("Should hide the parent of server errors", func(t *testing.T) {
		res := apierr.New(apperr.DatabaseUnavailableErr.WrapParent(errors.New("dial tcp 10.0.0.1:5432")))

		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
		assert.Empty(t, res.Detail)
	})

	t.Run("Should map validator errors to field details", func(t *testing.T) {
		v, err := validator.NewDefaultValidator()
		require.NoError(t, err)

		type input struct {
			Name string `json:"name" validate:"required"`
		}
		res := apierr.New(v.Validate(input{}))

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.NotNil(t, res.Details)
		assert.Len(t, *res.Details, 1)
	})

	t.Run("Should fall back to internal server error", func(t *testing.T) {
		res := apierr.New(errors.New("boom"))
		assert.Equal(t, apierr.InternalServerErr, res)
	})
}
