package apperr

import "github.com/tuanvumaihuynh/catalog-ingest/pkg/zerror"

const (
	ValidationErrorCode     = "VALIDATION_FAILED"
	CSVParseErrorCode       = "CSV_PARSE_FAILED"
	MissingFileErrorCode    = "MISSING_FILE"
	FileTooLargeErrorCode   = "FILE_TOO_LARGE"
	DatabaseUnavailableCode = "DATABASE_UNAVAILABLE"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	// CSVFormatErr is returned when an upload cannot be decoded or parsed as CSV.
	// Nothing is persisted when it occurs.
	CSVFormatErr = zerror.NewBadRequest(CSVParseErrorCode, "Failed to parse provided csv file")

	MissingFileErr  = zerror.NewBadRequest(MissingFileErrorCode, "no csv file provided")
	FileTooLargeErr = zerror.NewRequestTooLarge(FileTooLargeErrorCode, "uploaded file is too large")

	DatabaseUnavailableErr = zerror.NewServiceUnavailable(DatabaseUnavailableCode, "database is unavailable")
)
