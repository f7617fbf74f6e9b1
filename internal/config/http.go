package config

type HTTP struct {
	Port    uint32 `env:"HTTP_PORT" envDefault:"8000"`
	Swagger bool   `env:"HTTP_SWAGGER" envDefault:"true"`
	// DefaultPageSize applies to product listing when page_size is omitted.
	DefaultPageSize uint32 `env:"HTTP_DEFAULT_PAGE_SIZE" envDefault:"10"`
}

type Upload struct {
	// MaxFileSize bounds the multipart request body in bytes.
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"33554432"`
}
