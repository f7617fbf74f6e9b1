package swagger

import (
	"fmt"
	"html"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	apicontract "github.com/tuanvumaihuynh/catalog-ingest/api-contract"
)

const (
	// DocsPath serves the Swagger UI.
	DocsPath = "/docs"

	// YAMLPath serves the contract exactly as it is embedded in the binary.
	YAMLPath = "/docs/openapi.yml"

	// JSONPath serves the contract as resolved by the OpenAPI loader.
	JSONPath = "/docs/openapi.json"
)

// Register serves the catalog API contract and a Swagger UI pointing at it.
// The doc must already be loaded and validated.
func Register(r chi.Router, doc *openapi3.T) error {
	specJSON, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal openapi spec: %w", err)
	}

	title := "Catalog Ingest API"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
		if doc.Info.Version != "" {
			title += " " + doc.Info.Version
		}
	}
	page := []byte(renderPage(title, JSONPath))

	r.Get(DocsPath, serve("text/html; charset=utf-8", page))
	r.Get(YAMLPath, serve("application/yaml", apicontract.GetSpecBytes()))
	r.Get(JSONPath, serve("application/json", specJSON))

	return nil
}

func serve(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck
		w.Write(body)
	}
}

func renderPage(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>%s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.29.3/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.29.3/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '%s',
      dom_id: '#swagger-ui',
      deepLinking: true,
      tryItOutEnabled: true,
      supportedSubmitMethods: ['get', 'post'],
    });
  };
</script>
</body>
</html>
`, html.EscapeString(title), specPath)
}
