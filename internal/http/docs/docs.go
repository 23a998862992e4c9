// Package docs serve o contrato OpenAPI dos formulários e a página de
// referência interativa.
package docs

import (
	_ "embed"
	"fmt"
	"html"
	"net/http"
)

//go:embed openapi.yaml
var openAPISpec []byte

const (
	pageTitle = "LGPD Site API Reference"
	// versão fixa do Scalar, evita quebra silenciosa na página
	scalarScript = "https://cdn.jsdelivr.net/npm/@scalar/api-reference@1"
)

// GetSpecBytes retorna o documento OpenAPI embutido.
func GetSpecBytes() []byte {
	return openAPISpec
}

func OpenAPIHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openAPISpec)
	})
}

// ScalarDocsHandler renders the reference page once, pointing at specURL.
func ScalarDocsHandler(specURL string) http.Handler {
	page := []byte(fmt.Sprintf(`<!doctype html>
<html lang="pt-BR">
  <head>
    <title>%s</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>body { margin: 0; }</style>
  </head>
  <body>
    <script id="api-reference" data-url="%s" data-configuration='{"theme":"default","hideDownloadButton":false}'></script>
    <script src="%s"></script>
  </body>
</html>`, pageTitle, html.EscapeString(specURL), scalarScript))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	})
}
