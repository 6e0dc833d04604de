// Package swagger serves the RacketRank API reference: the embedded
// OpenAPI document and a ReDoc page that renders it.
package swagger

import (
	"context"
	"net/http"
)

const (
	docsPath     = "/api-docs"
	documentPath = "/openapi.yaml"
	redocBundle  = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"
)

// Register mounts the reference routes on mux. It panics on a nil mux,
// which is a wiring bug.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("swagger: nil mux")
	}
	mux.HandleFunc(docsPath, serveDocs)
	mux.HandleFunc(documentPath, serveDocument)
}

func serveDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}

func serveDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(OpenAPI)
}

var docsPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>RacketRank API Docs</title>
<style>body{margin:0}</style>
</head>
<body>
<div id="docs"></div>
<script src="` + redocBundle + `"></script>
<script>Redoc.init("` + documentPath + `", {hideDownloadButton: false}, document.getElementById("docs"));</script>
</body>
</html>`
