package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

const (
	openAPIYAMLRoute = "/api/v1/openapi.yaml"
	openAPIJSONRoute = "/api/v1/openapi.json"
	swaggerUIRoute   = "/swagger"
	swaggerInitRoute = "/swagger/init.js"
)

// OpenAPIHandler serves the OpenAPI document and a Swagger UI page
type OpenAPIHandler struct {
	openAPIPath string
	baseDir     string
}

// NewOpenAPIHandler creates a new OpenAPI handler with path validation
func NewOpenAPIHandler(openAPIPath string) *OpenAPIHandler {
	// Absolute paths guard against directory traversal
	absPath, _ := filepath.Abs(openAPIPath)
	baseDir, _ := filepath.Abs(filepath.Dir(openAPIPath))

	return &OpenAPIHandler{
		openAPIPath: absPath,
		baseDir:     baseDir,
	}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(openAPIYAMLRoute, h.ServeYAML).Methods(http.MethodGet)
	r.HandleFunc(openAPIJSONRoute, h.ServeJSON).Methods(http.MethodGet)
	r.HandleFunc(swaggerUIRoute, h.ServeSwaggerUI).Methods(http.MethodGet)
	r.HandleFunc(swaggerInitRoute, h.ServeSwaggerInit).Methods(http.MethodGet)
}

// validatePath ensures the file path is within the allowed directory
func (h *OpenAPIHandler) validatePath() error {
	absPath, err := filepath.Abs(filepath.Clean(h.openAPIPath))
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(h.baseDir, absPath)
	if err != nil {
		return err
	}

	if filepath.IsAbs(relPath) || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return os.ErrPermission
	}

	return nil
}

func (h *OpenAPIHandler) read() ([]byte, error) {
	if err := h.validatePath(); err != nil {
		return nil, err
	}
	return os.ReadFile(h.openAPIPath)
}

// ServeYAML serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := h.read()
	if err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(data); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
		return
	}
}

// ServeJSON serves the OpenAPI document converted to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.read()
	if err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		http.Error(w, "Failed to parse OpenAPI specification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		return
	}
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Proxy API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script src="` + swaggerInitRoute + `"></script>
</body>
</html>
`

// ServeSwaggerUI serves an HTML page rendering the JSON document with Swagger UI
func (h *OpenAPIHandler) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy",
		"default-src 'none'; script-src 'self' https://unpkg.com; style-src https://unpkg.com; img-src 'self' data:; connect-src 'self'")
	if _, err := w.Write([]byte(swaggerUIPage)); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// Kept out of the page so the CSP needs no 'unsafe-inline'
const swaggerInitScript = `window.ui = SwaggerUIBundle({ url: "` + openAPIJSONRoute + `", dom_id: "#swagger-ui" });
`

// ServeSwaggerInit serves the script that boots Swagger UI
func (h *OpenAPIHandler) ServeSwaggerInit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	if _, err := w.Write([]byte(swaggerInitScript)); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}
