package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/onsi/gomega"
)

// NodeSpec describes a node written into a test configuration
type NodeSpec struct {
	Identifier        string
	SourceURL         string
	SyncDistributions bool
}

// WriteConfigYAML writes an anonymous, in-memory configuration storing files under dataDir
func WriteConfigYAML(dir, dataDir string, nodes ...NodeSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "storage:\n  dataDir: %s\n", dataDir)
	b.WriteString("fetch:\n  timeout: 5s\n  maxRetries: 1\n")
	b.WriteString("nodes:\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  - identifier: %s\n", n.Identifier)
		if n.SourceURL != "" {
			fmt.Fprintf(&b, "    source:\n      url: %s\n      format: json\n      syncDistributions: %t\n",
				n.SourceURL, n.SyncDistributions)
		}
	}

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(b.String()), 0600)).To(gomega.Succeed())
	return path
}

// Distribution is a distribution entry of a test catalog
type Distribution struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	DownloadURL string `json:"downloadURL"`
	FileName    string `json:"fileName"`
}

// Dataset is a dataset entry of a test catalog
type Dataset struct {
	Identifier   string         `json:"identifier"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Issued       string         `json:"issued"`
	SuperTheme   []string       `json:"superTheme"`
	Distribution []Distribution `json:"distribution"`
}

// CatalogJSON renders a schema-valid catalog holding datasets
func CatalogJSON(datasets ...Dataset) []byte {
	doc := map[string]any{
		"title":              "Catálogo de prueba",
		"description":        "Catálogo usado por las pruebas de integración",
		"superThemeTaxonomy": "https://datos.example.org/superThemeTaxonomy.json",
		"publisher": map[string]any{
			"name": "Equipo de datos",
			"mbox": "datos@example.org",
		},
		"issued":   "2017-09-28",
		"language": []string{"SPA"},
		"dataset":  datasets,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return data
}

// NewUpstream serves fixed files by path, standing in for a node's own portal
func NewUpstream(files map[string][]byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".json") {
			w.Header().Set("Content-Type", "application/json")
		}
		_, _ = w.Write(data)
	}))
}
