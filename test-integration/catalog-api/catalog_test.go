package integration

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/opendata-catalog-server/test-integration/catalog-api/helpers"
)

var _ = Describe("Catalog submission", Label("catalog"), func() {
	var (
		tempDir      string
		serverHelper *helpers.ServerTestHelper
		catalog      []byte
	)

	BeforeEach(func() {
		tempDir = createTempDir("catalog-test-")
		configFile := helpers.WriteConfigYAML(tempDir, filepath.Join(tempDir, "data"),
			helpers.NodeSpec{Identifier: "modernizacion"})

		catalog = helpers.CatalogJSON(helpers.Dataset{
			Identifier:  "125",
			Title:       "Sistema de Precios Mayoristas",
			Description: "Índices de precios internos básicos al por mayor",
			Issued:      "2017-09-28",
			SuperTheme:  []string{"ECON"},
			Distribution: []helpers.Distribution{{
				Identifier:  "125.1",
				Title:       "Precios mayoristas, anual",
				DownloadURL: "https://datos.example.org/dataset/125/precios-anual.csv",
				FileName:    "precios-anual.csv",
			}},
		})

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		cleanupTempDir(tempDir)
	})

	It("lists the provisioned node", func() {
		resp, err := serverHelper.Get("/v1/nodes")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var nodes []map[string]any
		Expect(json.Unmarshal(helpers.ReadBody(resp), &nodes)).To(Succeed())
		Expect(nodes).To(HaveLen(1))
		Expect(nodes[0]).To(HaveKeyWithValue("identifier", "modernizacion"))
	})

	It("stores a submitted catalog and serves it back", func() {
		resp, err := serverHelper.PostForm("/v1/nodes/modernizacion/catalog", nil, "data.json", catalog)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated), string(helpers.ReadBody(resp)))

		resp, err = serverHelper.Get("/v1/nodes/modernizacion/catalog/file")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(helpers.ReadBody(resp)).To(Equal(catalog))

		resp, err = serverHelper.Get("/v1/nodes/modernizacion/catalog/datasets")
		Expect(err).NotTo(HaveOccurred())
		var datasets []map[string]any
		Expect(json.Unmarshal(helpers.ReadBody(resp), &datasets)).To(Succeed())
		Expect(datasets).To(HaveLen(1))
		Expect(datasets[0]).To(HaveKeyWithValue("identifier", "125"))
	})

	It("rejects reads before any submission", func() {
		resp, err := serverHelper.Get("/v1/nodes/modernizacion/catalog")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		_ = helpers.ReadBody(resp)
	})

	It("returns 404 for unknown nodes", func() {
		resp, err := serverHelper.PostForm("/v1/nodes/desconocido/catalog", nil, "data.json", catalog)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		_ = helpers.ReadBody(resp)
	})

	It("versions uploaded distributions", func() {
		resp, err := serverHelper.PostForm("/v1/nodes/modernizacion/catalog", nil, "data.json", catalog)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		_ = helpers.ReadBody(resp)

		for _, content := range []string{"year,value\n2017,1\n", "year,value\n2018,2\n"} {
			resp, err = serverHelper.PostForm("/v1/nodes/modernizacion/distributions", map[string]string{
				"dataset_identifier":      "125",
				"distribution_identifier": "125.1",
			}, "precios-anual.csv", []byte(content))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated), string(helpers.ReadBody(resp)))
		}

		resp, err = serverHelper.Get("/v1/nodes/modernizacion/distributions/125.1/download")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(helpers.ReadBody(resp))).To(Equal("year,value\n2018,2\n"))

		resp, err = serverHelper.Delete("/v1/nodes/modernizacion/distributions/125.1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		_ = helpers.ReadBody(resp)

		resp, err = serverHelper.Get("/v1/nodes/modernizacion/distributions/125.1/download")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		_ = helpers.ReadBody(resp)
	})
})
