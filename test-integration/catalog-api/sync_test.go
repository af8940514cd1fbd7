package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/opendata-catalog-server/test-integration/catalog-api/helpers"
)

var _ = Describe("Catalog sync", Label("sync"), func() {
	var (
		tempDir      string
		upstream     *httptest.Server
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("sync-test-")

		files := map[string][]byte{
			"/files/energia-anual.csv": []byte("year,gwh\n2017,130\n"),
		}
		upstream = helpers.NewUpstream(files)
		files["/data.json"] = helpers.CatalogJSON(helpers.Dataset{
			Identifier:  "energia-1",
			Title:       "Generación eléctrica",
			Description: "Generación anual por fuente",
			Issued:      "2018-01-01",
			SuperTheme:  []string{"ENER"},
			Distribution: []helpers.Distribution{
				{
					Identifier:  "energia-1.1",
					Title:       "Generación anual",
					DownloadURL: upstream.URL + "/files/energia-anual.csv",
					FileName:    "energia-anual.csv",
				},
				{
					Identifier:  "energia-1.2",
					Title:       "Generación mensual",
					DownloadURL: upstream.URL + "/files/missing.csv",
					FileName:    "energia-mensual.csv",
				},
			},
		})

		configFile := helpers.WriteConfigYAML(tempDir, filepath.Join(tempDir, "data"),
			helpers.NodeSpec{Identifier: "energia", SourceURL: upstream.URL + "/data.json", SyncDistributions: true},
			helpers.NodeSpec{Identifier: "modernizacion"},
		)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		upstream.Close()
		cleanupTempDir(tempDir)
	})

	It("pulls the catalog and reachable distributions from the node's source", func() {
		resp, err := serverHelper.Post("/v1/nodes/energia/sync")
		Expect(err).NotTo(HaveOccurred())
		body := helpers.ReadBody(resp)
		Expect(resp.StatusCode).To(Equal(http.StatusOK), string(body))

		var result map[string]any
		Expect(json.Unmarshal(body, &result)).To(Succeed())
		Expect(result).To(HaveKeyWithValue("node", "energia"))
		Expect(result).To(HaveKeyWithValue("datasets_synced", BeNumerically("==", 1)))
		Expect(result).To(HaveKeyWithValue("distributions_synced", BeNumerically("==", 1)))
		Expect(result["warnings"]).To(ContainElement(ContainSubstring("energia-1.2")))

		resp, err = serverHelper.Get("/v1/nodes/energia/distributions/energia-1.1/download")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(helpers.ReadBody(resp))).To(Equal("year,gwh\n2017,130\n"))
	})

	It("rejects a sync for a node without a source", func() {
		resp, err := serverHelper.Post("/v1/nodes/modernizacion/sync")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		_ = helpers.ReadBody(resp)
	})
})
