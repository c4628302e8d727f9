package integration

import (
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marcosimbuerger/monitoring-station/test-integration/monitoring/helpers"
)

var _ = Describe("Website API", Label("api"), func() {
	var (
		tempDir      string
		pizza        *helpers.SatelliteServer
		burger       *helpers.SatelliteServer
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		pizza = helpers.NewSatelliteServer("foo", "bar", helpers.DrupalPayload())
		burger = helpers.NewSatelliteServer("foo", "bar", map[string]any{
			"cms":         "WordPress",
			"cms_version": "6.1",
			"php_version": "8.1",
			"debug":       true,
		})

		configFile := helpers.WriteConfigYAML(tempDir, []helpers.Website{
			helpers.WebsiteFor("Pizza", pizza),
			helpers.WebsiteFor("Burger", burger),
		}, nil)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer(configFile)).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		pizza.Close()
		burger.Close()
	})

	It("aggregates every satellite in configuration order", func() {
		body := serverHelper.GetWebsites("")

		Expect(body.Count).To(Equal(2))
		Expect(body.Names()).To(Equal([]string{"Pizza", "Burger"}))
		Expect(body.Websites[0]).To(Equal(map[string]any{
			"name":        "Pizza",
			"url":         pizza.URL,
			"cms":         "Drupal",
			"cms_version": "9.0.2",
			"php_version": "7.4",
		}))
		Expect(body.Websites[1]).NotTo(HaveKey("debug"))
	})

	It("serves repeated requests from the cache", func() {
		serverHelper.GetWebsites("")
		serverHelper.GetWebsites("")
		Expect(pizza.Hits()).To(Equal(1))

		By("bypassing the cache")
		serverHelper.GetWebsites("cache=false")
		Expect(pizza.Hits()).To(Equal(2))
	})

	It("drops websites whose satellite misbehaves", func() {
		burger.SetRawResponse(http.StatusInternalServerError, "oops")

		body := serverHelper.GetWebsites("cache=false")
		Expect(body.Names()).To(Equal([]string{"Pizza"}))

		burger.SetRawResponse(http.StatusOK, "{}")
		body = serverHelper.GetWebsites("cache=false")
		Expect(body.Names()).To(Equal([]string{"Pizza"}))
	})

	It("filters websites by name, cms and version", func() {
		Expect(serverHelper.GetWebsites("include=Piz*").Names()).To(Equal([]string{"Pizza"}))
		Expect(serverHelper.GetWebsites("exclude=Piz*").Names()).To(Equal([]string{"Burger"}))
		Expect(serverHelper.GetWebsites("cms=wordpress").Names()).To(Equal([]string{"Burger"}))
		Expect(serverHelper.GetWebsites("php_version=%3E%3D8.0").Names()).To(Equal([]string{"Burger"}))
		Expect(serverHelper.GetWebsites("cms_version=%5E9").Names()).To(Equal([]string{"Pizza"}))
	})

	It("rejects an invalid filter", func() {
		resp, err := serverHelper.Do(http.MethodGet, "/api/v1/websites?include=%5B")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("returns a single website", func() {
		resp, err := serverHelper.Do(http.MethodGet, "/api/v1/websites/Burger")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"cms":"WordPress"`))

		missing, err := serverHelper.Do(http.MethodGet, "/api/v1/websites/Kebab")
		Expect(err).NotTo(HaveOccurred())
		defer missing.Body.Close()
		Expect(missing.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("clears and prunes the cache", func() {
		serverHelper.GetWebsites("")
		Expect(pizza.Hits()).To(Equal(1))

		resp, err := serverHelper.Do(http.MethodPost, "/api/v1/cache/prune")
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		serverHelper.GetWebsites("")
		Expect(pizza.Hits()).To(Equal(1))

		resp, err = serverHelper.Do(http.MethodDelete, "/api/v1/cache")
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

		serverHelper.GetWebsites("")
		Expect(pizza.Hits()).To(Equal(2))
	})

	It("publishes the OpenAPI document", func() {
		resp, err := serverHelper.Do(http.MethodGet, "/openapi.json")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/json"))
	})
})
