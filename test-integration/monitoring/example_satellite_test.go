package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marcosimbuerger/monitoring-station/internal/api"
	"github.com/marcosimbuerger/monitoring-station/test-integration/monitoring/helpers"
)

var _ = Describe("Example satellite", Label("example"), func() {
	var (
		tempDir      string
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
	})

	It("monitors itself through the built-in satellite", func() {
		self := serverHelper.GetBaseURL() + api.ExamplePrefix
		lifetime := 0

		configFile := helpers.WriteConfigYAML(tempDir, []helpers.Website{
			{Name: "Pizza", URL: self, User: "foo", Password: "bar"},
			{Name: "Burger", URL: self + "/", User: "foo", Password: "bar"},
			{Name: "Kebab", URL: self, User: "foo", Password: "wrong"},
		}, &helpers.ConfigOptions{Lifetime: &lifetime, ExampleSatellite: true})

		Expect(serverHelper.StartServer(configFile)).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)

		body := serverHelper.GetWebsites("")
		Expect(body.Names()).To(Equal([]string{"Pizza", "Burger"}))
		for _, website := range body.Websites {
			Expect(website).To(HaveKeyWithValue("cms", "Drupal"))
			Expect(website).To(HaveKeyWithValue("cms_version", "9.0.2"))
			Expect(website).To(HaveKeyWithValue("php_version", "7.4"))
		}
	})
})
