package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marcosimbuerger/monitoring-station/test-integration/monitoring/helpers"
)

var _ = Describe("Configuration reload", Label("reload"), func() {
	var (
		tempDir      string
		pizza        *helpers.SatelliteServer
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		pizza = helpers.NewSatelliteServer("foo", "bar", helpers.DrupalPayload())

		configFile := helpers.WriteConfigYAML(tempDir, []helpers.Website{
			helpers.WebsiteFor("Pizza", pizza),
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
	})

	It("applies a changed website list and drops the cached result", func() {
		Expect(serverHelper.GetWebsites("").Names()).To(Equal([]string{"Pizza"}))

		helpers.WriteConfigYAML(tempDir, []helpers.Website{
			helpers.WebsiteFor("Pizza", pizza),
			helpers.WebsiteFor("Pizza Staging", pizza),
		}, nil)

		Eventually(func() []string {
			return serverHelper.GetWebsites("").Names()
		}, 10*time.Second, 100*time.Millisecond).Should(Equal([]string{"Pizza", "Pizza Staging"}))
	})

	It("keeps the last good configuration on an invalid change", func() {
		Expect(serverHelper.GetWebsites("").Count).To(Equal(1))

		helpers.WriteConfigYAML(tempDir, nil, nil)

		Consistently(func() []string {
			return serverHelper.GetWebsites("cache=false").Names()
		}, time.Second, 100*time.Millisecond).Should(Equal([]string{"Pizza"}))
	})
})
