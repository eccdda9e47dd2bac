package stamp

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("has valid defaults", func() {
		Expect(DefaultConfig().Validate()).To(Succeed())
	})

	Describe("LoadConfig", func() {
		var (
			path string
			cfg  Config
			err  error
		)

		writeFile := func(content string) string {
			p := filepath.Join(GinkgoT().TempDir(), "heuristics.yaml")
			Expect(os.WriteFile(p, []byte(content), 0644)).To(Succeed())
			return p
		}

		JustBeforeEach(func() {
			cfg, err = LoadConfig(path)
		})

		When("no path is given", func() {
			BeforeEach(func() {
				path = ""
			})

			It("returns the defaults", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).To(Equal(DefaultConfig()))
			})
		})

		When("the file overrides some keys", func() {
			BeforeEach(func() {
				path = writeFile("regions:\n  margin: 40\nblacklist: [FOO, BAR]\n")
			})

			It("applies the overrides", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Regions.Margin).To(Equal(40))
				Expect(cfg.Blacklist).To(Equal([]string{"FOO", "BAR"}))
			})

			It("keeps the remaining defaults", func() {
				Expect(cfg.Regions.DedupTolerance).To(Equal(200))
				Expect(cfg.Geometry).To(Equal(DefaultConfig().Geometry))
				Expect(cfg.Titles).To(Equal(DefaultConfig().Titles))
			})
		})

		When("the file has inconsistent bounds", func() {
			BeforeEach(func() {
				path = writeFile("geometry:\n  min_area_frac: 0.5\n  max_area_frac: 0.1\n")
			})

			It("returns an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})

		When("the file is not YAML", func() {
			BeforeEach(func() {
				path = writeFile("regions: [::")
			})

			It("returns an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})

		When("the file does not exist", func() {
			BeforeEach(func() {
				path = filepath.Join(GinkgoT().TempDir(), "missing.yaml")
			})

			It("returns an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Fingerprint", func() {
		It("is stable", func() {
			Expect(DefaultConfig().Fingerprint()).To(Equal(DefaultConfig().Fingerprint()))
		})

		It("changes with the heuristics", func() {
			changed := DefaultConfig()
			changed.Regions.Margin = 99
			Expect(changed.Fingerprint()).NotTo(Equal(DefaultConfig().Fingerprint()))
		})
	})
})
