package document

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PDF", func() {
	var doc *PDF

	BeforeEach(func() {
		var err error
		doc, err = OpenPDF(minimalPDF("THOMAS MAHANNA", "No. 39479"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(doc.Close()).To(Succeed())
	})

	It("counts pages", func() {
		Expect(doc.PageCount()).To(Equal(1))
	})

	It("reports the page size in points", func() {
		w, h, err := doc.PageSize(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(BeNumerically("~", 612, 1))
		Expect(h).To(BeNumerically("~", 792, 1))
	})

	It("renders at the requested resolution", func() {
		img, err := doc.Render(0, 144)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Bounds().Dx()).To(BeNumerically("~", 1224, 2))
		Expect(img.Bounds().Dy()).To(BeNumerically("~", 1584, 2))
	})

	It("reads the text layer", func() {
		words, err := doc.Words(0)
		Expect(err).NotTo(HaveOccurred())

		var texts []string
		for _, w := range words {
			texts = append(texts, w.Text)
		}
		Expect(texts).To(ContainElements("THOMAS", "MAHANNA", "39479"))
	})

	It("places the words on the page", func() {
		words, err := doc.Words(0)
		Expect(err).NotTo(HaveOccurred())
		for _, w := range words {
			Expect(w.Box.X).To(BeNumerically(">=", 0))
			Expect(w.Box.Y).To(BeNumerically(">=", 0))
			Expect(w.Box.X + w.Box.Width).To(BeNumerically("<=", 612))
			Expect(w.Box.Y).To(BeNumerically("<", 792))
		}
	})

	It("rejects pages out of range", func() {
		_, err := doc.Render(1, 72)
		Expect(err).To(MatchError(ErrPageOutOfRange))
		_, err = doc.Words(-1)
		Expect(err).To(MatchError(ErrPageOutOfRange))
	})

	It("fails on garbage", func() {
		_, err := OpenPDF([]byte("not a pdf"))
		Expect(err).To(HaveOccurred())
	})
})
