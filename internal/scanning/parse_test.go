package scanning

import (
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseLinesJSON", func() {
	var (
		input string
		lines []Line
		err   error
	)

	JustBeforeEach(func() {
		lines, err = parseLinesJSON(input, 200, 100)
	})

	When("parsing valid JSON", func() {
		BeforeEach(func() {
			input = `{"lines": [{"text": "JOHN A SMITH", "box_2d": [100, 250, 300, 750]}, {"text": "No. 39479", "box_2d": [500, 250, 600, 750]}]}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the lines in order", func() {
			Expect(lines).To(HaveLen(2))
			Expect(lines[0].Text).To(Equal("JOHN A SMITH"))
			Expect(lines[1].Text).To(Equal("No. 39479"))
			Expect(lines[1].Number).To(Equal(1))
		})

		It("should map boxes onto the image", func() {
			Expect(lines[0].Box).To(Equal(image.Rect(50, 10, 150, 30)))
		})
	})

	When("parsing JSON with markdown code blocks and chatter", func() {
		BeforeEach(func() {
			input = "Here you go:\n```json\n{\"lines\": [{\"text\": \"CIVIL\", \"box_2d\": [0, 0, 1000, 1000]}]}\n```"
		})

		It("should find the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(1))
			Expect(lines[0].Box).To(Equal(image.Rect(0, 0, 200, 100)))
		})
	})

	When("a box is missing or out of range", func() {
		BeforeEach(func() {
			input = `{"lines": [{"text": "NO BOX"}, {"text": "BIG", "box_2d": [-50, 900, 1200, 1100]}, {"text": "  "}]}`
		})

		It("should leave missing boxes empty", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(2))
			Expect(lines[0].Box.Empty()).To(BeTrue())
		})

		It("should clip boxes to the image", func() {
			Expect(lines[1].Box).To(Equal(image.Rect(180, 0, 200, 100)))
		})
	})

	When("parsing invalid JSON", func() {
		BeforeEach(func() {
			input = `invalid json`
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the braces are broken", func() {
		BeforeEach(func() {
			input = `{"lines": [}`
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("cleanResponse", func() {
	It("strips code fences", func() {
		Expect(cleanResponse("```text\nNo. 39479\n```")).To(Equal("No. 39479"))
	})
})
