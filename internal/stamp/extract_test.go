package stamp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractor", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = NewExtractor(DefaultConfig())
	})

	Describe("Extract", func() {
		var (
			text   string
			fields Fields
		)

		JustBeforeEach(func() {
			fields = extractor.Extract(text)
		})

		When("the license is labeled", func() {
			BeforeEach(func() {
				text = "COMMONWEALTH OF MASSACHUSETTS\nTHOMAS A. MAHANNA\nCIVIL\nLicense No. 39479\n2024"
			})

			It("returns the labeled number", func() {
				Expect(fields.LicenseNumber).NotTo(BeNil())
				Expect(*fields.LicenseNumber).To(Equal("39479"))
			})

			It("returns the first capitalized name", func() {
				Expect(fields.EngineerName).NotTo(BeNil())
				Expect(*fields.EngineerName).To(Equal("THOMAS A. MAHANNA"))
			})
		})

		When("the label is PE", func() {
			BeforeEach(func() {
				text = "PE 054321"
			})

			It("keeps leading zeros", func() {
				Expect(fields.LicenseNumber).NotTo(BeNil())
				Expect(*fields.LicenseNumber).To(Equal("054321"))
			})
		})

		When("only years appear unlabeled", func() {
			BeforeEach(func() {
				text = "ISSUED 2024\nREVISED 1999"
			})

			It("returns no license", func() {
				Expect(fields.LicenseNumber).To(BeNil())
			})
		})

		When("a bare number follows a year", func() {
			BeforeEach(func() {
				text = "DATE 2024 SHEET 12345"
			})

			It("skips the year", func() {
				Expect(fields.LicenseNumber).NotTo(BeNil())
				Expect(*fields.LicenseNumber).To(Equal("12345"))
			})
		})

		When("nothing matches", func() {
			BeforeEach(func() {
				text = "PROFESSIONAL ENGINEER\nSEAL"
			})

			It("returns absent fields", func() {
				Expect(fields.LicenseNumber).To(BeNil())
				Expect(fields.EngineerName).To(BeNil())
			})
		})

		When("the name contains a state name", func() {
			BeforeEach(func() {
				text = "VIRGINIA A MURPHY\nLicense No. 39479"
			})

			It("returns the name", func() {
				Expect(fields.EngineerName).NotTo(BeNil())
				Expect(*fields.EngineerName).To(Equal("VIRGINIA A MURPHY"))
				Expect(*fields.LicenseNumber).To(Equal("39479"))
			})
		})

		When("a name line carries OCR noise", func() {
			BeforeEach(func() {
				text = "|MARY DANIELSON]\n"
			})

			It("strips the noise", func() {
				Expect(fields.EngineerName).NotTo(BeNil())
				Expect(*fields.EngineerName).To(Equal("MARY DANIELSON"))
			})
		})
	})

	Describe("ExtractMulti", func() {
		var (
			lines   []Line
			frame   Frame
			records []Record
		)

		BeforeEach(func() {
			frame = Frame{Width: 1000, Height: 1000, DPI: 300}
		})

		JustBeforeEach(func() {
			records = extractor.ExtractMulti(lines, frame)
		})

		licenses := func() []string {
			out := make([]string, 0, len(records))
			for _, r := range records {
				out = append(out, r.LicenseNumber)
			}
			return out
		}

		When("the same license appears twice", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "No. 39479"}, {Text: "39479"}}
			})

			It("returns exactly one record", func() {
				Expect(licenses()).To(Equal([]string{"39479"}))
			})
		})

		When("lines hold years", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "2024"}, {Text: "REV 1999"}, {Text: "License No. 39479"}}
			})

			It("keeps only the license", func() {
				Expect(licenses()).To(Equal([]string{"39479"}))
			})
		})

		When("a year-like run touches a misread digit", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "O2024"}}
			})

			It("treats it as a truncated license", func() {
				Expect(licenses()).To(Equal([]string{"2024"}))
			})
		})

		When("numbers carry OCR label noise", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "No.39479"}, {Text: "O,12345"}, {Text: "N054321"}}
			})

			It("strips the noise", func() {
				Expect(licenses()).To(Equal([]string{"39479", "12345", "54321"}))
			})
		})

		When("numbers are out of range", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "0999"}, {Text: "1234567"}, {Text: "123"}}
			})

			It("returns nothing", func() {
				Expect(records).To(BeEmpty())
			})
		})

		When("a license line has two numbers", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "39479 / 41200"}}
			})

			It("returns both", func() {
				Expect(licenses()).To(Equal([]string{"39479", "41200"}))
			})
		})

		When("only blacklisted words surround the license", func() {
			BeforeEach(func() {
				lines = []Line{
					boxed("COMMONWEALTH", 100, 400),
					boxed("No. 39479", 100, 500),
				}
			})

			It("returns the record without a name", func() {
				Expect(records).To(HaveLen(1))
				Expect(records[0].LicenseNumber).To(Equal("39479"))
				Expect(records[0].EngineerName).To(BeNil())
			})
		})

		When("a name sits above the license", func() {
			BeforeEach(func() {
				lines = []Line{
					boxed("THOMAS A MAHANNA", 100, 400),
					boxed("No. 39479", 100, 500),
				}
			})

			It("associates it", func() {
				Expect(records).To(HaveLen(1))
				Expect(records[0].EngineerName).NotTo(BeNil())
				Expect(*records[0].EngineerName).To(Equal("THOMAS A MAHANNA"))
			})

			It("grows the box around the anchor line", func() {
				Expect(records[0].Box).To(Equal(BoundingBox{X: 50, Y: 150, Width: 300, Height: 590}))
			})
		})

		When("the name above the license contains a state name", func() {
			BeforeEach(func() {
				lines = []Line{
					boxed("VIRGINIA A MURPHY", 100, 300),
					boxed("No. 39479", 100, 500),
				}
			})

			It("associates it", func() {
				Expect(records).To(HaveLen(1))
				Expect(records[0].EngineerName).NotTo(BeNil())
				Expect(*records[0].EngineerName).To(Equal("VIRGINIA A MURPHY"))
			})
		})

		When("the frame is at a lower resolution", func() {
			BeforeEach(func() {
				frame.DPI = 150
				lines = []Line{boxed("No. 39479", 100, 500)}
			})

			It("scales the margins", func() {
				Expect(records[0].Box).To(Equal(BoundingBox{X: 75, Y: 325, Width: 250, Height: 315}))
			})
		})

		When("the anchor is near the frame edge", func() {
			BeforeEach(func() {
				lines = []Line{boxed("No. 39479", 10, 20)}
			})

			It("clamps the box", func() {
				Expect(records[0].Box).To(Equal(BoundingBox{X: 0, Y: 0, Width: 260, Height: 260}))
				Expect(records[0].Box.Within(frame.Width, frame.Height)).To(BeTrue())
			})
		})

		When("lines carry no boxes", func() {
			BeforeEach(func() {
				lines = []Line{{Text: "No. 39479"}}
			})

			It("uses the whole frame", func() {
				Expect(records[0].Box).To(Equal(BoundingBox{Width: 1000, Height: 1000}))
			})
		})
	})
})
