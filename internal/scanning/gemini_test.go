package scanning

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockGenerator is a mock implementation of contentGenerator
type mockGenerator struct {
	reply string
	err   error
	parts []genai.Part
}

func (m *mockGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.parts = parts
	if m.err != nil {
		return nil, m.err
	}
	if m.reply == "" {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(m.reply)}},
		}},
	}, nil
}

var _ = Describe("Gemini", func() {
	var (
		generator *mockGenerator
		engine    *Gemini
		img       image.Image
	)

	BeforeEach(func() {
		generator = &mockGenerator{}
		engine = &Gemini{model: generator, timeout: time.Second}
		img = image.NewGray(image.Rect(0, 0, 100, 50))
	})

	It("requires an api key", func() {
		_, err := NewGemini("", "")
		Expect(err).To(HaveOccurred())
	})

	Describe("RecognizeText", func() {
		It("sends the image and returns the cleaned text", func() {
			generator.reply = "```\nNo. 39479\n```"
			text, err := engine.RecognizeText(context.Background(), img, ModeSparse)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("No. 39479"))

			Expect(generator.parts).To(HaveLen(2))
			blob, ok := generator.parts[0].(genai.Blob)
			Expect(ok).To(BeTrue())
			Expect(blob.MIMEType).To(Equal("image/png"))
		})

		It("returns generation errors", func() {
			generator.err = errors.New("quota")
			_, err := engine.RecognizeText(context.Background(), img, ModeSparse)
			Expect(err).To(MatchError(ContainSubstring("quota")))
		})

		It("fails on an empty response", func() {
			_, err := engine.RecognizeText(context.Background(), img, ModeBlock)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RecognizeLines", func() {
		It("parses boxes against the image size", func() {
			generator.reply = `{"lines": [{"text": "MARY DANIELSON", "box_2d": [0, 0, 500, 1000]}]}`
			lines, err := engine.RecognizeLines(context.Background(), img, ModeSparse)
			Expect(err).NotTo(HaveOccurred())
			Expect(lines).To(HaveLen(1))
			Expect(lines[0].Box).To(Equal(image.Rect(0, 0, 100, 25)))
		})

		It("fails on non-JSON replies", func() {
			generator.reply = "I cannot read this"
			_, err := engine.RecognizeLines(context.Background(), img, ModeSparse)
			Expect(err).To(HaveOccurred())
		})
	})

	It("closes without a client", func() {
		Expect(engine.Close()).To(Succeed())
	})
})
