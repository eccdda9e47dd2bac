package scanning

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		engine *Ollama
		img    image.Image
		sent   ollamaChatRequest
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var err error
		engine, err = NewOllama(server.URL()+"/", "llava")
		Expect(err).NotTo(HaveOccurred())
		img = image.NewGray(image.Rect(0, 0, 100, 50))
		sent = ollamaChatRequest{}
	})

	AfterEach(func() {
		server.Close()
	})

	reply := func(content string) http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
			ghttp.VerifyContentType("application/json"),
			func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &sent)).To(Succeed())
			},
			ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", Content: content},
				Done:    true,
			}),
		)
	}

	It("defaults the model and url", func() {
		e, err := NewOllama("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.baseURL).To(Equal("http://localhost:11434"))
		Expect(e.model).To(Equal("llava"))
	})

	Describe("RecognizeText", func() {
		It("attaches the image to the user message", func() {
			server.AppendHandlers(reply("COMMONWEALTH OF MASSACHUSETTS\nNo. 39479"))

			text, err := engine.RecognizeText(context.Background(), img, ModeSparse)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("COMMONWEALTH OF MASSACHUSETTS\nNo. 39479"))

			Expect(sent.Model).To(Equal("llava"))
			Expect(sent.Stream).To(BeFalse())
			Expect(sent.Messages).To(HaveLen(2))
			Expect(sent.Messages[1].Images).To(HaveLen(1))
			Expect(sent.Format).To(BeEmpty())
		})

		It("returns API errors", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))

			_, err := engine.RecognizeText(context.Background(), img, ModeSparse)
			Expect(err).To(MatchError(ContainSubstring("status 500")))
		})
	})

	Describe("RecognizeLines", func() {
		It("asks for JSON and parses the lines", func() {
			server.AppendHandlers(reply(`{"lines": [{"text": "No. 39479", "box_2d": [500, 0, 1000, 500]}]}`))

			lines, err := engine.RecognizeLines(context.Background(), img, ModeSparse)
			Expect(err).NotTo(HaveOccurred())
			Expect(sent.Format).To(Equal("json"))
			Expect(lines).To(HaveLen(1))
			Expect(lines[0].Box).To(Equal(image.Rect(0, 25, 50, 50)))
		})
	})
})
