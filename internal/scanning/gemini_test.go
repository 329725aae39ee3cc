package scanning

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockGenerator is a mock implementation of contentGenerator
type mockGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (m *mockGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.parts = parts
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func candidate(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

var _ = Describe("Gemini", func() {
	Describe("NewGemini", func() {
		It("should require an api key", func() {
			_, err := NewGemini("", "")
			Expect(err).To(MatchError(ContainSubstring("api key is required")))
		})

		It("should name itself gemini", func() {
			Expect((&Gemini{}).Name()).To(Equal("gemini"))
		})
	})

	Describe("Complete", func() {
		var (
			generator *mockGenerator
			provider  *Gemini
			reply     string
			err       error
		)

		BeforeEach(func() {
			generator = &mockGenerator{}
			provider = &Gemini{model: generator}
		})

		JustBeforeEach(func() {
			reply, err = provider.Complete(context.Background(), Request{Data: []byte("webp"), MediaType: MediaTypeWebP}, "read it")
		})

		When("the model answers in several text parts", func() {
			BeforeEach(func() {
				generator.resp = candidate(genai.Text(`{"storeName":`), genai.Blob{MIMEType: "image/png"}, genai.Text(`"Acme"}`))
			})

			It("should join the text parts", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(reply).To(Equal(`{"storeName":"Acme"}`))
			})

			It("should send the image before the prompt", func() {
				Expect(generator.parts).To(HaveLen(2))
				blob, ok := generator.parts[0].(genai.Blob)
				Expect(ok).To(BeTrue())
				Expect(blob.MIMEType).To(Equal("image/webp"))
				Expect(blob.Data).To(Equal([]byte("webp")))
				Expect(generator.parts[1]).To(Equal(genai.Text("read it")))
			})
		})

		When("the model returns no candidates", func() {
			BeforeEach(func() {
				generator.resp = &genai.GenerateContentResponse{}
			})

			It("should return an UpstreamError", func() {
				var upstreamErr *UpstreamError
				Expect(errors.As(err, &upstreamErr)).To(BeTrue())
				Expect(upstreamErr.Message).To(Equal("no response from gemini"))
			})
		})

		When("the candidate has no parts", func() {
			BeforeEach(func() {
				generator.resp = candidate()
			})

			It("should return an UpstreamError", func() {
				var upstreamErr *UpstreamError
				Expect(errors.As(err, &upstreamErr)).To(BeTrue())
			})
		})

		When("the call fails", func() {
			BeforeEach(func() {
				generator.err = errors.New("quota exceeded")
			})

			It("should wrap the error with its message", func() {
				var upstreamErr *UpstreamError
				Expect(errors.As(err, &upstreamErr)).To(BeTrue())
				Expect(upstreamErr.Provider).To(Equal("gemini"))
				Expect(upstreamErr.Message).To(Equal("quota exceeded"))
				Expect(errors.Is(err, generator.err)).To(BeTrue())
			})
		})
	})

	Describe("Close", func() {
		It("should tolerate a provider without a client", func() {
			Expect((&Gemini{}).Close()).To(Succeed())
		})
	})
})
