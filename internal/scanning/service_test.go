package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockProvider is a mock implementation of Provider
type mockProvider struct {
	reply    string
	err      error
	calls    int
	lastReq  Request
	lastText string
}

func (m *mockProvider) Complete(ctx context.Context, req Request, prompt string) (string, error) {
	m.calls++
	m.lastReq = req
	m.lastText = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Close() error { return nil }

var _ = Describe("Extractor", func() {
	var (
		provider  *mockProvider
		extractor *Extractor
		image     string
		data      *Extraction
		err       error
	)

	BeforeEach(func() {
		provider = &mockProvider{
			reply: `{"storeName":"Acme","date":"2024-01-05","items":[{"name":"Widget","price":9.99}]}`,
		}
		extractor = NewExtractor(provider)
		image = "data:image/webp;base64,d2VicCBieXRlcw=="
	})

	Describe("ExtractImage", func() {
		JustBeforeEach(func() {
			data, err = extractor.ExtractImage(context.Background(), image)
		})

		When("the provider returns JSON", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the parsed extraction", func() {
				Expect(data.StoreName).To(Equal("Acme"))
				Expect(data.Items).To(HaveLen(1))
			})

			It("should call the provider exactly once", func() {
				Expect(provider.calls).To(Equal(1))
			})

			It("should forward the decoded image and its media type", func() {
				Expect(provider.lastReq.Data).To(Equal([]byte("webp bytes")))
				Expect(provider.lastReq.MediaType).To(Equal(MediaTypeWebP))
			})

			It("should send the receipt prompt", func() {
				Expect(provider.lastText).To(Equal(Prompt()))
				Expect(provider.lastText).To(ContainSubstring(`"storeName"`))
				Expect(provider.lastText).To(ContainSubstring("Only return the JSON"))
			})
		})

		When("no image is supplied", func() {
			BeforeEach(func() {
				image = ""
			})

			It("should return a ValidationError", func() {
				var validationErr *ValidationError
				Expect(errors.As(err, &validationErr)).To(BeTrue())
			})

			It("should not call the provider", func() {
				Expect(provider.calls).To(BeZero())
			})
		})

		When("the provider fails with a plain error", func() {
			BeforeEach(func() {
				provider.err = errors.New("connection refused")
			})

			It("should wrap it in an UpstreamError", func() {
				var upstream *UpstreamError
				Expect(errors.As(err, &upstream)).To(BeTrue())
				Expect(upstream.Provider).To(Equal("mock"))
				Expect(upstream.Error()).To(ContainSubstring("connection refused"))
			})
		})

		When("the provider fails with an UpstreamError", func() {
			BeforeEach(func() {
				provider.err = &UpstreamError{Provider: "mock", StatusCode: 529, Message: "Overloaded"}
			})

			It("should keep the provider message", func() {
				var upstream *UpstreamError
				Expect(errors.As(err, &upstream)).To(BeTrue())
				Expect(upstream.Message).To(Equal("Overloaded"))
				Expect(upstream.StatusCode).To(Equal(529))
			})
		})

		When("the context deadline is exceeded", func() {
			BeforeEach(func() {
				provider.err = context.DeadlineExceeded
			})

			It("should report an UpstreamError that unwraps to the deadline", func() {
				var upstream *UpstreamError
				Expect(errors.As(err, &upstream)).To(BeTrue())
				Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			})
		})

		When("the reply cannot be parsed", func() {
			BeforeEach(func() {
				provider.reply = "Sorry, the image is too blurry."
			})

			It("should return a ParseError", func() {
				var parseErr *ParseError
				Expect(errors.As(err, &parseErr)).To(BeTrue())
			})

			It("should not return partial data", func() {
				Expect(data).To(BeNil())
			})
		})
	})

	Describe("Extract", func() {
		When("the request has no data", func() {
			It("should return a ValidationError without calling the provider", func() {
				_, err := extractor.Extract(context.Background(), Request{MediaType: MediaTypePNG})
				var validationErr *ValidationError
				Expect(errors.As(err, &validationErr)).To(BeTrue())
				Expect(provider.calls).To(BeZero())
			})
		})

		When("the media type is empty", func() {
			It("should default to JPEG", func() {
				_, err := extractor.Extract(context.Background(), Request{Data: []byte("x")})
				Expect(err).NotTo(HaveOccurred())
				Expect(provider.lastReq.MediaType).To(Equal(MediaTypeJPEG))
			})
		})
	})

	Describe("ProviderName", func() {
		It("should return the provider name", func() {
			Expect(extractor.ProviderName()).To(Equal("mock"))
		})
	})
})
