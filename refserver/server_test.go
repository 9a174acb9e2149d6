package refserver_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/mattetti/filebuffer"

	wordfreq "github.com/hamedshahidi/word-frequency"
	"github.com/hamedshahidi/word-frequency/backend"
	. "github.com/hamedshahidi/word-frequency/refserver"
	"github.com/hamedshahidi/word-frequency/source"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// postForm sends a multipart form with the given text fields and file.
func postForm(url string, fields map[string]string, name string, data []byte) *http.Response {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		Expect(writer.WriteField(key, value)).To(Succeed())
	}
	if name != "" {
		part, err := writer.CreateFormFile("file", name)
		Expect(err).ShouldNot(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).ShouldNot(HaveOccurred())
	}
	Expect(writer.Close()).To(Succeed())
	resp, err := http.Post(url, writer.FormDataContentType(), body)
	Expect(err).ShouldNot(HaveOccurred())
	resp.Body.Close()
	return resp
}

type memFile struct {
	*source.Source
	name string
}

func (m memFile) Name() string { return m.name }
func (m memFile) Close() error { return nil }

var _ = Describe("Server", func() {
	var (
		server *Server
		ts     *httptest.Server
		client *backend.HTTPBackend
		ctx    context.Context
		text   []byte
	)

	BeforeEach(func() {
		var err error
		server, err = New(16, nil)
		Expect(err).ShouldNot(HaveOccurred())
		ts = httptest.NewServer(server.Router())
		client, err = backend.NewHTTPBackend(ts.URL, ts.Client())
		Expect(err).ShouldNot(HaveOccurred())
		ctx = context.Background()
		text = []byte("to be or not to be that is the question to")
	})

	AfterEach(func() {
		ts.Close()
	})

	Describe("Creating a server", func() {
		It("Should refuse an empty cache", func() {
			_, err := New(0, nil)
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("Finalizing a file", func() {
		It("Should return the top K words", func() {
			analysis, err := client.Finalize(ctx, backend.FileUpload{
				Name: "hamlet.txt",
				Data: bytes.NewReader(text),
				Size: int64(len(text)),
				K:    2,
			}, nil)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(analysis.Words).To(Equal([]string{"to", "be"}))
			Expect(analysis.Frequencies).To(Equal([]int{3, 2}))
			Expect(server.Cached()).To(Equal(1))
		})

		It("Should answer a repeated request from the cache", func() {
			for i := 0; i < 2; i++ {
				_, err := client.Finalize(ctx, backend.FileUpload{
					Name: "hamlet.txt", Data: bytes.NewReader(text), Size: int64(len(text)), K: 2,
				}, nil)
				Expect(err).ShouldNot(HaveOccurred())
			}
			Expect(server.Cached()).To(Equal(1))
		})

		It("Should refuse an empty file", func() {
			_, err := client.Finalize(ctx, backend.FileUpload{
				Name: "empty.txt", Data: bytes.NewReader(nil), Size: 0, K: 2,
			}, nil)
			var terr *backend.TransportError
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Status).To(Equal(http.StatusBadRequest))
		})

		It("Should refuse a K that is not positive", func() {
			resp := postForm(ts.URL+"/upload", map[string]string{"k": "0"}, "hamlet.txt", text)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp = postForm(ts.URL+"/upload", map[string]string{"k": "many"}, "hamlet.txt", text)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("Should refuse a form without a file", func() {
			resp := postForm(ts.URL+"/upload", map[string]string{"k": "2"}, "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Uploading a chunk", func() {
		It("Should accept it and cache it per offset", func() {
			for _, offset := range []int64{0, 100} {
				err := client.UploadChunk(ctx, backend.ChunkUpload{
					Name: "hamlet.txt", Data: bytes.NewReader(text), Size: int64(len(text)), K: 3, Offset: offset,
				}, nil)
				Expect(err).ShouldNot(HaveOccurred())
			}
			Expect(server.Cached()).To(Equal(2))
		})

		It("Should refuse a missing or negative offset", func() {
			resp := postForm(ts.URL+"/upload-chunk", map[string]string{"k": "2"}, "hamlet.txt", text)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp = postForm(ts.URL+"/upload-chunk", map[string]string{"k": "2", "offset": "-1"}, "hamlet.txt", text)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("Should refuse a GET", func() {
			resp, err := http.Get(ts.URL + "/upload-chunk")
			Expect(err).ShouldNot(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("Serving an uploader", func() {
		It("Should produce the table for a chunked file", func() {
			data := []byte(strings.Repeat("alpha beta beta gamma gamma gamma ", 100))
			open := func(path string, chunkSize int64) (wordfreq.File, error) {
				src, err := source.New(filebuffer.New(data), int64(len(data)), chunkSize)
				if err != nil {
					return nil, err
				}
				return memFile{Source: src, name: path}, nil
			}
			uploader, err := wordfreq.NewUploader(client, wordfreq.WithChunkSize(256), wordfreq.WithOpener(open))
			Expect(err).ShouldNot(HaveOccurred())
			defer uploader.Close()

			job, err := uploader.Submit(ctx, wordfreq.Submission{File: "greek.txt", K: "2"})
			Expect(err).ShouldNot(HaveOccurred())
			result, err := job.Wait()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(result.Rows).To(Equal([]wordfreq.Row{
				{Word: "gamma", Frequency: 300},
				{Word: "beta", Frequency: 200},
			}))
			Expect(server.Cached()).To(Equal(int(job.TotalSize/256) + 2))
		})
	})
})
