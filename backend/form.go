package backend

import (
	"bytes"
	"io"
	"mime/multipart"
)

type field struct {
	name, value string
}

// form is a multipart/form-data body whose file part is streamed from a reader
// rather than buffered, so its length is known before the request is sent.
type form struct {
	contentType string
	length      int64
	body        io.Reader
}

// newForm lays out the text fields first and the file part last. Only the part
// headers and the closing boundary are held in memory.
func newForm(fields []field, fileName string, data io.Reader, size int64) (*form, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if fileName == "" {
		fileName = "blob"
	}
	if _, err := writer.CreateFormFile("file", fileName); err != nil {
		return nil, err
	}
	head := append([]byte(nil), buf.Bytes()...)
	buf.Reset()
	if err := writer.Close(); err != nil {
		return nil, err
	}
	tail := append([]byte(nil), buf.Bytes()...)

	return &form{
		contentType: writer.FormDataContentType(),
		length:      int64(len(head)) + size + int64(len(tail)),
		body: io.MultiReader(
			bytes.NewReader(head),
			io.LimitReader(data, size),
			bytes.NewReader(tail),
		),
	}, nil
}

// progressReader reports how much of a body of known length has been read.
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{reader: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if n > 0 {
		p.read += int64(n)
		fraction := 1.0
		if p.total > 0 && p.read < p.total {
			fraction = float64(p.read) / float64(p.total)
		}
		if p.progress != nil {
			p.progress(fraction)
		}
	}
	return n, err
}
