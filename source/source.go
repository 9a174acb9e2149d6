package source

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the upload unit used when none is configured.
const DefaultChunkSize int64 = 1 << 20

// ErrShortRead is returned when the underlying reader yields fewer bytes
// than the chunk's range covers.
var ErrShortRead = errors.New("short read")

// Source wraps a data source to make reading it in chunks easier.
type Source struct {
	data      io.ReaderAt
	size      int64
	chunkSize int64
}

// New creates a Source over size bytes of data split into chunkSize pieces.
func New(data io.ReaderAt, size, chunkSize int64) (*Source, error) {
	if data == nil {
		return nil, fmt.Errorf("unable to chunk a nil data source")
	}
	if size < 0 {
		return nil, fmt.Errorf("data size must not be negative, got %d", size)
	}
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1 byte, got %d", chunkSize)
	}
	return &Source{
		data:      data,
		size:      size,
		chunkSize: chunkSize,
	}, nil
}

// File is a Source backed by an open file on disk.
type File struct {
	*Source
	file *os.File
}

// Open opens the file at path and wraps it in a Source. Close the returned
// File when done with it.
func Open(path string, chunkSize int64) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get stats about %s: %w", path, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	src, err := New(file, info.Size(), chunkSize)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &File{Source: src, file: file}, nil
}

// Name returns the base name of the underlying file.
func (f *File) Name() string {
	info, err := f.file.Stat()
	if err != nil {
		return f.file.Name()
	}
	return info.Name()
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.file.Close()
}

// Size returns the total number of bytes in the source.
func (s *Source) Size() int64 {
	return s.size
}

// ChunkSize returns the nominal size of each chunk.
func (s *Source) ChunkSize() int64 {
	return s.chunkSize
}

// Count returns how many chunks the source splits into.
func (s *Source) Count() int64 {
	n := s.size / s.chunkSize
	if s.size%s.chunkSize != 0 {
		n++
	}
	return n
}

// Reader returns a reader over the whole source, starting at byte 0.
func (s *Source) Reader() io.Reader {
	return io.NewSectionReader(s.data, 0, s.size)
}

// chunkAt computes the chunk that begins at offset, without its data.
func (s *Source) chunkAt(offset int64) Chunk {
	return Chunk{
		Number: offset / s.chunkSize,
		Offset: offset,
		Size:   min(s.size-offset, s.chunkSize),
	}
}

// Next returns the chunk starting at offset along with its data. The boolean
// is false once offset has reached the end of the source.
func (s *Source) Next(offset int64) (Chunk, bool, error) {
	if offset < 0 {
		return Chunk{}, false, fmt.Errorf("offset must not be negative, got %d", offset)
	}
	if offset >= s.size {
		return Chunk{}, false, nil
	}
	chunk := s.chunkAt(offset)
	data := make([]byte, chunk.Size)
	bytesRead, err := s.data.ReadAt(data, chunk.Offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(bytesRead) == chunk.Size) {
		if errors.Is(err, io.EOF) {
			return chunk, false, fmt.Errorf("expected to read %d bytes, but only read %d for %s: %w",
				chunk.Size, bytesRead, chunk, ErrShortRead)
		}
		return chunk, false, fmt.Errorf("unable to read %s: %w", chunk, err)
	}
	chunk.Data = data
	return chunk, true, nil
}

// Ranges lists every chunk of the source from offset 0 without reading any data.
func (s *Source) Ranges() []Chunk {
	ranges := make([]Chunk, 0, s.Count())
	for offset := int64(0); offset < s.size; offset += s.chunkSize {
		ranges = append(ranges, s.chunkAt(offset))
	}
	return ranges
}
