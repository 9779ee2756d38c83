package web

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RangeReader implements io.ReaderAt over HTTP range requests against a single file,
// such as a PMTiles archive.
type RangeReader struct {
	url    string
	client *http.Client
}

// NewRangeReader creates a RangeReader for fileURL. Only WithClient applies.
func NewRangeReader(fileURL string, opts ...ReaderOption) (*RangeReader, error) {
	config := readerConfig{Client: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(&config)
	}

	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	return &RangeReader{url: fileURL, client: config.Client}, nil
}

// ReadAt fetches len(p) bytes at off. Servers that ignore the Range header
// are tolerated by skipping to off in the full response.
func (r *RangeReader) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	req, err := http.NewRequest(http.MethodGet, r.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1))

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		if _, err := io.CopyN(io.Discard, resp.Body, off); err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, err
		}
	case http.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	default:
		return 0, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
