package transport

import (
	"bytes"
	"io"
	"net/http"
)

// clone copies r for sending; the body is buffered once so that the request
// can be replayed after a refresh.
func clone(r *http.Request) (*http.Request, error) {
	cloned := r.Clone(r.Context())
	if r.Body == nil || r.Body == http.NoBody {
		return cloned, nil
	}
	if r.GetBody != nil {
		body, err := r.GetBody()
		if err != nil {
			return nil, err
		}
		cloned.Body = body
		return cloned, nil
	}
	buf, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	cloned.Body = io.NopCloser(bytes.NewReader(buf))
	return cloned, nil
}

// discard drains and closes a response that will not reach the caller.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
