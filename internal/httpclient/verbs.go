package httpclient

import (
	"context"
	"mime"
	"net/http"
)

// Get issues a GET. cfg takes any form ResolveConfig accepts.
func (c *Client) Get(ctx context.Context, path string, cfg any) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, ResolveConfig(cfg))
}

// Post issues a POST with a JSON body, or a RawBody.
func (c *Client) Post(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, cfg)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, cfg)
}

// Delete issues a DELETE. On failure it also shows a fixed notice before
// returning the normalized error.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	resp, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		c.notifier.Error(MsgDeleteFailed)
		return nil, err
	}
	return resp, nil
}

// Download fetches a binary body. Empty params send no query string at all.
// On failure it also shows a fixed notice before returning the normalized error.
func (c *Client) Download(ctx context.Context, path string, params Params) (*Response, error) {
	cfg := &RequestConfig{ResponseType: ResponseBlob}
	if len(params) > 0 {
		cfg.Params = params
	}

	resp, err := c.Do(ctx, http.MethodGet, path, nil, cfg)
	if err != nil {
		c.notifier.Error(MsgDownloadFailed)
		return nil, err
	}
	return resp, nil
}

func parseDispositionFilename(cd string) string {
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
