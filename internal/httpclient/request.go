package httpclient

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// ResponseType tells the client how the caller intends to read the body.
type ResponseType string

const (
	ResponseJSON ResponseType = "json"
	ResponseBlob ResponseType = "blob"
)

// Params is a query parameter mapping. Slice values become a repeated key.
type Params map[string]any

// Values encodes p. nil values are dropped.
func (p Params) Values() url.Values {
	out := url.Values{}
	for key, value := range p {
		switch v := value.(type) {
		case nil:
		case []string:
			for _, s := range v {
				out.Add(key, s)
			}
		case []int:
			for _, n := range v {
				out.Add(key, strconv.Itoa(n))
			}
		case []any:
			for _, item := range v {
				if item != nil {
					out.Add(key, fmt.Sprint(item))
				}
			}
		default:
			out.Add(key, fmt.Sprint(v))
		}
	}
	return out
}

// RequestConfig describes the optional parts of a request.
type RequestConfig struct {
	Params       Params
	Headers      map[string]string
	ResponseType ResponseType
}

// RawBody sends Reader as-is with its own content type, for multipart uploads.
type RawBody struct {
	Reader      io.Reader
	ContentType string
}

// configKeys are the keys that mark a mapping as a request config rather
// than a bare parameter mapping.
var configKeys = []string{"params", "headers"}

// ResolveConfig accepts the loose argument forms Get allows: nil, a
// RequestConfig, Params, url.Values, or a map. A map with a "params" or
// "headers" key is read as a config; any other map is the params themselves.
func ResolveConfig(arg any) *RequestConfig {
	switch v := arg.(type) {
	case nil:
		return &RequestConfig{}
	case *RequestConfig:
		if v == nil {
			return &RequestConfig{}
		}
		return v
	case RequestConfig:
		return &v
	case Params:
		return &RequestConfig{Params: v}
	case url.Values:
		p := Params{}
		for key, vs := range v {
			p[key] = append([]string(nil), vs...)
		}
		return &RequestConfig{Params: p}
	case map[string]any:
		if !hasConfigKey(v) {
			return &RequestConfig{Params: Params(v)}
		}
		return &RequestConfig{
			Params:  toParams(v["params"]),
			Headers: toHeaders(v["headers"]),
		}
	case map[string]string:
		p := Params{}
		for key, s := range v {
			p[key] = s
		}
		return ResolveConfig(map[string]any(p))
	default:
		return &RequestConfig{}
	}
}

func hasConfigKey(m map[string]any) bool {
	for _, key := range configKeys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

func toParams(v any) Params {
	switch p := v.(type) {
	case Params:
		return p
	case map[string]any:
		return Params(p)
	case map[string]string:
		out := Params{}
		for key, s := range p {
			out[key] = s
		}
		return out
	default:
		return nil
	}
}

func toHeaders(v any) map[string]string {
	switch h := v.(type) {
	case map[string]string:
		return h
	case map[string]any:
		out := make(map[string]string, len(h))
		for key, value := range h {
			out[key] = fmt.Sprint(value)
		}
		return out
	default:
		return nil
	}
}
