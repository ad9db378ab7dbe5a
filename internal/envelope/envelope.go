// Package envelope normalizes the paginated list shapes the backend returns.
//
// Endpoints do not agree on an envelope, so a list is detected by trying a
// fixed, ordered set of matchers; the first that matches wins.
package envelope

import (
	"github.com/felixgeelhaar/oactl/internal/log"
)

// Page is a normalized list result.
type Page struct {
	Items []any
	Total int
	// Shape names the matcher that produced the page, "" when none matched.
	Shape string
}

// Records returns the object items of the page.
func (p Page) Records() []Record { return Records(p.Items) }

// Matcher recognizes one response shape and extracts a Page from it.
type Matcher struct {
	Name    string
	Match   func(body any) bool
	Extract func(body any) Page
}

// Matchers is the detection order. It must not be reordered: a body can match
// more than one shape, and the earlier shape is the intended reading.
var Matchers = []Matcher{
	{
		// {"code": 1, "results": [...], "total_count": N, ...}
		Name: "code-results-total_count",
		Match: func(body any) bool {
			return hasKeys(AsRecord(body), "code", "results", "total_count")
		},
		Extract: func(body any) Page {
			r := AsRecord(body)
			return Page{Items: AsList(r["results"]), Total: AsInt(r["total_count"])}
		},
	},
	{
		// {"results": [...], "count": N} or {"results": [...], "total": N}
		Name: "results-count",
		Match: func(body any) bool {
			r := AsRecord(body)
			return r != nil && r["results"] != nil
		},
		Extract: func(body any) Page {
			r := AsRecord(body)
			total := AsInt(r["count"])
			if total == 0 {
				total = AsInt(r["total"])
			}
			return Page{Items: AsList(r["results"]), Total: total}
		},
	},
	{
		// {"data": [...], "total": N}; the total is optional and defaults to 0.
		Name: "data",
		Match: func(body any) bool {
			r := AsRecord(body)
			return r != nil && r["data"] != nil
		},
		Extract: func(body any) Page {
			r := AsRecord(body)
			if inner := AsRecord(r["data"]); inner != nil {
				if items := AsList(inner["results"]); items != nil {
					total := AsInt(inner["count"])
					if total == 0 {
						total = AsInt(inner["total"])
					}
					return Page{Items: items, Total: total}
				}
			}
			return Page{Items: AsList(r["data"]), Total: AsInt(r["total"])}
		},
	},
	{
		// [...]
		Name: "array",
		Match: func(body any) bool {
			_, ok := body.([]any)
			return ok
		},
		Extract: func(body any) Page {
			items := AsList(body)
			return Page{Items: items, Total: len(items)}
		},
	},
}

// Normalize runs the matchers in order. When none matches it logs a warning
// and returns an empty page.
func Normalize(body any, logger *log.Logger) Page {
	for _, m := range Matchers {
		if m.Match(body) {
			page := m.Extract(body)
			if page.Items == nil {
				page.Items = []any{}
			}
			page.Shape = m.Name
			return page
		}
	}

	log.OrDefault(logger).Warn("unrecognized list response shape", "body_type", typeName(body))
	return Page{Items: []any{}}
}

func hasKeys(r Record, keys ...string) bool {
	if r == nil {
		return false
	}
	for _, key := range keys {
		if _, ok := r[key]; !ok {
			return false
		}
	}
	return true
}

func typeName(body any) string {
	switch body.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	default:
		return "unknown"
	}
}
