package source

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/url"
	"strconv"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// PageSizeParam is the query parameter carrying the page size.
const PageSizeParam = "per_page"

// Fetcher performs a GET request and returns the response body.
// *request.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Page is one page of a listing.
type Page struct {
	// Data holds the raw entries in API order.
	Data []json.RawMessage

	// Next is the absolute URL of the following page, empty on the last page.
	Next string
}

// pageEnvelope is the wire shape of a listing page.
type pageEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Paging struct {
		Next *string `json:"next"`
	} `json:"paging"`
}

// Lister produces lazy page sequences.
type Lister struct {
	fetcher  Fetcher
	base     *url.URL
	pageSize int
}

// NewLister creates a lister. Relative listing and next URLs are resolved
// against baseURL.
func NewLister(fetcher Fetcher, baseURL string, pageSize int) (*Lister, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &Lister{fetcher: fetcher, base: base, pageSize: pageSize}, nil
}

// Pages returns the page sequence starting at initialURL.
//
// The page size is added to the initial URL only; following URLs are taken
// verbatim from paging.next. The sequence ends when paging.next is absent or
// null, when a page has no data array, or when paging.next points at a page
// already fetched. A page with an empty data array and a next link continues.
// A fetch error or a body that is not JSON is yielded once and ends the
// sequence.
func (l *Lister) Pages(ctx context.Context, initialURL string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		next, err := l.firstURL(initialURL)
		if err != nil {
			yield(Page{}, &domain.FormatError{Kind: "listing url", Value: initialURL})
			return
		}

		seen := make(map[string]bool)
		for next != "" {
			if seen[next] {
				logger.Warn("source: pagination loop at %s, ending listing", next)
				return
			}
			seen[next] = true

			if err := ctx.Err(); err != nil {
				yield(Page{}, err)
				return
			}

			body, err := l.fetcher.Get(ctx, next)
			if err != nil {
				yield(Page{}, err)
				return
			}

			var env pageEnvelope
			if err := json.Unmarshal(body, &env); err != nil {
				yield(Page{}, &domain.FormatError{Kind: "page", Value: next})
				return
			}

			var data []json.RawMessage
			if !isJSONArray(env.Data) || json.Unmarshal(env.Data, &data) != nil {
				logger.Warn("source: page %s has no data array, ending listing", next)
				return
			}

			page := Page{Data: data}
			if env.Paging.Next != nil && *env.Paging.Next != "" {
				page.Next = l.resolve(*env.Paging.Next)
			}

			logger.Debug("source: page %s returned %d entries", next, len(page.Data))
			if !yield(page, nil) {
				return
			}
			next = page.Next
		}
	}
}

// isJSONArray reports whether raw holds a JSON array.
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// firstURL resolves initialURL and sets the page size.
func (l *Lister) firstURL(initialURL string) (string, error) {
	u, err := url.Parse(initialURL)
	if err != nil {
		return "", err
	}
	u = l.base.ResolveReference(u)
	q := u.Query()
	q.Set(PageSizeParam, strconv.Itoa(l.pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// resolve turns a possibly relative reference into an absolute URL.
// Unparseable references are returned unchanged.
func (l *Lister) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return l.base.ResolveReference(u).String()
}
