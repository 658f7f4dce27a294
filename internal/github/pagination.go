package github

import (
	"context"
	"net/http"

	"github.com/danielolaszy/release-pr/internal/logging"
)

// perPage is the largest page size GitHub accepts for list endpoints.
const perPage = 100

// pageOption selects a page of a list endpoint.
type pageOption struct {
	Page int `url:"page,omitempty"`
}

// walkPages fetches a list endpoint page by page and decodes every page into
// one slice, in the order GitHub returns them. It requests the page number of
// the rel="next" link and stops when there is none, including after an empty
// page. Every page is requested from path with opts, so the walk never leaves
// the configured endpoint. A positive limit caps the number of items collected.
func walkPages[T any](ctx context.Context, g *Gateway, op, path string, opts interface{}, limit int) ([]T, error) {
	var all []T
	visited := make(map[int]bool)

	for page := 1; page != 0; {
		visited[page] = true

		target := path
		if page > 1 {
			var err error
			if target, err = addOptions(path, &pageOption{Page: page}); err != nil {
				return nil, err
			}
		}

		resp, err := g.Get(ctx, target, opts)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: resp.Message()}
		}

		var items []T
		if err := resp.Decode(&items); err != nil {
			return nil, err
		}
		all = append(all, items...)

		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}

		page = resp.NextPage
		if visited[page] {
			logging.Warn("pagination loop detected", "operation", op, "page", page)
			break
		}
	}

	return all, nil
}
