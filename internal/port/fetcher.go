package port

import "context"

// DocumentFetcher retrieves raw document bytes from a URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
