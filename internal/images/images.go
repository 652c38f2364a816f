// Package images resolves stored image IDs to client-facing URLs.
package images

import "strings"

// Resolver maps image IDs to URLs at read time. Content records store only
// IDs so the serving host can move without rewriting rows.
type Resolver interface {
	ResolveURLs(imageIDs []string) []string
}

// URLResolver builds URLs by joining a base URL with the image ID.
type URLResolver struct {
	baseURL string
}

// NewURLResolver creates a resolver rooted at baseURL.
func NewURLResolver(baseURL string) *URLResolver {
	return &URLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// ResolveURLs maps each image ID to its URL, preserving order.
func (r *URLResolver) ResolveURLs(imageIDs []string) []string {
	if len(imageIDs) == 0 {
		return nil
	}
	urls := make([]string, len(imageIDs))
	for i, imageID := range imageIDs {
		urls[i] = r.baseURL + "/images/" + imageID
	}
	return urls
}
