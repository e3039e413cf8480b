package entity

import "time"

// SiteObject is a static asset read from the site bucket.
type SiteObject struct {
	Key          string
	Body         []byte
	ContentType  string
	ETag         string
	LastModified *time.Time
}

// CachedResponse is a fully rendered static-site response kept in the edge cache.
type CachedResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body"`
}
