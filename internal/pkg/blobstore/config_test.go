package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	cfg := &Config{Bucket: "smartscan", PublicBaseURL: "https://s3.ap-northeast-1.amazonaws.com"}

	assert.Equal(t,
		"https://s3.ap-northeast-1.amazonaws.com/smartscan/receipts/abc.jpg",
		cfg.PublicURL("receipts/abc.jpg"),
	)
}

func TestKeyFromURL(t *testing.T) {
	cfg := &Config{Bucket: "smartscan"}

	tests := []struct {
		url  string
		want string
	}{
		{"https://s3.ap-northeast-1.amazonaws.com/smartscan/receipts/abc.jpg", "receipts/abc.jpg"},
		{"https://cdn.example.com/smartscan/pdf_images/1_doc_page1.jpg", "pdf_images/1_doc_page1.jpg"},
		{"https://elsewhere.example.com/otherbucket/receipts/abc.jpg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.KeyFromURL(tt.url), "url %q", tt.url)
	}
}

func TestKeyFromURLRoundTrip(t *testing.T) {
	cfg := &Config{Bucket: "smartscan", PublicBaseURL: "https://s3.ap-northeast-1.amazonaws.com"}

	key := "receipts/2025/abc.jpg"
	assert.Equal(t, key, cfg.KeyFromURL(cfg.PublicURL(key)))
}
