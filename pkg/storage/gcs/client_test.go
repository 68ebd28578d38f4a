package gcs

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestPublicURLRoundTrip(t *testing.T) {
	base := "https://storage.googleapis.com/"
	url := publicURL(base, "shop-media", "/products/abc def.png")
	if url != "https://storage.googleapis.com/shop-media/products/abc%20def.png" {
		t.Fatalf("unexpected url %s", url)
	}

	obj, ok := objectFromURL(base, "shop-media", url)
	if !ok || obj != "products/abc def.png" {
		t.Fatalf("unexpected object %q ok=%v", obj, ok)
	}
}

func TestObjectFromURLRejectsForeignURLs(t *testing.T) {
	base := "https://storage.googleapis.com"
	for _, raw := range []string{
		"https://cdn.example.com/shop-media/x.png",
		"https://storage.googleapis.com/other-bucket/x.png",
		"https://storage.googleapis.com/shop-media/",
	} {
		if _, ok := objectFromURL(base, "shop-media", raw); ok {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil); err == nil {
		t.Fatalf("expected error without bucket")
	}
}
