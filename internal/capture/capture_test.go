package capture

import (
	"context"
	"testing"
	"time"
)

func TestOptionsDefaults(t *testing.T) {
	o := Options{URL: "http://127.0.0.1:8087/", Quality: 250}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != 1600 || o.Height != 1000 || o.Wait != 45*time.Second || o.Quality != 100 {
		t.Fatalf("unexpected defaults %+v", o)
	}
}

func TestScreenshotRequiresURL(t *testing.T) {
	if _, err := Screenshot(context.Background(), Options{}); err == nil {
		t.Fatal("expected error without url")
	}
}
