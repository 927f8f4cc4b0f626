package locate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProviderResolves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latitude": 19.2183, "longitude": 72.9781}`))
	}))
	defer srv.Close()

	coord, ok := NewHTTPProvider(srv.URL).ResolveCurrentLocation(context.Background())
	if !ok {
		t.Fatal("expected a coordinate")
	}
	if coord.Latitude != 19.2183 || coord.Longitude != 72.9781 {
		t.Errorf("got %v", coord)
	}
}

func TestHTTPProviderDegradesToUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "permission denied",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "permission denied", http.StatusForbidden)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, test := range tests {
		srv := httptest.NewServer(test.handler)
		if _, ok := NewHTTPProvider(srv.URL).ResolveCurrentLocation(context.Background()); ok {
			t.Errorf("%s: expected unavailable", test.name)
		}
		srv.Close()
	}
}

func TestHTTPProviderTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"latitude": 1, "longitude": 2}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	p.Timeout = 20 * time.Millisecond
	start := time.Now()
	if _, ok := p.ResolveCurrentLocation(context.Background()); ok {
		t.Fatal("expected timeout to resolve as unavailable")
	}
	if time.Since(start) > time.Second {
		t.Fatal("lookup did not respect the bounded timeout")
	}
}

func TestStaticPickerCancellation(t *testing.T) {
	p := &StaticPicker{Coord: Coordinate{Latitude: 1, Longitude: 2}, Cancel: true}
	if _, ok := p.PresentPicker(context.Background(), nil); ok {
		t.Fatal("expected cancellation")
	}
}
