package client

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/fsmflow/pkg/cache"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/httputil"
)

const catalogJSON = `{
  "traffic": {"nodes": [{"id": "red"}, {"id": "green"}], "edges": [{"id": "e-red-green", "source": "red", "target": "green", "label": "next"}]},
  "auth": {"nodes": [], "edges": []}
}`

func backend(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/graph-data", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Write([]byte(catalogJSON))
	})
	mux.HandleFunc("/graph-data/traffic", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes": [{"id": "red", "data": {"label": "Red"}}], "edges": []}`))
	})
	mux.HandleFunc("/graph-data/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Machine not found"}`))
	})
	mux.HandleFunc("/machines", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(`[{"id": "traffic", "type": "ReactFlowMachine", "nodes": 2, "edges": 1}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewValidatesURL(t *testing.T) {
	if _, err := New("ftp://example.com"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(ftp) = %v", err)
	}
	c, err := New("http://localhost:5050/")
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != "http://localhost:5050" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

func TestCatalog(t *testing.T) {
	srv := backend(t, nil)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	cat, err := c.Catalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ids := cat.IDs(); len(ids) != 2 || ids[0] != "traffic" || ids[1] != "auth" {
		t.Errorf("ids = %v, want backend order", ids)
	}
	d, _ := cat.Get("traffic")
	if len(d.Edges) != 1 || d.Edges[0].Label != "next" {
		t.Errorf("traffic = %+v", d)
	}
}

func TestGraphAndMachines(t *testing.T) {
	srv := backend(t, nil)
	c, _ := New(srv.URL)
	ctx := context.Background()

	d, err := c.Graph(ctx, "traffic")
	if err != nil {
		t.Fatal(err)
	}
	if d.Nodes[0].Label() != "Red" {
		t.Errorf("label = %q", d.Nodes[0].Label())
	}

	_, err = c.Graph(ctx, "nope")
	if !errors.Is(err, errors.ErrCodeMachineNotFound) || !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Graph(nope) = %v, want MACHINE_NOT_FOUND", err)
	}
	if errors.UserMessage(err) != "Machine not found" {
		t.Errorf("message = %q", errors.UserMessage(err))
	}

	if _, err := c.Graph(ctx, "../etc"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Graph(../etc) = %v", err)
	}

	infos, err := c.Machines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Type != "ReactFlowMachine" || infos[0].Edges != 1 {
		t.Errorf("infos = %+v", infos)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.Code
		retryable bool
	}{
		{http.StatusInternalServerError, errors.ErrCodeNetwork, true},
		{http.StatusBadGateway, errors.ErrCodeNetwork, true},
		{http.StatusForbidden, errors.ErrCodeNetwork, false},
		{http.StatusNotFound, errors.ErrCodeNotFound, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c, _ := New(srv.URL)
			_, err := c.Catalog(context.Background())
			if !errors.Is(err, tt.code) {
				t.Fatalf("Catalog() = %v, want %s", err, tt.code)
			}
			if httputil.IsRetryable(err) != tt.retryable {
				t.Errorf("retryable = %v, want %v", httputil.IsRetryable(err), tt.retryable)
			}
			if tt.code == errors.ErrCodeNetwork && !stderrors.Is(err, ErrNetwork) {
				t.Error("network errors should wrap ErrNetwork")
			}
		})
	}
}

func TestSingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	if _, err := c.Machines(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	calls.Store(0)
	c, _ = New(srv.URL, WithRetry(3, time.Millisecond))
	c.Machines(context.Background())
	if calls.Load() != 3 {
		t.Errorf("calls with retry = %d, want 3", calls.Load())
	}
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := New(url)
	_, err := c.Catalog(context.Background())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("Catalog() = %v, want NETWORK_ERROR", err)
	}
}

func TestCanceledContext(t *testing.T) {
	srv := backend(t, nil)
	c, _ := New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Catalog(ctx); !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("Catalog() = %v, want TIMEOUT", err)
	}
}

func TestResponseCache(t *testing.T) {
	var hits atomic.Int32
	srv := backend(t, &hits)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, _ := New(srv.URL, WithCache(fc, time.Minute))
	ctx := context.Background()

	for range 3 {
		if _, err := c.Catalog(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("backend hits = %d, want 1", hits.Load())
	}
}
