package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testConfig(bridgeURL string) Config {
	return Config{
		SystemType: "mysql",
		DBHost:     "db.internal",
		DBPort:     3306,
		DBName:     "shop",
		DBUsername: "app",
		DBPassword: "pw",
		ConnectionParams: map[string]interface{}{
			"bridge_url":     bridgeURL,
			"bridge_api_key": "key-123",
		},
	}
}

func TestClient_MissingBridgeURL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.ConnectionParams["bridge_url"] = ""
	client := NewClient(cfg)

	ctx := context.Background()
	for _, result := range []Result{
		client.TestConnection(ctx),
		client.FetchSchema(ctx),
		client.ExecuteQuery(ctx, "SELECT 1"),
	} {
		if result.Success {
			t.Fatalf("expected failure without bridge URL, got %+v", result)
		}
		if result.Message == "" {
			t.Fatalf("expected a reason message")
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestClient_SendsDescriptorAndAction(t *testing.T) {
	var gotAction, gotKey string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("action")
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "method": "bridge"})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	result := client.ExecuteQuery(context.Background(), "SELECT * FROM products")

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Method != "bridge" {
		t.Fatalf("expected bridge method, got %q", result.Method)
	}
	if gotAction != "execute" {
		t.Fatalf("expected action execute, got %q", gotAction)
	}
	if gotKey != "key-123" {
		t.Fatalf("expected API key header, got %q", gotKey)
	}
	if gotBody["query"] != "SELECT * FROM products" {
		t.Fatalf("expected query in body, got %v", gotBody["query"])
	}
	if gotBody["db_host"] != "db.internal" || gotBody["system_type"] != "mysql" {
		t.Fatalf("expected connection descriptor in body, got %v", gotBody)
	}
}

func TestClient_SchemaResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "schema" {
			t.Errorf("expected schema action, got %q", r.URL.Query().Get("action"))
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"schema": map[string]interface{}{
				"products": map[string]interface{}{"columns": []string{"id", "name"}},
			},
			"table_count": 1,
		})
	}))
	defer srv.Close()

	result := NewClient(testConfig(srv.URL)).FetchSchema(context.Background())
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	table, ok := result.Schema["products"]
	if !ok || len(table.Columns) != 2 || table.Columns[0] != "id" {
		t.Fatalf("unexpected schema: %+v", result.Schema)
	}
}

func TestClient_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	result := NewClient(testConfig(srv.URL)).TestConnection(context.Background())
	if result.Success {
		t.Fatalf("expected failure for non-json body")
	}
	if result.Message == "" {
		t.Fatalf("expected a reason message")
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	result := NewClient(testConfig(srv.URL)).TestConnection(context.Background())
	if result.Success {
		t.Fatalf("expected failure for 502 status")
	}
}

func TestClient_ConnectError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := NewClient(testConfig(url)).TestConnection(context.Background())
	if result.Success {
		t.Fatalf("expected failure for unreachable bridge")
	}
	if result.Message == "" {
		t.Fatalf("expected the connection error in the message")
	}
}
