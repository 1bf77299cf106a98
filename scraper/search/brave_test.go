package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBraveSearch(t *testing.T) {
	var gotQuery, gotCount, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		gotToken = r.Header.Get("X-Subscription-Token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"url":"https://a.example/sb.pdf","title":"A"},
			{"url":"","title":"empty"},
			{"url":"https://b.example/plans","title":"B"},
			{"url":"https://c.example/x","title":"C"}
		]}}`))
	}))
	defer srv.Close()

	b := NewBrave(srv.Client(), srv.URL, "secret")
	results, err := b.Search(context.Background(), `"H1234-001" 2025 "Summary of Benefits"`, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != `"H1234-001" 2025 "Summary of Benefits"` || gotCount != "2" || gotToken != "secret" {
		t.Errorf("request: q=%q count=%q token=%q", gotQuery, gotCount, gotToken)
	}
	if len(results) != 2 || results[0].URL != "https://a.example/sb.pdf" || results[1].URL != "https://b.example/plans" {
		t.Errorf("results: %+v", results)
	}
}

func TestBraveSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"quota"}`},
		{"bad json", http.StatusOK, `{"web":`},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.payload))
		}))
		_, err := NewBrave(srv.Client(), srv.URL, "k").Search(context.Background(), "q", 5)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
		srv.Close()
	}
}
