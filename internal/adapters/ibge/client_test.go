package ibge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListByState_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/localidades/estados/SP/municipios" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"id": 3509502, "nome": "Campinas"}, {"id": 3550308, "nome": "São Paulo"}]`))
	}))
	defer server.Close()

	client := New(server.URL)
	cities, err := client.ListByState(context.Background(), "SP")
	if err != nil {
		t.Fatal(err)
	}
	if len(cities) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(cities))
	}
	if cities[0] != "Campinas" || cities[1] != "São Paulo" {
		t.Errorf("unexpected cities %v", cities)
	}
}

func TestListByState_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.ListByState(context.Background(), "SP"); err == nil {
		t.Fatal("expected error on 502")
	}
}
