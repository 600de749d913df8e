package viacep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookup_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/01310100/json/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"cep": "01310-100",
			"logradouro": "Avenida Paulista",
			"bairro": "Bela Vista",
			"localidade": "São Paulo",
			"uf": "SP"
		}`))
	}))
	defer server.Close()

	client := New(server.URL)
	addr, err := client.Lookup(context.Background(), "01310100")
	if err != nil {
		t.Fatal(err)
	}
	if addr.Street != "Avenida Paulista" {
		t.Errorf("unexpected street %q", addr.Street)
	}
	if addr.City != "São Paulo" || addr.State != "SP" {
		t.Errorf("unexpected city/state %q/%q", addr.City, addr.State)
	}
	if addr.CEP != "01310100" {
		t.Errorf("expected normalized cep kept, got %q", addr.CEP)
	}
}

func TestLookup_UnknownCEP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ViaCEP answers 200 with an erro flag for unknown codes.
		w.Write([]byte(`{"erro": true}`))
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Lookup(context.Background(), "99999999"); err == nil {
		t.Fatal("expected error for unknown cep")
	}
}

func TestLookup_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Lookup(context.Background(), "01310100"); err == nil {
		t.Fatal("expected error on 500")
	}
}
