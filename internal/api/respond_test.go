package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestErrorHidesServerDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	rr := httptest.NewRecorder()
	Error(rr, req, http.StatusInternalServerError, "unable to load recipes", errors.New("disk on fire"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if body := rr.Body.String(); strings.Contains(body, "disk on fire") || !strings.Contains(body, "unable to load recipes") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestErrorIncludesClientDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	rr := httptest.NewRecorder()
	Error(rr, req, http.StatusBadRequest, "invalid filter", errors.New(`style="x"`))
	if !strings.Contains(rr.Body.String(), `invalid filter: style=\"x\"`) {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Negroni"}`))
	if err := DecodeJSON(rr, req, &v); err != nil || v.Name != "Negroni" {
		t.Fatalf("unexpected decode result %q %v", v.Name, err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nmae":"typo"}`))
	if err := DecodeJSON(rr, req, &v); err == nil {
		t.Fatal("expected unknown field error")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSON(rr, req, &v); err == nil || err.Error() != "request body is empty" {
		t.Fatalf("expected empty body error, got %v", err)
	}
}
