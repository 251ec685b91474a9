package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	app := newTestApp(t, newFakeRepo(), stubText{doc: testDoc})
	app.Jobs.Create()

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	app.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body = %+v", body)
	}
	if body["jobs"].(float64) != 1 {
		t.Fatalf("jobs = %v", body["jobs"])
	}
}
