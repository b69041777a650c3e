package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/resolver"
	"eventsPipeline/internal/testsupport"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
)

func newIntakeHandler(store *testsupport.MemStore, maxBody int64) *IntakeHandler {
	log := testsupport.DiscardLogger()
	r := resolver.New(log, store, resolver.DefaultSimilarityThreshold, nil)
	return NewIntakeHandler(log, intake.NewService(log, store, r, "varies", nil), maxBody)
}

func postIntake(h *IntakeHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/intake/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func TestIntakeHandlerCreatesAndDetectsDuplicate(t *testing.T) {
	store := testsupport.NewMemStore()
	h := newIntakeHandler(store, 0)
	body := `{"title":"Jazz Night","start_at":"2024-05-01T19:30:00Z","source_url":"https://example.com/e/1","audience":"adults"}`

	rec := postIntake(h, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created dto.IntakeResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Status != "pending_review" || created.Slug != "jazz-night-2024-05-01" {
		t.Fatalf("unexpected response %+v", created)
	}
	ev, ok := store.Event(created.ID)
	if !ok {
		t.Fatal("event not stored")
	}
	if len(ev.Audience) != 1 || ev.Audience[0] != "adults" {
		t.Fatalf("audience = %v", ev.Audience)
	}
	if string(ev.RawData) != body {
		t.Fatalf("raw data = %s", ev.RawData)
	}

	rec = postIntake(h, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	var dup dto.DuplicateResponse
	if err := json.NewDecoder(rec.Body).Decode(&dup); err != nil {
		t.Fatal(err)
	}
	if dup.Existing.ID != created.ID {
		t.Fatalf("existing = %s, want %s", dup.Existing.ID, created.ID)
	}
}

func TestIntakeHandlerRejections(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		maxBody int64
		status  int
		field   string
	}{
		{name: "missing fields", body: `{"title":"Jazz Night"}`, status: http.StatusBadRequest, field: "start_at"},
		{name: "malformed json", body: `{"title":`, status: http.StatusBadRequest, field: "body"},
		{name: "unknown field", body: `{"title":"Jazz Night","colour":"red"}`, status: http.StatusBadRequest, field: "body"},
		{name: "too large", body: `{"title":"` + strings.Repeat("x", 512) + `"}`, maxBody: 64, status: http.StatusRequestEntityTooLarge, field: "body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := testsupport.NewMemStore()
			rec := postIntake(newIntakeHandler(store, tc.maxBody), tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			var resp dto.ValidationResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			found := false
			for _, v := range resp.Violations {
				found = found || v.Field == tc.field
			}
			if !found {
				t.Fatalf("no violation on %s: %+v", tc.field, resp.Violations)
			}
			if store.EventCount() != 0 {
				t.Fatal("rejected submission was stored")
			}
		})
	}
}
