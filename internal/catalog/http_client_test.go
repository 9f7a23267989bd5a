package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(ClientConfig{
		BaseURL:       srv.URL,
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		RetryCount:    2,
		RetryWaitTime: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestHTTPClientAuthenticateByPhone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/phone" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		var body struct {
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Phone != "+15550001111" {
			t.Errorf("unexpected phone %q", body.Phone)
		}
		json.NewEncoder(w).Encode(Employee{ID: "emp-1", Name: "Dana Reyes"})
	}))

	emp, err := client.AuthenticateByPhone(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if emp.ID != "emp-1" {
		t.Fatalf("expected emp-1, got %s", emp.ID)
	}
}

func TestHTTPClientErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"denied", http.StatusForbidden, ErrDenied},
		{"bad request", http.StatusBadRequest, ErrInvalidArgument},
		{"unprocessable", http.StatusUnprocessableEntity, ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			_, err := client.ValidateJobWithAuthorization(context.Background(), "emp-1", "7301")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(struct {
			Jobs []JobTemplate `json:"jobs"`
		}{Jobs: []JobTemplate{{ID: "job-1", Code: "7301"}}})
	}))

	jobs, err := client.ListJobs(context.Background(), "emp-1", "", 5)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Code != "7301" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))

	err := client.LeaveJobOpen(context.Background(), "occ-1", "emp-1", "sick")
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestHTTPClientRescheduleSendsUTC(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			NewStart time.Time `json:"new_start"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.NewStart.Location() != time.UTC {
			t.Errorf("expected UTC timestamp, got %v", body.NewStart.Location())
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	loc := time.FixedZone("EST", -5*3600)
	when := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)
	if err := client.RescheduleOccurrence(context.Background(), "occ-1", when); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
}
