package telephony

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"careline/internal/callflow"
	"careline/internal/catalog"
	"careline/internal/queue"
	"careline/internal/reporting"
	"careline/internal/statestore"
	"careline/internal/transfer"
)

type voiceRig struct {
	handler Handler
	router  *gin.Engine
	store   *statestore.Memory
	queue   *queue.Service
	reports *reporting.Service
}

func newVoiceRig(t *testing.T) *voiceRig { return newVoiceRigWithGate(t, nil) }

func newVoiceRigWithGate(t *testing.T, gate *CallGate) *voiceRig {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat := catalog.NewMemory()
	cat.AddEmployee(catalog.Employee{
		ID:          "emp-1",
		Name:        "Dana Reyes",
		PhoneNumber: "+15550001111",
		Providers: []catalog.Provider{
			{ID: "prov-1", Name: "Harbor Home Care", TransferNumber: "+15550007000"},
		},
	}, "4821")

	store := statestore.NewMemory()
	qsvc := queue.NewService(queue.NewMemory(), 0)
	orch := transfer.NewOrchestrator(qsvc, transfer.Config{EscalationNumber: "+15550009999"}, log)
	reports := reporting.NewService(reporting.NewMemoryRepo())
	engine := callflow.New(store, cat, orch, nil, nil, callflow.Config{}, log)

	h := Handler{
		Engine:  engine,
		Builder: NewBuilder(BuilderConfig{WaitURL: "/voice/wait"}),
		States:  store,
		Queue:   qsvc,
		Reports: reports,
		Gate:    gate,
	}

	r := gin.New()
	r.POST("/voice/inbound", h.Inbound)
	r.POST("/voice/collect", h.Collect)
	r.POST("/voice/dial-result", h.DialResult)
	r.POST("/voice/status", h.Status)
	r.POST("/voice/wait", h.Wait)

	return &voiceRig{handler: h, router: r, store: store, queue: qsvc, reports: reports}
}

func (rig *voiceRig) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	rig.router.ServeHTTP(w, postForm(t, path, form))
	return w
}

func TestInboundRecognizedCallerGetsMenu(t *testing.T) {
	rig := newVoiceRig(t)

	w := rig.post(t, "/voice/inbound", url.Values{
		"CallSid": {"CA-in-1"},
		"From":    {"+15550001111"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("expected xml content type, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Welcome back, Dana Reyes.") {
		t.Fatalf("expected recognition greeting: %s", body)
	}
	if !strings.Contains(body, "<Gather") || !strings.Contains(body, `action="/voice/collect"`) {
		t.Fatalf("expected menu gather: %s", body)
	}
}

func TestInboundWithoutCallSidRejected(t *testing.T) {
	rig := newVoiceRig(t)

	w := rig.post(t, "/voice/inbound", url.Values{"From": {"+15550001111"}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCollectAdvancesFlow(t *testing.T) {
	rig := newVoiceRig(t)

	rig.post(t, "/voice/inbound", url.Values{
		"CallSid": {"CA-flow-1"},
		"From":    {"+15550001111"},
	})
	w := rig.post(t, "/voice/collect", url.Values{
		"CallSid": {"CA-flow-1"},
		"From":    {"+15550001111"},
		"Digits":  {"3"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Dial") || !strings.Contains(body, "<Number>+15550007000</Number>") {
		t.Fatalf("expected representative dial: %s", body)
	}
	if !strings.Contains(body, `action="/voice/dial-result"`) {
		t.Fatalf("expected dial action callback: %s", body)
	}
}

func TestDialResultBusyParksCaller(t *testing.T) {
	rig := newVoiceRig(t)

	s := callflow.NewCallState("CA-dial-1", "+15550001111", time.Now().UTC())
	s.Enter(callflow.PhaseTransferResult)
	if err := rig.store.Save(context.Background(), s); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	w := rig.post(t, "/voice/dial-result", url.Values{
		"CallSid":        {"CA-dial-1"},
		"From":           {"+15550001111"},
		"DialCallStatus": {"busy"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `<Enqueue waitUrl="/voice/wait">careline-hold</Enqueue>`) {
		t.Fatalf("expected caller parked: %s", body)
	}
	if _, err := rig.queue.Lookup(context.Background(), "CA-dial-1"); err != nil {
		t.Fatalf("expected caller in hold queue: %v", err)
	}
}

func TestStatusCompletedCleansUpAndRecords(t *testing.T) {
	rig := newVoiceRig(t)

	s := callflow.NewCallState("CA-done-1", "+15550001111", time.Now().UTC())
	if err := rig.store.Save(context.Background(), s); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	if _, err := rig.queue.Enqueue(context.Background(), queue.EnqueueRequest{
		CallID:       "CA-done-1",
		CallerNumber: "+15550001111",
	}); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	w := rig.post(t, "/voice/status", url.Values{
		"CallSid":      {"CA-done-1"},
		"From":         {"+15550001111"},
		"CallStatus":   {"completed"},
		"CallDuration": {"142"},
	})

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, err := rig.store.Load(context.Background(), "CA-done-1"); err == nil {
		t.Fatalf("expected state removed")
	}
	if _, err := rig.queue.Lookup(context.Background(), "CA-done-1"); err == nil {
		t.Fatalf("expected queue slot released")
	}

	now := time.Now().UTC()
	sum, err := rig.reports.Summarize(context.Background(), reporting.TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if sum.TotalCalls != 1 || sum.CompletedCalls != 1 {
		t.Fatalf("expected recorded call, got %+v", sum)
	}
	if sum.TotalDurationSeconds != 142 {
		t.Fatalf("expected duration 142, got %d", sum.TotalDurationSeconds)
	}
}

func TestStatusInterimKeepsState(t *testing.T) {
	rig := newVoiceRig(t)

	s := callflow.NewCallState("CA-live-1", "+15550001111", time.Now().UTC())
	if err := rig.store.Save(context.Background(), s); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	w := rig.post(t, "/voice/status", url.Values{
		"CallSid":    {"CA-live-1"},
		"CallStatus": {"in-progress"},
	})

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, err := rig.store.Load(context.Background(), "CA-live-1"); err != nil {
		t.Fatalf("expected state kept: %v", err)
	}
}

func TestWaitSpeaksLivePosition(t *testing.T) {
	rig := newVoiceRig(t)

	for _, id := range []string{"CA-hold-1", "CA-hold-2"} {
		if _, err := rig.queue.Enqueue(context.Background(), queue.EnqueueRequest{CallID: id, CallerNumber: "+1555"}); err != nil {
			t.Fatalf("seed queue: %v", err)
		}
	}

	w := rig.post(t, "/voice/wait", url.Values{"CallSid": {"CA-hold-2"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "You are caller number 2 in line.") {
		t.Fatalf("expected position update: %s", body)
	}
	if !strings.Contains(body, "Please stay on the line.") || !strings.Contains(body, `<Pause length="10">`) {
		t.Fatalf("expected hold filler: %s", body)
	}
}

func TestWaitFirstInLine(t *testing.T) {
	rig := newVoiceRig(t)

	if _, err := rig.queue.Enqueue(context.Background(), queue.EnqueueRequest{CallID: "CA-hold-1", CallerNumber: "+1555"}); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	w := rig.post(t, "/voice/wait", url.Values{"CallSid": {"CA-hold-1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "A representative will be with you shortly.") {
		t.Fatalf("expected first-in-line message: %s", w.Body.String())
	}
}

func newTestGate(t *testing.T, limit int) *CallGate {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCallGate(rdb, limit, time.Hour)
}

func TestInboundGateRejectsAtCapacity(t *testing.T) {
	rig := newVoiceRigWithGate(t, newTestGate(t, 1))

	w := rig.post(t, "/voice/inbound", url.Values{"CallSid": {"CA-g-1"}, "From": {"+15550001111"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Welcome back") {
		t.Fatalf("expected first call admitted, got %d: %s", w.Code, w.Body.String())
	}

	w = rig.post(t, "/voice/inbound", url.Values{"CallSid": {"CA-g-2"}, "From": {"+15550002222"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "lines are busy") || !strings.Contains(body, "<Hangup") {
		t.Fatalf("expected busy hangup: %s", body)
	}
	if _, err := rig.store.Load(context.Background(), "CA-g-2"); err == nil {
		t.Fatalf("expected no state for rejected call")
	}

	// The final status callback frees the slot for the next caller.
	rig.post(t, "/voice/status", url.Values{"CallSid": {"CA-g-1"}, "CallStatus": {"completed"}})

	w = rig.post(t, "/voice/inbound", url.Values{"CallSid": {"CA-g-3"}, "From": {"+15550001111"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Welcome back") {
		t.Fatalf("expected admission after release, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInboundGateRetryDoesNotDoubleCount(t *testing.T) {
	rig := newVoiceRigWithGate(t, newTestGate(t, 2))

	for i := 0; i < 2; i++ {
		w := rig.post(t, "/voice/inbound", url.Values{"CallSid": {"CA-g-1"}, "From": {"+15550001111"}})
		if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "lines are busy") {
			t.Fatalf("expected retried webhook admitted, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := rig.post(t, "/voice/inbound", url.Values{"CallSid": {"CA-g-2"}, "From": {"+15550002222"}})
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "lines are busy") {
		t.Fatalf("expected second caller admitted, got %d: %s", w.Code, w.Body.String())
	}

	w = rig.post(t, "/voice/inbound", url.Values{"CallSid": {"CA-g-3"}, "From": {"+15550003333"}})
	if !strings.Contains(w.Body.String(), "lines are busy") {
		t.Fatalf("expected third caller rejected: %s", w.Body.String())
	}
}
