package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/metrics"
	"github.com/chiragsdev/steward/internal/ratelimit"
	"github.com/chiragsdev/steward/internal/receipt"
)

// ---------------------------------------------------------------------------
// Envelope helpers
// ---------------------------------------------------------------------------

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(rec, http.StatusCreated, "created", map[string]any{"id": "x"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
	if body["message"] != "created" {
		t.Errorf("expected message=created, got %v", body["message"])
	}
	if _, ok := body["error"]; ok {
		t.Error("success envelope must not carry an error field")
	}
}

func TestWriteSuccessOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(rec, http.StatusOK, "", nil)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := body["message"]; ok {
		t.Error("empty message should be omitted")
	}
	if _, ok := body["data"]; ok {
		t.Error("nil data should be omitted")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusConflict, "conflict", "already exists")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["code"] != "conflict" {
		t.Errorf("expected code=conflict, got %v", body["code"])
	}
	if body["error"] != "already exists" {
		t.Errorf("expected error message, got %v", body["error"])
	}
}

func TestWriteErrorData(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErrorData(rec, http.StatusConflict, "conflict", "department has assigned users",
		map[string]any{"assigned_users": 3})

	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	if body.Data["assigned_users"] != float64(3) {
		t.Errorf("expected assigned_users=3, got %v", body.Data["assigned_users"])
	}
}

func TestReadJSONRejectsOversizedBody(t *testing.T) {
	big := strings.Repeat("a", maxBodySize+100)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"v":"`+big+`"}`))

	var out struct {
		V string `json:"v"`
	}
	if err := readJSON(req, &out); err == nil {
		t.Error("expected error decoding oversized body")
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr with port", "203.0.113.7:54321", "", "203.0.113.7"},
		{"forwarded single", "10.0.0.1:1234", "198.51.100.4", "198.51.100.4"},
		{"forwarded chain uses first hop", "10.0.0.1:1234", "198.51.100.4, 10.0.0.2", "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Error("request ID missing from context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != captured {
		t.Errorf("header X-Request-ID = %q, context = %q", got, captured)
	}
}

func TestRequestIDMiddlewarePreservesClientID(t *testing.T) {
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-id-123" {
		t.Errorf("expected client-provided id to be kept, got %q", got)
	}
}

func TestSecureHeaders(t *testing.T) {
	h := secureHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Ledger listing parameters
// ---------------------------------------------------------------------------

func requestWithUser(target string, u *auth.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(auth.ContextWithUser(context.Background(), u))
}

func TestListParamsForcesManagerScope(t *testing.T) {
	manager := &auth.User{ID: "user_1", Role: auth.RoleManager, Department: "Youth"}
	req := requestWithUser("/api/v1/expenses?department=Worship", manager)

	p, err := listParamsFromRequest(req)
	if err != nil {
		t.Fatalf("listParamsFromRequest: %v", err)
	}
	if p.Department != "Youth" {
		t.Errorf("department = %q, want manager's own department", p.Department)
	}
}

func TestListParamsAdminKeepsRequestedScope(t *testing.T) {
	admin := &auth.User{ID: "user_2", Role: auth.RoleAdmin}
	req := requestWithUser("/api/v1/expenses?department=Worship&limit=5&offset=10", admin)

	p, err := listParamsFromRequest(req)
	if err != nil {
		t.Fatalf("listParamsFromRequest: %v", err)
	}
	if p.Department != "Worship" {
		t.Errorf("department = %q, want Worship", p.Department)
	}
	if p.Limit != 5 || p.Offset != 10 {
		t.Errorf("limit/offset = %d/%d, want 5/10", p.Limit, p.Offset)
	}
}

func TestListParamsRejectsBadInput(t *testing.T) {
	admin := &auth.User{ID: "user_2", Role: auth.RoleAdmin}

	for _, target := range []string{
		"/api/v1/expenses?limit=abc",
		"/api/v1/expenses?offset=xyz",
		"/api/v1/expenses?start_date=2024-13-01",
		"/api/v1/expenses?end_date=not-a-date",
	} {
		req := requestWithUser(target, admin)
		if _, err := listParamsFromRequest(req); err == nil {
			t.Errorf("expected error for %q", target)
		}
	}
}

func TestWindowFromRequestForcesManagerScope(t *testing.T) {
	manager := &auth.User{ID: "user_1", Role: auth.RoleManager, Department: "Youth"}
	req := requestWithUser("/api/v1/reports/summary?department=Worship", manager)

	w, err := windowFromRequest(req)
	if err != nil {
		t.Fatalf("windowFromRequest: %v", err)
	}
	if w.Department != "Youth" {
		t.Errorf("department = %q, want manager's own department", w.Department)
	}
}

// ---------------------------------------------------------------------------
// Login rate limiting
// ---------------------------------------------------------------------------

func TestLoginRateLimited(t *testing.T) {
	limiter := ratelimit.New(1, time.Minute)
	h := newAuthHandler(nil, nil, limiter, metrics.New())

	body := `{"email":"a@example.org","password":"secret123"}`

	// Drain the single token so the limiter check fires before any store
	// access.
	if !limiter.Allow("203.0.113.7") {
		t.Fatal("expected first attempt to be allowed")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:50000"
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["code"] != "rate_limited" {
		t.Errorf("expected code=rate_limited, got %v", resp["code"])
	}
}

// ---------------------------------------------------------------------------
// Role/department consistency on user updates
// ---------------------------------------------------------------------------

func TestResolveRoleDepartment(t *testing.T) {
	strptr := func(s string) *string { return &s }

	tests := []struct {
		name         string
		existingRole string
		existingDept *string
		reqRole      *string
		reqDept      *string
		wantDept     *string // nil leaves the column unchanged, "" clears it
		wantCheck    string
		wantErr      bool
	}{
		{
			name:         "admin untouched keeps null department",
			existingRole: auth.RoleAdmin,
		},
		{
			name:         "department supplied for an admin is discarded",
			existingRole: auth.RoleAdmin,
			reqDept:      strptr("Youth"),
			wantDept:     strptr(""),
		},
		{
			name:         "promoting to admin clears the department",
			existingRole: auth.RoleManager,
			existingDept: strptr("Youth"),
			reqRole:      strptr(auth.RoleAdmin),
			wantDept:     strptr(""),
		},
		{
			name:         "manager keeps current department",
			existingRole: auth.RoleManager,
			existingDept: strptr("Youth"),
			wantCheck:    "Youth",
		},
		{
			name:         "manager reassignment checks the new department",
			existingRole: auth.RoleManager,
			existingDept: strptr("Youth"),
			reqDept:      strptr("Worship"),
			wantDept:     strptr("Worship"),
			wantCheck:    "Worship",
		},
		{
			name:         "demotion to manager requires a department",
			existingRole: auth.RoleAdmin,
			reqRole:      strptr(auth.RoleManager),
			wantErr:      true,
		},
		{
			name:         "demotion to manager with a department",
			existingRole: auth.RoleAdmin,
			reqRole:      strptr(auth.RoleManager),
			reqDept:      strptr("Youth"),
			wantDept:     strptr("Youth"),
			wantCheck:    "Youth",
		},
		{
			name:         "manager cannot clear their department",
			existingRole: auth.RoleManager,
			existingDept: strptr("Youth"),
			reqDept:      strptr(""),
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dept, check, err := resolveRoleDepartment(tt.existingRole, tt.existingDept, tt.reqRole, tt.reqDept)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch {
			case tt.wantDept == nil && dept != nil:
				t.Errorf("department = %q, want unchanged", *dept)
			case tt.wantDept != nil && dept == nil:
				t.Errorf("department unchanged, want %q", *tt.wantDept)
			case tt.wantDept != nil && *dept != *tt.wantDept:
				t.Errorf("department = %q, want %q", *dept, *tt.wantDept)
			}
			if check != tt.wantCheck {
				t.Errorf("existence check = %q, want %q", check, tt.wantCheck)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Receipt upload size limit
// ---------------------------------------------------------------------------

func TestUploadReceiptRejectsOversizedFile(t *testing.T) {
	const maxSize = 1024

	store, err := receipt.NewStorage(t.TempDir(), maxSize, "/uploads/receipts")
	if err != nil {
		t.Fatalf("creating storage: %v", err)
	}
	h := newUploadsHandler(store, maxSize, metrics.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "receipt.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0xAB}, maxSize+1)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/receipt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadReceipt(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "file exceeds the 1024 byte limit" {
		t.Errorf("error = %v, want the configured limit in the message", resp["error"])
	}
}

func TestSizeLimitMessage(t *testing.T) {
	if got := sizeLimitMessage(10 << 20); got != "file exceeds the 10MB limit" {
		t.Errorf("sizeLimitMessage(10MB) = %q", got)
	}
	if got := sizeLimitMessage(1500); got != "file exceeds the 1500 byte limit" {
		t.Errorf("sizeLimitMessage(1500) = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Body parsing
// ---------------------------------------------------------------------------

// plainReader hides the underlying reader type so httptest leaves
// ContentLength at -1, as a chunked request would.
type plainReader struct{ io.Reader }

func TestReadJSONEmptyBodyReturnsEOF(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/departments/Youth/archive", nil)

	var v struct {
		Archived *bool `json:"archived"`
	}
	if err := readJSON(req, &v); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF for an empty body, got %v", err)
	}
	if v.Archived != nil {
		t.Error("expected no fields decoded from an empty body")
	}
}

func TestReadJSONHandlesUnknownContentLength(t *testing.T) {
	body := plainReader{strings.NewReader(`{"archived":false}`)}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/departments/Youth/archive", body)
	if req.ContentLength != -1 {
		t.Fatalf("expected ContentLength -1, got %d", req.ContentLength)
	}

	var v struct {
		Archived *bool `json:"archived"`
	}
	if err := readJSON(req, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Archived == nil || *v.Archived {
		t.Error("expected archived=false to be decoded")
	}
}
