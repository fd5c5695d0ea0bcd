package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/validation"
)

func TestLeadHandler_SubmitGame(t *testing.T) {
	var saved *model.GameSubmission
	svc := &mockLeadService{
		submitGameFn: func(ctx context.Context, g *model.GameSubmission) error {
			saved = g
			g.ID = 5
			return nil
		},
	}
	h := NewLeadHandler(svc, validation.New(), false)

	body := `{"email":"dev@example.com","gameName":"Orbit","gameLink":"https://orbit.example","dailyActiveUsers":"1200","revenue":30}`
	w := httptest.NewRecorder()
	h.SubmitGame(w, withSession(jsonRequest(http.MethodPost, "/api/submissions/game", body), int64Ptr(9)))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var resp struct {
		Message    string               `json:"message"`
		Submission model.GameSubmission `json:"submission"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Message != MessageGameSubmitted {
		t.Errorf("message = %q, want %q", resp.Message, MessageGameSubmitted)
	}
	if resp.Submission.ID != 5 {
		t.Errorf("submission id = %d, want 5", resp.Submission.ID)
	}
	if saved.DailyActiveUsers == nil || *saved.DailyActiveUsers != 1200 {
		t.Errorf("dailyActiveUsers = %v, want 1200", saved.DailyActiveUsers)
	}
	if saved.Revenue == nil || *saved.Revenue != 30 {
		t.Errorf("revenue = %v, want 30", saved.Revenue)
	}
	if saved.TotalVisits != nil {
		t.Errorf("totalVisits = %v, want nil", *saved.TotalVisits)
	}
	if saved.UserID == nil || *saved.UserID != 9 {
		t.Errorf("userID = %v, want 9", saved.UserID)
	}
}

func TestLeadHandler_SubmitGame_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing game name", `{"email":"dev@example.com","gameLink":"https://x.example"}`, "gameName"},
		{"invalid link", `{"email":"dev@example.com","gameName":"X","gameLink":"not a url"}`, "gameLink"},
		{"negative metric", `{"email":"dev@example.com","gameName":"X","gameLink":"https://x.example","totalVisits":-1}`, "totalVisits"},
		{"non numeric metric", `{"email":"dev@example.com","gameName":"X","gameLink":"https://x.example","revenue":"lots"}`, "revenue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockLeadService{
				submitGameFn: func(ctx context.Context, g *model.GameSubmission) error {
					t.Fatal("service must not be called for invalid input")
					return nil
				},
			}
			h := NewLeadHandler(svc, validation.New(), false)

			w := httptest.NewRecorder()
			h.SubmitGame(w, withSession(jsonRequest(http.MethodPost, "/api/submissions/game", tt.body), nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if got := decodeErrorBody(t, w).Field; got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestLeadHandler_CreateRegistration_Anonymous(t *testing.T) {
	h := NewLeadHandler(&mockLeadService{}, validation.New(), false)

	w := httptest.NewRecorder()
	h.CreateRegistration(w, withSession(jsonRequest(http.MethodPost, "/api/registrations",
		`{"email":"fan@example.com","interest":"co-op"}`), nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var reg model.Registration
	json.NewDecoder(w.Body).Decode(&reg)
	if reg.Email != "fan@example.com" || reg.UserID != nil {
		t.Errorf("registration = %+v, want anonymous row for fan@example.com", reg)
	}
}

func TestLeadHandler_SubmitAsset(t *testing.T) {
	h := NewLeadHandler(&mockLeadService{}, validation.New(), false)

	w := httptest.NewRecorder()
	h.SubmitAsset(w, withSession(jsonRequest(http.MethodPost, "/api/submissions/asset",
		`{"email":"art@example.com","assetsCount":12,"assetLinks":"https://drive.example/x"}`), nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp submissionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != MessageAssetSubmitted {
		t.Errorf("message = %q, want %q", resp.Message, MessageAssetSubmitted)
	}
}

func TestLeadHandler_Subscribe(t *testing.T) {
	svc := &mockLeadService{
		subscribeFn: func(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
			if email == "taken@example.com" {
				return nil, model.NewDuplicateResourceError("email", "This email is already subscribed")
			}
			return &model.NewsletterSubscription{ID: 1, Email: email}, nil
		},
	}
	h := NewLeadHandler(svc, validation.New(), false)

	tests := []struct {
		email       string
		wantStatus  int
		wantMessage string
	}{
		{"new@example.com", http.StatusCreated, MessageSubscribed},
		{"taken@example.com", http.StatusBadRequest, "This email is already subscribed"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Subscribe(w, withSession(jsonRequest(http.MethodPost, "/api/newsletter/subscribe",
				`{"email":"`+tt.email+`"}`), nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body messageResponse
			json.NewDecoder(w.Body).Decode(&body)
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}
