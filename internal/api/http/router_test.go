package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/civic-desk/complaint-service/internal/api/http"
	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/classifier"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/repository"
	"github.com/civic-desk/complaint-service/internal/service"
)

type fixedClassifier struct {
	judgement classifier.Judgement
	panics    bool
}

func (f *fixedClassifier) Analyze(_ context.Context, message, username string) classifier.Judgement {
	if f.panics {
		panic("classifier exploded")
	}
	j := f.judgement
	j.OriginalMessage = message
	j.Username = username
	return j
}

type fakeDependency struct {
	enabled bool
	err     error
}

func (d fakeDependency) Enabled() bool              { return d.enabled }
func (d fakeDependency) Ping(context.Context) error { return d.err }

type apiFixture struct {
	app        *fiber.App
	classifier *fixedClassifier
	tickets    *repository.InMemoryTicketRepository
	authSvc    *service.AuthService
	tokens     *auth.TokenManager
}

func newAPIFixture(t *testing.T, deps map[string]handlers.Dependency) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	users := repository.NewInMemoryUserRepository()
	tickets := repository.NewInMemoryTicketRepository()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("router-secret", 60)
	authSvc := service.NewAuthService(config.AuthConfig{BcryptCost: 4}, tokens, users)

	stub := &fixedClassifier{judgement: classifier.Judgement{
		IsValidComplaint: true,
		CreateTicket:     true,
		HasLocation:      true,
		Category:         "Water Supply",
		Confidence:       0.9,
		Translation:      "No water in ward 12 since morning",
		Reason:           "water outage with location",
		Response:         "புகார் பதிவு செய்யப்பட்டது",
	}}
	intake := service.NewIntakeService(service.IntakeDependencies{
		Classifier: stub,
		TicketRepo: tickets,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Config:     config.IntakeConfig{DefaultUsername: "Anonymous User"},
	})
	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := httptransport.NewApp("complaint-service-test")
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", deps),
		Users:          handlers.NewUsersHandler(authSvc),
		Chat:           handlers.NewChatHandler(intake, ticketSvc, logger),
		Dashboard:      handlers.NewDashboardHandler(authSvc, ticketSvc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users),
		Gatherer:       registry,
	})

	return &apiFixture{app: app, classifier: stub, tickets: tickets, authSvc: authSvc, tokens: tokens}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func (f *apiFixture) signup(t *testing.T, username, email, aadhar string) string {
	t.Helper()
	status, body := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username, "email": email, "aadhar_no": aadhar, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	return data["token"].(string)
}

func (f *apiFixture) admin(t *testing.T) string {
	t.Helper()
	user, err := f.authSvc.CreateAdmin(context.Background(), service.SignupInput{
		Username: "Commissioner", Email: "admin@corp.example", AadharNo: "999988887777", Password: "admin-pass",
	})
	require.NoError(t, err)
	token, err := f.tokens.Issue(user)
	require.NoError(t, err)
	return token.Value
}

func TestHealthProbes(t *testing.T) {
	f := newAPIFixture(t, map[string]handlers.Dependency{
		"postgres": fakeDependency{enabled: false},
		"redis":    fakeDependency{enabled: true},
	})
	status, body := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = f.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "ok", deps["redis"])

	down := newAPIFixture(t, map[string]handlers.Dependency{
		"redis": fakeDependency{enabled: true, err: errors.New("connection refused")},
	})
	status, body = down.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body["error"].(map[string]any)["code"])
}

func TestChatMessageRequiresText(t *testing.T) {
	f := newAPIFixture(t, nil)
	status, body := f.do(t, http.MethodPost, "/api/chat/message", "", map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["response"])
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestChatMessageCreatesTicketAndLookupWorks(t *testing.T) {
	f := newAPIFixture(t, nil)
	status, body := f.do(t, http.MethodPost, "/api/chat/message", "", map[string]string{
		"message": "ward 12 la thanneer varala", "username": "Ravi",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["ticketCreated"])
	assert.Equal(t, "Water Supply", body["category"])
	assert.Equal(t, "high", body["priority"])
	number := body["ticketNumber"].(string)
	assert.Regexp(t, `^MCB-\d+-[0-9a-f]{6}$`, number)
	assert.Contains(t, body["response"], number)
	assert.NotNil(t, body["analysis"])

	status, body = f.do(t, http.MethodGet, "/api/chat/ticket/"+number, "", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ward 12 la thanneer varala", data["originalMessage"])
	assert.Equal(t, "open", data["status"])

	status, body = f.do(t, http.MethodGet, "/api/chat/ticket/MCB-0-000000", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["response"])
}

func TestChatMessageWithoutTicket(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.classifier.judgement = classifier.Judgement{
		IsValidComplaint: true,
		NeedsLocation:    true,
		Category:         "Street Light",
		Confidence:       0.7,
		Response:         "எந்த தெருவில்?",
	}
	status, body := f.do(t, http.MethodPost, "/api/chat/message", "", map[string]string{"message": "street light not working"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ticketCreated"])
	assert.Equal(t, "எந்த தெருவில்?", body["response"])
	assert.Nil(t, body["ticketNumber"])
}

func TestChatMessagePanicBecomesServerError(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.classifier.panics = true
	status, body := f.do(t, http.MethodPost, "/api/chat/message", "", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, service.MsgServerError, body["response"])
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.NotContains(t, details, "error")
	assert.NotContains(t, details["response"], "classifier exploded")
}

func TestAuthFlow(t *testing.T) {
	f := newAPIFixture(t, nil)
	token := f.signup(t, "Kavya", "kavya@example.com", "123456789012")

	status, body := f.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Kavya", user["username"])
	assert.Nil(t, user["aadhar_no"])

	status, _ = f.do(t, http.MethodGet, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "kavya@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", body["error"].(map[string]any)["code"])

	status, body = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "kavya@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])

	status, _ = f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "Other", "email": "kavya@example.com", "aadhar_no": "111122223333", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestSubmitterListingRequiresOwnerOrAdmin(t *testing.T) {
	f := newAPIFixture(t, nil)
	citizen := f.signup(t, "Kavya", "kavya@example.com", "123456789012")
	adminToken := f.admin(t)

	status, _ := f.do(t, http.MethodPost, "/api/chat/message", citizen, map[string]string{"message": "no water"})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, http.MethodPost, "/api/chat/message", "", map[string]string{"message": "no water either"})
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(t, http.MethodGet, "/api/chat/tickets/Kavya", citizen, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = f.do(t, http.MethodGet, "/api/chat/tickets/Anonymous%20User", citizen, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodGet, "/api/chat/tickets/Kavya", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = f.do(t, http.MethodGet, "/api/chat/tickets/Anonymous%20User?status=open&limit=5", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = f.do(t, http.MethodGet, "/api/dashboard/user/tickets", citizen, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = f.do(t, http.MethodGet, "/api/dashboard/user/profile", citizen, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kavya@example.com", body["data"].(map[string]any)["email"])
}

func TestNamesakeCannotReadAnotherCitizensTickets(t *testing.T) {
	f := newAPIFixture(t, nil)
	owner := f.signup(t, "Kavya", "kavya@example.com", "123456789012")
	namesake := f.signup(t, "Kavya", "other.kavya@example.com", "210987654321")

	status, _ := f.do(t, http.MethodPost, "/api/chat/message", owner, map[string]string{"message": "no water at 12 anna nagar"})
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(t, http.MethodGet, "/api/chat/tickets/Kavya", namesake, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = f.do(t, http.MethodGet, "/api/chat/tickets/Kavya", owner, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["data"], 1)
	assert.Equal(t, "no water at 12 anna nagar", body["data"].([]any)[0].(map[string]any)["originalMessage"])

	status, body = f.do(t, http.MethodGet, "/api/chat/tickets/Kavya", f.admin(t), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestAdminUpdateIsGuarded(t *testing.T) {
	f := newAPIFixture(t, nil)
	citizen := f.signup(t, "Kavya", "kavya@example.com", "123456789012")
	adminToken := f.admin(t)

	_, body := f.do(t, http.MethodPost, "/api/chat/message", citizen, map[string]string{"message": "no water"})
	number := body["ticketNumber"].(string)

	status, body := f.do(t, http.MethodPut, "/api/dashboard/admin/tickets/"+number, citizen, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["error"].(map[string]any)["code"])
	stored, err := f.tickets.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)

	status, body = f.do(t, http.MethodPut, "/api/dashboard/admin/tickets/"+number, adminToken, map[string]string{
		"status": "resolved", "adminNotes": "valve replaced",
	})
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "resolved", data["status"])
	assert.Equal(t, "valve replaced", data["adminNotes"])
	assert.NotEmpty(t, data["resolvedAt"])

	status, _ = f.do(t, http.MethodPut, "/api/dashboard/admin/tickets/"+number, adminToken, map[string]string{"status": "open"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/api/dashboard/admin/tickets?status=resolved&page=1&page_size=10", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Commissioner", items[0].(map[string]any)["resolvedByUsername"])

	status, body = f.do(t, http.MethodGet, "/api/dashboard/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["data"].(map[string]any)
	assert.Equal(t, float64(2), stats["totalUsers"])
	assert.Equal(t, float64(1), stats["resolvedTickets"])

	status, _ = f.do(t, http.MethodGet, "/api/dashboard/admin/stats", citizen, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.do(t, http.MethodGet, "/health/live", "", nil)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "complaint_http_requests_total")
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	f := newAPIFixture(t, nil)
	status, body := f.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}
