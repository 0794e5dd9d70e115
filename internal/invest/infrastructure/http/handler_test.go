package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okivest/investment-platform/internal/catalog"
	"github.com/okivest/investment-platform/internal/invest/application"
	"github.com/okivest/investment-platform/internal/invest/domain"
	"github.com/okivest/investment-platform/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	userID string
}

func (a *fakeAuth) GetUser(_ context.Context, token string) (string, error) {
	if a.userID == "" || token == "" {
		return "", domain.ErrUnauthorized
	}
	return a.userID, nil
}

type fakeGateway struct {
	status string
}

func (g *fakeGateway) OpenIntent(_ context.Context, _ int64, _ string, _ map[string]string) (application.Intent, error) {
	return application.Intent{ID: "pi_http_1", ClientSecret: "pi_http_1_secret", Status: "requires_payment_method"}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (application.Intent, error) {
	return application.Intent{ID: id, Status: g.status}, nil
}

type fakeRepo struct {
	investments map[string]*domain.Investment
	txns        map[string]*domain.PaymentTransaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		investments: make(map[string]*domain.Investment),
		txns:        make(map[string]*domain.PaymentTransaction),
	}
}

func (r *fakeRepo) CreateWithOutbox(_ context.Context, inv domain.Investment, txn domain.PaymentTransaction, _ string, _ []byte, _ string) error {
	r.investments[inv.PaymentIntentID] = &inv
	r.txns[txn.GatewayIntentID] = &txn
	return nil
}

func (r *fakeRepo) Reconcile(_ context.Context, gatewayIntentID, userID string, investmentStatus domain.InvestmentStatus, gatewayStatus string, _ string, _ []byte, _ string) (bool, error) {
	inv, ok := r.investments[gatewayIntentID]
	if !ok || inv.UserID != userID {
		return false, nil
	}
	inv.Status = investmentStatus
	r.txns[gatewayIntentID].Status = gatewayStatus
	return true, nil
}

func (r *fakeRepo) ListStalePending(_ context.Context, _ time.Time, _ int) ([]domain.Investment, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, auth *fakeAuth, gateway *fakeGateway, repo *fakeRepo) http.Handler {
	t.Helper()
	log := logging.New("test")
	cat, err := catalog.Default()
	require.NoError(t, err)
	svc := application.NewService(log, cat, gateway, repo)
	return NewHandler(log, cat, auth, svc).Routes()
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const createBody = `{"amount":1000,"investmentType":"short-term","investmentName":"Growth Fund A","termMonths":8,"expectedReturn":12.5}`

func TestPreflightEchoesCORSHeaders(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{}, newFakeRepo())

	req := httptest.NewRequest(http.MethodOptions, "/create-payment-intent", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCreatePaymentIntent(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{}, newFakeRepo())

	rec := doJSON(t, router, http.MethodPost, "/create-payment-intent", "tok", createBody)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "pi_http_1_secret", body["clientSecret"])
	assert.NotEmpty(t, body["investmentId"])
	assert.Regexp(t, `^OKI-\d{4}-\d{6}$`, body["certificateNumber"])
}

func TestCreatePaymentIntentUnauthorized(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeGateway{}, newFakeRepo())

	rec := doJSON(t, router, http.MethodPost, "/create-payment-intent", "tok", createBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody(t, rec)["error"])
	// CORS headers go on error responses too.
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreatePaymentIntentMissingFields(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{}, newFakeRepo())

	rec := doJSON(t, router, http.MethodPost, "/create-payment-intent", "tok", `{"amount":1000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required investment details", decodeBody(t, rec)["error"])
}

func TestCreatePaymentIntentAmountOutOfBounds(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{}, newFakeRepo())

	body := `{"amount":999,"investmentType":"short-term","investmentName":"Growth Fund A","termMonths":8,"expectedReturn":12.5}`
	rec := doJSON(t, router, http.MethodPost, "/create-payment-intent", "tok", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "minimum investment amount")
}

func TestConfirmPayment(t *testing.T) {
	repo := newFakeRepo()
	gateway := &fakeGateway{status: "succeeded"}
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, gateway, repo)

	rec := doJSON(t, router, http.MethodPost, "/create-payment-intent", "tok", createBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/confirm-payment", "tok", `{"paymentIntentId":"pi_http_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "succeeded", body["status"])
	assert.Equal(t, "active", body["investmentStatus"])
}

func TestConfirmPaymentMissingID(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{}, newFakeRepo())

	rec := doJSON(t, router, http.MethodPost, "/confirm-payment", "tok", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "payment intent id is required", decodeBody(t, rec)["error"])
}

func TestConfirmPaymentNoMatchingInvestment(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{status: "succeeded"}, newFakeRepo())

	rec := doJSON(t, router, http.MethodPost, "/confirm-payment", "tok", `{"paymentIntentId":"pi_other"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no matching investment", decodeBody(t, rec)["error"])
}

func TestListPackages(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{userID: "user-1"}, &fakeGateway{}, newFakeRepo())

	rec := doJSON(t, router, http.MethodGet, "/packages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Packages []packageResp `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Packages, 3)
	assert.Equal(t, []float64{1000, 2000, 5000, 10000}, body.Packages[0].PresetAmounts)
}
