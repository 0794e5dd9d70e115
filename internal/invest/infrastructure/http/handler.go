package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/okivest/investment-platform/internal/catalog"
	"github.com/okivest/investment-platform/internal/invest/application"
	"github.com/okivest/investment-platform/internal/invest/domain"
	"github.com/okivest/investment-platform/pkg/tracing"
)

type Handler struct {
	log     *slog.Logger
	catalog *catalog.Catalog
	auth    application.Authenticator
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, cat *catalog.Catalog, auth application.Authenticator, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		catalog: cat,
		auth:    auth,
		service: service,
		tracer:  otel.Tracer("invest-http"),
	}
}

type createPaymentIntentReq struct {
	Amount         float64 `json:"amount"`
	PackageID      string  `json:"packageId"`
	InvestmentType string  `json:"investmentType"`
	InvestmentName string  `json:"investmentName"`
	TermMonths     int     `json:"termMonths"`
	ExpectedReturn float64 `json:"expectedReturn"`
}

type confirmPaymentReq struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// Routes builds the router. The hosted widget calls these endpoints from the
// browser, so permissive CORS headers go on every response, errors included.
func (h *Handler) Routes(createMiddleware ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "apikey", "x-client-info", "Idempotency-Key"},
	}))

	r.With(createMiddleware...).Post("/create-payment-intent", h.createPaymentIntent)
	r.Post("/confirm-payment", h.confirmPayment)
	r.Get("/packages", h.listPackages)

	return r
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePaymentIntent")
	defer span.End()

	userID, err := h.auth.GetUser(ctx, bearerToken(r))
	if err != nil {
		h.writeError(w, domain.ErrUnauthorized)
		return
	}

	var req createPaymentIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorMessage(w, "invalid request body")
		return
	}
	if req.Amount == 0 || req.InvestmentType == "" || req.InvestmentName == "" || req.TermMonths == 0 || req.ExpectedReturn == 0 {
		h.writeErrorMessage(w, "missing required investment details")
		return
	}

	pkg, err := h.resolvePackage(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.service.Create(ctx, userID, application.InvestmentRequest{
		PackageID: pkg.ID,
		Amount:    req.Amount,
	}, tracing.Traceparent(ctx))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"clientSecret":      res.ClientSecret,
		"investmentId":      res.InvestmentID,
		"certificateNumber": res.CertificateNumber,
	})
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ConfirmPayment")
	defer span.End()

	userID, err := h.auth.GetUser(ctx, bearerToken(r))
	if err != nil {
		h.writeError(w, domain.ErrUnauthorized)
		return
	}

	var req confirmPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorMessage(w, "invalid request body")
		return
	}
	if req.PaymentIntentID == "" {
		h.writeErrorMessage(w, "payment intent id is required")
		return
	}

	res, err := h.service.Confirm(ctx, userID, req.PaymentIntentID, tracing.Traceparent(ctx))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"status":           res.Status,
		"investmentStatus": res.InvestmentStatus,
	})
}

type packageResp struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Kind              string    `json:"kind"`
	MinAmount         float64   `json:"minAmount"`
	MaxAmount         float64   `json:"maxAmount"`
	AnnualRatePercent float64   `json:"annualRatePercent"`
	TermMonths        int       `json:"termMonths"`
	Description       string    `json:"description"`
	PresetAmounts     []float64 `json:"presetAmounts"`
}

func (h *Handler) listPackages(w http.ResponseWriter, r *http.Request) {
	pkgs := h.catalog.Packages()
	out := make([]packageResp, 0, len(pkgs))
	for _, p := range pkgs {
		presets, err := h.catalog.PresetAmounts(p.ID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		out = append(out, packageResp{
			ID:                p.ID,
			Name:              p.Name,
			Kind:              string(p.Kind),
			MinAmount:         p.MinAmount,
			MaxAmount:         p.MaxAmount,
			AnnualRatePercent: p.AnnualRatePercent,
			TermMonths:        p.TermMonths,
			Description:       p.Description,
			PresetAmounts:     presets,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"packages": out})
}

func (h *Handler) resolvePackage(req createPaymentIntentReq) (domain.Package, error) {
	if req.PackageID != "" {
		return h.catalog.Lookup(req.PackageID)
	}
	return h.catalog.LookupByName(req.InvestmentName)
}

// All failures surface as 400 with a single error field, which is what the
// portal's payment page expects.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeErrorMessage(w, err.Error())
}

func (h *Handler) writeErrorMessage(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("response encode failed", "err", err)
	}
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
