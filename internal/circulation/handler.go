// internal/circulation/handler.go
package circulation

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libracirc/internal/domain"
	"libracirc/internal/validation"
)

// Handler exposes the circulation service over HTTP.
type Handler struct {
	service Service
	auth    StaffAuthenticator
}

func NewHandler(service Service, auth StaffAuthenticator) *Handler {
	return &Handler{service: service, auth: auth}
}

// Routes returns the circulation routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/check-out-by-barcode", h.handleCheckOut)
	r.Post("/renew-by-barcode", h.handleRenew)
	return r
}

type checkOutByBarcodeRequest struct {
	ItemBarcode      string                     `json:"itemBarcode"`
	UserBarcode      string                     `json:"userBarcode"`
	ProxyUserBarcode string                     `json:"proxyUserBarcode,omitempty"`
	ServicePointID   uuid.UUID                  `json:"checkoutServicePointId"`
	LoanDate         time.Time                  `json:"loanDate,omitempty"`
	DueDate          time.Time                  `json:"dueDate,omitempty"`
	OverrideBlocks   *validation.BlockOverrides `json:"overrideBlocks,omitempty"`
}

type renewByBarcodeRequest struct {
	ItemBarcode string `json:"itemBarcode"`
	UserBarcode string `json:"userBarcode"`
}

type loanResponse struct {
	ID                     uuid.UUID `json:"id"`
	ItemID                 uuid.UUID `json:"itemId"`
	UserID                 uuid.UUID `json:"userId"`
	ProxyUserID            uuid.UUID `json:"proxyUserId,omitempty"`
	LoanDate               time.Time `json:"loanDate"`
	DueDate                time.Time `json:"dueDate"`
	RenewalCount           int       `json:"renewalCount"`
	Status                 string    `json:"status"`
	Action                 string    `json:"action"`
	PolicyID               uuid.UUID `json:"loanPolicyId"`
	CheckoutServicePointID uuid.UUID `json:"checkoutServicePointId,omitempty"`
}

func toLoanResponse(loan *domain.Loan) loanResponse {
	return loanResponse{
		ID:                     loan.ID,
		ItemID:                 loan.ItemID,
		UserID:                 loan.UserID,
		ProxyUserID:            loan.ProxyUserID,
		LoanDate:               loan.LoanDate,
		DueDate:                loan.DueDate,
		RenewalCount:           loan.RenewalCount,
		Status:                 string(loan.Status),
		Action:                 loan.Action,
		PolicyID:               loan.PolicyID,
		CheckoutServicePointID: loan.CheckoutServicePointID,
	}
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req checkOutByBarcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	staffID, err := h.authenticateStaff(r)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "invalid staff credentials", http.StatusUnauthorized)
			return
		}
		writeError(w, err)
		return
	}

	checkOut := CheckOutRequest{
		ItemBarcode:      req.ItemBarcode,
		UserBarcode:      req.UserBarcode,
		ProxyUserBarcode: req.ProxyUserBarcode,
		ServicePointID:   req.ServicePointID,
		LoanDate:         req.LoanDate,
		DueDate:          req.DueDate,
		StaffID:          staffID,
	}
	if req.OverrideBlocks != nil {
		checkOut.Overrides = *req.OverrideBlocks
	}

	loan, err := h.service.CheckOut(r.Context(), checkOut)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	var req renewByBarcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, err := h.service.Renew(r.Context(), RenewRequest{
		ItemBarcode: req.ItemBarcode,
		UserBarcode: req.UserBarcode,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// authenticateStaff resolves the staff member performing the transaction
// from the request's basic auth credentials. Only the override permission
// check consults the identity, so a request without credentials proceeds
// without one.
func (h *Handler) authenticateStaff(r *http.Request) (uuid.UUID, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return uuid.Nil, nil
	}
	return h.auth.Authenticate(r.Context(), username, password)
}

// writeError maps a refusal onto the wire: the complete aggregated set of
// violated invariants as an unprocessable-entity body, rate limiting as 429,
// and configuration or server faults as 500.
func writeError(w http.ResponseWriter, err error) {
	var failure *validation.Failure
	if errors.As(err, &failure) {
		writeJSON(w, http.StatusUnprocessableEntity, failure)
		return
	}

	var single *validation.ValidationError
	if errors.As(err, &single) {
		writeJSON(w, http.StatusUnprocessableEntity, validation.NewFailure(single))
		return
	}

	if errors.Is(err, ErrRateLimited) {
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	// Configuration faults (no matching rule, malformed policy) and other
	// server errors are never shown as patron-actionable validation errors.
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response body: %v", err)
	}
}
