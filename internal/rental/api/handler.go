package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hostelhub/internal/common/logging"
	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
)

// Handler implements the HTTP handlers for the Rental API.
type Handler struct {
	catalog  *application.CatalogService
	bookings *application.BookingService
	payments *application.PaymentService
}

// NewHandler creates a new Handler.
func NewHandler(catalog *application.CatalogService, bookings *application.BookingService, payments *application.PaymentService) *Handler {
	return &Handler{
		catalog:  catalog,
		bookings: bookings,
		payments: payments,
	}
}

// RegisterRoutes registers the Rental API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", h.RegisterUser)

	mux.HandleFunc("GET /properties", h.ListProperties)
	mux.HandleFunc("POST /properties", h.AddProperty)
	mux.HandleFunc("GET /owner/properties", h.ListOwnProperties)
	mux.HandleFunc("GET /properties/{id}/rooms", h.ListRooms)
	mux.HandleFunc("POST /properties/{id}/rooms", h.AddRoom)

	mux.HandleFunc("POST /bookings", h.CreateBooking)
	mux.HandleFunc("GET /bookings", h.ListBookings)
	mux.HandleFunc("POST /bookings/{id}/approve", h.ApproveBooking)
	mux.HandleFunc("POST /bookings/{id}/reject", h.RejectBooking)
	mux.HandleFunc("POST /bookings/{id}/checkin", h.CheckInBooking)
	mux.HandleFunc("POST /bookings/{id}/checkout", h.CheckOutBooking)

	mux.HandleFunc("POST /bookings/{id}/payments", h.InitiatePayment)
	mux.HandleFunc("POST /bookings/{id}/payments/confirm", h.ConfirmPayment)
	mux.HandleFunc("GET /bookings/{id}/payments/latest", h.LatestPaymentStatus)
	mux.HandleFunc("GET /payments", h.ListPayments)
}

// RegisterUserRequest is the JSON request body for registering an account.
type RegisterUserRequest struct {
	Role         string `json:"role"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"password_hash"`
}

// RegisterUser handles POST /users.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "role must be student or owner", nil)
		return
	}

	resp, err := h.catalog.RegisterUser(ctx, application.RegisterUserRequest{
		Role:         role,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: req.PasswordHash,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// ListProperties handles GET /properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.catalog.ListProperties(ctx, identityFromContext(ctx))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ListOwnProperties handles GET /owner/properties.
func (h *Handler) ListOwnProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.catalog.ListOwnProperties(ctx, identityFromContext(ctx))
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// AddPropertyRequest is the JSON request body for listing a property.
type AddPropertyRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
	Description string `json:"description"`
}

// AddProperty handles POST /properties.
func (h *Handler) AddProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.catalog.AddProperty(ctx, application.AddPropertyRequest{
		Identity:    identityFromContext(ctx),
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		Pincode:     req.Pincode,
		Description: req.Description,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// ListRooms handles GET /properties/{id}/rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	propertyID, err := domain.ParsePropertyID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid property_id", err)
		return
	}

	resp, err := h.catalog.ListRooms(ctx, application.ListRoomsRequest{
		Identity:   identityFromContext(ctx),
		PropertyID: propertyID,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// AddRoomRequest is the JSON request body for adding a room.
type AddRoomRequest struct {
	RoomNo      string      `json:"room_no"`
	RoomType    string      `json:"room_type"`
	BedCapacity int         `json:"bed_capacity"`
	Rent        types.Money `json:"rent"`
	Deposit     types.Money `json:"deposit"`
	Sharing     int         `json:"sharing"`
}

// AddRoom handles POST /properties/{id}/rooms.
func (h *Handler) AddRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	propertyID, err := domain.ParsePropertyID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid property_id", err)
		return
	}

	var req AddRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.catalog.AddRoom(ctx, application.AddRoomRequest{
		Identity:    identityFromContext(ctx),
		PropertyID:  propertyID,
		RoomNo:      req.RoomNo,
		RoomType:    req.RoomType,
		BedCapacity: req.BedCapacity,
		Rent:        req.Rent,
		Deposit:     req.Deposit,
		Sharing:     req.Sharing,
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// CreateBookingRequest is the JSON request body for booking a room.
type CreateBookingRequest struct {
	RoomID    string `json:"room_id"`
	StartDate string `json:"start_date"`
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	roomID, err := domain.ParseRoomID(req.RoomID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid room_id", err)
		return
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
		return
	}

	resp, err := h.bookings.CreateBooking(ctx, application.CreateBookingRequest{
		Identity:      identityFromContext(ctx),
		RoomID:        roomID,
		StartDate:     startDate,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// ListBookings handles GET /bookings.
// Students see their own bookings; owners see bookings across their properties.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	var (
		resp []application.BookingView
		err  error
	)
	switch identity.Role {
	case domain.RoleOwner:
		resp, err = h.bookings.ListForOwner(ctx, identity)
	default:
		resp, err = h.bookings.ListForStudent(ctx, identity)
	}
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ApproveBooking handles POST /bookings/{id}/approve.
func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	h.transitionBooking(w, r, h.bookings.Approve)
}

// RejectBooking handles POST /bookings/{id}/reject.
func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	h.transitionBooking(w, r, h.bookings.Reject)
}

// CheckInBooking handles POST /bookings/{id}/checkin.
func (h *Handler) CheckInBooking(w http.ResponseWriter, r *http.Request) {
	h.transitionBooking(w, r, h.bookings.CheckIn)
}

// CheckOutBooking handles POST /bookings/{id}/checkout.
func (h *Handler) CheckOutBooking(w http.ResponseWriter, r *http.Request) {
	h.transitionBooking(w, r, h.bookings.CheckOut)
}

func (h *Handler) transitionBooking(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, application.TransitionBookingRequest) (*application.TransitionBookingResponse, error),
) {
	ctx := r.Context()

	bookingID, err := domain.ParseBookingID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid booking_id", err)
		return
	}

	resp, err := op(ctx, application.TransitionBookingRequest{
		Identity:      identityFromContext(ctx),
		BookingID:     bookingID,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// InitiatePaymentRequest is the JSON request body for initiating a payment.
type InitiatePaymentRequest struct {
	Method string `json:"method"`
}

// InitiatePayment handles POST /bookings/{id}/payments.
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookingID, err := domain.ParseBookingID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid booking_id", err)
		return
	}

	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Method == "" {
		h.writeError(w, http.StatusBadRequest, "method is required", nil)
		return
	}

	resp, err := h.payments.InitiatePayment(ctx, application.InitiatePaymentRequest{
		Identity:      identityFromContext(ctx),
		BookingID:     bookingID,
		Method:        req.Method,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// ConfirmPayment handles POST /bookings/{id}/payments/confirm.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookingID, err := domain.ParseBookingID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid booking_id", err)
		return
	}

	resp, err := h.payments.ConfirmPayment(ctx, application.ConfirmPaymentRequest{
		Identity:      identityFromContext(ctx),
		BookingID:     bookingID,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	})
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// LatestPaymentStatusResponse is the JSON response for the latest payment status.
type LatestPaymentStatusResponse struct {
	Status *string `json:"status"`
}

// LatestPaymentStatus handles GET /bookings/{id}/payments/latest.
// Status is null when the booking has no payments.
func (h *Handler) LatestPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookingID, err := domain.ParseBookingID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid booking_id", err)
		return
	}

	status, err := h.payments.LatestStatus(ctx, identityFromContext(ctx), bookingID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	var resp LatestPaymentStatusResponse
	if status != nil {
		s := string(*status)
		resp.Status = &s
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ListPayments handles GET /payments.
// Students see payments across their bookings; owners across their properties.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	var (
		resp []application.PaymentView
		err  error
	)
	switch identity.Role {
	case domain.RoleOwner:
		resp, err = h.payments.ListForOwner(ctx, identity)
	default:
		resp, err = h.payments.ListForStudent(ctx, identity)
	}
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleDomainError maps domain errors to HTTP responses.
func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		h.writeError(w, http.StatusUnauthorized, "authentication required", nil)
	case errors.Is(err, domain.ErrRoleMismatch):
		h.writeError(w, http.StatusForbidden, "role not permitted for this operation", nil)
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "not the owner of this resource", nil)
	case errors.Is(err, domain.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, domain.ErrPropertyNotFound):
		h.writeError(w, http.StatusNotFound, "property not found", nil)
	case errors.Is(err, domain.ErrRoomNotFound):
		h.writeError(w, http.StatusNotFound, "room not found", nil)
	case errors.Is(err, domain.ErrBookingNotFound):
		h.writeError(w, http.StatusNotFound, "booking not found", nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		h.writeError(w, http.StatusConflict, "invalid state transition", nil)
	case errors.Is(err, domain.ErrOptimisticLock):
		h.writeError(w, http.StatusConflict, "concurrent modification detected, please retry", nil)
	case errors.Is(err, domain.ErrEmailTaken):
		h.writeError(w, http.StatusConflict, "email already registered", nil)
	case errors.Is(err, domain.ErrRoomFull):
		h.writeError(w, http.StatusUnprocessableEntity, "room is at bed capacity", nil)
	case errors.Is(err, domain.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid id", nil)
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "store unavailable, please retry", nil)
	default:
		logging.Error("Unhandled error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
	}
	h.writeJSON(w, status, resp)
}
