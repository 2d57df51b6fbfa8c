package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
	"hostelhub/internal/rental/infrastructure/memory"
)

type bookingState struct {
	ctx           context.Context
	catalog       *application.CatalogService
	bookings      *application.BookingService
	payments      *application.PaymentService
	correlationID types.CorrelationID

	owner          domain.Identity
	student        domain.Identity
	otherStudent   domain.Identity
	roomID         domain.RoomID
	bookingID      domain.BookingID
	otherBookingID domain.BookingID

	lastErr         error
	lastPayment     *application.InitiatePaymentResponse
	lastConfirm     *application.ConfirmPaymentResponse
	firstTxnRef     string
	registeredUsers int
}

func InitializeBookingScenario(ctx *godog.ScenarioContext) {
	state := &bookingState{
		ctx:           context.Background(),
		correlationID: types.NewCorrelationID(),
	}

	// Background steps
	ctx.Step(`^a property owner with a listed room having (\d+) beds? and rent of (\d+) ([A-Z]{3})$`, state.aPropertyOwnerWithAListedRoom)
	ctx.Step(`^a registered student$`, state.aRegisteredStudent)

	// Booking steps
	ctx.Step(`^the student books the room$`, state.theStudentBooksTheRoom)
	ctx.Step(`^the student has booked the room$`, state.theStudentHasBookedTheRoom)
	ctx.Step(`^another student has booked the room$`, state.anotherStudentHasBookedTheRoom)
	ctx.Step(`^the owner approves the booking$`, state.theOwnerApprovesTheBooking)
	ctx.Step(`^the owner attempts to approve the booking$`, state.theOwnerAttemptsToApproveTheBooking)
	ctx.Step(`^the owner attempts to approve the other booking$`, state.theOwnerAttemptsToApproveTheOtherBooking)
	ctx.Step(`^the owner checks in the booking$`, state.theOwnerChecksInTheBooking)
	ctx.Step(`^the owner checks out the booking$`, state.theOwnerChecksOutTheBooking)
	ctx.Step(`^the booking status should be "([^"]*)"$`, state.theBookingStatusShouldBe)
	ctx.Step(`^the booking should have an end date$`, state.theBookingShouldHaveAnEndDate)
	ctx.Step(`^the transition should be declined with error "([^"]*)"$`, state.theTransitionShouldBeDeclinedWithError)

	// Payment steps
	ctx.Step(`^the student initiates a payment by "([^"]*)"$`, state.theStudentInitiatesAPaymentBy)
	ctx.Step(`^the student has a confirmed payment$`, state.theStudentHasAConfirmedPayment)
	ctx.Step(`^the student confirms the payment$`, state.theStudentConfirmsThePayment)
	ctx.Step(`^the payment status should be "([^"]*)"$`, state.thePaymentStatusShouldBe)
	ctx.Step(`^the payment amount should be (\d+) ([A-Z]{3})$`, state.thePaymentAmountShouldBe)
	ctx.Step(`^the payment should be confirmed with a transaction reference$`, state.thePaymentShouldBeConfirmedWithReference)
	ctx.Step(`^the latest payment status should be "([^"]*)"$`, state.theLatestPaymentStatusShouldBe)
	ctx.Step(`^the confirmation should be a no-op keeping the original reference$`, state.theConfirmationShouldBeANoOp)
}

func (s *bookingState) registerUser(role domain.Role, name string) (domain.Identity, error) {
	s.registeredUsers++
	resp, err := s.catalog.RegisterUser(s.ctx, application.RegisterUserRequest{
		Role:  role,
		Name:  name,
		Email: fmt.Sprintf("user-%d@example.com", s.registeredUsers),
	})
	if err != nil {
		return domain.Identity{}, err
	}
	id, err := domain.ParseUserID(resp.UserID)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: id, Role: role}, nil
}

func (s *bookingState) aPropertyOwnerWithAListedRoom(beds, rent int, currency string) error {
	dataStore := memory.NewDataStore()
	s.catalog = application.NewCatalogService(dataStore)
	s.bookings = application.NewBookingService(dataStore)
	s.payments = application.NewPaymentService(dataStore)
	s.lastErr = nil
	s.lastPayment = nil
	s.lastConfirm = nil

	owner, err := s.registerUser(domain.RoleOwner, "Asha Verma")
	if err != nil {
		return err
	}
	s.owner = owner

	propResp, err := s.catalog.AddProperty(s.ctx, application.AddPropertyRequest{
		Identity: s.owner,
		Name:     "Sunrise Hostel",
		Address:  "12 MG Road",
		City:     "Pune",
	})
	if err != nil {
		return err
	}
	propertyID, err := domain.ParsePropertyID(propResp.PropertyID)
	if err != nil {
		return err
	}

	roomResp, err := s.catalog.AddRoom(s.ctx, application.AddRoomRequest{
		Identity:    s.owner,
		PropertyID:  propertyID,
		RoomNo:      "101",
		BedCapacity: beds,
		Rent:        types.NewMoneyFromInt(int64(rent), currency),
		Sharing:     beds,
	})
	if err != nil {
		return err
	}
	s.roomID, err = domain.ParseRoomID(roomResp.RoomID)
	return err
}

func (s *bookingState) aRegisteredStudent() error {
	student, err := s.registerUser(domain.RoleStudent, "Rahul Nair")
	if err != nil {
		return err
	}
	s.student = student
	return nil
}

func (s *bookingState) bookRoom(student domain.Identity) (domain.BookingID, error) {
	resp, err := s.bookings.CreateBooking(s.ctx, application.CreateBookingRequest{
		Identity:      student,
		RoomID:        s.roomID,
		StartDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		CorrelationID: s.correlationID,
	})
	if err != nil {
		return 0, err
	}
	return domain.ParseBookingID(resp.BookingID)
}

func (s *bookingState) theStudentBooksTheRoom() error {
	id, err := s.bookRoom(s.student)
	if err != nil {
		return err
	}
	s.bookingID = id
	return nil
}

func (s *bookingState) theStudentHasBookedTheRoom() error {
	return s.theStudentBooksTheRoom()
}

func (s *bookingState) anotherStudentHasBookedTheRoom() error {
	other, err := s.registerUser(domain.RoleStudent, "Meera Iyer")
	if err != nil {
		return err
	}
	s.otherStudent = other

	id, err := s.bookRoom(other)
	if err != nil {
		return err
	}
	s.otherBookingID = id
	return nil
}

func (s *bookingState) transition(id domain.BookingID, op func(context.Context, application.TransitionBookingRequest) (*application.TransitionBookingResponse, error)) error {
	_, err := op(s.ctx, application.TransitionBookingRequest{
		Identity:      s.owner,
		BookingID:     id,
		CorrelationID: s.correlationID,
	})
	s.lastErr = err
	return nil // Errors are captured in state for later assertions
}

func (s *bookingState) theOwnerApprovesTheBooking() error {
	if err := s.transition(s.bookingID, s.bookings.Approve); err != nil {
		return err
	}
	if s.lastErr != nil {
		return fmt.Errorf("expected approval to succeed, got: %v", s.lastErr)
	}
	return nil
}

func (s *bookingState) theOwnerAttemptsToApproveTheBooking() error {
	return s.transition(s.bookingID, s.bookings.Approve)
}

func (s *bookingState) theOwnerAttemptsToApproveTheOtherBooking() error {
	return s.transition(s.otherBookingID, s.bookings.Approve)
}

func (s *bookingState) theOwnerChecksInTheBooking() error {
	if err := s.transition(s.bookingID, s.bookings.CheckIn); err != nil {
		return err
	}
	if s.lastErr != nil {
		return fmt.Errorf("expected check-in to succeed, got: %v", s.lastErr)
	}
	return nil
}

func (s *bookingState) theOwnerChecksOutTheBooking() error {
	if err := s.transition(s.bookingID, s.bookings.CheckOut); err != nil {
		return err
	}
	if s.lastErr != nil {
		return fmt.Errorf("expected check-out to succeed, got: %v", s.lastErr)
	}
	return nil
}

func (s *bookingState) findBooking() (*application.BookingView, error) {
	views, err := s.bookings.ListForStudent(s.ctx, s.student)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].BookingID == s.bookingID.String() {
			return &views[i], nil
		}
	}
	return nil, fmt.Errorf("booking %s not found", s.bookingID)
}

func (s *bookingState) theBookingStatusShouldBe(status string) error {
	view, err := s.findBooking()
	if err != nil {
		return err
	}
	if view.Status != status {
		return fmt.Errorf("expected status %q, got %q", status, view.Status)
	}
	return nil
}

func (s *bookingState) theBookingShouldHaveAnEndDate() error {
	view, err := s.findBooking()
	if err != nil {
		return err
	}
	if view.EndDate == nil {
		return errors.New("expected an end date")
	}
	return nil
}

func (s *bookingState) theTransitionShouldBeDeclinedWithError(errorMsg string) error {
	if s.lastErr == nil {
		return errors.New("expected transition to be declined, but it succeeded")
	}

	expectedErrors := map[string]error{
		"invalid state transition": domain.ErrInvalidTransition,
		"room is full":             domain.ErrRoomFull,
	}

	if expected, ok := expectedErrors[errorMsg]; ok {
		if !errors.Is(s.lastErr, expected) {
			return fmt.Errorf("expected error %q, got: %v", errorMsg, s.lastErr)
		}
		return nil
	}

	if !strings.Contains(s.lastErr.Error(), errorMsg) {
		return fmt.Errorf("expected error containing %q, got: %v", errorMsg, s.lastErr)
	}
	return nil
}

func (s *bookingState) theStudentInitiatesAPaymentBy(method string) error {
	resp, err := s.payments.InitiatePayment(s.ctx, application.InitiatePaymentRequest{
		Identity:      s.student,
		BookingID:     s.bookingID,
		Method:        method,
		CorrelationID: s.correlationID,
	})
	if err != nil {
		return err
	}
	s.lastPayment = resp
	return nil
}

func (s *bookingState) theStudentConfirmsThePayment() error {
	resp, err := s.payments.ConfirmPayment(s.ctx, application.ConfirmPaymentRequest{
		Identity:      s.student,
		BookingID:     s.bookingID,
		CorrelationID: s.correlationID,
	})
	if err != nil {
		return err
	}
	s.lastConfirm = resp
	return nil
}

func (s *bookingState) theStudentHasAConfirmedPayment() error {
	if err := s.theStudentInitiatesAPaymentBy("card"); err != nil {
		return err
	}
	if err := s.theStudentConfirmsThePayment(); err != nil {
		return err
	}
	if !s.lastConfirm.Confirmed {
		return errors.New("expected payment to be confirmed")
	}
	s.firstTxnRef = s.lastConfirm.TxnRef
	return nil
}

func (s *bookingState) thePaymentStatusShouldBe(status string) error {
	if s.lastPayment == nil {
		return errors.New("no payment response")
	}
	if s.lastPayment.Status != status {
		return fmt.Errorf("expected payment status %q, got %q", status, s.lastPayment.Status)
	}
	return nil
}

func (s *bookingState) thePaymentAmountShouldBe(amount int, currency string) error {
	if s.lastPayment == nil {
		return errors.New("no payment response")
	}
	expected := types.NewMoneyFromInt(int64(amount), currency)
	if !s.lastPayment.Amount.Equal(expected) {
		return fmt.Errorf("expected amount %s, got %s", expected, s.lastPayment.Amount)
	}
	return nil
}

func (s *bookingState) thePaymentShouldBeConfirmedWithReference() error {
	if s.lastConfirm == nil {
		return errors.New("no confirmation response")
	}
	if !s.lastConfirm.Confirmed {
		return errors.New("expected payment to be confirmed")
	}
	if !strings.HasPrefix(s.lastConfirm.TxnRef, "TXN-") {
		return fmt.Errorf("expected a TXN- reference, got %q", s.lastConfirm.TxnRef)
	}
	return nil
}

func (s *bookingState) theLatestPaymentStatusShouldBe(status string) error {
	latest, err := s.payments.LatestStatus(s.ctx, s.student, s.bookingID)
	if err != nil {
		return err
	}
	if latest == nil {
		return errors.New("expected a latest payment status")
	}
	if string(*latest) != status {
		return fmt.Errorf("expected latest status %q, got %q", status, *latest)
	}
	return nil
}

func (s *bookingState) theConfirmationShouldBeANoOp() error {
	if s.lastConfirm == nil {
		return errors.New("no confirmation response")
	}
	if s.lastConfirm.Confirmed {
		return errors.New("expected the second confirmation to be a no-op")
	}
	if s.lastConfirm.TxnRef != s.firstTxnRef {
		return fmt.Errorf("expected original reference %q kept, got %q", s.firstTxnRef, s.lastConfirm.TxnRef)
	}
	return nil
}
