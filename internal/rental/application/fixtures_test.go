package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
	"hostelhub/internal/rental/infrastructure/memory"
)

// fixture wires the application services against a fresh in-memory datastore
// and seeds an owner with one property and one room, plus a student.
type fixture struct {
	store    *memory.DataStore
	catalog  *application.CatalogService
	bookings *application.BookingService
	payments *application.PaymentService

	owner      domain.Identity
	student    domain.Identity
	propertyID domain.PropertyID
	roomID     domain.RoomID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	dataStore := memory.NewDataStore()
	f := &fixture{
		store:    dataStore,
		catalog:  application.NewCatalogService(dataStore),
		bookings: application.NewBookingService(dataStore),
		payments: application.NewPaymentService(dataStore),
	}

	f.owner = f.registerUser(t, domain.RoleOwner, "Asha Verma", "asha@example.com")
	f.student = f.registerUser(t, domain.RoleStudent, "Rahul Nair", "rahul@example.com")

	propResp, err := f.catalog.AddProperty(ctx, application.AddPropertyRequest{
		Identity: f.owner,
		Name:     "Sunrise Hostel",
		Address:  "12 MG Road",
		City:     "Pune",
		Pincode:  "411001",
	})
	if err != nil {
		t.Fatalf("failed to add property: %v", err)
	}
	f.propertyID, err = domain.ParsePropertyID(propResp.PropertyID)
	if err != nil {
		t.Fatalf("bad property id: %v", err)
	}

	f.roomID = f.addRoom(t, "101", 2)

	return f
}

func (f *fixture) registerUser(t *testing.T, role domain.Role, name, email string) domain.Identity {
	t.Helper()
	resp, err := f.catalog.RegisterUser(context.Background(), application.RegisterUserRequest{
		Role:  role,
		Name:  name,
		Email: email,
	})
	if err != nil {
		t.Fatalf("failed to register %s: %v", email, err)
	}
	id, err := domain.ParseUserID(resp.UserID)
	if err != nil {
		t.Fatalf("bad user id: %v", err)
	}
	return domain.Identity{UserID: id, Role: role}
}

func (f *fixture) addRoom(t *testing.T, roomNo string, bedCapacity int) domain.RoomID {
	t.Helper()
	resp, err := f.catalog.AddRoom(context.Background(), application.AddRoomRequest{
		Identity:    f.owner,
		PropertyID:  f.propertyID,
		RoomNo:      roomNo,
		RoomType:    "double",
		BedCapacity: bedCapacity,
		Rent:        types.NewMoneyFromInt(5000, types.CurrencyINR),
		Deposit:     types.NewMoneyFromInt(10000, types.CurrencyINR),
		Sharing:     bedCapacity,
	})
	if err != nil {
		t.Fatalf("failed to add room: %v", err)
	}
	id, err := domain.ParseRoomID(resp.RoomID)
	if err != nil {
		t.Fatalf("bad room id: %v", err)
	}
	return id
}

func (f *fixture) createBooking(t *testing.T, student domain.Identity) domain.BookingID {
	return f.createBookingForRoom(t, student, f.roomID)
}

func (f *fixture) createBookingForRoom(t *testing.T, student domain.Identity, roomID domain.RoomID) domain.BookingID {
	t.Helper()
	resp, err := f.bookings.CreateBooking(context.Background(), application.CreateBookingRequest{
		Identity:      student,
		RoomID:        roomID,
		StartDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		CorrelationID: types.NewCorrelationID(),
	})
	if err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
	id, err := domain.ParseBookingID(resp.BookingID)
	if err != nil {
		t.Fatalf("bad booking id: %v", err)
	}
	return id
}

func (f *fixture) transitionRequest(identity domain.Identity, id domain.BookingID) application.TransitionBookingRequest {
	return application.TransitionBookingRequest{
		Identity:      identity,
		BookingID:     id,
		CorrelationID: types.NewCorrelationID(),
	}
}

func errorIs(err, target error) bool {
	return errors.Is(err, target)
}
