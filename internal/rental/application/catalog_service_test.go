package application_test

import (
	"context"
	"testing"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
)

func TestCatalogService_RegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate email is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.catalog.RegisterUser(ctx, application.RegisterUserRequest{
			Role:  domain.RoleStudent,
			Name:  "Someone Else",
			Email: "rahul@example.com",
		})
		if !errorIs(err, domain.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("name and email are required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.catalog.RegisterUser(ctx, application.RegisterUserRequest{
			Role:  domain.RoleStudent,
			Email: "noname@example.com",
		})
		if !errorIs(err, domain.ErrEmptyName) {
			t.Errorf("expected ErrEmptyName, got %v", err)
		}

		_, err = f.catalog.RegisterUser(ctx, application.RegisterUserRequest{
			Role: domain.RoleStudent,
			Name: "No Email",
		})
		if !errorIs(err, domain.ErrEmptyEmail) {
			t.Errorf("expected ErrEmptyEmail, got %v", err)
		}
	})
}

func TestCatalogService_Properties(t *testing.T) {
	ctx := context.Background()

	t.Run("students browse all properties", func(t *testing.T) {
		f := newFixture(t)

		views, err := f.catalog.ListProperties(ctx, f.student)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 1 || views[0].Name != "Sunrise Hostel" {
			t.Errorf("unexpected property list: %+v", views)
		}
	})

	t.Run("owners list only their own properties", func(t *testing.T) {
		f := newFixture(t)
		other := f.registerUser(t, domain.RoleOwner, "Vikram Shah", "vikram@example.com")

		views, err := f.catalog.ListOwnProperties(ctx, other)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 0 {
			t.Errorf("expected no properties for other owner, got %d", len(views))
		}
	})

	t.Run("students cannot add properties", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.catalog.AddProperty(ctx, application.AddPropertyRequest{
			Identity: f.student,
			Name:     "Student Hostel",
			Address:  "1 Some Road",
		})
		if !errorIs(err, domain.ErrRoleMismatch) {
			t.Errorf("expected ErrRoleMismatch, got %v", err)
		}
	})
}

func TestCatalogService_Rooms(t *testing.T) {
	ctx := context.Background()

	t.Run("adding a room to another owner's property is forbidden", func(t *testing.T) {
		f := newFixture(t)
		other := f.registerUser(t, domain.RoleOwner, "Vikram Shah", "vikram@example.com")

		_, err := f.catalog.AddRoom(ctx, application.AddRoomRequest{
			Identity:    other,
			PropertyID:  f.propertyID,
			RoomNo:      "999",
			BedCapacity: 1,
			Rent:        types.NewMoneyFromInt(4000, types.CurrencyINR),
		})
		if !errorIs(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("room listing derives occupancy from active bookings", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		views, err := f.catalog.ListRooms(ctx, application.ListRoomsRequest{
			Identity:   f.student,
			PropertyID: f.propertyID,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 room, got %d", len(views))
		}
		if views[0].ActiveStudents != 0 {
			t.Errorf("pending booking must not count, got %d", views[0].ActiveStudents)
		}

		if _, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, id)); err != nil {
			t.Fatalf("approve failed: %v", err)
		}

		views, err = f.catalog.ListRooms(ctx, application.ListRoomsRequest{
			Identity:   f.student,
			PropertyID: f.propertyID,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if views[0].ActiveStudents != 1 {
			t.Errorf("approved booking must count, got %d", views[0].ActiveStudents)
		}
	})

	t.Run("owners cannot list another owner's rooms", func(t *testing.T) {
		f := newFixture(t)
		other := f.registerUser(t, domain.RoleOwner, "Vikram Shah", "vikram@example.com")

		_, err := f.catalog.ListRooms(ctx, application.ListRoomsRequest{
			Identity:   other,
			PropertyID: f.propertyID,
		})
		if !errorIs(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}
