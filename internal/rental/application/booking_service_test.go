package application_test

import (
	"context"
	"sync"
	"testing"

	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
)

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("student books a room and it starts pending", func(t *testing.T) {
		f := newFixture(t)

		id := f.createBooking(t, f.student)
		if id.IsZero() {
			t.Error("expected booking ID to be assigned")
		}

		views, err := f.bookings.ListForStudent(ctx, f.student)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 booking, got %d", len(views))
		}
		if views[0].Status != string(domain.BookingStatusPending) {
			t.Errorf("expected status 'pending', got %s", views[0].Status)
		}
		if views[0].RoomNo != "101" || views[0].PropertyName != "Sunrise Hostel" {
			t.Errorf("unexpected projection: %+v", views[0])
		}
	})

	t.Run("owner cannot create a booking", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.bookings.CreateBooking(ctx, application.CreateBookingRequest{
			Identity: f.owner,
			RoomID:   f.roomID,
		})
		if !errorIs(err, domain.ErrRoleMismatch) {
			t.Errorf("expected ErrRoleMismatch, got %v", err)
		}
	})

	t.Run("booking an unknown room fails", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.bookings.CreateBooking(ctx, application.CreateBookingRequest{
			Identity: f.student,
			RoomID:   domain.RoomID(999),
		})
		if !errorIs(err, domain.ErrRoomNotFound) {
			t.Errorf("expected ErrRoomNotFound, got %v", err)
		}
	})
}

func TestBookingService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("full approve, check-in, check-out flow", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		resp, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, id))
		if err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if resp.Status != string(domain.BookingStatusApproved) {
			t.Errorf("expected 'approved', got %s", resp.Status)
		}

		resp, err = f.bookings.CheckIn(ctx, f.transitionRequest(f.owner, id))
		if err != nil {
			t.Fatalf("check-in failed: %v", err)
		}
		if resp.Status != string(domain.BookingStatusCheckedIn) {
			t.Errorf("expected 'checked_in', got %s", resp.Status)
		}

		resp, err = f.bookings.CheckOut(ctx, f.transitionRequest(f.owner, id))
		if err != nil {
			t.Fatalf("check-out failed: %v", err)
		}
		if resp.Status != string(domain.BookingStatusCheckedOut) {
			t.Errorf("expected 'checked_out', got %s", resp.Status)
		}

		views, err := f.bookings.ListForOwner(ctx, f.owner)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 booking, got %d", len(views))
		}
		if views[0].EndDate == nil {
			t.Error("expected end date to be stamped after check-out")
		}
		if views[0].StudentName != "Rahul Nair" {
			t.Errorf("expected student name in owner view, got %q", views[0].StudentName)
		}
	})

	t.Run("duplicate transitions surface ErrInvalidTransition", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		if _, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, id)); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		_, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, id))
		if !errorIs(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("re-approving on a room that has since filled surfaces ErrInvalidTransition", func(t *testing.T) {
		f := newFixture(t)
		single := f.addRoom(t, "201", 1)
		id := f.createBookingForRoom(t, f.student, single)

		if _, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, id)); err != nil {
			t.Fatalf("approve failed: %v", err)
		}

		// The room is now full, but the state precondition must win: a second
		// approve is a duplicate transition, not a capacity problem.
		_, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, id))
		if !errorIs(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("concurrent approvals produce exactly one winner", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.bookings.Approve(ctx, f.transitionRequest(f.owner, id))
			}()
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errorIs(err, domain.ErrInvalidTransition), errorIs(err, domain.ErrOptimisticLock):
				// expected for the losers
			default:
				t.Errorf("unexpected error from concurrent approve: %v", err)
			}
		}
		if wins != 1 {
			t.Errorf("expected exactly 1 winning approval, got %d", wins)
		}

		views, err := f.bookings.ListForStudent(ctx, f.student)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if views[0].Status != string(domain.BookingStatusApproved) {
			t.Errorf("expected booking approved, got %s", views[0].Status)
		}
	})

	t.Run("check-in before approval surfaces ErrInvalidTransition", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		_, err := f.bookings.CheckIn(ctx, f.transitionRequest(f.owner, id))
		if !errorIs(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("another owner cannot transition the booking", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		other := f.registerUser(t, domain.RoleOwner, "Vikram Shah", "vikram@example.com")
		_, err := f.bookings.Approve(ctx, f.transitionRequest(other, id))
		if !errorIs(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}

		// The failed attempt must not have touched the booking.
		views, err := f.bookings.ListForStudent(ctx, f.student)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if views[0].Status != string(domain.BookingStatusPending) {
			t.Errorf("expected booking untouched, got %s", views[0].Status)
		}
	})

	t.Run("student cannot drive transitions", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		_, err := f.bookings.Approve(ctx, f.transitionRequest(f.student, id))
		if !errorIs(err, domain.ErrRoleMismatch) {
			t.Errorf("expected ErrRoleMismatch, got %v", err)
		}
	})
}

func TestBookingService_Capacity(t *testing.T) {
	ctx := context.Background()

	t.Run("approval beyond bed capacity fails with ErrRoomFull", func(t *testing.T) {
		f := newFixture(t)
		single := f.addRoom(t, "201", 1)

		first := f.createBookingForRoom(t, f.student, single)
		second := f.createBookingForRoom(t, f.registerUser(t, domain.RoleStudent, "Meera Iyer", "meera@example.com"), single)

		if _, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, first)); err != nil {
			t.Fatalf("first approve failed: %v", err)
		}

		_, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, second))
		if !errorIs(err, domain.ErrRoomFull) {
			t.Errorf("expected ErrRoomFull, got %v", err)
		}

		// The losing booking stays pending and can still be rejected.
		if _, err := f.bookings.Reject(ctx, f.transitionRequest(f.owner, second)); err != nil {
			t.Errorf("reject after full room failed: %v", err)
		}
	})

	t.Run("checked out bookings free their bed", func(t *testing.T) {
		f := newFixture(t)
		single := f.addRoom(t, "201", 1)

		first := f.createBookingForRoom(t, f.student, single)
		if _, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, first)); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if _, err := f.bookings.CheckIn(ctx, f.transitionRequest(f.owner, first)); err != nil {
			t.Fatalf("check-in failed: %v", err)
		}
		if _, err := f.bookings.CheckOut(ctx, f.transitionRequest(f.owner, first)); err != nil {
			t.Fatalf("check-out failed: %v", err)
		}

		second := f.createBookingForRoom(t, f.registerUser(t, domain.RoleStudent, "Meera Iyer", "meera@example.com"), single)
		if _, err := f.bookings.Approve(ctx, f.transitionRequest(f.owner, second)); err != nil {
			t.Errorf("expected approval after checkout freed the bed, got %v", err)
		}
	})
}
