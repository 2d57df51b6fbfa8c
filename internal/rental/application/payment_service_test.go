package application_test

import (
	"context"
	"strings"
	"testing"

	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/application"
	"hostelhub/internal/rental/domain"
)

func initiateRequest(student domain.Identity, id domain.BookingID) application.InitiatePaymentRequest {
	return application.InitiatePaymentRequest{
		Identity:      student,
		BookingID:     id,
		Method:        "card",
		CorrelationID: types.NewCorrelationID(),
	}
}

func confirmRequest(student domain.Identity, id domain.BookingID) application.ConfirmPaymentRequest {
	return application.ConfirmPaymentRequest{
		Identity:      student,
		BookingID:     id,
		CorrelationID: types.NewCorrelationID(),
	}
}

func TestPaymentService_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("payment snapshots the room's current rent", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		resp, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Status != string(domain.PaymentStatusPending) {
			t.Errorf("expected 'pending', got %s", resp.Status)
		}
		want := types.NewMoneyFromInt(5000, types.CurrencyINR)
		if !resp.Amount.Equal(want) {
			t.Errorf("expected amount %s, got %s", want, resp.Amount)
		}
	})

	t.Run("payment is allowed regardless of booking status", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		if _, err := f.bookings.Reject(ctx, f.transitionRequest(f.owner, id)); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Errorf("expected payment on rejected booking to succeed, got %v", err)
		}
	})

	t.Run("another student's booking is forbidden", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		other := f.registerUser(t, domain.RoleStudent, "Meera Iyer", "meera@example.com")
		_, err := f.payments.InitiatePayment(ctx, initiateRequest(other, id))
		if !errorIs(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestPaymentService_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms the latest payment with a TXN reference", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Fatalf("initiate failed: %v", err)
		}

		resp, err := f.payments.ConfirmPayment(ctx, confirmRequest(f.student, id))
		if err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
		if !resp.Confirmed {
			t.Error("expected payment to be confirmed")
		}
		if !strings.HasPrefix(resp.TxnRef, "TXN-") {
			t.Errorf("expected TXN- prefixed reference, got %q", resp.TxnRef)
		}

		status, err := f.payments.LatestStatus(ctx, f.student, id)
		if err != nil {
			t.Fatalf("latest status failed: %v", err)
		}
		if status == nil || *status != domain.PaymentStatusPaid {
			t.Errorf("expected latest status 'paid', got %v", status)
		}
	})

	t.Run("only the latest payment is confirmed", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Fatalf("initiate failed: %v", err)
		}
		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Fatalf("initiate failed: %v", err)
		}

		if _, err := f.payments.ConfirmPayment(ctx, confirmRequest(f.student, id)); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}

		records, err := f.payments.ListForStudent(ctx, f.student)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 payments, got %d", len(records))
		}
		// Newest-first: the latest payment is paid, the earlier one untouched.
		if records[0].Status != string(domain.PaymentStatusPaid) {
			t.Errorf("expected latest payment paid, got %s", records[0].Status)
		}
		if records[1].Status != string(domain.PaymentStatusPending) {
			t.Errorf("expected earlier payment pending, got %s", records[1].Status)
		}
	})

	t.Run("confirming with no payments is a no-op", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		resp, err := f.payments.ConfirmPayment(ctx, confirmRequest(f.student, id))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Confirmed {
			t.Error("expected no-op confirmation")
		}
	})

	t.Run("confirming twice keeps the original reference", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Fatalf("initiate failed: %v", err)
		}

		first, err := f.payments.ConfirmPayment(ctx, confirmRequest(f.student, id))
		if err != nil {
			t.Fatalf("first confirm failed: %v", err)
		}

		second, err := f.payments.ConfirmPayment(ctx, confirmRequest(f.student, id))
		if err != nil {
			t.Fatalf("second confirm failed: %v", err)
		}
		if second.Confirmed {
			t.Error("expected second confirmation to be a no-op")
		}
		if second.TxnRef != first.TxnRef {
			t.Errorf("expected original reference %q kept, got %q", first.TxnRef, second.TxnRef)
		}
	})
}

func TestPaymentService_Listing(t *testing.T) {
	ctx := context.Background()

	t.Run("owner sees payments across their properties with student names", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)

		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Fatalf("initiate failed: %v", err)
		}

		records, err := f.payments.ListForOwner(ctx, f.owner)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 payment, got %d", len(records))
		}
		if records[0].StudentName != "Rahul Nair" {
			t.Errorf("expected student name in owner view, got %q", records[0].StudentName)
		}
	})

	t.Run("other owners see nothing", func(t *testing.T) {
		f := newFixture(t)
		id := f.createBooking(t, f.student)
		if _, err := f.payments.InitiatePayment(ctx, initiateRequest(f.student, id)); err != nil {
			t.Fatalf("initiate failed: %v", err)
		}

		other := f.registerUser(t, domain.RoleOwner, "Vikram Shah", "vikram@example.com")
		records, err := f.payments.ListForOwner(ctx, other)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no payments for other owner, got %d", len(records))
		}
	})
}
