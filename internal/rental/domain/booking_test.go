package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BookingSuite struct {
	suite.Suite
}

func TestBookingSuite(t *testing.T) {
	suite.Run(t, new(BookingSuite))
}

func (s *BookingSuite) newPendingBooking() *Booking {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return NewBooking(RoomID(1), PropertyID(1), UserID(7), now, now)
}

func (s *BookingSuite) TestLifecycle() {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	s.Run("new booking starts pending with version 1", func() {
		b := s.newPendingBooking()
		s.Equal(BookingStatusPending, b.Status())
		s.Equal(1, b.Version())
		s.Nil(b.EndDate())
	})

	s.Run("pending can be approved", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Approve(now))
		s.Equal(BookingStatusApproved, b.Status())
		s.Equal(2, b.Version())
	})

	s.Run("pending can be rejected", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Reject(now))
		s.Equal(BookingStatusRejected, b.Status())
	})

	s.Run("approved can be checked in", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Approve(now))
		s.Require().NoError(b.CheckIn(now))
		s.Equal(BookingStatusCheckedIn, b.Status())
		s.Equal(3, b.Version())
	})

	s.Run("checked_in can be checked out and end date is stamped", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Approve(now))
		s.Require().NoError(b.CheckIn(now))
		s.Require().NoError(b.CheckOut(now))
		s.Equal(BookingStatusCheckedOut, b.Status())
		s.Require().NotNil(b.EndDate())
		s.Equal(now, *b.EndDate())
	})
}

func (s *BookingSuite) TestInvalidTransitions() {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	s.Run("pending cannot be checked in", func() {
		b := s.newPendingBooking()
		s.ErrorIs(b.CheckIn(now), ErrInvalidTransition)
		s.Equal(BookingStatusPending, b.Status())
		s.Equal(1, b.Version())
	})

	s.Run("pending cannot be checked out", func() {
		b := s.newPendingBooking()
		s.ErrorIs(b.CheckOut(now), ErrInvalidTransition)
		s.Nil(b.EndDate())
	})

	s.Run("approving twice fails and leaves state untouched", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Approve(now))
		s.ErrorIs(b.Approve(now), ErrInvalidTransition)
		s.Equal(BookingStatusApproved, b.Status())
		s.Equal(2, b.Version())
	})

	s.Run("rejected is terminal", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Reject(now))
		s.ErrorIs(b.Approve(now), ErrInvalidTransition)
		s.ErrorIs(b.CheckIn(now), ErrInvalidTransition)
	})

	s.Run("checked_out is terminal", func() {
		b := s.newPendingBooking()
		s.Require().NoError(b.Approve(now))
		s.Require().NoError(b.CheckIn(now))
		s.Require().NoError(b.CheckOut(now))
		end := *b.EndDate()
		s.ErrorIs(b.CheckIn(now), ErrInvalidTransition)
		s.Equal(end, *b.EndDate())
	})
}

func (s *BookingSuite) TestStatusPredicates() {
	s.True(BookingStatusApproved.IsActive())
	s.True(BookingStatusCheckedIn.IsActive())
	s.False(BookingStatusPending.IsActive())
	s.False(BookingStatusRejected.IsActive())
	s.False(BookingStatusCheckedOut.IsActive())

	s.True(BookingStatusRejected.IsTerminal())
	s.True(BookingStatusCheckedOut.IsTerminal())
	s.False(BookingStatusApproved.IsTerminal())
}
