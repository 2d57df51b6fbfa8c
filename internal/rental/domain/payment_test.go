package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hostelhub/internal/common/types"
)

type PaymentSuite struct {
	suite.Suite
}

func TestPaymentSuite(t *testing.T) {
	suite.Run(t, new(PaymentSuite))
}

func (s *PaymentSuite) TestConfirm() {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rent := types.NewMoneyFromInt(5000, types.CurrencyINR)

	s.Run("new payment starts pending", func() {
		p := NewPayment(BookingID(1), rent, "card", now)
		s.Equal(PaymentStatusPending, p.Status())
		s.Nil(p.TxnRef())
		s.Nil(p.PaidAt())
		s.Equal(1, p.Version())
	})

	s.Run("confirm marks paid with reference and timestamp", func() {
		p := NewPayment(BookingID(1), rent, "card", now)
		paidAt := now.Add(time.Minute)

		s.True(p.Confirm("TXN-abc", paidAt))
		s.Equal(PaymentStatusPaid, p.Status())
		s.Require().NotNil(p.TxnRef())
		s.Equal("TXN-abc", *p.TxnRef())
		s.Require().NotNil(p.PaidAt())
		s.Equal(paidAt, *p.PaidAt())
		s.Equal(2, p.Version())
	})

	s.Run("confirming an already paid payment is a no-op", func() {
		p := NewPayment(BookingID(1), rent, "card", now)
		s.True(p.Confirm("TXN-first", now))

		s.False(p.Confirm("TXN-second", now.Add(time.Hour)))
		s.Equal("TXN-first", *p.TxnRef())
		s.Equal(now, *p.PaidAt())
		s.Equal(2, p.Version())
	})
}
