package app

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/odlcinemas/booking-ledger/api"
	"github.com/odlcinemas/booking-ledger/internal/domain"
	"github.com/odlcinemas/booking-ledger/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type DiscountsTestSuite struct {
	suite.Suite
	app          *Application
	discountRepo *mocks.MockDiscountRepo
}

func (s *DiscountsTestSuite) SetupTest() {
	s.discountRepo = new(mocks.MockDiscountRepo)

	s.app = newTestApplication(func(a *Application) {
		a.discountRepo = s.discountRepo
	})
}

func TestDiscountsSuite(t *testing.T) {
	suite.Run(t, new(DiscountsTestSuite))
}

func (s *DiscountsTestSuite) TestGetDiscount() {
	tests := []struct {
		name           string
		code           string
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name: "should return the discount for a valid code",
			code: "OPENING50",
			setupMocks: func() {
				s.discountRepo.On("Resolve", mock.Anything, "OPENING50").
					Return(&domain.Discount{
						Code:        "OPENING50",
						Kind:        domain.DiscountFlat,
						Amount:      50,
						Description: "Opening week special",
					}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should return 404 for an unknown code",
			code: "NOPE",
			setupMocks: func() {
				s.discountRepo.On("Resolve", mock.Anything, "NOPE").
					Return(nil, domain.ErrDiscountInvalid)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "should return 422 for an expired code",
			code: "LASTYEAR",
			setupMocks: func() {
				s.discountRepo.On("Resolve", mock.Anything, "LASTYEAR").
					Return(nil, domain.ErrDiscountExpired)
			},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "Discount code has expired",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodGet, "/discounts/"+tt.code, nil)
			r = withURLParam(r, "code", tt.code)

			s.app.GetDiscount(w, r)

			s.Equal(tt.wantStatus, w.Code)
			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)

			if tt.wantStatus == http.StatusOK {
				var resp api.DiscountResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
				s.Equal("OPENING50", resp.Code)
				s.Equal("flat", resp.Kind)
				s.Equal(int64(50), resp.Amount)
			}
		})
	}
}
