package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"viral_daily/internal/domain"
	"viral_daily/internal/service/mocks"
	"viral_daily/testdata/utils"
)

type SubscriptionServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	store   *mocks.MockSubscriptionStore
	service *SubscriptionService
	now     time.Time
}

func (s *SubscriptionServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockSubscriptionStore(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewSubscriptionService(s.store, logger)
	s.now = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.now }
}

func (s *SubscriptionServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSubscriptionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}

func (s *SubscriptionServiceTestSuite) TestCreate_EmailWithoutAddress() {
	sub, err := s.service.Create(context.Background(), domain.SubscriptionCreate{
		DeliveryMethods: []string{"email"},
	})

	var validationErr *domain.ValidationError
	s.ErrorAs(err, &validationErr)
	s.Equal("email", validationErr.Field)
	s.Nil(sub)
}

func (s *SubscriptionServiceTestSuite) TestCreate_NoMethods() {
	_, err := s.service.Create(context.Background(), domain.SubscriptionCreate{
		Email: utils.Ptr("a@b.com"),
	})

	var validationErr *domain.ValidationError
	s.ErrorAs(err, &validationErr)
	s.Equal("delivery_methods", validationErr.Field)
}

func (s *SubscriptionServiceTestSuite) TestCreate_Email() {
	ctx := context.Background()

	s.store.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, sub *domain.Subscription) error {
			s.NotEmpty(sub.ID)
			s.Equal("a@b.com", *sub.Email)
			return nil
		},
	)

	sub, err := s.service.Create(ctx, domain.SubscriptionCreate{
		Email:           utils.Ptr(" a@b.com "),
		DeliveryMethods: []string{"email"},
	})

	s.Require().NoError(err)
	s.True(sub.Active)
	s.Nil(sub.LastDelivery)
	s.Equal(s.now, sub.CreatedAt)
	s.Equal([]domain.DeliveryMethod{domain.DeliveryEmail}, sub.DeliveryMethods)
	s.Nil(sub.TelegramID)
}

func (s *SubscriptionServiceTestSuite) TestCreate_MultipleMethods() {
	ctx := context.Background()

	s.store.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	sub, err := s.service.Create(ctx, domain.SubscriptionCreate{
		Email:           utils.Ptr("a@b.com"),
		TelegramID:      utils.Ptr("12345"),
		DeliveryMethods: []string{"Telegram", "email", "telegram"},
	})

	s.Require().NoError(err)
	s.Equal([]domain.DeliveryMethod{domain.DeliveryTelegram, domain.DeliveryEmail}, sub.DeliveryMethods)
}

func (s *SubscriptionServiceTestSuite) TestCreate_StoreError() {
	ctx := context.Background()

	s.store.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("duplicate key"))

	sub, err := s.service.Create(ctx, domain.SubscriptionCreate{
		WhatsAppNumber:  utils.Ptr("+15550100"),
		DeliveryMethods: []string{"whatsapp"},
	})

	s.ErrorContains(err, "create subscription")
	s.Nil(sub)
}

func (s *SubscriptionServiceTestSuite) TestListActive() {
	ctx := context.Background()
	subs := []domain.Subscription{{ID: "1", Active: true}}

	s.store.EXPECT().ListActive(ctx).Return(subs, nil)

	result, err := s.service.ListActive(ctx)

	s.NoError(err)
	s.Equal(subs, result)
}
