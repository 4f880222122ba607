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

	"viral_daily/internal/config"
	"viral_daily/internal/domain"
	"viral_daily/internal/metrics"
	"viral_daily/internal/service/mocks"
	"viral_daily/testdata/utils"
)

type DeliveryServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	aggregator    *mocks.MockVideoAggregator
	subscriptions *mocks.MockSubscriptionStore
	deliveries    *mocks.MockDeliveryStore
	txManager     *mocks.MockTransactionManager
	sink          *mocks.MockNotificationSink

	service *DeliveryService
	cfg     config.DeliveryConfig
	now     time.Time
	digest  []domain.Video
}

func (s *DeliveryServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.aggregator = mocks.NewMockVideoAggregator(s.ctrl)
	s.subscriptions = mocks.NewMockSubscriptionStore(s.ctrl)
	s.deliveries = mocks.NewMockDeliveryStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.sink = mocks.NewMockNotificationSink(s.ctrl)

	s.cfg = config.DeliveryConfig{
		DigestSize: 10,
		Workers:    2,
		Timeout:    time.Second,
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewDeliveryService(
		s.aggregator,
		s.subscriptions,
		s.deliveries,
		s.txManager,
		s.sink,
		NewDispatcher(s.cfg.Workers, logger),
		metrics.NewNop(),
		logger,
		s.cfg,
	)
	s.now = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.now }

	s.digest = []domain.Video{
		video("v1", domain.PlatformYouTube, 90),
		video("v2", domain.PlatformTikTok, 80),
	}

	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()
}

func (s *DeliveryServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestDeliveryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryServiceTestSuite))
}

func subscriber(id string) domain.Subscription {
	return domain.Subscription{
		ID:              id,
		Email:           utils.Ptr(id + "@example.com"),
		DeliveryMethods: []domain.DeliveryMethod{domain.DeliveryEmail},
		Active:          true,
	}
}

func (s *DeliveryServiceTestSuite) TestRunDailyDelivery_FailureIsIsolated() {
	ctx := context.Background()
	subs := []domain.Subscription{subscriber("sub-1"), subscriber("sub-2")}

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.subscriptions.EXPECT().ListActive(ctx).Return(subs, nil)
	s.deliveries.EXPECT().CreateRun(ctx, gomock.Any()).Return(nil)

	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).DoAndReturn(
		func(_ context.Context, sub *domain.Subscription, _ []domain.Video) error {
			if sub.ID == "sub-1" {
				return errors.New("smtp unavailable")
			}
			return nil
		},
	).Times(2)

	// Only the successful subscriber is touched.
	s.subscriptions.EXPECT().UpdateLastDelivery(gomock.Any(), "sub-2", s.now).Return(nil)

	attempts := make(chan domain.DeliveryAttempt, 2)
	s.deliveries.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.DeliveryAttempt) error {
			attempts <- *a
			return nil
		},
	).Times(2)

	run, err := s.service.RunDailyDelivery(ctx)
	s.Require().NoError(err)
	s.Equal(2, run.Scheduled)
	s.Equal(2, run.DigestSize)
	s.NotEmpty(run.ID)

	s.service.Wait()
	close(attempts)

	byID := make(map[string]domain.DeliveryAttempt)
	for a := range attempts {
		s.Equal(run.ID, a.RunID)
		byID[a.SubscriptionID] = a
	}
	s.Equal(domain.AttemptFailed, byID["sub-1"].Status)
	s.Require().NotNil(byID["sub-1"].Error)
	s.Contains(*byID["sub-1"].Error, "smtp unavailable")
	s.Equal(domain.AttemptDelivered, byID["sub-2"].Status)
	s.Nil(byID["sub-2"].Error)
}

func (s *DeliveryServiceTestSuite) TestRunDailyDelivery_NoSubscribers() {
	ctx := context.Background()

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.subscriptions.EXPECT().ListActive(ctx).Return([]domain.Subscription{}, nil)
	s.deliveries.EXPECT().CreateRun(ctx, gomock.Any()).Return(nil)

	run, err := s.service.RunDailyDelivery(ctx)
	s.service.Wait()

	s.NoError(err)
	s.Equal(0, run.Scheduled)
}

func (s *DeliveryServiceTestSuite) TestRunDailyDelivery_ListError() {
	ctx := context.Background()

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.subscriptions.EXPECT().ListActive(ctx).Return(nil, errors.New("db down"))

	run, err := s.service.RunDailyDelivery(ctx)

	s.ErrorContains(err, "list active subscriptions")
	s.Nil(run)
}

func (s *DeliveryServiceTestSuite) TestRunDailyDelivery_RunRecordErrorStillDelivers() {
	ctx := context.Background()
	subs := []domain.Subscription{subscriber("sub-1")}

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.subscriptions.EXPECT().ListActive(ctx).Return(subs, nil)
	s.deliveries.EXPECT().CreateRun(ctx, gomock.Any()).Return(errors.New("db down"))

	// Without a run row there is nothing for an attempt to reference.
	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).Return(nil)
	s.subscriptions.EXPECT().UpdateLastDelivery(gomock.Any(), "sub-1", s.now).Return(nil)
	s.deliveries.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Times(0)

	run, err := s.service.RunDailyDelivery(ctx)
	s.service.Wait()

	s.NoError(err)
	s.Equal(1, run.Scheduled)
}

func (s *DeliveryServiceTestSuite) TestRunDailyDelivery_OutlivesRequest() {
	ctx, cancel := context.WithCancel(context.Background())
	subs := []domain.Subscription{subscriber("sub-1")}

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.subscriptions.EXPECT().ListActive(ctx).Return(subs, nil)
	s.deliveries.EXPECT().CreateRun(ctx, gomock.Any()).Return(nil)

	release := make(chan struct{})
	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).DoAndReturn(
		func(taskCtx context.Context, _ *domain.Subscription, _ []domain.Video) error {
			<-release
			return taskCtx.Err()
		},
	)
	s.subscriptions.EXPECT().UpdateLastDelivery(gomock.Any(), "sub-1", s.now).Return(nil)
	s.deliveries.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.RunDailyDelivery(ctx)
	s.Require().NoError(err)

	cancel()
	close(release)
	s.service.Wait()
}

func (s *DeliveryServiceTestSuite) TestRunDailyDelivery_PersistErrorAfterSuccess() {
	ctx := context.Background()
	subs := []domain.Subscription{subscriber("sub-1")}

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.subscriptions.EXPECT().ListActive(ctx).Return(subs, nil)
	s.deliveries.EXPECT().CreateRun(ctx, gomock.Any()).Return(nil)
	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).Return(nil)
	s.subscriptions.EXPECT().UpdateLastDelivery(gomock.Any(), "sub-1", s.now).Return(errors.New("deadlock"))
	s.deliveries.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.DeliveryAttempt) error {
			s.Equal(domain.AttemptDelivered, a.Status)
			return nil
		},
	)

	run, err := s.service.RunDailyDelivery(ctx)
	s.service.Wait()

	s.NoError(err)
	s.Equal(1, run.Scheduled)
}

func (s *DeliveryServiceTestSuite) TestRun() {
	ctx := context.Background()
	stored := &domain.DeliveryRun{ID: "run-1", Scheduled: 3, Delivered: 1, Failed: 1}

	s.deliveries.EXPECT().GetRun(ctx, "run-1").Return(stored, nil)

	run, err := s.service.Run(ctx, "run-1")

	s.NoError(err)
	s.Equal(1, run.Pending())
}

func (s *DeliveryServiceTestSuite) TestRun_NotFound() {
	ctx := context.Background()

	s.deliveries.EXPECT().GetRun(ctx, "missing").Return(nil, domain.ErrNotFound)

	_, err := s.service.Run(ctx, "missing")

	s.ErrorIs(err, domain.ErrNotFound)
}
