package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"viral_daily/internal/config"
	"viral_daily/internal/domain"
	"viral_daily/internal/metrics"
	"viral_daily/internal/service/mocks"
	"viral_daily/internal/storage/postgres"
)

// DeliveryPersistenceTestSuite runs deliveries against the postgres stores
// and transaction manager, so commit and rollback behave as in production.
type DeliveryPersistenceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	mock       sqlmock.Sqlmock
	db         *sqlx.DB
	aggregator *mocks.MockVideoAggregator
	sink       *mocks.MockNotificationSink
	logs       *bytes.Buffer

	service *DeliveryService
	now     time.Time
	digest  []domain.Video
}

func (s *DeliveryPersistenceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	mockDB, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock
	s.db = sqlx.NewDb(mockDB, "sqlmock")

	s.aggregator = mocks.NewMockVideoAggregator(s.ctrl)
	s.sink = mocks.NewMockNotificationSink(s.ctrl)

	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := config.DeliveryConfig{DigestSize: 10, Workers: 1, Timeout: time.Second}

	s.service = NewDeliveryService(
		s.aggregator,
		postgres.NewSubscriptionStore(s.db),
		postgres.NewDeliveryStore(s.db),
		postgres.NewTransactionManager(s.db),
		s.sink,
		NewDispatcher(cfg.Workers, logger),
		metrics.NewNop(),
		logger,
		cfg,
	)
	s.now = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.now }

	s.digest = []domain.Video{video("v1", domain.PlatformYouTube, 90)}
}

func (s *DeliveryPersistenceTestSuite) TearDownTest() {
	s.db.Close()
	s.ctrl.Finish()
}

func TestDeliveryPersistenceTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryPersistenceTestSuite))
}

func (s *DeliveryPersistenceTestSuite) expectActiveSubscriber(id string) {
	rows := sqlmock.NewRows([]string{
		"id", "email", "telegram_id", "whatsapp_number", "delivery_methods",
		"active", "created_at", "last_delivery",
	}).AddRow(id, id+"@example.com", nil, nil, "{email}", true, s.now.Add(-time.Hour), nil)

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WithArgs(postgres.ListActiveLimit).
		WillReturnRows(rows)
}

func (s *DeliveryPersistenceTestSuite) expectLastDeliveryCommitted(id string) {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE subscriptions SET last_delivery")).
		WithArgs(id, s.now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
}

func (s *DeliveryPersistenceTestSuite) TestAttemptInsertFailureKeepsLastDelivery() {
	ctx := context.Background()

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.expectActiveSubscriber("sub-1")
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).Return(nil)
	s.expectLastDeliveryCommitted("sub-1")
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_attempts")).
		WillReturnError(errors.New("insert or update on table \"delivery_attempts\" violates foreign key constraint"))

	run, err := s.service.RunDailyDelivery(ctx)
	s.Require().NoError(err)
	s.service.Wait()

	s.Equal(1, run.Scheduled)
	s.NoError(s.mock.ExpectationsWereMet())
	s.Contains(s.logs.String(), "failed to record delivery attempt")
	s.NotContains(s.logs.String(), "failed to update last delivery")
}

func (s *DeliveryPersistenceTestSuite) TestMissingRunSkipsAttempts() {
	ctx := context.Background()

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.expectActiveSubscriber("sub-1")
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_runs")).
		WillReturnError(errors.New("connection reset"))

	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).Return(nil)
	s.expectLastDeliveryCommitted("sub-1")

	_, err := s.service.RunDailyDelivery(ctx)
	s.Require().NoError(err)
	s.service.Wait()

	s.NoError(s.mock.ExpectationsWereMet())
	s.NotContains(s.logs.String(), "failed to record delivery attempt")
	s.NotContains(s.logs.String(), "failed to update last delivery")
}

func (s *DeliveryPersistenceTestSuite) TestFailedDeliveryLeavesLastDeliveryUnchanged() {
	ctx := context.Background()

	s.aggregator.EXPECT().GetAggregated(ctx, 10).Return(s.digest)
	s.expectActiveSubscriber("sub-1")
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), s.digest).Return(errors.New("smtp unavailable"))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_attempts")).
		WithArgs(sqlmock.AnyArg(), "sub-1", string(domain.AttemptFailed), sqlmock.AnyArg(), s.now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := s.service.RunDailyDelivery(ctx)
	s.Require().NoError(err)
	s.service.Wait()

	s.NoError(s.mock.ExpectationsWereMet())
}
