package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	portsrepo "github.com/angelstack/captable_engine/internal/core/ports/repositories"
	portssvc "github.com/angelstack/captable_engine/internal/core/ports/services"
	"github.com/angelstack/captable_engine/internal/core/services"
	"github.com/angelstack/captable_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExitRepository ---
type MockExitRepository struct {
	mock.Mock
}

var _ portsrepo.ExitRepositoryFacade = (*MockExitRepository)(nil)

func (m *MockExitRepository) FindExitByID(ctx context.Context, exitID string) (*domain.ExitEvent, error) {
	args := m.Called(ctx, exitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExitEvent), args.Error(1)
}

func (m *MockExitRepository) ListExitsByCapTable(ctx context.Context, capTableID string) ([]domain.ExitEvent, error) {
	args := m.Called(ctx, capTableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExitEvent), args.Error(1)
}

func (m *MockExitRepository) ListDistributionsByExit(ctx context.Context, exitID string) ([]domain.Distribution, error) {
	args := m.Called(ctx, exitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Distribution), args.Error(1)
}

func (m *MockExitRepository) FindDistributionByID(ctx context.Context, distributionID string) (*domain.Distribution, error) {
	args := m.Called(ctx, distributionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Distribution), args.Error(1)
}

func (m *MockExitRepository) SaveExit(ctx context.Context, exit domain.ExitEvent) error {
	args := m.Called(ctx, exit)
	return args.Error(0)
}

func (m *MockExitRepository) UpdateExitStatus(ctx context.Context, exitID string, status domain.ExitStatus, userID string, now time.Time) error {
	args := m.Called(ctx, exitID, status, userID, now)
	return args.Error(0)
}

func (m *MockExitRepository) SaveDistributions(ctx context.Context, distributions []domain.Distribution) error {
	args := m.Called(ctx, distributions)
	return args.Error(0)
}

func (m *MockExitRepository) UpdateDistributionStatus(ctx context.Context, distributionID string, status domain.DistributionStatus, userID string, now time.Time) error {
	args := m.Called(ctx, distributionID, status, userID, now)
	return args.Error(0)
}

// --- Test Suite Setup ---
type ExitServiceTestSuite struct {
	suite.Suite
	mockExitRepo     *MockExitRepository
	mockCapTableRepo *MockCapTableRepository
	service          portssvc.ExitSvcFacade
	capTableID       string
	userID           string
	snapshot         domain.CapTableSnapshot
	exit             domain.ExitEvent
}

func (suite *ExitServiceTestSuite) SetupTest() {
	suite.mockExitRepo = new(MockExitRepository)
	suite.mockCapTableRepo = new(MockCapTableRepository)
	suite.service = services.NewExitService(suite.mockExitRepo, suite.mockCapTableRepo)

	suite.capTableID = uuid.NewString()
	suite.userID = uuid.NewString()

	rank := 1
	suite.snapshot = domain.CapTableSnapshot{
		CapTableID: suite.capTableID,
		Version:    5,
		AsOf:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Holdings: []domain.SecurityHolding{
			{
				HoldingID:          "holding-founder",
				CapTableID:         suite.capTableID,
				StakeholderID:      "sh-founder",
				Class:              domain.ClassCommon,
				Shares:             7_500_000,
				IssuePricePerShare: domain.MustMoney("0.001"),
				IssueDate:          time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
			},
			{
				HoldingID:     "holding-investor",
				CapTableID:    suite.capTableID,
				StakeholderID: "sh-investor",
				Class:         domain.ClassPreferred,
				Terms: &domain.ShareClassTerms{
					PreferenceMultiple: decimal.NewFromInt(1),
					SeniorityRank:      &rank,
					ConversionRatio:    decimal.NewFromInt(1),
				},
				Shares:             2_500_000,
				IssuePricePerShare: domain.MustMoney("1"),
				IssueDate:          time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		FullyDilutedShares: 10_000_000,
	}

	suite.exit = domain.ExitEvent{
		ExitID:        uuid.NewString(),
		CapTableID:    suite.capTableID,
		Type:          domain.ExitAcquisition,
		ExitDate:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		TotalProceeds: domain.MustMoney("20000000"),
		Status:        domain.ExitInProgress,
	}
}

func (suite *ExitServiceTestSuite) TestCompleteExit_Success() {
	ctx := context.Background()
	req := dto.CompleteExitRequest{TaxWithholdingRate: decimal.NewFromFloat(0.30)}

	suite.mockExitRepo.On("FindExitByID", ctx, suite.exit.ExitID).Return(&suite.exit, nil).Once()
	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()
	suite.mockExitRepo.On("SaveDistributions", ctx, mock.AnythingOfType("[]domain.Distribution")).Return(nil).Once()
	suite.mockExitRepo.On("UpdateExitStatus", ctx, suite.exit.ExitID, domain.ExitCompleted, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	result, distributions, err := suite.service.CompleteExit(ctx, suite.exit.ExitID, req, suite.userID)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), result)
	// At 20M the preferred holder's as-converted value (25% = 5M) beats its
	// 2.5M preference, so everything splits pro-rata.
	assert.True(suite.T(), result.TotalDistributed.Equal(domain.MustMoney("20000000")))
	assert.True(suite.T(), result.Residual.IsZero())

	assert.Len(suite.T(), distributions, 2)
	founder, investor := distributions[0], distributions[1]
	assert.Equal(suite.T(), "sh-founder", founder.StakeholderID)
	assert.True(suite.T(), founder.GrossAmount.Equal(domain.MustMoney("15000000")))
	assert.True(suite.T(), founder.TaxWithheld.Equal(domain.MustMoney("4500000")))
	assert.True(suite.T(), founder.NetAmount.Equal(domain.MustMoney("10500000")))
	assert.Equal(suite.T(), domain.DistributionPending, founder.Status)
	assert.Equal(suite.T(), "sh-investor", investor.StakeholderID)
	assert.True(suite.T(), investor.GrossAmount.Equal(domain.MustMoney("5000000")))
	assert.True(suite.T(), investor.NetAmount.Equal(domain.MustMoney("3500000")))

	suite.mockExitRepo.AssertExpectations(suite.T())
	suite.mockCapTableRepo.AssertExpectations(suite.T())
}

func (suite *ExitServiceTestSuite) TestCompleteExit_WrongState() {
	ctx := context.Background()
	planned := suite.exit
	planned.Status = domain.ExitPlanned

	suite.mockExitRepo.On("FindExitByID", ctx, planned.ExitID).Return(&planned, nil).Once()

	result, distributions, err := suite.service.CompleteExit(ctx, planned.ExitID, dto.CompleteExitRequest{}, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidState)
	assert.Nil(suite.T(), result)
	assert.Nil(suite.T(), distributions)
	suite.mockExitRepo.AssertNotCalled(suite.T(), "SaveDistributions", mock.Anything, mock.Anything)
	suite.mockCapTableRepo.AssertNotCalled(suite.T(), "FindSnapshot", mock.Anything, mock.Anything)
}

func (suite *ExitServiceTestSuite) TestCompleteExit_InvalidTaxRate() {
	ctx := context.Background()
	req := dto.CompleteExitRequest{TaxWithholdingRate: decimal.NewFromFloat(1.5)}

	result, distributions, err := suite.service.CompleteExit(ctx, suite.exit.ExitID, req, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidInput)
	assert.Nil(suite.T(), result)
	assert.Nil(suite.T(), distributions)
	suite.mockExitRepo.AssertNotCalled(suite.T(), "FindExitByID", mock.Anything, mock.Anything)
}

func (suite *ExitServiceTestSuite) TestPreviewWaterfall_Success() {
	ctx := context.Background()

	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()

	result, err := suite.service.PreviewWaterfall(ctx, suite.capTableID, domain.MustMoney("2000000"))

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), result)
	// Proceeds below the 2.5M preference: the preferred holder takes it all.
	assert.True(suite.T(), result.TotalDistributed.Equal(domain.MustMoney("2000000")))
	assert.Len(suite.T(), result.Payouts, 2)
	suite.mockCapTableRepo.AssertExpectations(suite.T())
}

func (suite *ExitServiceTestSuite) TestCreateExit_Success() {
	ctx := context.Background()
	req := dto.CreateExitRequest{
		Type:          domain.ExitAcquisition,
		ExitDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalProceeds: domain.MustMoney("50000000"),
	}

	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()
	suite.mockExitRepo.On("SaveExit", ctx, mock.AnythingOfType("domain.ExitEvent")).Return(nil).Once()

	exit, err := suite.service.CreateExit(ctx, suite.capTableID, req, suite.userID)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), exit)
	assert.Equal(suite.T(), domain.ExitPlanned, exit.Status)
	suite.mockExitRepo.AssertExpectations(suite.T())
}

func (suite *ExitServiceTestSuite) TestStartExit_Success() {
	ctx := context.Background()
	planned := suite.exit
	planned.Status = domain.ExitPlanned

	suite.mockExitRepo.On("FindExitByID", ctx, planned.ExitID).Return(&planned, nil).Once()
	suite.mockExitRepo.On("UpdateExitStatus", ctx, planned.ExitID, domain.ExitInProgress, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.StartExit(ctx, planned.ExitID, suite.userID)

	assert.NoError(suite.T(), err)
	suite.mockExitRepo.AssertExpectations(suite.T())
}

func (suite *ExitServiceTestSuite) TestStartExit_AlreadyCompleted() {
	ctx := context.Background()
	completed := suite.exit
	completed.Status = domain.ExitCompleted

	suite.mockExitRepo.On("FindExitByID", ctx, completed.ExitID).Return(&completed, nil).Once()

	err := suite.service.StartExit(ctx, completed.ExitID, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidState)
	suite.mockExitRepo.AssertNotCalled(suite.T(), "UpdateExitStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExitServiceTestSuite) TestAdvanceDistribution_Success() {
	ctx := context.Background()
	distribution := domain.Distribution{
		DistributionID: uuid.NewString(),
		ExitID:         suite.exit.ExitID,
		StakeholderID:  "sh-founder",
		GrossAmount:    domain.MustMoney("100"),
		NetAmount:      domain.MustMoney("100"),
		Status:         domain.DistributionPending,
	}

	suite.mockExitRepo.On("FindDistributionByID", ctx, distribution.DistributionID).Return(&distribution, nil).Once()
	suite.mockExitRepo.On("UpdateDistributionStatus", ctx, distribution.DistributionID, domain.DistributionProcessing, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.AdvanceDistribution(ctx, distribution.DistributionID, domain.DistributionProcessing, suite.userID)

	assert.NoError(suite.T(), err)
	suite.mockExitRepo.AssertExpectations(suite.T())
}

func (suite *ExitServiceTestSuite) TestAdvanceDistribution_SkippedStep() {
	ctx := context.Background()
	distribution := domain.Distribution{
		DistributionID: uuid.NewString(),
		ExitID:         suite.exit.ExitID,
		StakeholderID:  "sh-founder",
		Status:         domain.DistributionPending,
	}

	suite.mockExitRepo.On("FindDistributionByID", ctx, distribution.DistributionID).Return(&distribution, nil).Once()

	err := suite.service.AdvanceDistribution(ctx, distribution.DistributionID, domain.DistributionCompleted, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidState)
	suite.mockExitRepo.AssertNotCalled(suite.T(), "UpdateDistributionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExitServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExitServiceTestSuite))
}
