package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelstack/captable_engine/internal/apperrors"
	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/angelstack/captable_engine/internal/core/engine"
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

// --- Mock RoundRepository ---
type MockRoundRepository struct {
	mock.Mock
}

var _ portsrepo.RoundRepositoryFacade = (*MockRoundRepository)(nil)

func (m *MockRoundRepository) FindRoundByID(ctx context.Context, roundID string) (*domain.EquityRound, error) {
	args := m.Called(ctx, roundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EquityRound), args.Error(1)
}

func (m *MockRoundRepository) ListRoundsByCapTable(ctx context.Context, capTableID string) ([]domain.EquityRound, error) {
	args := m.Called(ctx, capTableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EquityRound), args.Error(1)
}

func (m *MockRoundRepository) SaveRound(ctx context.Context, round domain.EquityRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepository) UpdateRoundStatus(ctx context.Context, roundID string, status domain.RoundStatus, userID string, now time.Time) error {
	args := m.Called(ctx, roundID, status, userID, now)
	return args.Error(0)
}

// --- Mock CapTableRepository ---
type MockCapTableRepository struct {
	mock.Mock
}

var _ portsrepo.CapTableRepositoryFacade = (*MockCapTableRepository)(nil)

func (m *MockCapTableRepository) FindSnapshot(ctx context.Context, capTableID string) (*domain.CapTableSnapshot, error) {
	args := m.Called(ctx, capTableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapTableSnapshot), args.Error(1)
}

func (m *MockCapTableRepository) CreateCapTable(ctx context.Context, snapshot domain.CapTableSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockCapTableRepository) SaveHolding(ctx context.Context, holding domain.SecurityHolding) error {
	args := m.Called(ctx, holding)
	return args.Error(0)
}

func (m *MockCapTableRepository) ApplySnapshot(ctx context.Context, next domain.CapTableSnapshot, expectedVersion int64, changes portsrepo.ApplySnapshotChanges, userID string) error {
	args := m.Called(ctx, next, expectedVersion, changes, userID)
	return args.Error(0)
}

// --- Test Suite Setup ---
type RoundServiceTestSuite struct {
	suite.Suite
	mockRoundRepo    *MockRoundRepository
	mockCapTableRepo *MockCapTableRepository
	service          portssvc.RoundSvcFacade
	capTableID       string
	userID           string
	investorID       string
	snapshot         domain.CapTableSnapshot
	round            domain.EquityRound
}

func (suite *RoundServiceTestSuite) SetupTest() {
	suite.mockRoundRepo = new(MockRoundRepository)
	suite.mockCapTableRepo = new(MockCapTableRepository)

	idSeq := 0
	cfg := engine.RoundConfig{
		QualifiedFinancingThreshold: domain.MustMoney("1000000"),
		NewID: func() string {
			idSeq++
			return fmt.Sprintf("holding-%d", idSeq)
		},
	}
	suite.service = services.NewRoundService(suite.mockRoundRepo, suite.mockCapTableRepo, cfg)

	suite.capTableID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.investorID = uuid.NewString()

	suite.snapshot = domain.CapTableSnapshot{
		CapTableID: suite.capTableID,
		Version:    3,
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
		},
		FullyDilutedShares: 10_000_000,
	}

	rank := 1
	suite.round = domain.EquityRound{
		RoundID:            uuid.NewString(),
		CapTableID:         suite.capTableID,
		Type:               domain.RoundSeriesA,
		TargetAmount:       domain.MustMoney("2000000"),
		PricePerShare:      domain.MustMoney("10"),
		PreMoneyValuation:  domain.MustMoney("100000000"),
		PostMoneyValuation: domain.MustMoney("102000000"),
		NewShareTerms: domain.ShareClassTerms{
			PreferenceMultiple: decimal.NewFromInt(1),
			SeniorityRank:      &rank,
			ConversionRatio:    decimal.NewFromInt(1),
		},
		Status: domain.RoundOpen,
	}
}

func (suite *RoundServiceTestSuite) applyRequest() dto.ApplyRoundRequest {
	return dto.ApplyRoundRequest{
		ExpectedVersion: 3,
		AsOf:            time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Investments: []dto.InvestmentRequest{
			{StakeholderID: suite.investorID, Amount: domain.MustMoney("2000000")},
		},
	}
}

func (suite *RoundServiceTestSuite) TestApplyRound_Success() {
	ctx := context.Background()
	req := suite.applyRequest()

	suite.mockRoundRepo.On("FindRoundByID", ctx, suite.round.RoundID).Return(&suite.round, nil).Once()
	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()
	suite.mockCapTableRepo.On("ApplySnapshot", ctx, mock.AnythingOfType("domain.CapTableSnapshot"), int64(3), mock.AnythingOfType("repositories.ApplySnapshotChanges"), suite.userID).Return(nil).Once()
	suite.mockRoundRepo.On("UpdateRoundStatus", ctx, suite.round.RoundID, domain.RoundClosed, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	report, next, err := suite.service.ApplyRound(ctx, suite.round.RoundID, req, suite.userID)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), report)
	assert.NotNil(suite.T(), next)
	assert.True(suite.T(), report.Qualified)
	assert.True(suite.T(), report.TotalRaised.Equal(domain.MustMoney("2000000")))
	assert.Equal(suite.T(), int64(200_000), report.SharesIssued)
	assert.Equal(suite.T(), int64(4), next.Version)
	assert.Equal(suite.T(), int64(10_200_000), next.FullyDilutedShares)
	assert.Len(suite.T(), report.Issuances, 1)
	assert.Equal(suite.T(), engine.SourceInvestment, report.Issuances[0].Source)
	suite.mockRoundRepo.AssertExpectations(suite.T())
	suite.mockCapTableRepo.AssertExpectations(suite.T())
}

func (suite *RoundServiceTestSuite) TestApplyRound_StaleVersion() {
	ctx := context.Background()
	req := suite.applyRequest()
	req.ExpectedVersion = 2 // snapshot is at 3

	suite.mockRoundRepo.On("FindRoundByID", ctx, suite.round.RoundID).Return(&suite.round, nil).Once()
	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()

	report, next, err := suite.service.ApplyRound(ctx, suite.round.RoundID, req, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrStaleSnapshot)
	assert.Nil(suite.T(), report)
	assert.Nil(suite.T(), next)
	suite.mockCapTableRepo.AssertNotCalled(suite.T(), "ApplySnapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockRoundRepo.AssertNotCalled(suite.T(), "UpdateRoundStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RoundServiceTestSuite) TestApplyRound_ClosedRound() {
	ctx := context.Background()
	req := suite.applyRequest()
	closed := suite.round
	closed.Status = domain.RoundClosed

	suite.mockRoundRepo.On("FindRoundByID", ctx, closed.RoundID).Return(&closed, nil).Once()
	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()

	_, _, err := suite.service.ApplyRound(ctx, closed.RoundID, req, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidState)
	suite.mockCapTableRepo.AssertNotCalled(suite.T(), "ApplySnapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RoundServiceTestSuite) TestApplyRound_StaleOnPersist() {
	ctx := context.Background()
	req := suite.applyRequest()

	suite.mockRoundRepo.On("FindRoundByID", ctx, suite.round.RoundID).Return(&suite.round, nil).Once()
	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()
	suite.mockCapTableRepo.On("ApplySnapshot", ctx, mock.AnythingOfType("domain.CapTableSnapshot"), int64(3), mock.AnythingOfType("repositories.ApplySnapshotChanges"), suite.userID).
		Return(fmt.Errorf("%w: concurrent application", apperrors.ErrStaleSnapshot)).Once()

	_, _, err := suite.service.ApplyRound(ctx, suite.round.RoundID, req, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrStaleSnapshot)
	suite.mockRoundRepo.AssertNotCalled(suite.T(), "UpdateRoundStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RoundServiceTestSuite) TestCreateRound_Success() {
	ctx := context.Background()
	rank := 1
	req := dto.CreateRoundRequest{
		Type:               domain.RoundSeed,
		TargetAmount:       domain.MustMoney("500000"),
		PricePerShare:      domain.MustMoney("2"),
		PreMoneyValuation:  domain.MustMoney("5000000"),
		PostMoneyValuation: domain.MustMoney("5500000"),
		NewShareTerms: dto.ShareClassTermsRequest{
			PreferenceMultiple: decimal.NewFromInt(1),
			SeniorityRank:      &rank,
			ConversionRatio:    decimal.NewFromInt(1),
		},
	}

	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()
	suite.mockRoundRepo.On("SaveRound", ctx, mock.AnythingOfType("domain.EquityRound")).Return(nil).Once()

	round, err := suite.service.CreateRound(ctx, suite.capTableID, req, suite.userID)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), round)
	assert.Equal(suite.T(), domain.RoundPlanning, round.Status)
	assert.Equal(suite.T(), suite.capTableID, round.CapTableID)
	suite.mockRoundRepo.AssertExpectations(suite.T())
}

func (suite *RoundServiceTestSuite) TestCreateRound_InvalidPrice() {
	ctx := context.Background()
	req := dto.CreateRoundRequest{
		Type:               domain.RoundSeed,
		PricePerShare:      domain.MustMoney("0"),
		PreMoneyValuation:  domain.MustMoney("5000000"),
		PostMoneyValuation: domain.MustMoney("5000000"),
		NewShareTerms: dto.ShareClassTermsRequest{
			PreferenceMultiple: decimal.NewFromInt(1),
			ConversionRatio:    decimal.NewFromInt(1),
		},
	}

	suite.mockCapTableRepo.On("FindSnapshot", ctx, suite.capTableID).Return(&suite.snapshot, nil).Once()

	round, err := suite.service.CreateRound(ctx, suite.capTableID, req, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidInput)
	assert.Nil(suite.T(), round)
	suite.mockRoundRepo.AssertNotCalled(suite.T(), "SaveRound", mock.Anything, mock.Anything)
}

func (suite *RoundServiceTestSuite) TestOpenRound_Success() {
	ctx := context.Background()
	planning := suite.round
	planning.Status = domain.RoundPlanning

	suite.mockRoundRepo.On("FindRoundByID", ctx, planning.RoundID).Return(&planning, nil).Once()
	suite.mockRoundRepo.On("UpdateRoundStatus", ctx, planning.RoundID, domain.RoundOpen, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.OpenRound(ctx, planning.RoundID, suite.userID)

	assert.NoError(suite.T(), err)
	suite.mockRoundRepo.AssertExpectations(suite.T())
}

func (suite *RoundServiceTestSuite) TestOpenRound_AlreadyClosed() {
	ctx := context.Background()
	closed := suite.round
	closed.Status = domain.RoundClosed

	suite.mockRoundRepo.On("FindRoundByID", ctx, closed.RoundID).Return(&closed, nil).Once()

	err := suite.service.OpenRound(ctx, closed.RoundID, suite.userID)

	assert.ErrorIs(suite.T(), err, apperrors.ErrInvalidState)
	suite.mockRoundRepo.AssertNotCalled(suite.T(), "UpdateRoundStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RoundServiceTestSuite) TestCancelRound_Success() {
	ctx := context.Background()

	suite.mockRoundRepo.On("FindRoundByID", ctx, suite.round.RoundID).Return(&suite.round, nil).Once()
	suite.mockRoundRepo.On("UpdateRoundStatus", ctx, suite.round.RoundID, domain.RoundCancelled, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.CancelRound(ctx, suite.round.RoundID, suite.userID)

	assert.NoError(suite.T(), err)
	suite.mockRoundRepo.AssertExpectations(suite.T())
}

func (suite *RoundServiceTestSuite) TestGetRoundByID_NotFound() {
	ctx := context.Background()

	suite.mockRoundRepo.On("FindRoundByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	round, err := suite.service.GetRoundByID(ctx, "missing")

	assert.ErrorIs(suite.T(), err, apperrors.ErrNotFound)
	assert.Nil(suite.T(), round)
}

func TestRoundServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RoundServiceTestSuite))
}
