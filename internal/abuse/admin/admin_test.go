package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"formgate/internal/abuse/admin/mocks"
	"formgate/internal/abuse/models"
	"formgate/internal/sentinel"
	dErrors "formgate/pkg/domain-errors"
)

type AdminServiceSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	mockAllowlist      *mocks.MockAllowlistStore
	mockBudgets        *mocks.MockBudgetStore
	mockAuditPublisher *mocks.MockAuditPublisher
	service            *Service
	ctx                context.Context
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAllowlist = mocks.NewMockAllowlistStore(s.ctrl)
	s.mockBudgets = mocks.NewMockBudgetStore(s.ctrl)
	s.mockAuditPublisher = mocks.NewMockAuditPublisher(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service, _ = New(
		s.mockAllowlist,
		s.mockBudgets,
		WithLogger(logger),
		WithAuditPublisher(s.mockAuditPublisher),
	)
	s.ctx = context.Background()
}

func (s *AdminServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AdminServiceSuite) TestNew() {
	s.Run("nil allowlist store returns error", func() {
		_, err := New(nil, s.mockBudgets)
		s.Error(err)
		s.Contains(err.Error(), "allowlist store is required")
	})

	s.Run("nil budget store returns error", func() {
		_, err := New(s.mockAllowlist, nil)
		s.Error(err)
		s.Contains(err.Error(), "budget store is required")
	})

	s.Run("valid stores returns configured service", func() {
		svc, err := New(s.mockAllowlist, s.mockBudgets)
		s.NoError(err)
		s.NotNil(svc)
	})
}

func (s *AdminServiceSuite) TestAddToAllowlist() {
	s.Run("valid request stores entry and emits audit", func() {
		s.mockAllowlist.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		expires := time.Now().Add(24 * time.Hour)
		entry, err := s.service.AddToAllowlist(s.ctx, &models.AddAllowlistRequest{
			Identifier: "  partner-7  ",
			Reason:     "trusted integration",
			ExpiresAt:  &expires,
		})

		s.Require().NoError(err)
		s.Equal("partner-7", entry.Identifier, "identifier should be trimmed")
		s.NotEmpty(entry.ID)
	})

	s.Run("missing identifier is rejected", func() {
		_, err := s.service.AddToAllowlist(s.ctx, &models.AddAllowlistRequest{
			Reason: "trusted integration",
		})
		s.Error(err)
		s.Contains(err.Error(), "identifier is required")
	})

	s.Run("missing reason is rejected", func() {
		_, err := s.service.AddToAllowlist(s.ctx, &models.AddAllowlistRequest{
			Identifier: "partner-7",
		})
		s.Error(err)
		s.Contains(err.Error(), "reason is required")
	})

	s.Run("past expiry is rejected", func() {
		past := time.Now().Add(-time.Hour)
		_, err := s.service.AddToAllowlist(s.ctx, &models.AddAllowlistRequest{
			Identifier: "partner-7",
			Reason:     "trusted integration",
			ExpiresAt:  &past,
		})
		s.Error(err)
		s.Contains(err.Error(), "expires_at must be in the future")
	})

	s.Run("store error propagates", func() {
		s.mockAllowlist.EXPECT().Add(gomock.Any(), gomock.Any()).Return(errors.New("store down"))

		_, err := s.service.AddToAllowlist(s.ctx, &models.AddAllowlistRequest{
			Identifier: "partner-7",
			Reason:     "trusted integration",
		})
		s.Error(err)
		s.Contains(err.Error(), "failed to add to allowlist")
	})
}

func (s *AdminServiceSuite) TestRemoveFromAllowlist() {
	s.Run("valid request removes entry", func() {
		s.mockAllowlist.EXPECT().Remove(gomock.Any(), "partner-7").Return(nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		err := s.service.RemoveFromAllowlist(s.ctx, &models.RemoveAllowlistRequest{
			Identifier: "partner-7",
		})
		s.NoError(err)
	})

	s.Run("missing identifier is rejected", func() {
		err := s.service.RemoveFromAllowlist(s.ctx, &models.RemoveAllowlistRequest{})
		s.Error(err)
	})

	s.Run("unknown entry maps to not found", func() {
		s.mockAllowlist.EXPECT().Remove(gomock.Any(), "ghost").Return(sentinel.ErrNotFound)

		err := s.service.RemoveFromAllowlist(s.ctx, &models.RemoveAllowlistRequest{Identifier: "ghost"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AdminServiceSuite) TestResetBudget() {
	s.Run("valid request resets the client bucket", func() {
		s.mockBudgets.EXPECT().Reset(gomock.Any(), "client-a").Return(nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		err := s.service.ResetBudget(s.ctx, &models.ResetBudgetRequest{ClientID: "client-a"})
		s.NoError(err)
	})

	s.Run("missing client_id is rejected", func() {
		err := s.service.ResetBudget(s.ctx, &models.ResetBudgetRequest{})
		s.Error(err)
		s.Contains(err.Error(), "client_id is required")
	})

	s.Run("store error propagates", func() {
		s.mockBudgets.EXPECT().Reset(gomock.Any(), "client-a").Return(errors.New("store down"))

		err := s.service.ResetBudget(s.ctx, &models.ResetBudgetRequest{ClientID: "client-a"})
		s.Error(err)
	})
}

func (s *AdminServiceSuite) TestInspectBudget() {
	s.mockBudgets.EXPECT().Remaining(gomock.Any(), "client-a").Return(2.5, nil)

	remaining, err := s.service.InspectBudget(s.ctx, "client-a")
	s.Require().NoError(err)
	s.InDelta(2.5, remaining, 1e-9)
}
