package payables

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payables/backend/internal/domain/payables"
)

func newBoardServiceForTest(
	disbursementRepo *MockDisbursementRepository,
	requisitionRepo *MockCheckRequisitionRepository,
	vendorRepo *MockVendorRepository,
	projectRepo *MockProjectRepository,
	now time.Time,
) *BoardService {
	return NewBoardService(disbursementRepo, requisitionRepo, vendorRepo, projectRepo,
		WithBoardClock(func() time.Time { return now }))
}

func scheduledDisbursement(scheduled *time.Time, amount int64) *payables.Disbursement {
	d := newUnreleasedDisbursement(newApprovedRequisition(amount))
	d.DateCheckScheduled = scheduled
	return d
}

func TestBoardServiceKanbanData(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)

	disbursementRepo := new(MockDisbursementRepository)
	svc := newBoardServiceForTest(disbursementRepo, new(MockCheckRequisitionRepository),
		new(MockVendorRepository), new(MockProjectRepository), now)

	pastDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	soonDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	farDate := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	overdue := scheduledDisbursement(&pastDate, 1000)
	dueSoon := scheduledDisbursement(&soonDate, 2000)
	later := scheduledDisbursement(&farDate, 3000)
	unscheduled := scheduledDisbursement(nil, 4000)

	disbursementRepo.On("FindUnreleased", mock.Anything).
		Return([]*payables.Disbursement{overdue, dueSoon, later, unscheduled}, nil)
	disbursementRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f payables.DisbursementFilter) bool {
		return f.Released != nil && *f.Released &&
			f.PageSize == 20 && f.OrderBy == "date_check_released_to_vendor" && f.OrderDir == "desc"
	})).Return([]payables.Disbursement{}, int64(0), nil)
	disbursementRepo.On("Summary", mock.Anything, mock.Anything).Return(&payables.DisbursementSummary{
		ReleasedCount:  42,
		ReleasedAmount: decimal.NewFromInt(987650),
	}, nil)

	data, err := svc.KanbanData(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, data.Overdue.Count)
	assert.Equal(t, overdue.ID, data.Overdue.Items[0].ID)
	assert.True(t, data.Overdue.TotalAmount.Equal(decimal.NewFromInt(1000)))

	assert.Equal(t, 1, data.DueThisWeek.Count)
	assert.Equal(t, dueSoon.ID, data.DueThisWeek.Items[0].ID)

	// far-out and unscheduled disbursements both land in scheduled_later
	assert.Equal(t, 2, data.ScheduledLater.Count)
	assert.True(t, data.ScheduledLater.TotalAmount.Equal(decimal.NewFromInt(7000)))

	// released column totals come from the summary, not the page
	assert.Equal(t, 42, data.Released.Count)
	assert.True(t, data.Released.TotalAmount.Equal(decimal.NewFromInt(987650)))
	assert.Empty(t, data.Released.Items)
}

func TestBoardServiceKanbanDataWeekBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 26, 23, 59, 0, 0, time.UTC)

	disbursementRepo := new(MockDisbursementRepository)
	svc := newBoardServiceForTest(disbursementRepo, new(MockCheckRequisitionRepository),
		new(MockVendorRepository), new(MockProjectRepository), now)

	// exactly today and exactly seven days out are both due this week,
	// eight days out is not
	today := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	seventhDay := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	eighthDay := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)

	disbursementRepo.On("FindUnreleased", mock.Anything).Return([]*payables.Disbursement{
		scheduledDisbursement(&today, 100),
		scheduledDisbursement(&seventhDay, 100),
		scheduledDisbursement(&eighthDay, 100),
	}, nil)
	disbursementRepo.On("FindAll", mock.Anything, mock.Anything).Return([]payables.Disbursement{}, int64(0), nil)
	disbursementRepo.On("Summary", mock.Anything, mock.Anything).Return(&payables.DisbursementSummary{}, nil)

	data, err := svc.KanbanData(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, data.Overdue.Count)
	assert.Equal(t, 2, data.DueThisWeek.Count)
	assert.Equal(t, 1, data.ScheduledLater.Count)
}

func TestBoardServiceCalendarData(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)

	t.Run("released on release date, scheduled on scheduled date, weekly rollups", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		svc := newBoardServiceForTest(disbursementRepo, new(MockCheckRequisitionRepository),
			new(MockVendorRepository), new(MockProjectRepository), now)

		start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

		releasedAt := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
		released := newUnreleasedDisbursement(newApprovedRequisition(1000))
		require.NoError(t, released.Release(releasedAt, releasedAt, payables.DefaultUndoWindow, ""))

		scheduledSameWeek := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
		scheduledNextWeek := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)

		disbursementRepo.On("FindByDateRange", mock.Anything, start, end).Return([]*payables.Disbursement{
			released,
			scheduledDisbursement(&scheduledSameWeek, 2000),
			scheduledDisbursement(&scheduledNextWeek, 4000),
			scheduledDisbursement(nil, 8000), // no date, never plotted
		}, nil)

		data, err := svc.CalendarData(ctx, start, end)
		require.NoError(t, err)

		require.Len(t, data.Days, 3)
		assert.Equal(t, "2026-08-03", data.Days[0].Date)
		assert.Equal(t, "released", data.Days[0].Events[0].Kind)
		assert.Equal(t, "2026-08-05", data.Days[1].Date)
		assert.Equal(t, "scheduled", data.Days[1].Events[0].Kind)
		assert.Equal(t, "2026-08-12", data.Days[2].Date)

		// August 2026 starts on a Saturday, so the month grid starts on
		// Sunday July 26. Aug 3 and Aug 5 share the week of Aug 2; Aug 12
		// falls in the week of Aug 9.
		require.Len(t, data.Weeks, 2)
		assert.Equal(t, "2026-08-02", data.Weeks[0].WeekStart)
		assert.Equal(t, 2, data.Weeks[0].Count)
		assert.True(t, data.Weeks[0].TotalAmount.Equal(decimal.NewFromInt(3000)))
		assert.Equal(t, "2026-08-09", data.Weeks[1].WeekStart)
		assert.Equal(t, 1, data.Weeks[1].Count)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		svc := newBoardServiceForTest(new(MockDisbursementRepository), new(MockCheckRequisitionRepository),
			new(MockVendorRepository), new(MockProjectRepository), now)

		start := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		_, err := svc.CalendarData(ctx, start, end)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})

	t.Run("skips events outside the requested range", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		svc := newBoardServiceForTest(disbursementRepo, new(MockCheckRequisitionRepository),
			new(MockVendorRepository), new(MockProjectRepository), now)

		start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		outside := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

		disbursementRepo.On("FindByDateRange", mock.Anything, start, end).Return([]*payables.Disbursement{
			scheduledDisbursement(&outside, 500),
		}, nil)

		data, err := svc.CalendarData(ctx, start, end)
		require.NoError(t, err)
		assert.Empty(t, data.Days)
		assert.Empty(t, data.Weeks)
	})
}

func TestBoardServiceSmartGroupingSuggestions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)

	agedRequisition := func(vendorID, projectID uuid.UUID, amount int64, agingDays int) *payables.CheckRequisition {
		cr := newApprovedRequisition(amount)
		cr.VendorID = vendorID
		cr.ProjectID = projectID
		cr.Invoices[0].SiDate = now.AddDate(0, 0, -agingDays)
		return cr
	}

	t.Run("groups by vendor and flags critical aging", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		vendorRepo := new(MockVendorRepository)
		projectRepo := new(MockProjectRepository)
		svc := newBoardServiceForTest(disbursementRepo, requisitionRepo, vendorRepo, projectRepo, now)

		vendorID := uuid.New()
		crFresh := agedRequisition(vendorID, uuid.New(), 1000, 10)
		crAged := agedRequisition(vendorID, uuid.New(), 2000, payables.CriticalAgingDays+15)

		requisitionRepo.On("FindUnassignedApproved", mock.Anything).
			Return([]*payables.CheckRequisition{crFresh, crAged}, nil)
		vendorRepo.On("FindByID", mock.Anything, vendorID).
			Return(&payables.Vendor{Name: "Meridian Hardware"}, nil)

		suggestions, err := svc.SmartGroupingSuggestions(ctx)
		require.NoError(t, err)
		require.Len(t, suggestions, 2)

		// high priority suggestions sort first
		first := suggestions[0]
		assert.Equal(t, "high", first.Priority)
		assert.Greater(t, first.MaxAgingDays, payables.CriticalAgingDays)
		// tomorrow for critically aged groups
		assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), first.SuggestedReleaseDate)

		kinds := []string{suggestions[0].Kind, suggestions[1].Kind}
		assert.Contains(t, kinds, "vendor")
		assert.Contains(t, kinds, "critical_aging")
		for _, s := range suggestions {
			if s.Kind == "vendor" {
				assert.Equal(t, "Same vendor: Meridian Hardware", s.Title)
				assert.Equal(t, 2, s.Count)
				assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(3000)))
			}
			if s.Kind == "critical_aging" {
				require.Len(t, s.RequisitionIDs, 1)
				assert.Equal(t, crAged.ID, s.RequisitionIDs[0])
			}
		}
	})

	t.Run("medium priority for groups of three or more", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		vendorRepo := new(MockVendorRepository)
		projectRepo := new(MockProjectRepository)
		svc := newBoardServiceForTest(disbursementRepo, requisitionRepo, vendorRepo, projectRepo, now)

		projectID := uuid.New()
		requisitionRepo.On("FindUnassignedApproved", mock.Anything).Return([]*payables.CheckRequisition{
			agedRequisition(uuid.New(), projectID, 100, 5),
			agedRequisition(uuid.New(), projectID, 200, 5),
			agedRequisition(uuid.New(), projectID, 300, 5),
		}, nil)
		projectRepo.On("FindByID", mock.Anything, projectID).
			Return(&payables.Project{ProjectTitle: "Warehouse Retrofit"}, nil)

		suggestions, err := svc.SmartGroupingSuggestions(ctx)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)
		assert.Equal(t, "project", suggestions[0].Kind)
		assert.Equal(t, "Same project: Warehouse Retrofit", suggestions[0].Title)
		assert.Equal(t, "medium", suggestions[0].Priority)
		assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), suggestions[0].SuggestedReleaseDate)
	})

	t.Run("singletons produce no suggestions", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		svc := newBoardServiceForTest(disbursementRepo, requisitionRepo,
			new(MockVendorRepository), new(MockProjectRepository), now)

		requisitionRepo.On("FindUnassignedApproved", mock.Anything).Return([]*payables.CheckRequisition{
			agedRequisition(uuid.New(), uuid.New(), 100, 5),
		}, nil)

		suggestions, err := svc.SmartGroupingSuggestions(ctx)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})
}
