package payables

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/telemetry"
)

// dueSoonDays is the kanban horizon: unreleased checks scheduled within this
// many days land in the due_this_week column.
const dueSoonDays = 7

// BoardService builds the read-side projections over disbursements and
// check requisitions: the kanban board, the release calendar and the
// smart grouping suggestions.
type BoardService struct {
	disbursementRepo payables.DisbursementRepository
	requisitionRepo  payables.CheckRequisitionRepository
	vendorRepo       payables.VendorRepository
	projectRepo      payables.ProjectRepository
	now              func() time.Time
}

// BoardServiceOption is a functional option for configuring BoardService
type BoardServiceOption func(*BoardService)

// WithBoardClock overrides the wall clock, used by tests
func WithBoardClock(now func() time.Time) BoardServiceOption {
	return func(s *BoardService) {
		s.now = now
	}
}

// NewBoardService creates a new BoardService
func NewBoardService(
	disbursementRepo payables.DisbursementRepository,
	requisitionRepo payables.CheckRequisitionRepository,
	vendorRepo payables.VendorRepository,
	projectRepo payables.ProjectRepository,
	opts ...BoardServiceOption,
) *BoardService {
	s := &BoardService{
		disbursementRepo: disbursementRepo,
		requisitionRepo:  requisitionRepo,
		vendorRepo:       vendorRepo,
		projectRepo:      projectRepo,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Kanban =====================

// KanbanBucket is one column of the disbursement board
type KanbanBucket struct {
	Count       int                    `json:"count"`
	TotalAmount decimal.Decimal        `json:"total_amount"`
	Items       []DisbursementResponse `json:"items"`
}

// KanbanData is the full disbursement board. The released column carries the
// most recent releases plus totals over all released disbursements.
type KanbanData struct {
	Overdue        KanbanBucket `json:"overdue"`
	DueThisWeek    KanbanBucket `json:"due_this_week"`
	ScheduledLater KanbanBucket `json:"scheduled_later"`
	Released       KanbanBucket `json:"released"`
}

// KanbanData builds the board. Placement of unreleased disbursements follows
// the scheduled date: before today is overdue, within the next seven days is
// due this week, everything else (including unscheduled drafts) is scheduled
// later.
func (s *BoardService) KanbanData(ctx context.Context) (*KanbanData, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "board", "kanban_data")
	defer span.End()

	unreleased, err := s.disbursementRepo.FindUnreleased(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load unreleased disbursements: %w", err)
	}

	now := s.now()
	today := truncateToDay(now)
	weekEnd := today.AddDate(0, 0, dueSoonDays)

	data := &KanbanData{
		Overdue:        newKanbanBucket(),
		DueThisWeek:    newKanbanBucket(),
		ScheduledLater: newKanbanBucket(),
		Released:       newKanbanBucket(),
	}
	for _, d := range unreleased {
		bucket := &data.ScheduledLater
		if d.DateCheckScheduled != nil {
			scheduled := truncateToDay(*d.DateCheckScheduled)
			switch {
			case scheduled.Before(today):
				bucket = &data.Overdue
			case !scheduled.After(weekEnd):
				bucket = &data.DueThisWeek
			}
		}
		bucket.Count++
		bucket.TotalAmount = bucket.TotalAmount.Add(d.Amount().Amount())
		bucket.Items = append(bucket.Items, *toDisbursementResponse(d, now))
	}

	released := true
	releasedFilter := payables.DisbursementFilter{Released: &released}
	releasedFilter.Page = 1
	releasedFilter.PageSize = 20
	releasedFilter.OrderBy = "date_check_released_to_vendor"
	releasedFilter.OrderDir = "desc"

	releasedPage, _, err := s.disbursementRepo.FindAll(ctx, releasedFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load released disbursements: %w", err)
	}
	summary, err := s.disbursementRepo.Summary(ctx, payables.DisbursementFilter{Released: &released})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to summarize released disbursements: %w", err)
	}
	data.Released.Count = int(summary.ReleasedCount)
	data.Released.TotalAmount = summary.ReleasedAmount
	for i := range releasedPage {
		data.Released.Items = append(data.Released.Items, *toDisbursementResponse(&releasedPage[i], now))
	}

	return data, nil
}

func newKanbanBucket() KanbanBucket {
	return KanbanBucket{TotalAmount: decimal.Zero, Items: []DisbursementResponse{}}
}

// ===================== Calendar =====================

// CalendarEvent is one disbursement occurrence on the calendar. Kind is
// "released" for released disbursements and "scheduled" otherwise.
type CalendarEvent struct {
	Date               string          `json:"date"`
	DisbursementID     uuid.UUID       `json:"disbursement_id"`
	CheckVoucherNumber *string         `json:"check_voucher_number"`
	State              string          `json:"state"`
	Kind               string          `json:"kind"`
	Amount             decimal.Decimal `json:"amount"`
	PayeeNames         []string        `json:"payee_names"`
}

// CalendarDay is one day cell with its events and totals
type CalendarDay struct {
	Date        string          `json:"date"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Events      []CalendarEvent `json:"events"`
}

// CalendarWeek is a weekly rollup aligned to the displayed month grid
type CalendarWeek struct {
	WeekStart   string          `json:"week_start"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CalendarData is the calendar projection over a date range
type CalendarData struct {
	Start string         `json:"start"`
	End   string         `json:"end"`
	Days  []CalendarDay  `json:"days"`
	Weeks []CalendarWeek `json:"weeks"`
}

// CalendarData builds the calendar projection for [start, end]. Released
// disbursements appear on their release date, unreleased ones on their
// scheduled date. Weekly rollups are aligned to the month grid the client
// renders: weeks start at the Sunday on or before the first of the displayed
// month, so a week spilling over from the previous month rolls up as one row.
func (s *BoardService) CalendarData(ctx context.Context, start, end time.Time) (*CalendarData, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "board", "calendar_data")
	defer span.End()

	if end.Before(start) {
		return nil, shared.NewValidationError("end", "End date must not be before start date")
	}

	disbursements, err := s.disbursementRepo.FindByDateRange(ctx, start, end)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load disbursements for calendar: %w", err)
	}

	days := make(map[string]*CalendarDay)
	for _, d := range disbursements {
		var eventDate *time.Time
		kind := "scheduled"
		if d.IsReleased() {
			eventDate = d.DateCheckReleasedToVendor
			kind = "released"
		} else {
			eventDate = d.DateCheckScheduled
		}
		if eventDate == nil || eventDate.Before(start) || eventDate.After(end) {
			continue
		}

		dateKey := truncateToDay(*eventDate).Format("2006-01-02")
		day, ok := days[dateKey]
		if !ok {
			day = &CalendarDay{Date: dateKey, TotalAmount: decimal.Zero}
			days[dateKey] = day
		}

		amount := d.Amount().Amount()
		payees := make([]string, 0, len(d.Requisitions))
		for _, cr := range d.Requisitions {
			payees = append(payees, cr.PayeeName)
		}
		day.Events = append(day.Events, CalendarEvent{
			Date:               dateKey,
			DisbursementID:     d.ID,
			CheckVoucherNumber: d.CheckVoucherNumber,
			State:              d.State().String(),
			Kind:               kind,
			Amount:             amount,
			PayeeNames:         payees,
		})
		day.Count++
		day.TotalAmount = day.TotalAmount.Add(amount)
	}

	data := &CalendarData{
		Start: truncateToDay(start).Format("2006-01-02"),
		End:   truncateToDay(end).Format("2006-01-02"),
		Days:  make([]CalendarDay, 0, len(days)),
	}
	for _, day := range days {
		data.Days = append(data.Days, *day)
	}
	sort.Slice(data.Days, func(i, j int) bool { return data.Days[i].Date < data.Days[j].Date })

	data.Weeks = rollupWeeks(data.Days, gridOrigin(start, end))
	return data, nil
}

// gridOrigin is the Sunday on or before the first day of the displayed month.
// The displayed month is taken from the midpoint of the range, since calendar
// clients pad the range with the spillover days of the adjacent months.
func gridOrigin(start, end time.Time) time.Time {
	mid := start.Add(end.Sub(start) / 2)
	firstOfMonth := time.Date(mid.Year(), mid.Month(), 1, 0, 0, 0, 0, mid.Location())
	return firstOfMonth.AddDate(0, 0, -int(firstOfMonth.Weekday()))
}

func rollupWeeks(days []CalendarDay, origin time.Time) []CalendarWeek {
	byStart := make(map[string]*CalendarWeek)
	order := make([]string, 0)
	for _, day := range days {
		date, err := time.ParseInLocation("2006-01-02", day.Date, origin.Location())
		if err != nil {
			continue
		}
		days := int(date.Sub(origin).Hours() / 24)
		weekIndex := days / 7
		if days < 0 && days%7 != 0 {
			weekIndex--
		}
		weekStart := origin.AddDate(0, 0, weekIndex*7).Format("2006-01-02")
		week, ok := byStart[weekStart]
		if !ok {
			week = &CalendarWeek{WeekStart: weekStart, TotalAmount: decimal.Zero}
			byStart[weekStart] = week
			order = append(order, weekStart)
		}
		week.Count += day.Count
		week.TotalAmount = week.TotalAmount.Add(day.TotalAmount)
	}

	sort.Strings(order)
	weeks := make([]CalendarWeek, 0, len(order))
	for _, weekStart := range order {
		weeks = append(weeks, *byStart[weekStart])
	}
	return weeks
}

// ===================== Smart grouping =====================

// GroupingSuggestion proposes a set of approved, un-disbursed check
// requisitions that could be paid with a single check. Suggestions are
// advisory; nothing is linked until the user creates the disbursement.
type GroupingSuggestion struct {
	Kind                 string          `json:"kind"`
	Title                string          `json:"title"`
	Priority             string          `json:"priority"`
	RequisitionIDs       []uuid.UUID     `json:"check_requisition_ids"`
	Count                int             `json:"count"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	MaxAgingDays         int             `json:"max_aging_days"`
	SuggestedReleaseDate time.Time       `json:"suggested_release_date"`
}

const (
	groupingKindVendor        = "vendor"
	groupingKindProject       = "project"
	groupingKindCriticalAging = "critical_aging"

	priorityHigh   = "high"
	priorityMedium = "medium"
	priorityLow    = "low"
)

// SmartGroupingSuggestions groups the approved, un-disbursed requisitions by
// shared vendor, shared project and critical invoice aging. Priority is high
// when any member invoice has aged past the critical threshold, medium for
// groups of three or more, low otherwise.
func (s *BoardService) SmartGroupingSuggestions(ctx context.Context) ([]GroupingSuggestion, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "board", "smart_grouping")
	defer span.End()

	requisitions, err := s.requisitionRepo.FindUnassignedApproved(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load unassigned requisitions: %w", err)
	}

	now := s.now()
	suggestions := make([]GroupingSuggestion, 0)

	byVendor := make(map[uuid.UUID][]*payables.CheckRequisition)
	byProject := make(map[uuid.UUID][]*payables.CheckRequisition)
	critical := make([]*payables.CheckRequisition, 0)
	for _, cr := range requisitions {
		byVendor[cr.VendorID] = append(byVendor[cr.VendorID], cr)
		byProject[cr.ProjectID] = append(byProject[cr.ProjectID], cr)
		if cr.MaxInvoiceAgingDays(now) > payables.CriticalAgingDays {
			critical = append(critical, cr)
		}
	}

	for vendorID, members := range byVendor {
		if len(members) < 2 {
			continue
		}
		title := members[0].PayeeName
		if vendor, err := s.vendorRepo.FindByID(ctx, vendorID); err == nil && vendor != nil {
			title = vendor.Name
		}
		suggestions = append(suggestions,
			s.buildSuggestion(groupingKindVendor, fmt.Sprintf("Same vendor: %s", title), members, now))
	}
	for projectID, members := range byProject {
		if len(members) < 2 {
			continue
		}
		title := projectID.String()
		if project, err := s.projectRepo.FindByID(ctx, projectID); err == nil && project != nil {
			title = project.ProjectTitle
		}
		suggestions = append(suggestions,
			s.buildSuggestion(groupingKindProject, fmt.Sprintf("Same project: %s", title), members, now))
	}
	if len(critical) > 0 {
		suggestions = append(suggestions,
			s.buildSuggestion(groupingKindCriticalAging,
				fmt.Sprintf("Critically aged (over %d days)", payables.CriticalAgingDays), critical, now))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		ri, rj := priorityRank(suggestions[i].Priority), priorityRank(suggestions[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return suggestions[i].TotalAmount.GreaterThan(suggestions[j].TotalAmount)
	})
	return suggestions, nil
}

func (s *BoardService) buildSuggestion(kind, title string, members []*payables.CheckRequisition, now time.Time) GroupingSuggestion {
	ids := make([]uuid.UUID, 0, len(members))
	total := decimal.Zero
	maxAging := 0
	for _, cr := range members {
		ids = append(ids, cr.ID)
		total = total.Add(cr.PhpAmount)
		if days := cr.MaxInvoiceAgingDays(now); days > maxAging {
			maxAging = days
		}
	}

	priority := priorityLow
	releaseOffsetDays := dueSoonDays
	switch {
	case maxAging > payables.CriticalAgingDays:
		priority = priorityHigh
		releaseOffsetDays = 1
	case len(members) >= 3:
		priority = priorityMedium
		releaseOffsetDays = 3
	}

	return GroupingSuggestion{
		Kind:                 kind,
		Title:                title,
		Priority:             priority,
		RequisitionIDs:       ids,
		Count:                len(members),
		TotalAmount:          total,
		MaxAgingDays:         maxAging,
		SuggestedReleaseDate: truncateToDay(now).AddDate(0, 0, releaseOffsetDays),
	}
}

func priorityRank(priority string) int {
	switch priority {
	case priorityHigh:
		return 0
	case priorityMedium:
		return 1
	default:
		return 2
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
