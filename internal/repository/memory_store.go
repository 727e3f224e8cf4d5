package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/engagement-marketplace/internal/domain"
)

// MemoryStore keeps all state in process. Each unit of work runs against a
// private copy that replaces the live state only when the unit succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryBalance struct {
	balance  decimal.Decimal
	credited decimal.Decimal
}

type memoryState struct {
	users       map[string]domain.User
	tasks       map[string]domain.Task
	submissions map[string]domain.Submission
	withdrawals map[string]domain.WithdrawalRequest
	campaigns   map[string]domain.Campaign
	balances    map[string]memoryBalance
	entries     []domain.LedgerEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		users:       map[string]domain.User{},
		tasks:       map[string]domain.Task{},
		submissions: map[string]domain.Submission{},
		withdrawals: map[string]domain.WithdrawalRequest{},
		campaigns:   map[string]domain.Campaign{},
		balances:    map[string]memoryBalance{},
	}}
}

// Atomic runs fn against a snapshot and publishes it when fn returns nil.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, memoryRepositories{state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (s *memoryState) clone() *memoryState {
	cp := &memoryState{
		users:       make(map[string]domain.User, len(s.users)),
		tasks:       make(map[string]domain.Task, len(s.tasks)),
		submissions: make(map[string]domain.Submission, len(s.submissions)),
		withdrawals: make(map[string]domain.WithdrawalRequest, len(s.withdrawals)),
		campaigns:   make(map[string]domain.Campaign, len(s.campaigns)),
		balances:    make(map[string]memoryBalance, len(s.balances)),
		entries:     append([]domain.LedgerEntry(nil), s.entries...),
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.tasks {
		cp.tasks[k] = v
	}
	for k, v := range s.submissions {
		cp.submissions[k] = v
	}
	for k, v := range s.withdrawals {
		cp.withdrawals[k] = v
	}
	for k, v := range s.campaigns {
		cp.campaigns[k] = v
	}
	for k, v := range s.balances {
		cp.balances[k] = v
	}
	return cp
}

type memoryRepositories struct {
	state *memoryState
}

func (r memoryRepositories) Users() UserRepository             { return memoryUsers{r.state} }
func (r memoryRepositories) Tasks() TaskRepository             { return memoryTasks{r.state} }
func (r memoryRepositories) Submissions() SubmissionRepository { return memorySubmissions{r.state} }
func (r memoryRepositories) Withdrawals() WithdrawalRepository { return memoryWithdrawals{r.state} }
func (r memoryRepositories) Ledger() LedgerRepository          { return memoryLedger{r.state} }
func (r memoryRepositories) Campaigns() CampaignRepository     { return memoryCampaigns{r.state} }

type memoryUsers struct{ s *memoryState }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	if _, exists := m.s.users[user.ID]; exists {
		return ErrDuplicate
	}
	for _, existing := range m.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicate
		}
	}
	m.s.users[user.ID] = *user
	return nil
}

func (m memoryUsers) Update(_ context.Context, user *domain.User) error {
	existing, ok := m.s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *user
	updated.Email = existing.Email
	updated.Role = existing.Role
	updated.CreatedAt = existing.CreatedAt
	m.s.users[user.ID] = updated
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

type memoryTasks struct{ s *memoryState }

func (m memoryTasks) Create(_ context.Context, task *domain.Task) error {
	if _, exists := m.s.tasks[task.ID]; exists {
		return ErrDuplicate
	}
	m.s.tasks[task.ID] = *task
	return nil
}

func (m memoryTasks) SetActive(_ context.Context, id string, active bool) error {
	task, ok := m.s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	task.Active = active
	m.s.tasks[id] = task
	return nil
}

func (m memoryTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	task, ok := m.s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &task, nil
}

func (m memoryTasks) ListActive(_ context.Context) ([]domain.Task, error) {
	result := []domain.Task{}
	for _, task := range m.s.tasks {
		if task.Active {
			result = append(result, task)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m memoryTasks) Count(_ context.Context) (int, error) {
	return len(m.s.tasks), nil
}

type memorySubmissions struct{ s *memoryState }

func (m memorySubmissions) Create(_ context.Context, submission *domain.Submission) error {
	if _, exists := m.s.submissions[submission.ID]; exists {
		return ErrDuplicate
	}
	if submission.Status == domain.StatusPending {
		for _, existing := range m.s.submissions {
			if existing.UserID == submission.UserID &&
				existing.TaskID == submission.TaskID &&
				existing.Status == domain.StatusPending {
				return ErrDuplicate
			}
		}
	}
	m.s.submissions[submission.ID] = *submission
	return nil
}

func (m memorySubmissions) Update(_ context.Context, submission *domain.Submission) error {
	if _, ok := m.s.submissions[submission.ID]; !ok {
		return ErrNotFound
	}
	m.s.submissions[submission.ID] = *submission
	return nil
}

func (m memorySubmissions) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	submission, ok := m.s.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &submission, nil
}

// GetForUpdate needs no row lock; units already run one at a time.
func (m memorySubmissions) GetForUpdate(ctx context.Context, id string) (*domain.Submission, error) {
	return m.GetByID(ctx, id)
}

func (m memorySubmissions) FindPending(_ context.Context, userID, taskID string) (*domain.Submission, error) {
	for _, submission := range m.s.submissions {
		if submission.UserID == userID && submission.TaskID == taskID && submission.Status == domain.StatusPending {
			found := submission
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m memorySubmissions) ListByStatus(_ context.Context, status domain.ReviewStatus) ([]domain.Submission, error) {
	result := m.filter(func(s domain.Submission) bool { return s.Status == status })
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result, nil
}

func (m memorySubmissions) ListByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	result := m.filter(func(s domain.Submission) bool { return s.UserID == userID })
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	return result, nil
}

func (m memorySubmissions) filter(keep func(domain.Submission) bool) []domain.Submission {
	result := []domain.Submission{}
	for _, submission := range m.s.submissions {
		if keep(submission) {
			result = append(result, submission)
		}
	}
	return result
}

type memoryWithdrawals struct{ s *memoryState }

func (m memoryWithdrawals) Create(_ context.Context, request *domain.WithdrawalRequest) error {
	if _, exists := m.s.withdrawals[request.ID]; exists {
		return ErrDuplicate
	}
	m.s.withdrawals[request.ID] = *request
	return nil
}

func (m memoryWithdrawals) Update(_ context.Context, request *domain.WithdrawalRequest) error {
	if _, ok := m.s.withdrawals[request.ID]; !ok {
		return ErrNotFound
	}
	m.s.withdrawals[request.ID] = *request
	return nil
}

func (m memoryWithdrawals) GetByID(_ context.Context, id string) (*domain.WithdrawalRequest, error) {
	request, ok := m.s.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &request, nil
}

func (m memoryWithdrawals) GetForUpdate(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return m.GetByID(ctx, id)
}

func (m memoryWithdrawals) ListByStatus(_ context.Context, status domain.ReviewStatus) ([]domain.WithdrawalRequest, error) {
	result := m.filter(func(w domain.WithdrawalRequest) bool { return w.Status == status })
	sort.Slice(result, func(i, j int) bool {
		if result[i].RequestedAt.Equal(result[j].RequestedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].RequestedAt.Before(result[j].RequestedAt)
	})
	return result, nil
}

func (m memoryWithdrawals) ListByUser(_ context.Context, userID string) ([]domain.WithdrawalRequest, error) {
	result := m.filter(func(w domain.WithdrawalRequest) bool { return w.UserID == userID })
	sort.Slice(result, func(i, j int) bool {
		if result[i].RequestedAt.Equal(result[j].RequestedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].RequestedAt.After(result[j].RequestedAt)
	})
	return result, nil
}

func (m memoryWithdrawals) filter(keep func(domain.WithdrawalRequest) bool) []domain.WithdrawalRequest {
	result := []domain.WithdrawalRequest{}
	for _, request := range m.s.withdrawals {
		if keep(request) {
			result = append(result, request)
		}
	}
	return result
}

type memoryLedger struct{ s *memoryState }

func (m memoryLedger) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	return m.s.balances[userID].balance, nil
}

func (m memoryLedger) LockBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return m.Balance(ctx, userID)
}

func (m memoryLedger) Append(_ context.Context, entry *domain.LedgerEntry) error {
	row := m.s.balances[entry.UserID]
	row.balance = entry.BalanceAfter
	if entry.Kind == domain.EntryCredit {
		row.credited = row.credited.Add(entry.Amount)
	}
	m.s.balances[entry.UserID] = row
	m.s.entries = append(m.s.entries, *entry)
	return nil
}

func (m memoryLedger) Entries(_ context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	result := []domain.LedgerEntry{}
	for i := len(m.s.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if m.s.entries[i].UserID == userID {
			result = append(result, m.s.entries[i])
		}
	}
	return result, nil
}

func (m memoryLedger) TopEarners(_ context.Context, limit int) ([]EarnerTotal, error) {
	if limit <= 0 {
		limit = 10
	}
	result := []EarnerTotal{}
	for userID, row := range m.s.balances {
		if row.credited.IsPositive() {
			result = append(result, EarnerTotal{UserID: userID, Credited: row.credited})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].Credited.Cmp(result[j].Credited); cmp != 0 {
			return cmp > 0
		}
		return result[i].UserID < result[j].UserID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type memoryCampaigns struct{ s *memoryState }

func (m memoryCampaigns) Create(_ context.Context, campaign *domain.Campaign) error {
	if _, exists := m.s.campaigns[campaign.ID]; exists {
		return ErrDuplicate
	}
	m.s.campaigns[campaign.ID] = *campaign
	return nil
}

func (m memoryCampaigns) Update(_ context.Context, campaign *domain.Campaign) error {
	existing, ok := m.s.campaigns[campaign.ID]
	if !ok {
		return ErrNotFound
	}
	existing.CompletedTasks = campaign.CompletedTasks
	existing.Status = campaign.Status
	existing.UpdatedAt = campaign.UpdatedAt
	m.s.campaigns[campaign.ID] = existing
	return nil
}

func (m memoryCampaigns) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	campaign, ok := m.s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &campaign, nil
}

func (m memoryCampaigns) GetForUpdate(ctx context.Context, id string) (*domain.Campaign, error) {
	return m.GetByID(ctx, id)
}

func (m memoryCampaigns) GetByTaskID(_ context.Context, taskID string) (*domain.Campaign, error) {
	for _, campaign := range m.s.campaigns {
		if campaign.TaskID == taskID {
			found := campaign
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m memoryCampaigns) List(_ context.Context, filter CampaignFilter) ([]domain.Campaign, error) {
	result := []domain.Campaign{}
	for _, campaign := range m.s.campaigns {
		if filter.CreatorID != nil && campaign.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.Status != nil && campaign.Status != *filter.Status {
			continue
		}
		result = append(result, campaign)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
