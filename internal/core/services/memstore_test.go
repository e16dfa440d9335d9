package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory repositories.Store. Atomic works on a copy of
// the data and only publishes it when fn succeeds, so a failed unit leaves
// nothing behind.
type memStore struct {
	d *memData

	// conflicts makes the next n Atomic calls fail with ErrConflict
	conflicts int
	// failures injects an error into the named repository method, e.g.
	// "AdminNotifications.Create"
	failures map[string]error
	atomics  int
}

type memData struct {
	seq   uint
	clock func() time.Time

	users      map[uint]models.User
	userGroups map[uint][]string
	tokens     map[uint]models.RefreshToken
	roles      map[uint]models.Role
	userRoles  map[uint]uint
	members    map[uint]models.Member
	accounts   map[uint]models.SavingAccount
	txns       map[uint]models.SavingTransaction
	loans      map[uint]models.Loan
	repayments map[uint]models.LoanRepayment
	guarantors map[uint]models.LoanGuarantor
	adminNotes map[uint]models.AdminNotification
	notes      map[uint]models.Notification
	logs       map[uint]models.UserActivityLog
	setting    *models.SystemSetting
}

func newMemStore() *memStore {
	return &memStore{
		d: &memData{
			clock:      time.Now,
			users:      map[uint]models.User{},
			userGroups: map[uint][]string{},
			tokens:     map[uint]models.RefreshToken{},
			roles:      map[uint]models.Role{},
			userRoles:  map[uint]uint{},
			members:    map[uint]models.Member{},
			accounts:   map[uint]models.SavingAccount{},
			txns:       map[uint]models.SavingTransaction{},
			loans:      map[uint]models.Loan{},
			repayments: map[uint]models.LoanRepayment{},
			guarantors: map[uint]models.LoanGuarantor{},
			adminNotes: map[uint]models.AdminNotification{},
			notes:      map[uint]models.Notification{},
			logs:       map[uint]models.UserActivityLog{},
		},
		failures: map[string]error{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	c := *d
	c.users = cloneMap(d.users)
	c.userGroups = cloneMap(d.userGroups)
	c.tokens = cloneMap(d.tokens)
	c.roles = cloneMap(d.roles)
	c.userRoles = cloneMap(d.userRoles)
	c.members = cloneMap(d.members)
	c.accounts = cloneMap(d.accounts)
	c.txns = cloneMap(d.txns)
	c.loans = cloneMap(d.loans)
	c.repayments = cloneMap(d.repayments)
	c.guarantors = cloneMap(d.guarantors)
	c.adminNotes = cloneMap(d.adminNotes)
	c.notes = cloneMap(d.notes)
	c.logs = cloneMap(d.logs)
	if d.setting != nil {
		setting := *d.setting
		c.setting = &setting
	}
	return &c
}

func (d *memData) nextID() uint {
	d.seq++
	return d.seq
}

func (s *memStore) fail(name string) error {
	return s.failures[name]
}

func (s *memStore) Atomic(ctx context.Context, fn func(tx repositories.Store) error) error {
	s.atomics++
	if s.conflicts > 0 {
		s.conflicts--
		return domain.ErrConflict
	}
	work := s.d.clone()
	if err := fn(&memStore{d: work, failures: s.failures}); err != nil {
		return err
	}
	*s.d = *work
	return nil
}

func (s *memStore) Users() repositories.UserRepository                 { return memUsers{s} }
func (s *memStore) RefreshTokens() repositories.RefreshTokenRepository { return memTokens{s} }
func (s *memStore) Roles() repositories.RoleRepository                 { return memRoles{s} }
func (s *memStore) Members() repositories.MemberRepository             { return memMembers{s} }
func (s *memStore) Accounts() repositories.SavingAccountRepository     { return memAccounts{s} }
func (s *memStore) SavingTransactions() repositories.SavingTransactionRepository {
	return memTxns{s}
}
func (s *memStore) Loans() repositories.LoanRepository               { return memLoans{s} }
func (s *memStore) Repayments() repositories.LoanRepaymentRepository { return memRepayments{s} }
func (s *memStore) Guarantors() repositories.LoanGuarantorRepository { return memGuarantors{s} }
func (s *memStore) AdminNotifications() repositories.AdminNotificationRepository {
	return memAdminNotes{s}
}
func (s *memStore) Notifications() repositories.NotificationRepository { return memNotes{s} }
func (s *memStore) ActivityLogs() repositories.ActivityLogRepository   { return memLogs{s} }
func (s *memStore) Settings() repositories.SettingRepository           { return memSettings{s} }

func window[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}

func sortedIDs[V any](m map[uint]V, desc bool) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if desc {
			return ids[i] > ids[j]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// ============================================================
// Users & tokens
// ============================================================

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	if err := r.s.fail("Users.Create"); err != nil {
		return err
	}
	for _, u := range r.s.d.users {
		if u.Username == user.Username {
			return domain.ErrDuplicateEntry
		}
	}
	user.ID = r.s.d.nextID()
	user.CreatedAt = r.s.d.clock()
	row := *user
	row.Groups = nil
	r.s.d.users[user.ID] = row
	return nil
}

func (r memUsers) withGroups(u models.User) *models.User {
	for _, g := range r.s.d.userGroups[u.ID] {
		u.Groups = append(u.Groups, models.Group{Name: g})
	}
	return &u
}

func (r memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.withGroups(u), nil
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.s.d.users {
		if u.Username == username {
			return r.withGroups(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUsers) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.s.d.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	row := *user
	row.Groups = nil
	r.s.d.users[user.ID] = row
	return nil
}

func (r memUsers) Delete(ctx context.Context, id uint) error {
	if _, ok := r.s.d.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.d.users, id)
	delete(r.s.d.userGroups, id)
	delete(r.s.d.userRoles, id)
	return nil
}

func (r memUsers) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var out []*models.User
	for _, id := range sortedIDs(r.s.d.users, false) {
		out = append(out, r.withGroups(r.s.d.users[id]))
	}
	return window(out, offset, limit), int64(len(out)), nil
}

func (r memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range r.s.d.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) AddToGroup(ctx context.Context, userID uint, groupName string) error {
	r.s.d.userGroups[userID] = append(r.s.d.userGroups[userID], groupName)
	return nil
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ID = r.s.d.nextID()
	token.CreatedAt = r.s.d.clock()
	r.s.d.tokens[token.ID] = *token
	return nil
}

func (r memTokens) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	for _, t := range r.s.d.tokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memTokens) revoke(match func(models.RefreshToken) bool) int {
	now := r.s.d.clock()
	n := 0
	for id, t := range r.s.d.tokens {
		if t.RevokedAt == nil && match(t) {
			t.RevokedAt = &now
			r.s.d.tokens[id] = t
			n++
		}
	}
	return n
}

func (r memTokens) Revoke(ctx context.Context, id uint) (bool, error) {
	return r.revoke(func(t models.RefreshToken) bool { return t.ID == id }) == 1, nil
}

func (r memTokens) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	r.revoke(func(t models.RefreshToken) bool { return t.TokenHash == tokenHash })
	return nil
}

func (r memTokens) RevokeAllByUserID(ctx context.Context, userID uint) error {
	r.revoke(func(t models.RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (r memTokens) DeleteExpired(ctx context.Context) (int64, error) {
	now := r.s.d.clock()
	var n int64
	for id, t := range r.s.d.tokens {
		if t.RevokedAt != nil || now.After(t.ExpiresAt) {
			delete(r.s.d.tokens, id)
			n++
		}
	}
	return n, nil
}

// ============================================================
// Roles
// ============================================================

type memRoles struct{ s *memStore }

func (r memRoles) Create(ctx context.Context, role *models.Role) error {
	for _, existing := range r.s.d.roles {
		if existing.Name == role.Name {
			return domain.ErrDuplicateEntry
		}
	}
	role.ID = r.s.d.nextID()
	r.s.d.roles[role.ID] = *role
	return nil
}

func (r memRoles) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	role, ok := r.s.d.roles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &role, nil
}

func (r memRoles) Update(ctx context.Context, role *models.Role) error {
	r.s.d.roles[role.ID] = *role
	return nil
}

func (r memRoles) Delete(ctx context.Context, id uint) error {
	if _, ok := r.s.d.roles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.d.roles, id)
	for userID, roleID := range r.s.d.userRoles {
		if roleID == id {
			delete(r.s.d.userRoles, userID)
		}
	}
	return nil
}

func (r memRoles) List(ctx context.Context) ([]*models.Role, error) {
	var out []*models.Role
	for _, id := range sortedIDs(r.s.d.roles, false) {
		role := r.s.d.roles[id]
		out = append(out, &role)
	}
	return out, nil
}

func (r memRoles) GetForUser(ctx context.Context, userID uint) (*models.Role, error) {
	roleID, ok := r.s.d.userRoles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, roleID)
}

func (r memRoles) AssignToUser(ctx context.Context, userID uint, roleID *uint) error {
	if roleID == nil {
		delete(r.s.d.userRoles, userID)
		return nil
	}
	r.s.d.userRoles[userID] = *roleID
	return nil
}

// ============================================================
// Members & savings
// ============================================================

type memMembers struct{ s *memStore }

func (r memMembers) Create(ctx context.Context, member *models.Member) error {
	if err := r.s.fail("Members.Create"); err != nil {
		return err
	}
	for _, m := range r.s.d.members {
		if m.NationalID == member.NationalID || m.MemberNo == member.MemberNo {
			return domain.ErrDuplicateEntry
		}
	}
	member.ID = r.s.d.nextID()
	member.CreatedAt = r.s.d.clock()
	row := *member
	row.SavingAccount = nil
	r.s.d.members[member.ID] = row
	return nil
}

func (r memMembers) load(m models.Member) *models.Member {
	for _, a := range r.s.d.accounts {
		if a.MemberID == m.ID {
			account := a
			m.SavingAccount = &account
		}
	}
	return &m
}

func (r memMembers) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	m, ok := r.s.d.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(m), nil
}

func (r memMembers) GetByIDs(ctx context.Context, ids []uint) ([]*models.Member, error) {
	var out []*models.Member
	for _, id := range ids {
		if m, ok := r.s.d.members[id]; ok {
			out = append(out, r.load(m))
		}
	}
	return out, nil
}

func (r memMembers) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	for _, m := range r.s.d.members {
		if m.UserID != nil && *m.UserID == userID {
			return r.load(m), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memMembers) ExistsByMemberNo(ctx context.Context, memberNo string) (bool, error) {
	for _, m := range r.s.d.members {
		if m.MemberNo == memberNo {
			return true, nil
		}
	}
	return false, nil
}

func (r memMembers) Update(ctx context.Context, member *models.Member) error {
	if _, ok := r.s.d.members[member.ID]; !ok {
		return domain.ErrNotFound
	}
	row := *member
	row.SavingAccount = nil
	r.s.d.members[member.ID] = row
	return nil
}

func (r memMembers) Delete(ctx context.Context, id uint) error {
	if _, ok := r.s.d.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.d.members, id)
	for aid, a := range r.s.d.accounts {
		if a.MemberID == id {
			delete(r.s.d.accounts, aid)
		}
	}
	for lid, l := range r.s.d.loans {
		if l.MemberID == id {
			delete(r.s.d.loans, lid)
		}
	}
	return nil
}

func (r memMembers) List(ctx context.Context, filter repositories.MemberFilter, offset, limit int) ([]*models.Member, int64, error) {
	q := strings.ToLower(filter.Query)
	var out []*models.Member
	for _, id := range sortedIDs(r.s.d.members, true) {
		m := r.s.d.members[id]
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if q != "" {
			haystack := strings.ToLower(strings.Join([]string{m.MemberNo, m.FirstName, m.LastName, m.NationalID, m.Phone, m.Email}, " "))
			if !strings.Contains(haystack, q) {
				continue
			}
		}
		out = append(out, r.load(m))
	}
	return window(out, offset, limit), int64(len(out)), nil
}

func (r memMembers) Count(ctx context.Context, status string) (int64, error) {
	var n int64
	for _, m := range r.s.d.members {
		if status == "" || m.Status == status {
			n++
		}
	}
	return n, nil
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(ctx context.Context, account *models.SavingAccount) error {
	for _, a := range r.s.d.accounts {
		if a.MemberID == account.MemberID {
			return domain.ErrDuplicateEntry
		}
	}
	account.ID = r.s.d.nextID()
	account.CreatedAt = r.s.d.clock()
	row := *account
	row.Member = nil
	r.s.d.accounts[account.ID] = row
	return nil
}

func (r memAccounts) load(a models.SavingAccount) *models.SavingAccount {
	if m, ok := r.s.d.members[a.MemberID]; ok {
		a.Member = &m
	}
	return &a
}

func (r memAccounts) GetByID(ctx context.Context, id uint) (*models.SavingAccount, error) {
	a, ok := r.s.d.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(a), nil
}

func (r memAccounts) GetByMemberID(ctx context.Context, memberID uint) (*models.SavingAccount, error) {
	for _, a := range r.s.d.accounts {
		if a.MemberID == memberID {
			return r.load(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memAccounts) LockByID(ctx context.Context, id uint) (*models.SavingAccount, error) {
	return r.GetByID(ctx, id)
}

func (r memAccounts) UpdateBalance(ctx context.Context, id uint, balance decimal.Decimal) error {
	a, ok := r.s.d.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Balance = balance
	r.s.d.accounts[id] = a
	return nil
}

func (r memAccounts) List(ctx context.Context, offset, limit int) ([]*models.SavingAccount, int64, error) {
	var out []*models.SavingAccount
	for _, id := range sortedIDs(r.s.d.accounts, false) {
		out = append(out, r.load(r.s.d.accounts[id]))
	}
	return window(out, offset, limit), int64(len(out)), nil
}

func (r memAccounts) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.s.d.accounts {
		sum = sum.Add(a.Balance)
	}
	return sum, nil
}

type memTxns struct{ s *memStore }

func (r memTxns) Create(ctx context.Context, txn *models.SavingTransaction) error {
	txn.ID = r.s.d.nextID()
	txn.CreatedAt = r.s.d.clock()
	r.s.d.txns[txn.ID] = *txn
	return nil
}

func (r memTxns) ListByAccount(ctx context.Context, accountID uint, offset, limit int) ([]*models.SavingTransaction, int64, error) {
	var out []*models.SavingTransaction
	for _, id := range sortedIDs(r.s.d.txns, true) {
		t := r.s.d.txns[id]
		if t.AccountID == accountID {
			out = append(out, &t)
		}
	}
	return window(out, offset, limit), int64(len(out)), nil
}

// ============================================================
// Loans
// ============================================================

type memLoans struct{ s *memStore }

func (r memLoans) Create(ctx context.Context, loan *models.Loan) error {
	loan.ID = r.s.d.nextID()
	loan.CreatedAt = r.s.d.clock()
	r.s.d.loans[loan.ID] = r.strip(*loan)
	return nil
}

func (r memLoans) strip(l models.Loan) models.Loan {
	l.Member = nil
	l.Repayments = nil
	l.Guarantors = nil
	return l
}

func (r memLoans) load(l models.Loan, full bool) *models.Loan {
	if m, ok := r.s.d.members[l.MemberID]; ok {
		l.Member = &m
	}
	if full {
		for _, id := range sortedIDs(r.s.d.repayments, true) {
			if rp := r.s.d.repayments[id]; rp.LoanID == l.ID {
				l.Repayments = append(l.Repayments, rp)
			}
		}
		for _, id := range sortedIDs(r.s.d.guarantors, false) {
			if g := r.s.d.guarantors[id]; g.LoanID == l.ID {
				l.Guarantors = append(l.Guarantors, g)
			}
		}
	}
	return &l
}

func (r memLoans) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	l, ok := r.s.d.loans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(l, true), nil
}

func (r memLoans) LockByID(ctx context.Context, id uint) (*models.Loan, error) {
	l, ok := r.s.d.loans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(l, false), nil
}

func (r memLoans) Update(ctx context.Context, loan *models.Loan) error {
	if err := r.s.fail("Loans.Update"); err != nil {
		return err
	}
	if _, ok := r.s.d.loans[loan.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.d.loans[loan.ID] = r.strip(*loan)
	return nil
}

func (r memLoans) List(ctx context.Context, filter repositories.LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	var out []*models.Loan
	for _, id := range sortedIDs(r.s.d.loans, true) {
		l := r.s.d.loans[id]
		if filter.MemberID != 0 && l.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, r.load(l, false))
	}
	return window(out, offset, limit), int64(len(out)), nil
}

func (r memLoans) Count(ctx context.Context, status string) (int64, error) {
	var n int64
	for _, l := range r.s.d.loans {
		if status == "" || l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r memLoans) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.Loan, error) {
	var out []*models.Loan
	for _, id := range sortedIDs(r.s.d.loans, false) {
		l := r.s.d.loans[id]
		if l.Status == string(domain.LoanApproved) && l.EndDate.Before(asOf) && l.CurrentBalance.IsPositive() {
			out = append(out, r.load(l, false))
		}
	}
	return out, nil
}

type memRepayments struct{ s *memStore }

func (r memRepayments) Create(ctx context.Context, repayment *models.LoanRepayment) error {
	repayment.ID = r.s.d.nextID()
	repayment.CreatedAt = r.s.d.clock()
	r.s.d.repayments[repayment.ID] = *repayment
	return nil
}

func (r memRepayments) GetByID(ctx context.Context, id uint) (*models.LoanRepayment, error) {
	rp, ok := r.s.d.repayments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rp, nil
}

func (r memRepayments) Delete(ctx context.Context, id uint) error {
	if _, ok := r.s.d.repayments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.d.repayments, id)
	return nil
}

func (r memRepayments) ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanRepayment, error) {
	var out []*models.LoanRepayment
	for _, id := range sortedIDs(r.s.d.repayments, true) {
		rp := r.s.d.repayments[id]
		if rp.LoanID == loanID {
			out = append(out, &rp)
		}
	}
	return out, nil
}

func (r memRepayments) SumByLoan(ctx context.Context, loanID uint) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, rp := range r.s.d.repayments {
		if rp.LoanID == loanID {
			sum = sum.Add(rp.AmountPaid)
		}
	}
	return sum, nil
}

type memGuarantors struct{ s *memStore }

func (r memGuarantors) CreateBatch(ctx context.Context, guarantors []*models.LoanGuarantor) error {
	for _, g := range guarantors {
		g.ID = r.s.d.nextID()
		row := *g
		row.GuarantorMember = nil
		r.s.d.guarantors[g.ID] = row
	}
	return nil
}

func (r memGuarantors) ListByLoan(ctx context.Context, loanID uint) ([]*models.LoanGuarantor, error) {
	var out []*models.LoanGuarantor
	for _, id := range sortedIDs(r.s.d.guarantors, false) {
		g := r.s.d.guarantors[id]
		if g.LoanID == loanID {
			out = append(out, &g)
		}
	}
	return out, nil
}

func (r memGuarantors) CountOpenByMember(ctx context.Context, memberID uint) (int64, error) {
	var n int64
	for _, g := range r.s.d.guarantors {
		if g.GuarantorMemberID != memberID {
			continue
		}
		loan, ok := r.s.d.loans[g.LoanID]
		if ok && loan.Status != string(domain.LoanRejected) && loan.Status != string(domain.LoanPaid) {
			n++
		}
	}
	return n, nil
}

func (r memGuarantors) DeleteByMember(ctx context.Context, memberID uint) (int64, error) {
	var n int64
	for id, g := range r.s.d.guarantors {
		if g.GuarantorMemberID == memberID {
			delete(r.s.d.guarantors, id)
			n++
		}
	}
	return n, nil
}

func (r memGuarantors) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	var n int64
	for _, g := range r.s.d.guarantors {
		if g.LoanID == loanID {
			n++
		}
	}
	return n, nil
}

// ============================================================
// Inbox, audit & settings
// ============================================================

type memAdminNotes struct{ s *memStore }

func (r memAdminNotes) Create(ctx context.Context, n *models.AdminNotification) error {
	if err := r.s.fail("AdminNotifications.Create"); err != nil {
		return err
	}
	n.ID = r.s.d.nextID()
	n.CreatedAt = r.s.d.clock()
	r.s.d.adminNotes[n.ID] = *n
	return nil
}

func (r memAdminNotes) GetByID(ctx context.Context, id uint) (*models.AdminNotification, error) {
	n, ok := r.s.d.adminNotes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r memAdminNotes) List(ctx context.Context, unreadOnly bool, offset, limit int) ([]*models.AdminNotification, int64, error) {
	var out []*models.AdminNotification
	for _, id := range sortedIDs(r.s.d.adminNotes, true) {
		n := r.s.d.adminNotes[id]
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, &n)
	}
	return window(out, offset, limit), int64(len(out)), nil
}

func (r memAdminNotes) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	for _, note := range r.s.d.adminNotes {
		if !note.IsRead {
			n++
		}
	}
	return n, nil
}

func (r memAdminNotes) Latest(ctx context.Context, limit int) ([]*models.AdminNotification, error) {
	out, _, err := r.List(ctx, false, 0, limit)
	return out, err
}

func (r memAdminNotes) MarkRead(ctx context.Context, id uint) error {
	n, ok := r.s.d.adminNotes[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.IsRead = true
	r.s.d.adminNotes[id] = n
	return nil
}

func (r memAdminNotes) MarkAllRead(ctx context.Context) (int64, error) {
	var count int64
	for id, n := range r.s.d.adminNotes {
		if !n.IsRead {
			n.IsRead = true
			r.s.d.adminNotes[id] = n
			count++
		}
	}
	return count, nil
}

func (r memAdminNotes) ExistsForLoanSince(ctx context.Context, loanID uint, notificationType string, since time.Time) (bool, error) {
	for _, n := range r.s.d.adminNotes {
		if n.LoanID != nil && *n.LoanID == loanID && n.Type == notificationType && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// ofType returns the admin notifications of one type, oldest first
func (s *memStore) ofType(kind domain.NotificationType) []models.AdminNotification {
	var out []models.AdminNotification
	for _, id := range sortedIDs(s.d.adminNotes, false) {
		if n := s.d.adminNotes[id]; n.Type == string(kind) {
			out = append(out, n)
		}
	}
	return out
}

type memNotes struct{ s *memStore }

func (r memNotes) Create(ctx context.Context, n *models.Notification) error {
	n.ID = r.s.d.nextID()
	n.CreatedAt = r.s.d.clock()
	r.s.d.notes[n.ID] = *n
	return nil
}

func (r memNotes) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	n, ok := r.s.d.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (r memNotes) list(match func(models.Notification) bool, offset, limit int) ([]*models.Notification, int64) {
	var out []*models.Notification
	for _, id := range sortedIDs(r.s.d.notes, true) {
		n := r.s.d.notes[id]
		if match(n) {
			out = append(out, &n)
		}
	}
	return window(out, offset, limit), int64(len(out))
}

func (r memNotes) ListByMember(ctx context.Context, memberID uint, offset, limit int) ([]*models.Notification, int64, error) {
	out, total := r.list(func(n models.Notification) bool {
		return !n.IsSupport && n.MemberID != nil && *n.MemberID == memberID
	}, offset, limit)
	return out, total, nil
}

func (r memNotes) ListSupport(ctx context.Context, offset, limit int) ([]*models.Notification, int64, error) {
	out, total := r.list(func(n models.Notification) bool { return n.IsSupport }, offset, limit)
	return out, total, nil
}

func (r memNotes) CountUnreadByMember(ctx context.Context, memberID uint) (int64, error) {
	_, total := r.list(func(n models.Notification) bool {
		return !n.IsSupport && !n.IsRead && n.MemberID != nil && *n.MemberID == memberID
	}, 0, 0)
	return total, nil
}

func (r memNotes) MarkRead(ctx context.Context, id uint) error {
	n, ok := r.s.d.notes[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.IsRead = true
	r.s.d.notes[id] = n
	return nil
}

type memLogs struct{ s *memStore }

func (r memLogs) Create(ctx context.Context, log *models.UserActivityLog) error {
	log.ID = r.s.d.nextID()
	log.Timestamp = r.s.d.clock()
	r.s.d.logs[log.ID] = *log
	return nil
}

func (r memLogs) List(ctx context.Context, memberID uint, offset, limit int) ([]*models.UserActivityLog, int64, error) {
	var out []*models.UserActivityLog
	for _, id := range sortedIDs(r.s.d.logs, true) {
		l := r.s.d.logs[id]
		if memberID == 0 || l.MemberID == memberID {
			out = append(out, &l)
		}
	}
	return window(out, offset, limit), int64(len(out)), nil
}

func (r memLogs) Recent(ctx context.Context, memberID uint, limit int) ([]*models.UserActivityLog, error) {
	out, _, err := r.List(ctx, memberID, 0, limit)
	return out, err
}

type memSettings struct{ s *memStore }

func (r memSettings) Get(ctx context.Context) (*models.SystemSetting, error) {
	if r.s.d.setting == nil {
		return nil, domain.ErrNotFound
	}
	setting := *r.s.d.setting
	return &setting, nil
}

func (r memSettings) Save(ctx context.Context, setting *models.SystemSetting) error {
	if setting.ID == 0 {
		setting.ID = 1
	}
	row := *setting
	r.s.d.setting = &row
	return nil
}

// ============================================================
// Fixtures
// ============================================================

// memCache is a Cache backed by a map; values are stored as-is
type memCache struct {
	values  map[string]any
	deletes int
	err     error
}

func newMemCache() *memCache {
	return &memCache{values: map[string]any{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	if data, ok := v.(*AdminDashboardData); ok {
		if out, ok := dest.(*AdminDashboardData); ok {
			*out = *data
			return true, nil
		}
	}
	return false, errors.New("memCache: unsupported type")
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.values[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.deletes++
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

var staff = Actor{UserID: 1, Username: "teller", IP: "10.0.0.1"}

// seedMember inserts an active member with an account holding balance
func seedMember(s *memStore, first, last, nationalID string, balance decimal.Decimal) (*models.Member, *models.SavingAccount) {
	ctx := context.Background()
	m := &models.Member{
		MemberNo:   "DEV-2025-" + nationalID,
		FirstName:  first,
		LastName:   last,
		Phone:      "0700" + nationalID,
		Email:      strings.ToLower(first) + "@example.com",
		NationalID: nationalID,
		Status:     string(domain.MemberActive),
	}
	_ = s.Members().Create(ctx, m)
	a := &models.SavingAccount{MemberID: m.ID, Balance: balance}
	_ = s.Accounts().Create(ctx, a)
	return m, a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
