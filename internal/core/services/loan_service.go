package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/pkg/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// daysPerMonth approximates a month when deriving a loan's end date
const daysPerMonth = 30

// LoanService originates loans and keeps their balances
type LoanService struct {
	store       repositories.Store
	cache       Cache
	defaultRate decimal.Decimal
	now         func() time.Time
}

// NewLoanService creates a new loan service. defaultRate applies when a
// loan omits its rate and no settings row exists.
func NewLoanService(store repositories.Store, cache Cache, defaultRate decimal.Decimal) *LoanService {
	return &LoanService{
		store:       store,
		cache:       cache,
		defaultRate: defaultRate.Round(RateScale),
		now:         time.Now,
	}
}

// OriginateLoanInput represents a loan application
type OriginateLoanInput struct {
	MemberID        uint             `json:"member_id" validate:"required"`
	PrincipalAmount decimal.Decimal  `json:"principal_amount"`
	InterestRate    *decimal.Decimal `json:"interest_rate"`
	TermMonths      int              `json:"term_months" validate:"required,gt=0,lte=600"`
	StartDate       *time.Time       `json:"start_date"`
	EndDate         *time.Time       `json:"end_date"`
	Remark          string           `json:"remark" validate:"max=1000"`
}

// RepaymentInput represents a repayment against a loan
type RepaymentInput struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
	DatePaid   *time.Time      `json:"date_paid"`
}

// OriginateLoan creates a pending loan whose current balance starts at the principal
func (s *LoanService) OriginateLoan(ctx context.Context, actor Actor, in OriginateLoanInput) (*LoanView, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !in.PrincipalAmount.Round(2).IsPositive() {
		return nil, domain.NewValidationError("principal amount must be positive")
	}
	if in.InterestRate != nil {
		if err := checkRate(*in.InterestRate, "interest rate"); err != nil {
			return nil, err
		}
	}

	var loan *models.Loan
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		member, err := tx.Members().GetByID(ctx, in.MemberID)
		if err != nil {
			return notFound(err, domain.ErrMemberNotFound)
		}
		if member.Status != string(domain.MemberActive) {
			return domain.NewValidationError("member %s is %s and cannot borrow", member.MemberNo, member.Status)
		}

		setting, err := loadSetting(ctx, tx)
		if err != nil {
			return err
		}
		principal := in.PrincipalAmount.Round(2)
		if err := checkLoanLimits(setting, principal, in.TermMonths); err != nil {
			return err
		}

		rate := s.defaultRate
		if setting != nil {
			rate = setting.DefaultInterestRate
		}
		if in.InterestRate != nil {
			rate = *in.InterestRate
		}

		start := s.now().UTC().Truncate(24 * time.Hour)
		if in.StartDate != nil {
			start = in.StartDate.UTC()
		}
		end := start.AddDate(0, 0, in.TermMonths*daysPerMonth)
		if in.EndDate != nil {
			end = in.EndDate.UTC()
		}
		if !end.After(start) {
			return domain.NewValidationError("end date must be after start date")
		}

		loan = &models.Loan{
			MemberID:        member.ID,
			PrincipalAmount: principal,
			InterestRate:    rate,
			TermMonths:      in.TermMonths,
			StartDate:       start,
			EndDate:         end,
			CurrentBalance:  principal,
			Status:          string(domain.LoanPending),
			Remark:          in.Remark,
		}
		if err := tx.Loans().Create(ctx, loan); err != nil {
			return err
		}
		loan.Member = member

		message := fmt.Sprintf("New loan application #%d of %s for %s (%s) over %d months",
			loan.ID, principal.StringFixed(2), member.FullName(), member.MemberNo, in.TermMonths)
		if err := notifyAdmin(ctx, tx, domain.NotifyLoan, message, notificationRefs{
			MemberID: uintPtr(member.ID),
			LoanID:   uintPtr(loan.ID),
		}); err != nil {
			return err
		}
		return logActivity(ctx, tx, member.ID, fmt.Sprintf("Applied for loan #%d of %s", loan.ID, principal.StringFixed(2)), actor.IP)
	})
	if err != nil {
		s.logFailure("Loan origination failed", actor, 0, err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"loan_id":   loan.ID,
		"member_id": loan.MemberID,
		"principal": loan.PrincipalAmount.StringFixed(2),
		"rate":      loan.InterestRate.String(),
		"term":      loan.TermMonths,
		"actor":     actor.Label(),
	}).Info("Loan originated")

	invalidateDashboard(ctx, s.cache)
	return newLoanView(loan), nil
}

// ApproveLoan moves a pending loan to approved
func (s *LoanService) ApproveLoan(ctx context.Context, actor Actor, loanID uint, remark string) (*LoanView, error) {
	return s.decide(ctx, actor, loanID, domain.LoanApproved, remark)
}

// RejectLoan moves a pending loan to rejected
func (s *LoanService) RejectLoan(ctx context.Context, actor Actor, loanID uint, remark string) (*LoanView, error) {
	return s.decide(ctx, actor, loanID, domain.LoanRejected, remark)
}

func (s *LoanService) decide(ctx context.Context, actor Actor, loanID uint, to domain.LoanStatus, remark string) (*LoanView, error) {
	var loan *models.Loan
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		var err error
		loan, err = tx.Loans().LockByID(ctx, loanID)
		if err != nil {
			return notFound(err, domain.ErrLoanNotFound)
		}
		if loan.Status != string(domain.LoanPending) {
			return domain.NewValidationError("only pending loans can be %s (loan is %s)", to, loan.Status)
		}

		loan.Status = string(to)
		if remark != "" {
			loan.Remark = remark
		}
		if to == domain.LoanApproved {
			now := s.now()
			loan.ApprovedAt = &now
			if actor.UserID != 0 {
				loan.ApprovedBy = uintPtr(actor.UserID)
			}
		}
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}

		message := fmt.Sprintf("Loan #%d of %s was %s by %s", loan.ID, loan.PrincipalAmount.StringFixed(2), to, actor.Label())
		if err := notifyAdmin(ctx, tx, domain.NotifyLoan, message, notificationRefs{
			MemberID: uintPtr(loan.MemberID),
			LoanID:   uintPtr(loan.ID),
		}); err != nil {
			return err
		}
		title := "Loan approved"
		body := fmt.Sprintf("Your loan #%d of %s has been approved.", loan.ID, loan.PrincipalAmount.StringFixed(2))
		if to == domain.LoanRejected {
			title = "Loan rejected"
			body = fmt.Sprintf("Your loan #%d of %s has been rejected.", loan.ID, loan.PrincipalAmount.StringFixed(2))
		}
		if remark != "" {
			body += " Remark: " + remark
		}
		return notifyMember(ctx, tx, loan.MemberID, title, body)
	})
	if err != nil {
		s.logFailure("Loan decision failed", actor, loanID, err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"loan_id": loan.ID,
		"status":  loan.Status,
		"actor":   actor.Label(),
	}).Info("Loan decided")

	invalidateDashboard(ctx, s.cache)
	return newLoanView(loan), nil
}

// AttachGuarantors records the three members standing surety for a loan
func (s *LoanService) AttachGuarantors(ctx context.Context, actor Actor, loanID uint, memberIDs []uint) ([]*models.LoanGuarantor, error) {
	if len(memberIDs) != domain.RequiredGuarantors {
		return nil, domain.NewValidationError("exactly %d guarantors are required", domain.RequiredGuarantors)
	}
	seen := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		if seen[id] {
			return nil, domain.NewValidationError("guarantors must be distinct members")
		}
		seen[id] = true
	}

	var guarantors []*models.LoanGuarantor
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		loan, err := tx.Loans().LockByID(ctx, loanID)
		if err != nil {
			return notFound(err, domain.ErrLoanNotFound)
		}
		if seen[loan.MemberID] {
			return domain.NewValidationError("the borrower cannot guarantee their own loan")
		}
		if domain.LoanStatus(loan.Status).Terminal() {
			return domain.NewValidationError("guarantors cannot be attached to a %s loan", loan.Status)
		}
		count, err := tx.Guarantors().CountByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewValidationError("loan already has guarantors")
		}

		members, err := tx.Members().GetByIDs(ctx, memberIDs)
		if err != nil {
			return err
		}
		byID := make(map[uint]*models.Member, len(members))
		for _, m := range members {
			byID[m.ID] = m
		}

		guarantors = make([]*models.LoanGuarantor, 0, len(memberIDs))
		for _, id := range memberIDs {
			m, ok := byID[id]
			if !ok {
				return fmt.Errorf("guarantor %d: %w", id, domain.ErrMemberNotFound)
			}
			guarantors = append(guarantors, &models.LoanGuarantor{
				LoanID:            loan.ID,
				GuarantorMemberID: m.ID,
				FullName:          m.FullName(),
				Phone:             m.Phone,
				Email:             m.Email,
			})
		}
		if err := tx.Guarantors().CreateBatch(ctx, guarantors); err != nil {
			return err
		}

		message := fmt.Sprintf("%d guarantors attached to loan #%d by %s", len(guarantors), loan.ID, actor.Label())
		return notifyAdmin(ctx, tx, domain.NotifyLoan, message, notificationRefs{
			MemberID: uintPtr(loan.MemberID),
			LoanID:   uintPtr(loan.ID),
		})
	})
	if err != nil {
		s.logFailure("Attaching guarantors failed", actor, loanID, err)
		return nil, err
	}
	return guarantors, nil
}

// RecordRepayment applies a repayment to an approved loan. The balance is
// recomputed as max(principal - sum of repayments, 0) in the same
// transaction; reaching zero marks the loan paid.
func (s *LoanService) RecordRepayment(ctx context.Context, actor Actor, loanID uint, in RepaymentInput) (*models.LoanRepayment, error) {
	amount := in.AmountPaid.Round(2)
	if !amount.IsPositive() {
		return nil, domain.ErrAmountNotPositive
	}

	var repayment *models.LoanRepayment
	var loan *models.Loan
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		var err error
		loan, err = tx.Loans().LockByID(ctx, loanID)
		if err != nil {
			return notFound(err, domain.ErrLoanNotFound)
		}
		if loan.Status != string(domain.LoanApproved) {
			return domain.NewValidationError("repayments can only be recorded against approved loans (loan is %s)", loan.Status)
		}

		repaid, err := tx.Repayments().SumByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}
		balance := recomputedBalance(loan.PrincipalAmount, repaid.Add(amount))

		datePaid := s.now()
		if in.DatePaid != nil {
			datePaid = *in.DatePaid
		}
		repayment = &models.LoanRepayment{
			LoanID:              loan.ID,
			AmountPaid:          amount,
			BalanceAfterPayment: balance,
			DatePaid:            datePaid,
			RecordedBy:          actor.Label(),
		}
		if err := tx.Repayments().Create(ctx, repayment); err != nil {
			return err
		}

		loan.CurrentBalance = balance
		if balance.IsZero() {
			loan.Status = string(domain.LoanPaid)
		}
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}

		message := fmt.Sprintf("%s recorded a repayment of %s on loan #%d, balance %s",
			actor.Label(), amount.StringFixed(2), loan.ID, balance.StringFixed(2))
		if err := notifyAdmin(ctx, tx, domain.NotifyLoan, message, notificationRefs{
			MemberID: uintPtr(loan.MemberID),
			LoanID:   uintPtr(loan.ID),
		}); err != nil {
			return err
		}
		if loan.Status == string(domain.LoanPaid) {
			if err := notifyMember(ctx, tx, loan.MemberID, "Loan fully repaid",
				fmt.Sprintf("Your loan #%d has been fully repaid.", loan.ID)); err != nil {
				return err
			}
		}
		return logActivity(ctx, tx, loan.MemberID,
			fmt.Sprintf("Loan #%d repayment of %s, balance %s", loan.ID, amount.StringFixed(2), balance.StringFixed(2)), actor.IP)
	})
	if err != nil {
		s.logFailure("Loan repayment failed", actor, loanID, err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"loan_id":       loan.ID,
		"repayment_id":  repayment.ID,
		"amount":        amount.StringFixed(2),
		"balance_after": repayment.BalanceAfterPayment.StringFixed(2),
		"status":        loan.Status,
		"actor":         actor.Label(),
	}).Info("Loan repayment")

	invalidateDashboard(ctx, s.cache)
	return repayment, nil
}

// DeleteRepayment removes a repayment and recomputes the loan balance.
// A paid loan whose balance becomes positive again returns to approved.
func (s *LoanService) DeleteRepayment(ctx context.Context, actor Actor, loanID, repaymentID uint) (*LoanView, error) {
	var loan *models.Loan
	err := runAtomic(ctx, s.store, func(tx repositories.Store) error {
		var err error
		loan, err = tx.Loans().LockByID(ctx, loanID)
		if err != nil {
			return notFound(err, domain.ErrLoanNotFound)
		}
		repayment, err := tx.Repayments().GetByID(ctx, repaymentID)
		if err != nil || repayment.LoanID != loan.ID {
			if err == nil || errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("repayment: %w", domain.ErrNotFound)
			}
			return err
		}
		if err := tx.Repayments().Delete(ctx, repayment.ID); err != nil {
			return err
		}

		repaid, err := tx.Repayments().SumByLoan(ctx, loan.ID)
		if err != nil {
			return err
		}
		loan.CurrentBalance = recomputedBalance(loan.PrincipalAmount, repaid)
		switch {
		case loan.Status == string(domain.LoanPaid) && loan.CurrentBalance.IsPositive():
			loan.Status = string(domain.LoanApproved)
		case loan.Status == string(domain.LoanApproved) && loan.CurrentBalance.IsZero():
			loan.Status = string(domain.LoanPaid)
		}
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}

		message := fmt.Sprintf("%s deleted a repayment of %s on loan #%d, balance %s",
			actor.Label(), repayment.AmountPaid.StringFixed(2), loan.ID, loan.CurrentBalance.StringFixed(2))
		return notifyAdmin(ctx, tx, domain.NotifyLoan, message, notificationRefs{
			MemberID: uintPtr(loan.MemberID),
			LoanID:   uintPtr(loan.ID),
		})
	})
	if err != nil {
		s.logFailure("Repayment deletion failed", actor, loanID, err)
		return nil, err
	}

	invalidateDashboard(ctx, s.cache)
	return newLoanView(loan), nil
}

// GetLoan returns a loan with guarantors, repayments and derived figures
func (s *LoanService) GetLoan(ctx context.Context, id uint) (*LoanView, error) {
	loan, err := s.store.Loans().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return newLoanView(loan), nil
}

// ListLoans lists loans with derived figures
func (s *LoanService) ListLoans(ctx context.Context, filter repositories.LoanFilter, page Page) ([]*LoanView, int64, error) {
	loans, total, err := s.store.Loans().List(ctx, filter, page.Offset, page.Limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*LoanView, len(loans))
	for i, loan := range loans {
		views[i] = newLoanView(loan)
	}
	return views, total, nil
}

// ListRepayments lists a loan's repayments, newest first
func (s *LoanService) ListRepayments(ctx context.Context, loanID uint) ([]*models.LoanRepayment, error) {
	if _, err := s.store.Loans().GetByID(ctx, loanID); err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return s.store.Repayments().ListByLoan(ctx, loanID)
}

// ListGuarantors lists a loan's guarantors
func (s *LoanService) ListGuarantors(ctx context.Context, loanID uint) ([]*models.LoanGuarantor, error) {
	if _, err := s.store.Loans().GetByID(ctx, loanID); err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return s.store.Guarantors().ListByLoan(ctx, loanID)
}

// RemainingBalanceView is the straight-line projection for a loan
type RemainingBalanceView struct {
	LoanID           uint            `json:"loan_id"`
	MonthsPaid       int             `json:"months_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Remaining projects the amount owed after monthsPaid instalments
func (s *LoanService) Remaining(ctx context.Context, loanID uint, monthsPaid int) (*RemainingBalanceView, error) {
	loan, err := s.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	if monthsPaid < 0 {
		return nil, domain.NewValidationError("months_paid cannot be negative")
	}
	if monthsPaid > loan.TermMonths {
		monthsPaid = loan.TermMonths
	}
	return &RemainingBalanceView{
		LoanID:           loan.ID,
		MonthsPaid:       monthsPaid,
		RemainingBalance: RemainingBalance(loan.PrincipalAmount, loan.InterestRate, loan.TermMonths, monthsPaid),
	}, nil
}

func (s *LoanService) logFailure(msg string, actor Actor, loanID uint, err error) {
	logrus.WithFields(logrus.Fields{
		"loan_id": loanID,
		"actor":   actor.Label(),
		"error":   err.Error(),
	}).Error(msg)
}

// loadSetting returns the settings row, or nil when none exists
func loadSetting(ctx context.Context, tx repositories.Store) (*models.SystemSetting, error) {
	setting, err := tx.Settings().Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return setting, err
}

// checkLoanLimits enforces the configured bounds; zero means unbounded
func checkLoanLimits(setting *models.SystemSetting, principal decimal.Decimal, termMonths int) error {
	if setting == nil {
		return nil
	}
	if setting.MinLoanAmount.IsPositive() && principal.LessThan(setting.MinLoanAmount) {
		return domain.NewValidationError("principal amount is below the minimum of %s", setting.MinLoanAmount.StringFixed(2))
	}
	if setting.MaxLoanAmount.IsPositive() && principal.GreaterThan(setting.MaxLoanAmount) {
		return domain.NewValidationError("principal amount exceeds the maximum of %s", setting.MaxLoanAmount.StringFixed(2))
	}
	if setting.MaxTermMonths > 0 && termMonths > setting.MaxTermMonths {
		return domain.NewValidationError("term exceeds the maximum of %d months", setting.MaxTermMonths)
	}
	return nil
}
