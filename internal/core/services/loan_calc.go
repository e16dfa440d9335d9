package services

import (
	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Interest is simple and straight-line: the monthly charge is computed
// once from the principal and never against the running balance.

// MonthlyInterest = principal × rate, rounded half-up to 2 places
func MonthlyInterest(principal, rate decimal.Decimal) decimal.Decimal {
	return principal.Mul(rate).Round(2)
}

// TotalPayable = principal + MonthlyInterest × term
func TotalPayable(principal, rate decimal.Decimal, termMonths int) decimal.Decimal {
	interest := MonthlyInterest(principal, rate).Mul(decimal.NewFromInt(int64(termMonths)))
	return principal.Add(interest).Round(2)
}

// RemainingBalance is the straight-line amount still owed after monthsPaid
// instalments. monthsPaid is clamped to [0, term].
func RemainingBalance(principal, rate decimal.Decimal, termMonths, monthsPaid int) decimal.Decimal {
	if termMonths <= 0 {
		return principal.Round(2)
	}
	if monthsPaid < 0 {
		monthsPaid = 0
	}
	if monthsPaid > termMonths {
		monthsPaid = termMonths
	}

	left := decimal.NewFromInt(int64(termMonths - monthsPaid))
	remainingPrincipal := principal.Mul(left).Div(decimal.NewFromInt(int64(termMonths)))
	remainingInterest := MonthlyInterest(principal, rate).Mul(left)
	return remainingPrincipal.Add(remainingInterest).Round(2)
}

// RateScale is the number of fractional digits stored for an interest rate
const RateScale = 4

// checkRate accepts fractions in [0, 1) with at most RateScale places
func checkRate(rate decimal.Decimal, name string) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return domain.NewValidationError("%s must be a fraction between 0 and 1", name)
	}
	if !rate.Equal(rate.Round(RateScale)) {
		return domain.NewValidationError("%s allows at most %d decimal places", name, RateScale)
	}
	return nil
}

// recomputedBalance is max(principal - repaid, 0)
func recomputedBalance(principal, repaid decimal.Decimal) decimal.Decimal {
	balance := principal.Sub(repaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance.Round(2)
}

// LoanSummary carries the derived figures shown alongside a loan
type LoanSummary struct {
	MonthlyInterest decimal.Decimal `json:"monthly_interest"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	// PrincipalRepaid is principal - current_balance; overpayments are not included
	PrincipalRepaid decimal.Decimal `json:"principal_repaid"`
}

// LoanView is a loan together with its derived figures
type LoanView struct {
	*models.Loan
	MemberNo   string `json:"member_no,omitempty"`
	MemberName string `json:"member_name,omitempty"`
	LoanSummary
}

// newLoanView derives the summary for a loan
func newLoanView(loan *models.Loan) *LoanView {
	view := &LoanView{
		Loan: loan,
		LoanSummary: LoanSummary{
			MonthlyInterest: MonthlyInterest(loan.PrincipalAmount, loan.InterestRate),
			TotalPayable:    TotalPayable(loan.PrincipalAmount, loan.InterestRate, loan.TermMonths),
			PrincipalRepaid: loan.PrincipalAmount.Sub(loan.CurrentBalance),
		},
	}
	if loan.Member != nil {
		view.MemberNo = loan.Member.MemberNo
		view.MemberName = loan.Member.FullName()
	}
	return view
}
