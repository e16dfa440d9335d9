package domain

// MemberStatus represents the lifecycle state of a member
type MemberStatus string

const (
	MemberPending   MemberStatus = "PENDING"
	MemberActive    MemberStatus = "ACTIVE"
	MemberSuspended MemberStatus = "SUSPENDED"
	MemberExited    MemberStatus = "EXITED"
)

// Valid reports whether s is a known member status
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberPending, MemberActive, MemberSuspended, MemberExited:
		return true
	}
	return false
}

// TransactionType is the direction of a savings transaction
type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TransactionDeposit || t == TransactionWithdrawal
}

// LoanStatus represents the loan state machine
//
//	pending -> approved -> paid
//	pending -> rejected
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanPaid     LoanStatus = "paid"
)

// Terminal reports whether no further transition is allowed
func (s LoanStatus) Terminal() bool {
	return s == LoanRejected || s == LoanPaid
}

// NotificationType categorises admin inbox entries
type NotificationType string

const (
	NotifyMember NotificationType = "member"
	NotifySaving NotificationType = "saving"
	NotifyLoan   NotificationType = "loan"
	NotifySystem NotificationType = "system"
	NotifyOther  NotificationType = "other"
)

// Group names used to tell administrators from members
const (
	GroupAdmin  = "Admin"
	GroupMember = "Member"
)

// RequiredGuarantors is the number of guarantors a loan must carry
const RequiredGuarantors = 3
