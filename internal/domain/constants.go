package domain

// Ledger entry directions.
const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

// Ledger entry categories.
const (
	CategoryDeposit    = "DEPOSIT"
	CategoryWithdrawal = "WITHDRAWAL"
	CategoryTransfer   = "TRANSFER"
	CategoryPayment    = "PAYMENT"
	CategoryCommission = "COMMISSION"
	CategoryPenalty    = "PENALTY"
	CategoryRefund     = "REFUND"
)

// ValidCategory reports whether c is a known ledger category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryDeposit, CategoryWithdrawal, CategoryTransfer, CategoryPayment,
		CategoryCommission, CategoryPenalty, CategoryRefund:
		return true
	}
	return false
}

// Payment intent statuses. SUCCESSFUL and FAILED are terminal.
const (
	IntentInitiated     = "INITIATED"
	IntentPendingAction = "PENDING_ACTION"
	IntentSuccessful    = "SUCCESSFUL"
	IntentFailed        = "FAILED"
)

// Payment intent purposes.
const (
	PurposeWalletFunding  = "WALLET_FUNDING"
	PurposeServicePayment = "SERVICE_REQUEST_PAYMENT"
)

// Withdrawal statuses.
const (
	WithdrawalPending             = "PENDING"
	WithdrawalCompleted           = "COMPLETED"
	WithdrawalFailed              = "FAILED"
	WithdrawalNeedsReconciliation = "NEEDS_RECONCILIATION"
)

// Webhook event types after ingress normalization.
const (
	EventFundingSucceeded      = "funding.succeeded"
	EventFundingFailed         = "funding.failed"
	EventFundingRequiresAction = "funding.requires_action"
	EventPayoutAccountUpdated  = "payout.account.updated"
)

// Payout rail channels.
const (
	PayoutChannelMpesa = "MPESA"
	PayoutChannelBank  = "BANK"
)
