package constants

// DocumentStatus is the canonical lifecycle status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusUploaded       DocumentStatus = "uploaded"        // intake complete, pipeline not started
	DocStatusProcessing     DocumentStatus = "processing"      // pipeline in progress
	DocStatusProcessed      DocumentStatus = "processed"       // extraction + posting complete
	DocStatusManualRequired DocumentStatus = "manual_required" // needs human entry/review
	DocStatusError          DocumentStatus = "error"           // terminal failure
)

// VerificationStatus reflects how much of a bill has been human-confirmed.
type VerificationStatus string

const (
	VerifyUnverified  VerificationStatus = "unverified"
	VerifyNeedsReview VerificationStatus = "needs_review"
	VerifyVerified    VerificationStatus = "verified"
)

// PostingStatus is the per-line-item ledger posting status.
type PostingStatus string

const (
	PostingUnposted PostingStatus = "unposted"
	PostingPosted   PostingStatus = "posted"
)

// PaymentStatus is the bill-level settlement status.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// ScheduleStatus is the per-schedule-row settlement status.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "PENDING"
	SchedulePartial ScheduleStatus = "PARTIAL"
	SchedulePaid    ScheduleStatus = "PAID"
)

// PaymentMethod values accepted at upload. UNSPECIFIED is rejected by intake.
const (
	PayMethodUnspecified  = "UNSPECIFIED"
	PayMethodCash         = "CASH"
	PayMethodBankTransfer = "BANK_TRANSFER"
	PayMethodUPI          = "UPI"
	PayMethodCard         = "CARD"
	PayMethodCheque       = "CHEQUE"
)
