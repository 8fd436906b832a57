package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	Unauthenticated     failure.ErrorCode = "Unauthenticated"

	// Listing registry.
	SaleNotFound           failure.ErrorCode = "SaleNotFound"
	NotSaleOwner           failure.ErrorCode = "NotSaleOwner"
	StorageDepositRequired failure.ErrorCode = "StorageDepositRequired"
	InvalidListingKey      failure.ErrorCode = "InvalidListingKey"
	InvalidAmount          failure.ErrorCode = "InvalidAmount"

	// Purchase and settlement.
	NotListedInCurrency       failure.ErrorCode = "NotListedInCurrency"
	PaymentMismatch           failure.ErrorCode = "PaymentMismatch"
	SettlementNotFound        failure.ErrorCode = "SettlementNotFound"
	SettlementAlreadyResolved failure.ErrorCode = "SettlementAlreadyResolved"
	InvalidSettlementState    failure.ErrorCode = "InvalidSettlementState"
	SchedulingFailed          failure.ErrorCode = "SchedulingFailed"

	// Custody service faults, absorbed by compensation.
	TransferFailed    failure.ErrorCode = "TransferFailed"
	MalformedPayout   failure.ErrorCode = "MalformedPayout"
	TooManyReceivers  failure.ErrorCode = "TooManyReceivers"
	PayoutSumMismatch failure.ErrorCode = "PayoutSumMismatch"
)
