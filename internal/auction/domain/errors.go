package domain

import "errors"

// Validation errors: terminal, reported to the caller, nothing mutated.
var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrMandateNotFound   = errors.New("auto-bid mandate not found")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrAuctionNotEnded   = errors.New("auction has not ended yet")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrInvalidWindow     = errors.New("end time must be after start time")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrBidTooLow         = errors.New("bid amount is too low")
	ErrOwnerSelfBid      = errors.New("owner cannot bid on their own auction")
	ErrOwnerSelfBuy      = errors.New("owner cannot buy their own auction")
	ErrWrongAuctionKind  = errors.New("operation does not apply to this auction kind")
	ErrAlreadySold       = errors.New("auction is already sold")
	ErrIncrementTooSmall = errors.New("mandate increment is below the minimum")
)

// ErrContended signals that the per-auction critical section could not be
// entered in time. Unlike validation errors, resubmission may succeed.
var ErrContended = errors.New("auction is busy, retry the request")

// IsRetryable reports whether the caller may resubmit the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContended)
}

// IsValidation reports whether err belongs to the terminal validation class.
func IsValidation(err error) bool {
	for _, v := range []error{
		ErrAuctionNotFound, ErrMandateNotFound, ErrAuctionNotActive, ErrAuctionNotEnded, ErrAuctionEnded,
		ErrInvalidWindow, ErrInvalidAmount, ErrBidTooLow, ErrOwnerSelfBid,
		ErrOwnerSelfBuy, ErrWrongAuctionKind, ErrAlreadySold, ErrIncrementTooSmall,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
