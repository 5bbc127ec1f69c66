package domain

import "errors"

var (
	// ErrNotSignedIn is returned by ledger operations issued without an
	// open session; the ledger is inert after sign-out.
	ErrNotSignedIn = errors.New("no signed-in session for user")
	// ErrInsufficientTokens is the expected outcome of a debit that
	// exceeds the current balance.
	ErrInsufficientTokens = errors.New("insufficient tokens")
	// ErrAlreadyEntered is the expected outcome of entering a draw twice.
	ErrAlreadyEntered = errors.New("draw already entered")
	// ErrDrawNotFound indicates the requested draw is not in the catalog.
	ErrDrawNotFound = errors.New("draw not found")
	// ErrProfileNotFound indicates the persisted profile could not be loaded.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrQuizNotInProgress is returned for select/advance outside a run.
	ErrQuizNotInProgress = errors.New("quiz is not in progress")
	// ErrNoOptionSelected is returned when advancing without a selection.
	ErrNoOptionSelected = errors.New("no option selected")
	// ErrIncorrectAnswer is the expected try-again outcome of advancing
	// with a wrong selection.
	ErrIncorrectAnswer = errors.New("selected option is not the answer")
	// ErrInvalidOption is returned for an out-of-range option index.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrCooldownActive is the expected outcome of watching an ad while
	// the reward cooldown is still running.
	ErrCooldownActive = errors.New("ad reward cooldown active")
)
