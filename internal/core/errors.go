package core

import (
	"errors"
	"fmt"
)

// Error taxonomy. The three roots classify every domain failure; the
// specializations wrap them so callers can test either the broad class
// (errors.Is(err, ErrNotFound)) or the precise cause.
var (
	ErrNotFound     = errors.New("not found")
	ErrInUse        = errors.New("in use")
	ErrInvalidInput = errors.New("invalid input")

	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrExpenseNotFound     = fmt.Errorf("fixed expense %w", ErrNotFound)
	ErrIncomeNotFound      = fmt.Errorf("planned income %w", ErrNotFound)

	ErrCategoryInUse = fmt.Errorf("category with transactions %w", ErrInUse)

	ErrInvalidAmount      = fmt.Errorf("%w: amount must be a positive decimal", ErrInvalidInput)
	ErrInvalidDate        = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	ErrInvalidType        = fmt.Errorf("%w: unknown type", ErrInvalidInput)
	ErrInvalidFrequency   = fmt.Errorf("%w: unknown frequency", ErrInvalidInput)
	ErrInvalidDayOfMonth  = fmt.Errorf("%w: day of month must be 1-31", ErrInvalidInput)
	ErrInvalidProbability = fmt.Errorf("%w: probability must be 0-100", ErrInvalidInput)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrInvalidInput)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrInvalidInput)
)
