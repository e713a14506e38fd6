package store

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Makepad-fr/priotodo/internal/model"
)

// Validation messages surfaced verbatim to API clients.
const (
	MsgPriorityNotPositive = "Priority must be a positive integer"
	MsgTextEmpty           = "Text cannot be empty"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store is closed")

// MaxGaps bounds the missing-priorities answer.
const MaxGaps = 1 << 20

// ErrTooManyGaps is returned by MissingPriorities when more than MaxGaps
// priorities are unused below the highest one.
var ErrTooManyGaps = errors.New("too many missing priorities")

// ValidationError reports a business rule violation on insert.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Store is the todo store contract.
type Store interface {
	// Add validates and stores a new item, returning it by value.
	Add(ctx context.Context, text string, priority int) (model.Item, error)

	// List returns every item sorted by priority, then id.
	List(ctx context.Context) ([]model.Item, error)

	// Delete removes the item with the given id. A missing id is (false, nil).
	Delete(ctx context.Context, id int) (bool, error)

	// MissingPriorities returns the unused priorities in [1, max priority].
	MissingPriorities(ctx context.Context) ([]int, error)

	Close() error
}

// NormalizeText trims surrounding whitespace.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// Validate checks the insert preconditions. Priority is checked first.
func Validate(text string, priority int) error {
	if priority < 1 {
		return &ValidationError{Message: MsgPriorityNotPositive}
	}
	if NormalizeText(text) == "" {
		return &ValidationError{Message: MsgTextEmpty}
	}
	return nil
}

// ParsePriority converts a JSON number literal to a priority. Integer
// literals are parsed exactly; other forms such as "2.0" or "1e3" go through
// PriorityFromNumber.
func ParsePriority(literal string) (int, error) {
	if n, err := strconv.ParseInt(literal, 10, 0); err == nil {
		if n < 1 {
			return 0, &ValidationError{Message: MsgPriorityNotPositive}
		}
		return int(n), nil
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return 0, &ValidationError{Message: MsgPriorityNotPositive}
	}
	return PriorityFromNumber(f)
}

// PriorityFromNumber converts a decoded JSON number to a priority.
// Fractional or out-of-range values fail with the same message the store uses
// for non-positive priorities.
func PriorityFromNumber(n float64) (int, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, &ValidationError{Message: MsgPriorityNotPositive}
	}
	if n < 1 || n >= float64(math.MaxInt64) {
		return 0, &ValidationError{Message: MsgPriorityNotPositive}
	}
	return int(n), nil
}

// SortItems orders items by priority, then id, in place.
func SortItems(items []model.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority < items[j].Priority
		}
		return items[i].ID < items[j].ID
	})
}

// Gaps returns every integer in [1, max(priorities)] absent from priorities,
// ascending. It never returns nil on success, and fails with ErrTooManyGaps
// rather than allocating more than MaxGaps entries.
func Gaps(priorities []int) ([]int, error) {
	maxP := 0
	used := make(map[int]struct{}, len(priorities))
	for _, p := range priorities {
		if p < 1 {
			continue
		}
		used[p] = struct{}{}
		if p > maxP {
			maxP = p
		}
	}
	n := maxP - len(used)
	if n > MaxGaps {
		return nil, ErrTooManyGaps
	}
	missing := make([]int, 0, n)
	for i := 1; i <= maxP; i++ {
		if _, ok := used[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing, nil
}
