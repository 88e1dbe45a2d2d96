package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// lte returns a ParamValidator that checks if the argument is less than or equal to the value captured in the closure.
func lte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue <= closedValue
	})
}

func all(validators ...ParamValidator) ParamValidator {
	return func(v int64) bool {
		for _, validate := range validators {
			if !validate(v) {
				return false
			}
		}
		return true
	}
}

// ParseOptionalGte parses an optional integer query parameter that must be
// at least minValue. An absent parameter yields 0, which callers treat as
// "use the default".
func ParseOptionalGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, minValue int64) (int, bool) {
	return parseValidate(r, w, logger, key, gte(minValue))
}

// ParseOptionalRange is ParseOptionalGte with an upper bound as well.
func ParseOptionalRange(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, minValue, maxValue int64) (int, bool) {
	return parseValidate(r, w, logger, key, all(gte(minValue), lte(maxValue)))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator) (int, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}
