// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"modernc.org/sqlite"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefoldFunc)
}

// Casefold returns s in Unicode case-folded NFC form, the same value the
// SQL function casefold(x) yields.
func Casefold(s string) string {
	// A Caser keeps state and must not be shared between goroutines.
	return norm.NFC.String(cases.Fold().String(s))
}

func casefoldFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return Casefold(v), nil
	case []byte:
		return Casefold(string(v)), nil
	default:
		return nil, fmt.Errorf("casefold: unsupported argument type %T", v)
	}
}
