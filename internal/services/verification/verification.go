// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification issues and checks the email verification code kept in
// the client session.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
)

// SessionKey is the session key holding the outstanding code.
const SessionKey = "verification_code"

const (
	codeMin = 100000
	codeMax = 999999
)

// Store is the per-client keyed state the code lives in.
type Store interface {
	Get(key string) (string, bool)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GenerateCode returns a 6-digit code uniformly drawn from [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// Issue generates a code and stores it in the session, replacing any
// earlier code.
func Issue(ctx context.Context, store Store) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	if err := store.Put(ctx, SessionKey, code); err != nil {
		return "", fmt.Errorf("storing verification code: %w", err)
	}
	return code, nil
}

// Check compares submitted against the stored code. On a match the code is
// removed from the session. A missing code never matches.
func Check(ctx context.Context, store Store, submitted string) (bool, error) {
	expected, ok := store.Get(SessionKey)
	if !ok {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) != 1 {
		return false, nil
	}
	if err := store.Delete(ctx, SessionKey); err != nil {
		return false, fmt.Errorf("clearing verification code: %w", err)
	}
	return true, nil
}
