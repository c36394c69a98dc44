// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package accounts

import (
	"bufio"
	"embed"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" {
			commonPasswords[password] = struct{}{}
		}
	}
}

// Password validation message IDs.
const (
	MsgPasswordTooShort = "error_password_too_short"
	MsgPasswordNumeric  = "error_password_numeric"
	MsgPasswordCommon   = "error_password_common"
	MsgPasswordSimilar  = "error_password_similar"
)

// PasswordValidator validates passwords against various criteria
type PasswordValidator struct {
	MinLength            int
	MaxSimilarity        float64
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// DefaultPasswordValidator returns the validator used at registration.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength:            8,
		MaxSimilarity:        0.7,
		CheckCommonPasswords: true,
		CheckUserSimilarity:  true,
	}
}

// Validate returns the message IDs of every failed check, in a stable order.
// An empty result means the password is acceptable.
func (v *PasswordValidator) Validate(password string, userAttributes ...string) []string {
	var problems []string

	if v.CheckUserSimilarity && isSimilarToUserAttributes(password, userAttributes, v.MaxSimilarity) {
		problems = append(problems, MsgPasswordSimilar)
	}

	if utf8.RuneCountInString(password) < v.MinLength {
		problems = append(problems, MsgPasswordTooShort)
	}

	if v.CheckCommonPasswords && isCommonPassword(password) {
		problems = append(problems, MsgPasswordCommon)
	}

	if isEntirelyNumeric(password) {
		problems = append(problems, MsgPasswordNumeric)
	}

	return problems
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return password != ""
}

func isCommonPassword(password string) bool {
	_, exists := commonPasswords[strings.ToLower(strings.TrimSpace(password))]
	return exists
}

func isSimilarToUserAttributes(password string, attributes []string, threshold float64) bool {
	passwordRunes := []rune(strings.ToLower(password))
	if len(passwordRunes) == 0 {
		return false
	}

	for _, attr := range attributes {
		if attr == "" {
			continue
		}
		attrLower := strings.ToLower(attr)

		// Compare against the whole value and its parts, so "jane.doe" also
		// checks "jane" and "doe".
		parts := append([]string{attrLower}, strings.FieldsFunc(attrLower, isSeparator)...)
		for _, part := range parts {
			partRunes := []rune(part)
			if len(partRunes) < 3 {
				continue
			}
			if similarity(passwordRunes, partRunes) >= threshold {
				return true
			}
		}
	}

	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// similarity is the ratio of matched characters over total length, as
// difflib computes it. Characters are runes.
func similarity(a, b []rune) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	lcs := longestCommonSubsequence(a, b)
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

func longestCommonSubsequence(a, b []rune) int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}
