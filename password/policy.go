package password

import (
	"errors"
	"strings"
	"unicode"
)

// ErrWeakPassword matches any policy rejection via errors.Is. The concrete
// error is always a *PolicyError naming the violated rules.
var ErrWeakPassword = errors.New("password does not meet policy")

// Policy is a set of pure complexity predicates. Thresholds come from
// configuration; the zero value accepts everything.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSymbol    bool

	// MaxRepeatRun rejects any run of one repeated character longer than
	// this ("aaaa" at 3). 0 disables the rule.
	MaxRepeatRun int

	// MaxSequentialRun rejects any ascending or descending character
	// sequence longer than this ("abcde", "54321" at 4). 0 disables the
	// rule.
	MaxSequentialRun int
}

// PolicyError lists every rule a candidate password violated.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password policy: " + strings.Join(e.Violations, "; ")
}

// Unwrap lets errors.Is(err, ErrWeakPassword) match.
func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

// Validate checks the candidate against every rule and returns nil or a
// *PolicyError with all violations, not just the first.
func (p Policy) Validate(candidate string) error {
	var violations []string

	runes := []rune(candidate)
	if p.MinLength > 0 && len(runes) < p.MinLength {
		violations = append(violations, "too short")
	}

	var upper, lower, digit, symbol bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if p.RequireUppercase && !upper {
		violations = append(violations, "missing uppercase letter")
	}
	if p.RequireLowercase && !lower {
		violations = append(violations, "missing lowercase letter")
	}
	if p.RequireDigit && !digit {
		violations = append(violations, "missing digit")
	}
	if p.RequireSymbol && !symbol {
		violations = append(violations, "missing symbol")
	}

	if p.MaxRepeatRun > 0 && longestRepeatRun(runes) > p.MaxRepeatRun {
		violations = append(violations, "repeated character run")
	}
	if p.MaxSequentialRun > 0 && longestSequentialRun(runes) > p.MaxSequentialRun {
		violations = append(violations, "sequential character run")
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}

func longestRepeatRun(runes []rune) int {
	longest, run := 0, 0
	for i, r := range runes {
		if i > 0 && r == runes[i-1] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Case-insensitive so "AbCd" still counts as a sequence.
func longestSequentialRun(runes []rune) int {
	longest, asc, desc := 0, 1, 1
	prev := rune(0)
	for i, r := range runes {
		r = unicode.ToLower(r)
		if i > 0 {
			switch r {
			case prev + 1:
				asc, desc = asc+1, 1
			case prev - 1:
				desc, asc = desc+1, 1
			default:
				asc, desc = 1, 1
			}
		}
		if asc > longest {
			longest = asc
		}
		if desc > longest {
			longest = desc
		}
		prev = r
	}
	return longest
}
