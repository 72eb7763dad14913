package domain

import "regexp"

const (
	JoinCodeMin = 1000
	JoinCodeMax = 9999
)

var joinCodePattern = regexp.MustCompile(`^\d{4}$`)

// ValidJoinCode reports whether code has the 4-digit shape players type in.
func ValidJoinCode(code string) bool {
	return joinCodePattern.MatchString(code)
}
