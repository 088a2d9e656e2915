package service

import "strings"

// PasswordRule identifies one password requirement.
type PasswordRule string

const (
	PasswordRuleLength    PasswordRule = "length"
	PasswordRuleUppercase PasswordRule = "uppercase"
	PasswordRuleLowercase PasswordRule = "lowercase"
	PasswordRuleNumber    PasswordRule = "number"
	PasswordRuleSpecial   PasswordRule = "special"
)

const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// passwordRuleOrder fixes the order failed messages are reported in.
var passwordRuleOrder = []PasswordRule{
	PasswordRuleLength,
	PasswordRuleUppercase,
	PasswordRuleLowercase,
	PasswordRuleNumber,
	PasswordRuleSpecial,
}

var passwordRuleMessages = map[PasswordRule]string{
	PasswordRuleLength:    "At least 8 characters",
	PasswordRuleUppercase: "At least one uppercase letter",
	PasswordRuleLowercase: "At least one lowercase letter",
	PasswordRuleNumber:    "At least one number",
	PasswordRuleSpecial:   "At least one special character",
}

// PasswordEvaluation is the result of checking a password against the policy.
type PasswordEvaluation struct {
	Valid          bool                  `json:"valid"`
	Satisfied      map[PasswordRule]bool `json:"satisfied"`
	FailedMessages []string              `json:"failed_messages"`
}

// EvaluatePassword checks a password against the fixed rule set. Pure and
// deterministic; an empty string fails every rule.
func EvaluatePassword(password string) PasswordEvaluation {
	satisfied := map[PasswordRule]bool{
		PasswordRuleLength:    len(password) >= 8,
		PasswordRuleUppercase: strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }),
		PasswordRuleLowercase: strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }),
		PasswordRuleNumber:    strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }),
		PasswordRuleSpecial:   strings.ContainsAny(password, passwordSpecialChars),
	}

	var failed []string
	for _, rule := range passwordRuleOrder {
		if !satisfied[rule] {
			failed = append(failed, passwordRuleMessages[rule])
		}
	}

	return PasswordEvaluation{
		Valid:          len(failed) == 0,
		Satisfied:      satisfied,
		FailedMessages: failed,
	}
}
