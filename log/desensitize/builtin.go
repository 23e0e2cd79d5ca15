package desensitize

const mask = "******"

var (
	// EmailRule keeps the first and last character of the local part.
	EmailRule = MustNewContentRule(
		"email",
		`\b([A-Za-z0-9])[A-Za-z0-9._%+-]*([A-Za-z0-9])@([A-Za-z0-9])[A-Za-z0-9.-]*\.([A-Za-z]{2,})\b`,
		"$1***$2@$3***.$4",
	)

	// PhoneRule keeps the country/area prefix and the last four digits.
	PhoneRule = MustNewContentRule(
		"phone",
		`(\+?\b\d{2,3})\d{4,6}(\d{4})\b`,
		"$1****$2",
	)

	PasswordRule      = MustNewFieldRule("password", "password", mask)
	TokenRule         = MustNewFieldRule("token", "token", mask)
	RefreshTokenRule  = MustNewFieldRule("refresh_token", "refresh_token", mask)
	SecretRule        = MustNewFieldRule("secret", "secret", mask)
	CookieRule        = MustNewFieldRule("cookie", "cookie", mask)
	SetCookieRule     = MustNewFieldRule("set-cookie", "set-cookie", mask)
	AuthorizationRule = MustNewFieldRule("authorization", "authorization", mask)
)

// BuiltinRules returns the credential rules. Contact data rules (email,
// phone) are opt-in because they also hit identifiers in request paths.
func BuiltinRules() []Rule {
	return []Rule{
		PasswordRule,
		TokenRule,
		RefreshTokenRule,
		SecretRule,
		CookieRule,
		SetCookieRule,
		AuthorizationRule,
	}
}

// ContactRules returns the email and phone rules.
func ContactRules() []Rule {
	return []Rule{EmailRule, PhoneRule}
}
