package service

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// Where a verification callback found its token.
const (
	SourceQuery         = "query"
	SourceFragment      = "fragment"
	SourceFragmentRegex = "fragment_regex"
	SourceSession       = "session"
)

// Callback token kinds. An OTP is a single-use email token; a session token is
// a signed session proving a completed sign-in.
const (
	TokenKindOTP     = "otp"
	TokenKindSession = "session"
)

// TypeRecovery marks password reset links.
const TypeRecovery = "recovery"

var (
	ErrTokenMissing    = errors.New("verification link has no token")
	ErrSessionExchange = errors.New("could not establish a session from the link")
	ErrUserFetch       = errors.New("could not load the account for the link")
)

// Redirect codes for callback failures.
const (
	CodeInvalidLink     = "invalid_link"
	CodeSessionError    = "session_error"
	CodeUserError       = "user_error"
	CodeOTPExpired      = "otp_expired"
	CodeUnexpectedError = "unexpected_error"
)

// Names must start a parameter, so refresh_token= never reads as token=.
var fragmentTokenPattern = regexp.MustCompile(`(?:^|[&#;?/])(access_token|token_hash|token)=([^&#;\s]+)`)
var fragmentTypePattern = regexp.MustCompile(`(?:^|[&#;?/])type=([a-z_]+)`)

// CallbackParams is everything a verification callback can carry.
type CallbackParams struct {
	Query    url.Values
	Fragment string // without the leading '#'
	Session  string // current session token, if any
}

type CallbackToken struct {
	Kind   string
	Token  string
	Type   string
	Source string
}

// ExtractVerificationToken tries the query string, the fragment parsed as
// parameters, the fragment matched loosely, then the current session. The
// first source that yields a token wins.
func ExtractVerificationToken(p CallbackParams) (*CallbackToken, error) {
	if t := tokenFromValues(p.Query, SourceQuery); t != nil {
		return t, nil
	}

	fragment := strings.TrimPrefix(p.Fragment, "#")
	if fragment != "" {
		if values, err := url.ParseQuery(fragment); err == nil {
			if t := tokenFromValues(values, SourceFragment); t != nil {
				return t, nil
			}
		}

		if m := fragmentTokenPattern.FindStringSubmatch(fragment); m != nil {
			t := &CallbackToken{Kind: TokenKindOTP, Token: m[2], Source: SourceFragmentRegex}
			if m[1] == "access_token" {
				t.Kind = TokenKindSession
			}
			if tm := fragmentTypePattern.FindStringSubmatch(fragment); tm != nil {
				t.Type = tm[1]
			}
			return t, nil
		}
	}

	if p.Session != "" {
		return &CallbackToken{Kind: TokenKindSession, Token: p.Session, Source: SourceSession}, nil
	}

	return nil, ErrTokenMissing
}

func tokenFromValues(v url.Values, source string) *CallbackToken {
	if v == nil {
		return nil
	}

	typ := v.Get("type")
	for _, key := range []string{"token", "token_hash"} {
		if tok := v.Get(key); tok != "" {
			return &CallbackToken{Kind: TokenKindOTP, Token: tok, Type: typ, Source: source}
		}
	}

	// A refresh token alone cannot be exchanged; it only counts with its access token.
	if tok := v.Get("access_token"); tok != "" {
		return &CallbackToken{Kind: TokenKindSession, Token: tok, Type: typ, Source: source}
	}

	return nil
}

// ProviderError converts error parameters on a callback into an error, or
// returns nil when there are none.
func ProviderError(v url.Values) error {
	if v == nil {
		return nil
	}
	code := v.Get("error_code")
	desc := v.Get("error_description")
	if v.Get("error") == "" && code == "" && desc == "" {
		return nil
	}

	lower := strings.ToLower(desc)
	if code == CodeOTPExpired || (strings.Contains(lower, "otp") && strings.Contains(lower, "expired")) {
		return ErrTokenExpired
	}

	msg := desc
	if msg == "" {
		msg = v.Get("error")
	}
	return errors.New(msg)
}

// CallbackErrorCode maps a callback failure onto its redirect code.
func CallbackErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return CodeInvalidLink
	case errors.Is(err, ErrSessionExchange):
		return CodeSessionError
	case errors.Is(err, ErrUserFetch):
		return CodeUserError
	case errors.Is(err, ErrTokenExpired):
		return CodeOTPExpired
	default:
		return CodeUnexpectedError
	}
}

// CallbackErrorMessage is the text shown for a redirect code.
func CallbackErrorMessage(code string) string {
	var msg string
	switch code {
	case CodeInvalidLink:
		msg = "The verification link is invalid or incomplete."
	case CodeSessionError:
		msg = "We could not sign you in from this link."
	case CodeUserError:
		msg = "We could not load your account."
	case CodeOTPExpired:
		msg = "The verification link has expired."
	default:
		msg = "Something went wrong while verifying your email."
	}
	return msg + " Please resend the verification email or log in."
}
