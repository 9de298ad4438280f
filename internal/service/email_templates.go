package service

import "fmt"

func verificationEmailTemplate(name, verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Confirm your email for %s", appName)
	body := fmt.Sprintf(`Hi %s,

Thanks for registering. Please confirm your email address by opening this link:
%s

This link expires in 24 hours and can only be used once. If it has expired,
request a new one from the login page.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, name, verifyURL, appName)

	return subject, body
}

func passwordResetEmailTemplate(resetURL, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password for %s", appName)
	body := fmt.Sprintf(`You requested to reset your password. Choose a new one here:
%s

This link expires in 1 hour and can only be used once.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, resetURL, appName)

	return subject, body
}

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your email is confirmed and your account is active. Start exchanging books:
%s

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}

func accountMergedEmailTemplate(name, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s accounts were linked", appName)
	body := fmt.Sprintf(`Hi %s,

Your password account was merged into your Google sign-in. Your profile, books
and notifications now live on the Google account. Use "Sign in with Google"
from now on:
%s

If you didn't do this, contact support right away.

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}
