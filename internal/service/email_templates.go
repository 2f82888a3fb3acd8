package service

import "fmt"

func greeting(name string) string {
	if name == "" {
		return "Hi,"
	}
	return fmt.Sprintf("Hi %s,", name)
}

func accountCreatedEmailTemplate(name, email, loginURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s account is ready", appName)
	body := fmt.Sprintf(`%s

An administrator created a %s account for %s.

Sign in here with the temporary password you received from them:
%s

You will be asked to choose a new password on your first sign in.

Best,
The %s Team`, greeting(name), appName, email, loginURL, appName)

	return subject, body
}

func passwordChangedEmailTemplate(name, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s password was changed", appName)
	body := fmt.Sprintf(`%s

The password of your %s account was just changed.

If this wasn't you, contact support right away.

Best,
The %s Team`, greeting(name), appName, appName)

	return subject, body
}
