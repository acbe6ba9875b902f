package services

import (
	"net/mail"
	"strings"
)

func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
