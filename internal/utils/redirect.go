package utils

import (
	"net/url"
	"path"
	"strings"
)

// safeNextPrefixes lists the pages a user may be sent back to after logging in.
var safeNextPrefixes = []string{
	"/user/",
	"/admin/",
	"/add_grave/",
	"/grave/",
	"/message/",
	"/obituary/",
}

// IsSafeNext reports whether next is a same-origin page that may be used as a login redirect target.
func IsSafeNext(next string) bool {
	if next == "" || strings.ContainsAny(next, "\\\r\n") {
		return false
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return false
	}

	target, err := url.Parse(next)
	if err != nil || target.Scheme != "" || target.Host != "" || target.User != nil {
		return false
	}

	cleaned := path.Clean(target.Path)
	if cleaned == "/" {
		return true
	}
	for _, prefix := range safeNextPrefixes {
		if cleaned == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(cleaned, prefix) {
			return true
		}
	}
	return false
}

// LoginRedirect builds the login URL that returns to page once the user has logged in.
func LoginRedirect(page string) string {
	if !IsSafeNext(page) {
		return "/login"
	}
	return "/login?" + url.Values{NextParamKey: {page}}.Encode()
}
