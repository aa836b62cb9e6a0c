package main

import (
	"net/http"
	"strings"
)

// parseCookieHeader splits a "name=value; name2=value2" header (the
// format an operator copies straight out of their browser's devtools)
// into the *http.Cookie slice crawl.Config.SessionCookies expects.
func parseCookieHeader(header, domain string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: domain,
		})
	}
	return cookies
}
