package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/sebuszqo/PayBillsWithUs/internal/api"
)

const msgHostRestricted = "Access restricted to approved network routes"

// RequireApprovedHost admits a request when any of X-Forwarded-Host, Origin, Referer or Host
// names an allowed host, with or without its port.
func RequireApprovedHost(allowed []string, respondError api.ErrorResponder) func(http.Handler) http.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, host := range allowed {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			allowedSet[host] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, host := range candidateHosts(r) {
				if hostAllowed(host, allowedSet) {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, msgHostRestricted)
		})
	}
}

func candidateHosts(r *http.Request) []string {
	var hosts []string
	for _, values := range [][]string{
		r.Header.Values("X-Forwarded-Host"),
		r.Header.Values("Origin"),
		r.Header.Values("Referer"),
		{r.Host},
	} {
		for _, value := range values {
			for _, entry := range strings.Split(value, ",") {
				entry = strings.TrimSpace(entry)
				if entry != "" {
					hosts = append(hosts, extractHost(entry))
				}
			}
		}
	}
	return hosts
}

// extractHost returns the host[:port] of a URL, or the lower-cased value when it is not one.
func extractHost(value string) string {
	if u, err := url.Parse(value); err == nil && u.Scheme != "" && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return strings.ToLower(value)
}

func hostAllowed(host string, allowed map[string]struct{}) bool {
	if _, ok := allowed[host]; ok {
		return true
	}
	withoutPort, _, found := strings.Cut(host, ":")
	if !found {
		return false
	}
	_, ok := allowed[withoutPort]
	return ok
}
