package server

import (
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"strings"
)

const (
	emailHeader    = "X-OIG-Email"
	passwordHeader = "X-OIG-Password"
	readonlyHeader = "X-OIG-Readonly-Access"
)

var errMissingCredentials = errors.New("missing authentication, provide credentials via an 'Authorization: Basic' header or the 'X-OIG-Email'/'X-OIG-Password' headers")

// credentialsFromRequest extracts the email and password from the request.
// The Authorization header is preferred and may be labeled either Basic or
// Bearer (some clients only allow a Bearer label even for basic-style
// Base64 tokens); the custom headers are a fallback.
func credentialsFromRequest(r *http.Request) (string, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if found && token != "" {
			switch strings.ToLower(scheme) {
			case "basic", "bearer":
				decoded, err := base64.StdEncoding.DecodeString(token)
				if err != nil {
					return "", "", errors.New("malformed Authorization header, expected a Base64-encoded 'email:password'")
				}
				email, password, ok := strings.Cut(string(decoded), ":")
				if !ok || email == "" || password == "" {
					return "", "", errors.New("malformed Authorization header, expected a Base64-encoded 'email:password'")
				}
				return email, password, nil
			}
		}
	}

	email := r.Header.Get(emailHeader)
	password := r.Header.Get(passwordHeader)
	if email != "" && password != "" {
		return email, password, nil
	}

	return "", "", errMissingCredentials
}

// isReadonly reports whether the request allows write actions. Defaults
// to readonly (safe) unless the header is explicitly "false".
func isReadonly(r *http.Request) bool {
	v := r.Header.Get(readonlyHeader)
	if v == "" {
		return true
	}
	return strings.ToLower(v) != "false"
}

// clientIP returns the best-effort source address for audit records.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
