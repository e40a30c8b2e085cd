package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// ComputeSignature implements Twilio's webhook signature scheme: the full
// request URL concatenated with every POST parameter name and value in
// lexicographic key order, HMAC-SHA1 signed with the auth token, base64
// encoded.
func ComputeSignature(authToken, fullURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(fullURL)
	for _, k := range keys {
		payload.WriteString(k)
		payload.WriteString(params.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether signature matches the expected value for
// the given URL and form parameters.
func ValidateSignature(authToken, fullURL string, params url.Values, signature string) bool {
	expected := ComputeSignature(authToken, fullURL, params)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
