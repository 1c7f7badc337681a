package mirror

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// SearchPath is the listing endpoint under an account
	SearchPath = "search"

	// maxAccountLength bounds handles on the source network
	maxAccountLength = 15
)

// ListingURL builds the URL of one page of an account's post listing:
// <base>/<account>/search?f=<filter>&p=<page>
func ListingURL(baseURL, account, filter string, page int) string {
	params := url.Values{}
	params.Set("f", filter)
	params.Set("p", strconv.Itoa(page))

	return fmt.Sprintf("%s/%s/%s?%s", strings.TrimRight(baseURL, "/"), url.PathEscape(account), SearchPath, params.Encode())
}

// ResolveURL makes ref absolute against baseURL. Mirrors serve media
// from relative paths such as /pic/media%2Fabc.jpg.
func ResolveURL(baseURL, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid media reference %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return base.ResolveReference(refURL).String(), nil
}

// IsValidAccount checks if an account handle is well formed
func IsValidAccount(account string) bool {
	if account == "" || len(account) > maxAccountLength {
		return false
	}

	for _, char := range account {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}

	return true
}

// NormalizeAccount strips a leading @ and trailing slashes or spaces
func NormalizeAccount(account string) string {
	account = strings.TrimSpace(account)
	account = strings.TrimPrefix(account, "@")
	return strings.TrimRight(account, "/ ")
}
