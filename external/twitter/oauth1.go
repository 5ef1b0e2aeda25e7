package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// oauth1Signer produces the OAuth 1.0a Authorization header the v2 tweet
// endpoint still requires for user-context requests.
type oauth1Signer struct {
	consumerKey    string
	consumerSecret string
	accessToken    string
	accessSecret   string

	// injectable for deterministic tests
	nonce     func() string
	timestamp func() string
}

func newOAuth1Signer(consumerKey, consumerSecret, accessToken, accessSecret string) *oauth1Signer {
	return &oauth1Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		accessToken:    accessToken,
		accessSecret:   accessSecret,
		nonce:          randomNonce,
		timestamp: func() string {
			return strconv.FormatInt(time.Now().Unix(), 10)
		},
	}
}

// authorizationHeader signs method+rawURL and returns the OAuth header
// value. The tweet body is JSON, so it does not participate in the
// signature base string.
func (s *oauth1Signer) authorizationHeader(method, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        s.timestamp(),
		"oauth_token":            s.accessToken,
		"oauth_version":          "1.0",
	}

	signature := s.sign(method, parsed, oauthParams)
	oauthParams["oauth_signature"] = signature

	keys := make([]string, 0, len(oauthParams))
	for key := range oauthParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	header := bytebufferpool.Get()
	defer bytebufferpool.Put(header)

	_, _ = header.WriteString("OAuth ")
	for i, key := range keys {
		if i > 0 {
			_, _ = header.WriteString(", ")
		}
		_, _ = header.WriteString(percentEncode(key))
		_, _ = header.WriteString(`="`)
		_, _ = header.WriteString(percentEncode(oauthParams[key]))
		_, _ = header.WriteString(`"`)
	}
	return header.String(), nil
}

func (s *oauth1Signer) sign(method string, parsed *url.URL, oauthParams map[string]string) string {
	params := make(map[string]string, len(oauthParams)+8)
	for key, value := range oauthParams {
		params[key] = value
	}
	for key, values := range parsed.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	paramString := bytebufferpool.Get()
	defer bytebufferpool.Put(paramString)
	for i, key := range keys {
		if i > 0 {
			_ = paramString.WriteByte('&')
		}
		_, _ = paramString.WriteString(percentEncode(key))
		_ = paramString.WriteByte('=')
		_, _ = paramString.WriteString(percentEncode(params[key]))
	}

	baseURL := parsed.Scheme + "://" + parsed.Host + parsed.EscapedPath()
	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(paramString.String())
	signingKey := percentEncode(s.consumerSecret) + "&" + percentEncode(s.accessSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	_, _ = mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode implements RFC 3986 encoding; url.QueryEscape is close
// but encodes spaces as '+' and leaves '~' alone inconsistently.
func percentEncode(value string) string {
	var out strings.Builder
	out.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			out.WriteByte(c)
		default:
			out.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return out.String()
}

func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf)
}
