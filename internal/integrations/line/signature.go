package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader is the webhook header carrying the request signature.
const SignatureHeader = "X-Line-Signature"

// ValidateSignature reports whether signature is the base64-encoded
// HMAC-SHA256 digest of body under the channel secret, per the messaging
// provider's webhook signing scheme. Comparison is constant-time.
func ValidateSignature(channelSecret string, body []byte, signature string) bool {
	if channelSecret == "" || signature == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}
