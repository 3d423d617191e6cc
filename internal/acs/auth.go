package acs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// signRequest adds the HMAC-SHA256 authentication headers the platform REST
// API expects: x-ms-date, x-ms-content-sha256 and an Authorization header
// over "VERB\npath?query\ndate;host;contentHash".
func signRequest(req *http.Request, body []byte, accessKey []byte) {
	contentHash := sha256.Sum256(body)
	contentHashB64 := base64.StdEncoding.EncodeToString(contentHash[:])
	date := time.Now().UTC().Format(http.TimeFormat)

	pathAndQuery := req.URL.EscapedPath()
	if req.URL.RawQuery != "" {
		pathAndQuery += "?" + req.URL.RawQuery
	}
	stringToSign := strings.Join([]string{
		req.Method,
		pathAndQuery,
		date + ";" + req.URL.Host + ";" + contentHashB64,
	}, "\n")

	mac := hmac.New(sha256.New, accessKey)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-content-sha256", contentHashB64)
	req.Header.Set("Authorization",
		fmt.Sprintf("HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature=%s", signature))
}
