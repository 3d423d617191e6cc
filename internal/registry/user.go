package registry

import "time"

// User maps an external user principal name to the platform identity and
// the last access token issued for it.
type User struct {
	UPN              string    `json:"upn"`
	CommunicationID  string    `json:"communication_id"`
	LastToken        string    `json:"last_token"`
	LastTokenExpires time.Time `json:"last_token_expires"`
}
