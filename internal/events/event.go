package events

import "encoding/json"

// Event type tags delivered by the event grid.
const (
	TypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
	TypeIncomingCall           = "Microsoft.Communication.IncomingCall"
)

// Event is one envelope from a webhook delivery batch. Data stays opaque
// until the event type is known.
type Event struct {
	ID        string          `json:"id"`
	EventType string          `json:"eventType"`
	Subject   string          `json:"subject"`
	Data      json.RawMessage `json:"data"`
}

type subscriptionValidationData struct {
	ValidationCode string `json:"validationCode"`
}

// incomingCallData carries the fields the router needs from an incoming-call
// notification. Caller and callee identifiers come in two shapes: platform
// users only have rawId, PSTN participants additionally carry a phoneNumber
// object.
type incomingCallData struct {
	From                participant `json:"from"`
	To                  participant `json:"to"`
	IncomingCallContext string      `json:"incomingCallContext"`
}

type participant struct {
	RawID       string       `json:"rawId"`
	Kind        string       `json:"kind"`
	PhoneNumber *phoneNumber `json:"phoneNumber,omitempty"`
}

type phoneNumber struct {
	Value string `json:"value"`
}

// DisplayID returns the most specific identifier for a participant: the
// phone number when present, the raw platform id otherwise.
func (p participant) DisplayID() string {
	if p.PhoneNumber != nil && p.PhoneNumber.Value != "" {
		return p.PhoneNumber.Value
	}
	return p.RawID
}
