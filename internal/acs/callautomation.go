package acs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/commsvc/call-routing-backend/pkg/logger"
)

const callAutomationAPIVersion = "2023-10-15"

// CallAutomationClient issues call-control commands against the platform
// calling API. Only redirect is needed by the routing path.
type CallAutomationClient struct {
	endpoint   string
	accessKey  []byte
	httpClient *http.Client
}

func NewCallAutomationClient(cs *ConnectionString) *CallAutomationClient {
	return &CallAutomationClient{
		endpoint:   cs.Endpoint,
		accessKey:  cs.AccessKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type redirectCallRequest struct {
	IncomingCallContext string      `json:"incomingCallContext"`
	Target              callInvitee `json:"target"`
}

type callInvitee struct {
	Identifier communicationIdentifier `json:"targetParticipant"`
}

type communicationIdentifier struct {
	RawID             string                `json:"rawId"`
	CommunicationUser *communicationUserRef `json:"communicationUser,omitempty"`
	PhoneNumber       *phoneNumberRef       `json:"phoneNumber,omitempty"`
}

type communicationUserRef struct {
	ID string `json:"id"`
}

type phoneNumberRef struct {
	Value string `json:"value"`
}

// RedirectCall redirects the ringing call identified by incomingCallContext
// to the participant with the given raw platform identifier.
func (c *CallAutomationClient) RedirectCall(ctx context.Context, incomingCallContext, targetRawID string) error {
	target := communicationIdentifier{RawID: targetRawID}
	if strings.HasPrefix(targetRawID, "4:") {
		target.PhoneNumber = &phoneNumberRef{Value: strings.TrimPrefix(targetRawID, "4:")}
	} else {
		target.CommunicationUser = &communicationUserRef{ID: targetRawID}
	}
	payload, err := json.Marshal(redirectCallRequest{
		IncomingCallContext: incomingCallContext,
		Target:              callInvitee{Identifier: target},
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/calling/callConnections:redirect?api-version=%s", c.endpoint, callAutomationAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	signRequest(req, payload, c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("redirect call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("redirect call: platform returned %d: %s", resp.StatusCode, body)
	}
	logger.Infof("call redirected to %s", targetRawID)
	return nil
}
