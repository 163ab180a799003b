package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"

// CallerIdentity holds the resolved identity behind Application Default Credentials.
type CallerIdentity struct {
	// Email is the service account address or user email, when it can be resolved.
	Email string
	// ProjectID is the project associated with the credentials, or the client's fallback.
	ProjectID string
	// CredentialType is the ADC "type" field, e.g. "service_account" or "authorized_user".
	CredentialType string
}

// adcFile matches the fields we care about in an ADC credentials file.
type adcFile struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"` // service_account only
}

// CallerIdentity checks that the client's credentials can mint a token and
// returns who they belong to.
func (c *Client) CallerIdentity(ctx context.Context) (*CallerIdentity, error) {
	token, err := c.credentials.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf(
			"failed to refresh GCP credentials (run 'gcloud auth application-default login'): %w",
			err,
		)
	}
	if !token.Valid() {
		return nil, errors.New("GCP credentials are expired (run 'gcloud auth application-default login')")
	}

	id := &CallerIdentity{ProjectID: c.project}

	var adc adcFile
	if len(c.credentials.JSON) > 0 && json.Unmarshal(c.credentials.JSON, &adc) == nil {
		id.CredentialType = adc.Type
		id.Email = adc.ClientEmail
	} else if data, err := os.ReadFile(adcPath()); err == nil && json.Unmarshal(data, &adc) == nil {
		id.CredentialType = adc.Type
		id.Email = adc.ClientEmail
	}

	if id.Email == "" {
		if email, err := fetchEmail(ctx, token); err == nil {
			id.Email = email
		}
	}
	return id, nil
}

// adcPath returns the path of the active ADC file, honoring GOOGLE_APPLICATION_CREDENTIALS.
func adcPath() string {
	if env := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gcloud", "application_default_credentials.json")
}

// fetchEmail asks the userinfo endpoint which account owns token. User
// credentials do not store the email locally.
func fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return "", err
	}
	token.SetAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var info struct {
		Email            string `json:"email"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.Error != "" {
		return "", fmt.Errorf("%s: %s", info.Error, info.ErrorDescription)
	}
	return info.Email, nil
}
