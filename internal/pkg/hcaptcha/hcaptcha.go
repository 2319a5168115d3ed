package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ourstoryourvoice/osov/internal/pkg/env"
)

const defaultVerifyURL = "https://hcaptcha.com/siteverify"

var ErrEmptyToken = errors.New("hCaptcha token is empty")

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier checks form tokens against the hCaptcha API. A verifier without a
// secret is disabled and accepts everything.
type Verifier struct {
	Secret    string
	SiteKey   string
	VerifyURL string
	Client    *http.Client
}

func NewVerifierFromEnv() *Verifier {
	return &Verifier{
		Secret:    env.GetEnv("HCAPTCHA_SECRET", ""),
		SiteKey:   env.GetEnv("HCAPTCHA_SITEKEY", ""),
		VerifyURL: defaultVerifyURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) Enabled() bool {
	return v != nil && v.Secret != ""
}

func (v *Verifier) Verify(ctx context.Context, token string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrEmptyToken
	}

	form := url.Values{
		"secret":   {v.Secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build hCaptcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send request to hCaptcha API: %w", err)
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode hCaptcha API response: %w", err)
	}

	if !response.Success {
		if len(response.ErrorCodes) > 0 {
			return fmt.Errorf("hCaptcha validation failed: %s", strings.Join(response.ErrorCodes, ", "))
		}
		return errors.New("hCaptcha validation failed")
	}
	return nil
}
