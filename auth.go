package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	log "github.com/sirupsen/logrus"
)

const (
	dogeCloudAPI      = "https://api.dogecloud.com"
	dogeCloudTokenAPI = "/auth/tmp_token.json"
)

var errEmptyCredentials = errors.New("token exchange returned empty credentials")

type tmpTokenRequest struct {
	Channel string   `json:"channel"`
	Scopes  []string `json:"scopes"`
}

type tmpTokenResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Credentials struct {
			AccessKeyID     string `json:"accessKeyId"`
			SecretAccessKey string `json:"secretAccessKey"`
			SessionToken    string `json:"sessionToken"`
		} `json:"Credentials"`
		ExpiredAt int64 `json:"ExpiredAt"`
	} `json:"data"`
}

// DogeCloudCredentials exchanges a long-lived DogeCloud key pair for
// short-lived storage credentials. Wrap it in aws.NewCredentialsCache so the
// exchange only happens when the previous token is about to expire.
type DogeCloudCredentials struct {
	AccessKey string
	SecretKey string
	client    *req.Client
}

func NewDogeCloudCredentials(accessKey, secretKey, baseURL string) *DogeCloudCredentials {
	if baseURL == "" {
		baseURL = dogeCloudAPI
	}
	client := req.C().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	return &DogeCloudCredentials{
		AccessKey: accessKey,
		SecretKey: secretKey,
		client:    client,
	}
}

// signRequest returns the Authorization header for a DogeCloud API call.
func (d *DogeCloudCredentials) signRequest(apiPath, body string) string {
	mac := hmac.New(sha1.New, []byte(d.SecretKey))
	mac.Write([]byte(apiPath + "\n" + body))
	return fmt.Sprintf("TOKEN %s:%s", d.AccessKey, hex.EncodeToString(mac.Sum(nil)))
}

func (d *DogeCloudCredentials) Retrieve(ctx context.Context) (aws.Credentials, error) {
	payload, err := json.Marshal(tmpTokenRequest{Channel: "OSS_FULL", Scopes: []string{"*"}})
	if err != nil {
		return aws.Credentials{}, err
	}
	body := string(payload)

	var out tmpTokenResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Authorization", d.signRequest(dogeCloudTokenAPI, body)).
		SetBodyJsonString(body).
		SetSuccessResult(&out).
		Post(dogeCloudTokenAPI)
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("token request: %w", err)
	}
	if resp.IsErrorState() {
		return aws.Credentials{}, fmt.Errorf("token request failed: %s (%s)", resp.Status, resp.String())
	}
	if out.Code != 200 {
		return aws.Credentials{}, fmt.Errorf("API Error: %s", out.Msg)
	}

	creds := out.Data.Credentials
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errEmptyCredentials
	}

	// never log the credential values
	log.Debug(fmt.Sprintf("Acquired temporary storage credentials, expiring at %s", time.Unix(out.Data.ExpiredAt, 0).UTC()))

	return aws.Credentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
		Source:          "DogeCloudCredentials",
		CanExpire:       out.Data.ExpiredAt > 0,
		Expires:         time.Unix(out.Data.ExpiredAt, 0),
	}, nil
}
