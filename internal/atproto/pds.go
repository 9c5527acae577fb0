// Package atproto writes and deletes records in a caller's repository on their PDS.
package atproto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/metrics"
)

const (
	createRecordNSID = "com.atproto.repo.createRecord"
	deleteRecordNSID = "com.atproto.repo.deleteRecord"
)

type createRecordInput struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type createRecordOutput struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type deleteRecordInput struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}

// xrpcError is the error body every XRPC endpoint returns
type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PDSClient calls the repo endpoints of the caller's PDS with the caller's token
type PDSClient struct {
	userAgent  string
	httpClient *http.Client
}

var _ domain.RecordStore = (*PDSClient)(nil)

// NewPDSClient creates a client whose requests are bounded by timeout
func NewPDSClient(userAgent string, timeout time.Duration) *PDSClient {
	return &PDSClient{
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *PDSClient) CreateRecord(ctx context.Context, caller domain.Caller, collection string, record any) (uri string, err error) {
	defer observe("create", &err)

	var out createRecordOutput
	err = p.call(ctx, caller, createRecordNSID, createRecordInput{
		Repo:       caller.DID,
		Collection: collection,
		Record:     record,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URI, nil
}

func (p *PDSClient) DeleteRecord(ctx context.Context, caller domain.Caller, collection, rkey string) (err error) {
	defer observe("delete", &err)

	return p.call(ctx, caller, deleteRecordNSID, deleteRecordInput{
		Repo:       caller.DID,
		Collection: collection,
		RKey:       rkey,
	}, nil)
}

func (p *PDSClient) call(ctx context.Context, caller domain.Caller, nsid string, in, out any) error {
	if caller.PDSHost == "" || caller.AccessToken == "" {
		return fmt.Errorf("%w: no session for %s", domain.ErrWriteRejected, caller.DID)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(caller.PDSHost, "/") + "/xrpc/" + nsid
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRecordStoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+caller.AccessToken)
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrRecordStoreUnavailable, nsid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var xe xrpcError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&xe)
		// 4xx means the PDS looked at the request and said no
		if resp.StatusCode < 500 {
			return fmt.Errorf("%w: %s: status %d %s %s", domain.ErrWriteRejected, nsid, resp.StatusCode, xe.Error, xe.Message)
		}
		return fmt.Errorf("%w: %s: status %d %s %s", domain.ErrRecordStoreUnavailable, nsid, resp.StatusCode, xe.Error, xe.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode: %w", domain.ErrRecordStoreUnavailable, nsid, err)
	}
	return nil
}

func observe(action string, err *error) {
	result := metrics.ResultOK
	if *err != nil {
		result = metrics.ResultError
		if errors.Is(*err, domain.ErrWriteRejected) {
			result = "rejected"
		}
	}
	metrics.RecordWrites.WithLabelValues(action, result).Inc()
}
