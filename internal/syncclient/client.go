// Package syncclient is the client's protocol adapter to the server's HTTP
// surface: version, pull, and push requests, each raced against a
// 5-second wall-clock timeout.
package syncclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/camlsync/camlsync/internal/camlerrors"
	"github.com/camlsync/camlsync/internal/versiondiff"
)

// Timeout is the wall-clock deadline every request races against.
const Timeout = 5 * time.Second

// Client talks to a single server base URL with a shared token.
type Client struct {
	http  *req.Client
	token string
}

// New returns a Client pointed at baseURL, authenticating with token.
// baseURL is taken as-is if it already carries a scheme (e.g. from a saved
// config); a bare host:port such as clientconfig.DefaultURL gets "http://"
// prepended, since req/url.Parse would otherwise treat the host as the
// scheme and every request would fail with an unsupported-protocol error.
func New(baseURL, token string) *Client {
	c := req.C().
		SetBaseURL(normalizeBaseURL(baseURL)).
		SetTimeout(Timeout)
	return &Client{http: c, token: token}
}

func normalizeBaseURL(baseURL string) string {
	if strings.Contains(baseURL, "://") {
		return baseURL
	}
	return "http://" + baseURL
}

// versionResp is the §6.1 VersionResp shape.
type versionResp struct {
	Version int `json:"version"`
}

// GetLatestVersion issues GET /version.
func (c *Client) GetLatestVersion(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var out versionResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetSuccessResult(&out).
		Get("/version")
	if err := mapError(resp, err); err != nil {
		return 0, err
	}
	return out.Version, nil
}

// GetUpdateDiff issues GET /diff?from=<from>, returning the composed
// version diff from..current.
func (c *Client) GetUpdateDiff(ctx context.Context, from int) (versiondiff.VersionDiff, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var out versiondiff.VersionDiff
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetQueryParam("from", fmt.Sprintf("%d", from)).
		SetSuccessResult(&out).
		Get("/diff")
	if err := mapError(resp, err); err != nil {
		return versiondiff.VersionDiff{}, err
	}
	return out, nil
}

// PostLocalDiff issues POST /diff with vd as the body, returning the new
// server version number.
func (c *Client) PostLocalDiff(ctx context.Context, vd versiondiff.VersionDiff) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var out versionResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetBody(vd).
		SetSuccessResult(&out).
		Post("/diff")
	if err := mapError(resp, err); err != nil {
		return 0, err
	}
	return out.Version, nil
}

// GetVersionRange issues GET /diff?from=<from>&to=<to>, for materializing an
// arbitrary historical version rather than the latest (history <N>, §6.2).
func (c *Client) GetVersionRange(ctx context.Context, from, to int) (versiondiff.VersionDiff, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var out versiondiff.VersionDiff
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetQueryParam("from", fmt.Sprintf("%d", from)).
		SetQueryParam("to", fmt.Sprintf("%d", to)).
		SetSuccessResult(&out).
		Get("/diff")
	if err := mapError(resp, err); err != nil {
		return versiondiff.VersionDiff{}, err
	}
	return out, nil
}

// HistoryEntry mirrors the §6.1 HistoryLog row shape.
type HistoryEntry struct {
	Version   int     `json:"version"`
	Timestamp float64 `json:"timestamp"`
}

// GetHistory issues GET /history.
func (c *Client) GetHistory(ctx context.Context) ([]HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var out struct {
		Log []HistoryEntry `json:"log"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetSuccessResult(&out).
		Get("/history")
	if err := mapError(resp, err); err != nil {
		return nil, err
	}
	return out.Log, nil
}

// mapError implements §4.5's shared error mapping: timeout, 401, 400, and
// everything else (non-2xx or a parse failure) maps to ServerError.
func mapError(resp *req.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return camlerrors.ErrTimeout
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return camlerrors.ErrTimeout
		}
		return fmt.Errorf("%w: %v", camlerrors.ErrServerError, err)
	}

	if resp == nil {
		return fmt.Errorf("%w: empty response", camlerrors.ErrServerError)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusUnauthorized:
		return camlerrors.ErrUnauthorized
	case http.StatusBadRequest:
		return camlerrors.ErrBadRequest
	default:
		return fmt.Errorf("%w: status %d", camlerrors.ErrServerError, resp.StatusCode)
	}
}
