// Package statsclient implements the optional FilBeam stats service: a
// thin wrapper over one endpoint reporting a data set's CDN egress quota,
// giving callers visibility into remaining egress allowance when a
// preflight estimate or a piece status check wants to surface it.
package statsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"

	logging "github.com/ipfs/go-log/v2"

	"github.com/FilOzone/synapse-sdk-go/lib"
	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

var log = logging.Logger("statsclient")

// Endpoint returns the stats service base URL for network, mirroring
// retriever.CDNEndpoint's "[calibration.]" subdomain prefix convention.
func Endpoint(network chain.Network) string {
	if network == chain.NetworkCalibration {
		return "https://calibration.stats.filbeam.io"
	}
	return "https://stats.filbeam.io"
}

// DataSetQuota is GET /data-set/<id>'s decoded response: both quotas
// arrive as decimal strings and are parsed into 256-bit unsigned
// integers.
type DataSetQuota struct {
	CDNEgressQuota       *big.Int
	CacheMissEgressQuota *big.Int
}

type dataSetQuotaResponse struct {
	CDNEgressQuota       string `json:"cdnEgressQuota"`
	CacheMissEgressQuota string `json:"cacheMissEgressQuota"`
}

// Client wraps one stats-service base URL.
type Client struct {
	endpoint *url.URL
	http     *http.Client
}

// New binds a Client to baseURL (see Endpoint for the network-keyed
// default).
func New(baseURL string) (*Client, error) {
	endpoint, err := lib.ParseAndNormalizeURL(baseURL)
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidAddress, "statsclient.New", err)
	}
	return &Client{endpoint: endpoint, http: http.DefaultClient}, nil
}

// DataSetQuota fetches the egress quota for dataSetID. A 404 response
// maps to KindDataSetNotFound.
func (c *Client) DataSetQuota(ctx context.Context, dataSetID *big.Int) (*DataSetQuota, error) {
	const op = "statsclient.DataSetQuota"
	route := c.endpoint.JoinPath("data-set", dataSetID.String()).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, op, err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, op, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.New(errors.KindDataSetNotFound, op, fmt.Sprintf("data set %s not found", dataSetID))
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.New(errors.KindHTTPError, op, fmt.Sprintf("unexpected status %d", res.StatusCode))
	}

	var body dataSetQuotaResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(errors.KindMalformedServerResponse, op, err)
	}

	cdnQuota, ok := new(big.Int).SetString(body.CDNEgressQuota, 10)
	if !ok {
		return nil, errors.New(errors.KindMalformedServerResponse, op, fmt.Sprintf("invalid cdnEgressQuota: %q", body.CDNEgressQuota))
	}
	cacheMissQuota, ok := new(big.Int).SetString(body.CacheMissEgressQuota, 10)
	if !ok {
		return nil, errors.New(errors.KindMalformedServerResponse, op, fmt.Sprintf("invalid cacheMissEgressQuota: %q", body.CacheMissEgressQuota))
	}

	log.Debugw("fetched data set quota", "dataSetID", dataSetID, "cdnEgressQuota", cdnQuota, "cacheMissEgressQuota", cacheMissQuota)
	return &DataSetQuota{CDNEgressQuota: cdnQuota, CacheMissEgressQuota: cacheMissQuota}, nil
}
