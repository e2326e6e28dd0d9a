// Package prestashop publishes scraped products to a PrestaShop catalog
// through its XML webservice.
package prestashop

import (
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/recordsync"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is the default timeout for a single webservice call.
const DefaultTimeout = 10 * time.Second

// DefaultUploadTimeout is the default timeout for a single image upload.
const DefaultUploadTimeout = 30 * time.Second

// Client is a minimal client for the PrestaShop webservice.
// Every response must be a 2xx with a well-formed XML body; anything else
// is reported as EREMOTE.
type Client struct {
	http          *resty.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	retries       int
	retryWait     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for webservice calls.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUploadTimeout sets the timeout for image uploads.
// Defaults to DefaultUploadTimeout if not specified.
func WithUploadTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.uploadTimeout = d
	}
}

// WithRetry retries failed GET requests up to count times, waiting wait
// between attempts. Mutating requests are never retried.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.retries = count
		c.retryWait = wait
	}
}

// NewClient creates a client for the webservice rooted at baseURL
// (e.g. "https://shop.example/api") authenticating with key.
func NewClient(baseURL, key string, opts ...Option) *Client {
	c := &Client{
		timeout:       DefaultTimeout,
		uploadTimeout: DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(key, "").
		SetHeader("Accept", "application/xml")
	return c
}

// BlankProduct fetches the blank product template.
func (c *Client) BlankProduct(ctx context.Context) (*etree.Document, error) {
	return c.get(ctx, "/products", url.Values{"schema": {"blank"}})
}

// CreateProduct submits doc and returns the new product id.
// The id is read from the Location header; when the platform omits it the
// most recent product carrying ref is looked up instead.
func (c *Client) CreateProduct(ctx context.Context, doc *etree.Document, ref recordsync.Reference) (string, error) {
	res, err := c.sendXML(ctx, resty.MethodPost, "/products", doc)
	if err != nil {
		return "", err
	}
	if loc := res.Header().Get("Location"); loc != "" {
		if id := path.Base(strings.TrimRight(loc, "/")); isID(id) {
			return id, nil
		}
	}
	return c.FindProductID(ctx, ref)
}

// FindProductID returns the id of the most recently created product whose
// reference is ref.
func (c *Client) FindProductID(ctx context.Context, ref recordsync.Reference) (string, error) {
	doc, err := c.get(ctx, "/products", url.Values{
		"filter[reference]": {"[" + string(ref) + "]"},
		"sort":              {"[id_DESC]"},
		"limit":             {"1"},
		"display":           {"[id]"},
	})
	if err != nil {
		return "", err
	}
	el := doc.FindElement(".//product/id")
	if el == nil || strings.TrimSpace(el.Text()) == "" {
		return "", recordsync.Errorf(recordsync.EREMOTE, "no product with reference %s", ref)
	}
	return strings.TrimSpace(el.Text()), nil
}

// UpdateQuantity sets the stock quantity of the default combination of
// product id.
func (c *Client) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	list, err := c.get(ctx, "/stock_availables", url.Values{"filter[id_product]": {"[" + id + "]"}})
	if err != nil {
		return err
	}
	var stockID string
	for _, el := range list.FindElements(".//stock_available") {
		if v := el.SelectAttrValue("id", ""); v != "" {
			stockID = v
			break
		}
	}
	if stockID == "" {
		return recordsync.Errorf(recordsync.EREMOTE, "no stock record for product %s", id)
	}

	doc, err := c.get(ctx, "/stock_availables/"+stockID, nil)
	if err != nil {
		return err
	}
	stock := doc.FindElement(".//stock_available")
	if stock == nil {
		return recordsync.Errorf(recordsync.EREMOTE, "stock record %s has no stock_available element", stockID)
	}
	child(stock, "id_product_attribute").SetText("0")
	child(stock, "quantity").SetText(strconv.Itoa(quantity))

	_, err = c.sendXML(ctx, resty.MethodPut, "/stock_availables/"+stockID, doc)
	return err
}

// UploadImage uploads the image at file to product id and returns the new
// image id.
func (c *Client) UploadImage(ctx context.Context, id, file string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("detect_image_type", "1").
		SetFile("image", file).
		Post("/images/products/" + id)
	if err != nil {
		return "", recordsync.Errorf(recordsync.EREMOTE, "uploading %s: %v", path.Base(file), err)
	}
	if !res.IsSuccess() {
		return "", statusError(res)
	}

	// Recent versions answer with the created image; older ones with nothing.
	if body := res.Body(); len(body) > 0 {
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err == nil {
			if el := doc.FindElement(".//image/id"); el != nil && isID(strings.TrimSpace(el.Text())) {
				return strings.TrimSpace(el.Text()), nil
			}
		}
	}
	return c.LatestImageID(ctx, id)
}

// LatestImageID returns the highest image id attached to product id.
func (c *Client) LatestImageID(ctx context.Context, id string) (string, error) {
	doc, err := c.get(ctx, "/images/products/"+id, url.Values{"display": {"[id]"}})
	if err != nil {
		return "", err
	}
	// Newer versions list images as declinations of the product image node.
	latest := maxID(doc.FindElements(".//declination"))
	if latest < 0 {
		latest = maxID(doc.FindElements(".//image"))
	}
	if latest < 0 {
		return "", recordsync.Errorf(recordsync.EREMOTE, "product %s has no images", id)
	}
	return strconv.Itoa(latest), nil
}

// maxID returns the highest numeric id carried by els, either as an id
// attribute or an id child, or -1 if there is none.
func maxID(els []*etree.Element) int {
	latest := -1
	for _, el := range els {
		v := el.SelectAttrValue("id", "")
		if v == "" {
			if idEl := el.SelectElement("id"); idEl != nil {
				v = strings.TrimSpace(idEl.Text())
			}
		}
		if n, err := strconv.Atoi(v); err == nil && n > latest {
			latest = n
		}
	}
	return latest
}

// get fetches and parses an XML resource, retrying transport failures and
// 5xx responses as configured.
func (c *Client) get(ctx context.Context, resource string, query url.Values) (*etree.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryWait):
			}
		}

		doc, retry, err := c.getOnce(ctx, resource, query)
		if err == nil {
			return doc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, resource string, query url.Values) (*etree.Document, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(resource)
	if err != nil {
		return nil, true, recordsync.Errorf(recordsync.EREMOTE, "GET %s: %v", resource, err)
	}
	if !res.IsSuccess() {
		return nil, res.StatusCode() >= 500, statusError(res)
	}
	doc, err := parse(res)
	return doc, false, err
}

// sendXML submits doc with method and checks the response status.
func (c *Client) sendXML(ctx context.Context, method, resource string, doc *etree.Document) (*resty.Response, error) {
	body, err := doc.WriteToBytes()
	if err != nil {
		return nil, recordsync.Errorf(recordsync.EINTERNAL, "serializing %s: %v", resource, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/xml").
		SetBody(body).
		Execute(method, resource)
	if err != nil {
		return nil, recordsync.Errorf(recordsync.EREMOTE, "%s %s: %v", method, resource, err)
	}
	if !res.IsSuccess() {
		return nil, statusError(res)
	}
	if len(res.Body()) > 0 {
		if _, err := parse(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func parse(res *resty.Response) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(res.Body()); err != nil {
		return nil, recordsync.Errorf(recordsync.EREMOTE, "%s %s: invalid XML: %v", res.Request.Method, res.Request.URL, err)
	}
	if doc.Root() == nil {
		return nil, recordsync.Errorf(recordsync.EREMOTE, "%s %s: empty XML document", res.Request.Method, res.Request.URL)
	}
	return doc, nil
}

// statusError describes a non-2xx response, including the first error
// message the webservice reported.
func statusError(res *resty.Response) error {
	msg := ""
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(res.Body()); err == nil {
		if el := doc.FindElement(".//error/message"); el != nil {
			msg = ": " + strings.TrimSpace(el.Text())
		}
	}
	return recordsync.Errorf(recordsync.EREMOTE, "%s %s: HTTP %d%s", res.Request.Method, res.Request.URL, res.StatusCode(), msg)
}

func isID(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}
