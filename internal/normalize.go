package internal

import (
	"io"

	"github.com/frankli0324/go-requests/internal/cookie"
	"github.com/frankli0324/go-requests/internal/decode"
	"github.com/frankli0324/go-requests/internal/http"
)

// normalize reads the response of pr from conn. On success the connection
// is owned by the response body.
func (c *Client) normalize(conn io.ReadWriteCloser, pr *PreparedRequest) (*http.Response, error) {
	resp := &http.Response{URL: pr.U}
	if err := c.getTransport().Read(conn, pr, resp); err != nil {
		return nil, http.Transport("read response", err)
	}

	host := pr.U.Hostname()
	for _, line := range resp.Headers.Values("Set-Cookie") {
		ck, err := cookie.Parse(host, pr.EffectivePath, line)
		if err != nil {
			c.logger().Warn("dropping malformed cookie",
				slogURL(pr.U), "set-cookie", line, "error", err)
			continue
		}
		resp.Cookies = append(resp.Cookies, ck)
	}
	// captured whatever the status and before decoding, a body that fails
	// to decode does not lose the cookies
	if pr.Session != nil {
		pr.Session.UpdateCookies(resp.Cookies)
	}

	body, err := decode.Decode(pr.Method, resp.StatusCode, resp.Headers, resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = http.NewBody(body)
	return resp, nil
}
