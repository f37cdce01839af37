package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"wikiutils/pkg/config"
	"wikiutils/pkg/request"
)

var (
	// ErrLogin indicates the login handshake was rejected.
	ErrLogin = errors.New("wiki login failed")
	// ErrEdit indicates the edit was rejected by the API.
	ErrEdit = errors.New("wiki edit failed")
	// ErrPageNotFound indicates the requested page does not exist.
	ErrPageNotFound = errors.New("wiki page not found")
	// ErrUpload indicates a file upload was rejected by the API.
	ErrUpload = errors.New("wiki upload failed")
	// ErrParse indicates a failure to parse the response.
	ErrParse = errors.New("wiki parse error")
)

// Client handles MediaWiki action API interactions: login, page reads and
// page writes. The session cookie lives in the request client's jar; the
// CSRF token is held here after Login.
type Client struct {
	request     *request.Client
	APIEndpoint string
	Logger      *slog.Logger

	username  string
	password  string
	csrfToken string
}

// NewClient creates a new wiki client for the configured site.
func NewClient(r *request.Client, cfg *config.WikiConfig, logger *slog.Logger) *Client {
	return &Client{
		request:     r,
		APIEndpoint: cfg.APIEndpoint,
		Logger:      logger,
		username:    cfg.Username,
		password:    cfg.Password,
	}
}

// Login performs the MediaWiki token dance: fetch a login token, post the
// credentials, then fetch the CSRF token used for subsequent edits.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("%w: missing credentials", ErrLogin)
	}

	loginToken, err := c.fetchToken(ctx, "login")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogin, err)
	}

	form := url.Values{}
	form.Add("action", "login")
	form.Add("format", "json")
	form.Add("lgname", c.username)
	form.Add("lgpassword", c.password)
	form.Add("lgtoken", loginToken)

	body, err := c.request.PostForm(ctx, c.APIEndpoint, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogin, err)
	}

	var result struct {
		Login struct {
			Result string `json:"result"`
			Reason string `json:"reason"`
		} `json:"login"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if result.Login.Result != "Success" {
		return fmt.Errorf("%w: %s (%s)", ErrLogin, result.Login.Result, result.Login.Reason)
	}

	csrf, err := c.fetchToken(ctx, "csrf")
	if err != nil {
		return fmt.Errorf("%w: csrf token: %v", ErrLogin, err)
	}
	c.csrfToken = csrf

	c.Logger.Info("Logged in to wiki", "endpoint", c.APIEndpoint, "user", c.username)
	return nil
}

// Username returns the configured account name.
func (c *Client) Username() string {
	return c.username
}

func (c *Client) fetchToken(ctx context.Context, tokenType string) (string, error) {
	u, err := url.Parse(c.APIEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Add("action", "query")
	q.Add("meta", "tokens")
	q.Add("type", tokenType)
	q.Add("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return "", err
	}

	var result struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	token, ok := result.Query.Tokens[tokenType+"token"]
	if !ok || token == "" {
		return "", fmt.Errorf("no %s token in response", tokenType)
	}
	return token, nil
}

// GetPageText fetches the current wikitext of a page. Returns
// ErrPageNotFound for missing pages.
func (c *Client) GetPageText(ctx context.Context, title string) (string, error) {
	u, err := url.Parse(c.APIEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Add("action", "query")
	q.Add("prop", "revisions")
	q.Add("rvprop", "content")
	q.Add("rvslots", "main")
	q.Add("titles", title)
	q.Add("format", "json")
	q.Add("formatversion", "2")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return "", err
	}

	var result struct {
		Query struct {
			Pages []struct {
				Title     string `json:"title"`
				Missing   bool   `json:"missing"`
				Revisions []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	if len(result.Query.Pages) == 0 {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, title)
	}
	page := result.Query.Pages[0]
	if page.Missing || len(page.Revisions) == 0 {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, title)
	}

	return page.Revisions[0].Slots.Main.Content, nil
}

// PageExists reports whether a page has any content.
func (c *Client) PageExists(ctx context.Context, title string) (bool, error) {
	_, err := c.GetPageText(ctx, title)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SaveOptions controls SavePage behavior.
type SaveOptions struct {
	Summary    string
	Minor      bool
	CreateOnly bool // fail instead of overwriting an existing page
}

// SavePage writes text to a page. Requires a prior Login.
func (c *Client) SavePage(ctx context.Context, title, text string, opts SaveOptions) error {
	if c.csrfToken == "" {
		return fmt.Errorf("%w: not logged in", ErrEdit)
	}

	form := url.Values{}
	form.Add("action", "edit")
	form.Add("format", "json")
	form.Add("title", title)
	form.Add("text", text)
	form.Add("summary", opts.Summary)
	form.Add("bot", "1")
	form.Add("token", c.csrfToken)
	if opts.Minor {
		form.Add("minor", "1")
	}
	if opts.CreateOnly {
		form.Add("createonly", "1")
	}

	body, err := c.request.PostForm(ctx, c.APIEndpoint, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEdit, err)
	}

	var result struct {
		Edit struct {
			Result string `json:"result"`
		} `json:"edit"`
		Error struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	if result.Error.Code != "" {
		return fmt.Errorf("%w: %s: %s", ErrEdit, result.Error.Code, result.Error.Info)
	}
	if result.Edit.Result != "Success" {
		return fmt.Errorf("%w: result %q", ErrEdit, result.Edit.Result)
	}

	c.Logger.Info("Saved page", "title", title, "summary", opts.Summary)
	return nil
}

// GetRenderedHTML fetches the rendered HTML of a page via action=parse.
func (c *Client) GetRenderedHTML(ctx context.Context, title string) (string, error) {
	u, err := url.Parse(c.APIEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Add("action", "parse")
	q.Add("page", title)
	q.Add("prop", "text")
	q.Add("format", "json")
	q.Add("formatversion", "2")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return "", err
	}

	var result struct {
		Parse struct {
			Text string `json:"text"`
		} `json:"parse"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	if result.Error.Code == "missingtitle" {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, title)
	}

	return result.Parse.Text, nil
}
