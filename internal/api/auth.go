package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const authPath = "/auth/authenticate/user"

const (
	authTypeLogin  = "login"
	authTypeSignup = "signup"
)

type authRequest struct {
	PhoneNo  string `json:"phoneNo"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	AuthType string `json:"authType"`
}

// Credentials identify a customer by phone number.
type Credentials struct {
	PhoneNo  string `json:"phoneNo" validate:"required,numeric,len=10"`
	Password string `json:"password" validate:"required"`
}

// ErrNoToken is returned when a login succeeds without issuing a token.
var ErrNoToken = errors.New("api: login response carried no token")

// Login authenticates and stores the issued token in the session. The
// backend reports the token lifetime in milliseconds.
func (c *Client) Login(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	env, err := c.call(ctx, http.MethodPost, authPath, nil, authRequest{
		PhoneNo:  strings.TrimSpace(creds.PhoneNo),
		Password: creds.Password,
		AuthType: authTypeLogin,
	})
	if err != nil {
		return nil, err
	}
	if env.Token == "" {
		return nil, ErrNoToken
	}
	ttl := time.Duration(env.TokenExpire) * time.Millisecond
	if err := c.session.Set(ctx, env.Token, ttl, env.Data); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "Session established", "ttl", ttl)
	return env.Data, nil
}

// Signup registers a customer and logs in with the same credentials.
func (c *Client) Signup(ctx context.Context, creds Credentials, name string) (json.RawMessage, error) {
	_, err := c.call(ctx, http.MethodPost, authPath, nil, authRequest{
		PhoneNo:  strings.TrimSpace(creds.PhoneNo),
		Password: creds.Password,
		Name:     strings.TrimSpace(name),
		AuthType: authTypeSignup,
	})
	if err != nil {
		return nil, err
	}
	return c.Login(ctx, creds)
}

// Logout drops the local session. The backend keeps no server-side session.
func (c *Client) Logout(ctx context.Context) {
	c.session.Clear(ctx)
}
