// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// AuthorizeEndpoint is the browser-facing OAuth2 consent page.
const AuthorizeEndpoint = "https://discord.com/oauth2/authorize"

// LoginScopes are requested for the dashboard login.
const LoginScopes = "identify guilds"

// BotPermissions is requested when inviting the bot: Use Application
// Commands (1 << 31).
const BotPermissions = "2147483648"

// OAuth holds the application's OAuth2 credentials.
type OAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Token is an OAuth2 access token response.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// AuthorizeURL returns the consent URL for the dashboard login.
func (o OAuth) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":     {o.ClientID},
		"redirect_uri":  {o.RedirectURI},
		"response_type": {"code"},
		"scope":         {LoginScopes},
	}
	if state != "" {
		params.Set("state", state)
	}
	return AuthorizeEndpoint + "?" + params.Encode()
}

// BotInviteURL returns the URL that adds the bot to a guild. guildID
// preselects the guild and may be empty.
func BotInviteURL(clientID, guildID string) string {
	params := url.Values{
		"client_id":   {clientID},
		"permissions": {BotPermissions},
		"scope":       {"bot applications.commands"},
	}
	if guildID != "" {
		params.Set("guild_id", guildID)
		params.Set("disable_guild_select", "true")
	}
	return AuthorizeEndpoint + "?" + params.Encode()
}

// Exchange trades an authorization code for an access token.
func (client *Client) Exchange(ctx context.Context, oauth OAuth, code string) (*Token, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("discord: authorization code is empty")
	}
	if oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, errors.New("discord: OAuth client credentials are not configured")
	}

	var token Token
	err := client.do(ctx, request{
		method: http.MethodPost,
		path:   "/oauth2/token",
		form: url.Values{
			"client_id":     {oauth.ClientID},
			"client_secret": {oauth.ClientSecret},
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"redirect_uri":  {oauth.RedirectURI},
		},
	}, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("discord: token response has no access_token")
	}
	return &token, nil
}

// CurrentUser returns the user an access token belongs to.
func (client *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	err := client.do(ctx, request{
		method:        http.MethodGet,
		path:          "/users/@me",
		authorization: "Bearer " + accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserGuilds returns the guilds the token's user belongs to,
// with that user's permissions in each.
func (client *Client) CurrentUserGuilds(ctx context.Context, accessToken string) ([]Guild, error) {
	var guilds []Guild
	err := client.do(ctx, request{
		method:        http.MethodGet,
		path:          "/users/@me/guilds",
		authorization: "Bearer " + accessToken,
	}, &guilds)
	if err != nil {
		return nil, err
	}
	return guilds, nil
}
