package httpapi

import (
	"net/http"

	"github.com/crmarques/confsync/config"
)

type authConfig struct {
	username string
	password string
	token    string
}

func buildAuthConfig(auth *config.Auth) (authConfig, error) {
	if auth == nil {
		return authConfig{}, nil
	}

	hasBasic := auth.BasicAuth != nil && auth.BasicAuth.Username != ""
	hasToken := auth.BearerToken != nil && auth.BearerToken.Token != ""
	if hasBasic && hasToken {
		return authConfig{}, validationError("basic-auth and bearer-token are mutually exclusive", nil)
	}

	if hasBasic {
		return authConfig{
			username: auth.BasicAuth.Username,
			password: auth.BasicAuth.Password,
		}, nil
	}
	if hasToken {
		return authConfig{token: auth.BearerToken.Token}, nil
	}
	return authConfig{}, nil
}

func (a authConfig) apply(request *http.Request) {
	switch {
	case a.token != "":
		request.Header.Set("Authorization", "Bearer "+a.token)
	case a.username != "":
		request.SetBasicAuth(a.username, a.password)
	}
}
