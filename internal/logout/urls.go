package logout

import (
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	LogoutPath         = "/auth/logout"
	LogoutCompletePath = "/auth/logout/complete"
	tokenSkew          = 5 * time.Second
)

// ContinueURL is where a sidecar sends the browser after signing out of serviceID.
func ContinueURL(portalURL, serviceID string) string {
	return strings.TrimRight(portalURL, "/") + LogoutPath + "?serviceId=" + url.QueryEscape(serviceID)
}

// SignOutURL is the sidecar's sign-out endpoint with a continuation.
func SignOutURL(serviceURL, rd string) string {
	return strings.TrimRight(serviceURL, "/") + "/oauth2/sign_out?rd=" + url.QueryEscape(rd)
}

// EndSessionURL builds the identity provider logout URL. The id token is sent
// as a hint only while it is unexpired; otherwise the client id identifies
// the relying party.
func EndSessionURL(identityURL, realm, portalURL, clientID, idToken string, now time.Time) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(identityURL, "/"))
	b.WriteString("/realms/")
	b.WriteString(url.PathEscape(realm))
	b.WriteString("/protocol/openid-connect/logout?")
	if tok := strings.TrimSpace(idToken); tok != "" && !TokenExpired(tok, now) {
		b.WriteString("id_token_hint=" + url.QueryEscape(tok))
	} else {
		b.WriteString("client_id=" + url.QueryEscape(clientID))
	}
	b.WriteString("&post_logout_redirect_uri=")
	b.WriteString(url.QueryEscape(strings.TrimRight(portalURL, "/") + LogoutCompletePath))
	return b.String()
}

// TokenExpired reports whether a JWT's exp claim is in the past, allowing a
// few seconds of clock skew. Anything unparsable counts as expired. The
// signature is not checked; the result only picks a logout parameter.
func TokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := unverified.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Before(now.Add(-tokenSkew))
}

var unverified = jwt.NewParser(jwt.WithPaddingAllowed())
