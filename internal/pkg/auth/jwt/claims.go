package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims for a room access token.
// A token is issued by the REST join endpoint and presented on the WebSocket
// upgrade; it carries the identity the relay should announce for the holder.
type Payload struct {
	// StandardClaims embeds the standard JWT fields (Exp, Iat, Iss) used for
	// validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// Username is the normalized display name the holder will join with.
	Username string `json:"username"`

	// Room is the room the token holder is authorized to join.
	Room string `json:"room"`

	// Avatar is the optional avatar URI carried from the join request.
	Avatar string `json:"avatar,omitempty"`
}
