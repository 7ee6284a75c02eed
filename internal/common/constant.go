package common

// AuthHeaderName is the HTTP header carrying the bearer access token on
// outbound API requests.
const AuthHeaderName = "Authorization"

// RefreshTokenKey is the fixed key under which the rotating refresh
// credential is persisted in the local credentials store.
const RefreshTokenKey = "refresh_token"

// AuthRejectedCloseCode is the websocket close code the backend uses to
// reject an invalid or expired token on the sync channel. A close with this
// code suppresses reconnection; any other code triggers the fixed-delay
// reconnect policy.
const AuthRejectedCloseCode = 4401
