package common

// AuthorizationHeaderName is the HTTP header used to carry the session token
// on requests to the companion server.
const AuthorizationHeaderName = "Authorization"

// LockedTitlePlaceholder replaces a freshly typed plaintext title of a locked
// column/folder in outbound payloads. A list row must still render even when
// the real title may not leave the client.
const LockedTitlePlaceholder = "[加密主题]"
