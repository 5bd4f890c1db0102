package common

// UnknownUserName is shown in place of a user whose profile is missing or
// has been deleted.
const UnknownUserName = "Unknown"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "
