package client

import "net/url"

const apiPrefix = "/accounts/api/v1"

// Accounts service routes.
const (
	PathRequestOTP               = apiPrefix + "/users/auth/request-otp"
	PathVerifyOTP                = apiPrefix + "/users/auth/verify-otp"
	PathRefresh                  = apiPrefix + "/users/auth/refresh"
	PathLogout                   = apiPrefix + "/users/auth/logout"
	PathRequestEmailVerification = apiPrefix + "/users/auth/request-email-verification"
	PathVerifyEmail              = apiPrefix + "/users/auth/verify-email"

	PathUsers       = apiPrefix + "/users"
	PathCurrentUser = apiPrefix + "/users/me"
	PathSearchUsers = apiPrefix + "/users/search"

	PathProfiles = apiPrefix + "/profiles"
)

func userPath(id string) string { return PathUsers + "/" + url.PathEscape(id) }

func userProfilesPath(id string) string { return userPath(id) + "/profiles" }

func userProfilePath(id string) string { return userPath(id) + "/profile" }

func profilePath(id string) string { return PathProfiles + "/" + url.PathEscape(id) }
