package vk

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the VK API method root
	DefaultBaseURL = "https://api.vk.com/method/"

	// DefaultAPIVersion is the API version every call is pinned to
	DefaultAPIVersion = "5.131"

	methodPhotosGet    = "photos.get"
	methodPhotosGetAll = "photos.getAll"

	// ProfileAlbum is the album id of a user's profile pictures
	ProfileAlbum = "profile"

	// MaxPageSize is the largest count photos.getAll accepts
	MaxPageSize = 200
)

// VK error codes that mean the token itself is unusable
const (
	errCodeAuthFailed   = 5
	errCodeAccessDenied = 15
	errCodeValidation   = 17
)

// methodURL joins the base URL, method name and query parameters
func methodURL(baseURL, method string, params url.Values) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + method + "?" + params.Encode()
}

// recentParams builds the photos.get query for the newest profile pictures
func recentParams(ownerID string, count int) url.Values {
	params := url.Values{}
	params.Set("owner_id", ownerID)
	params.Set("album_id", ProfileAlbum)
	params.Set("rev", "1")
	params.Set("extended", "1")
	params.Set("count", strconv.Itoa(count))
	return params
}

// allParams builds one page of the photos.getAll query
func allParams(ownerID string, offset, count int) url.Values {
	params := url.Values{}
	params.Set("owner_id", ownerID)
	params.Set("extended", "1")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(count))
	return params
}
