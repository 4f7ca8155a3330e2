// Package utils validates the values that arrive from viewers before they
// reach a browser: user and platform ids, platform URLs, typed text, key
// names and raw frame sizes.
package utils
