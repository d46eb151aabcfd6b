// Package browser implements viewport.Driver against a live Chrome page
// using go-rod. Each Driver owns one incognito context so concurrent
// sessions never share cookies or storage.
package browser
