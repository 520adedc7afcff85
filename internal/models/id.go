package models

import "crypto/rand"

// 64 characters so a random byte maps onto it without modulo bias, all of
// them URL-safe.
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"

// NewShortID returns an 11-character URL-safe event id. Events also carry a
// UUID as their secondary globally-unique id; the short id is what appears
// in links.
func NewShortID() string {
	buf := make([]byte, 11)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = idAlphabet[b&0x3f]
	}
	return string(buf)
}
