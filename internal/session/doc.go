// Package session is the boundary to the hosted auth provider.
//
// The rest of the client only depends on the three-operation Client shape:
// construction from a URL and key pair, OnAuthStateChange, and GetSession.
// HTTPProvider implements it against a GoTrue-style REST endpoint and keeps
// the current session in a storage.Backend so it survives restarts.
package session
