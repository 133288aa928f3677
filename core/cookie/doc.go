// Package cookie provides HTTP cookie management with HMAC signing and key
// rotation support.
//
// The Manager signs values with HMAC-SHA256 using the first configured
// secret and verifies against all of them, so secrets can be rotated without
// invalidating cookies issued under an older key:
//
//	mgr, err := cookie.New([]string{newSecret, oldSecret})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Issue a tamper-evident cookie.
//	err = mgr.SetSigned(w, "id", sessionID, cookie.WithMaxAge(3600))
//
//	// Read it back; fails with ErrInvalidSignature on tampering.
//	id, err := mgr.GetSigned(r, "id")
//
// Defaults are Path=/, HttpOnly and SameSite=Strict; override them per
// manager via New options or per call. The session middleware accepts a
// Manager to make the session cookie value tamper-evident.
package cookie
