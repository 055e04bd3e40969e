// Package session tracks whether the user is signed in to Google.
//
// A Session moves between three states:
//
//	Unauthenticated --sign-in ok-----> Authenticated
//	Unauthenticated --sign-in failed-> AuthFailed
//	Authenticated   --sign-in failed-> AuthFailed
//	AuthFailed      --sign-in ok-----> Authenticated
//	any             --sign-out-------> Unauthenticated
//
// Only Authenticated enables calendar operations. The credential captured on a
// successful sign-in is persisted under CredentialKey so the next process start can
// restore it.
package session
