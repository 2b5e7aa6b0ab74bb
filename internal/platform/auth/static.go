package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// StaticVerifier accepts a fixed set of bearer tokens. It backs local
// development where no Firebase project is configured.
type StaticVerifier struct {
	tokens map[string]*firebaseauth.Token
}

// NewStaticVerifier parses entries of the form token -> "uid:role[|role]".
func NewStaticVerifier(entries map[string]string) *StaticVerifier {
	v := &StaticVerifier{tokens: make(map[string]*firebaseauth.Token, len(entries))}
	for token, entry := range entries {
		uid, roles, _ := strings.Cut(entry, ":")
		uid = strings.TrimSpace(uid)
		if token == "" || uid == "" {
			continue
		}
		claims := map[string]interface{}{}
		if roles = strings.TrimSpace(roles); roles != "" {
			list := make([]interface{}, 0, 2)
			for _, role := range strings.Split(roles, "|") {
				list = append(list, role)
			}
			claims[roleClaim] = list
		}
		v.tokens[token] = &firebaseauth.Token{UID: uid, Subject: uid, Claims: claims}
	}
	return v
}

// VerifyIDToken implements TokenVerifier.
func (v *StaticVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	if token, ok := v.tokens[idToken]; ok {
		return token, nil
	}
	return nil, ErrTokenInvalid
}
