package domain

// Credentials is the authentication token of a request. It is always exactly one
// of Unresolved (what the client presented) or Resolved (who the client is).
type Credentials interface {
	credentials()
}

// Unresolved is the raw cookie pair. Either side may be empty.
type Unresolved struct {
	Access  string
	Refresh string
}

// Resolved is an authenticated identity. Only the credential resolver builds it,
// after a token verified and the principal was found enabled.
type Resolved struct {
	Principal *Principal
	Kind      TokenKind
	Role      Role
}

func (Unresolved) credentials() {}
func (*Resolved) credentials()  {}

// Empty reports whether no token was presented at all.
func (u Unresolved) Empty() bool {
	return u.Access == "" && u.Refresh == ""
}

// HasRole reports whether the identity was granted one of roles.
func (r *Resolved) HasRole(roles ...Role) bool {
	if r == nil {
		return false
	}
	for _, role := range roles {
		if r.Role == role {
			return true
		}
	}
	return false
}
