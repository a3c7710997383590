package router

// Policy decides which inbound events the router reacts to.
type Policy struct {
	monitored map[string]struct{} // usernames; empty means unrestricted
}

// Unrestricted reacts on every local account, suppressing only messages
// authored by a local account username (the bot's own sends).
func Unrestricted() Policy {
	return Policy{}
}

// RestrictedTo reacts only on accounts whose username is listed, and never
// to authors that are themselves listed. The second condition keeps one
// monitored account from reacting to another monitored account's echoes.
func RestrictedTo(usernames []string) Policy {
	m := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		if u != "" {
			m[u] = struct{}{}
		}
	}
	return Policy{monitored: m}
}

func (p Policy) restricted() bool {
	return len(p.monitored) > 0
}

func (p Policy) contains(username string) bool {
	_, ok := p.monitored[username]
	return ok
}
