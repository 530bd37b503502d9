package types

// ContactState is the last observed reachability of a contact.
type ContactState int

const (
	// StatePending is the initial state, and the state of a peer whose host
	// answered but refused the connection.
	StatePending ContactState = iota
	StateOnline
	StateOffline
	// StateBroken marks a peer that answered with something we could not
	// authenticate or understand.
	StateBroken
)

func (s ContactState) String() string {
	switch s {
	case StateOnline:
		return "ONLINE"
	case StateOffline:
		return "OFFLINE"
	case StateBroken:
		return "BROKEN"
	default:
		return "PENDING"
	}
}

// Contact is a known or ephemeral peer.
//
// State and LastWorkingAddress are runtime caches and are never persisted.
type Contact struct {
	Name      string    `json:"name"`
	PublicKey PublicKey `json:"public_key"`
	Addresses []string  `json:"addresses"`
	Blocked   bool      `json:"blocked,omitempty"`

	State              ContactState `json:"-"`
	LastWorkingAddress string       `json:"-"`
}

// Clone returns a copy of c that shares no slices with it.
func (c Contact) Clone() Contact {
	c.Addresses = append([]string(nil), c.Addresses...)
	return c
}

// IsEphemeral reports whether c was synthesized for an unknown sender.
func (c Contact) IsEphemeral() bool { return c.Name == "" && len(c.Addresses) == 0 }
