package types

// Identity holds the local long-term key pair.
type Identity struct {
	PublicKey PublicKey `json:"public_key"`
	SecretKey SecretKey `json:"secret_key"`
}

// Fingerprint is a short, human-comparable digest of a public key.
type Fingerprint string
