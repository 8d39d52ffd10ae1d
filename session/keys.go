package session

// DefaultEnvironment is used when no deployment environment is configured.
// Namespacing by environment keeps a staging and a production session from
// colliding on the same device.
const DefaultEnvironment = "production"

// Keys builds the environment-namespaced storage keys for a stored session.
type Keys struct {
	Prefix      string
	Environment string
}

func (k Keys) env() string {
	if k.Environment == "" {
		return DefaultEnvironment
	}
	return k.Environment
}

func (k Keys) prefix() string {
	if k.Prefix == "" {
		return "tenauth"
	}
	return k.Prefix
}

// Token returns the key holding the access token.
func (k Keys) Token() string {
	return k.prefix() + ":" + k.env() + ":token"
}

// User returns the key holding the serialized user object.
func (k Keys) User() string {
	return k.prefix() + ":" + k.env() + ":user"
}

// Credential returns the key holding the sealed biometric credential.
func (k Keys) Credential() string {
	return k.prefix() + ":" + k.env() + ":credential"
}
