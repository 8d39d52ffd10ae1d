package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hexlane/tenauth/session"
)

// ErrNoCredential is returned when the vault slot is empty. It is the same
// sentinel the session stores report, so errors.Is works across the boundary.
var ErrNoCredential = session.ErrNoCredential

// Credential is the cached pair released after a successful biometric check.
type Credential struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	SavedAt  time.Time `json:"savedAt"`
}

// SecretStore is the durable slot the vault seals into. session.Store
// satisfies it.
type SecretStore interface {
	PutCredential(ctx context.Context, sealed []byte) error
	GetCredential(ctx context.Context) ([]byte, error)
	DeleteCredential(ctx context.Context) error
}

// Vault is the biometric-gated credential cache. At most one credential is
// held, always for the most recently enabled account.
type Vault struct {
	provider Provider
	secrets  SecretStore
	sealer   *Sealer
}

// New creates a [Vault]. deviceKey seeds the sealer and should come from a
// platform keystore.
func New(provider Provider, secrets SecretStore, deviceKey []byte) (*Vault, error) {
	if provider == nil {
		return nil, errors.New("biometric provider required")
	}
	if secrets == nil {
		return nil, errors.New("secret store required")
	}

	sealer, err := NewSealer(deviceKey)
	if err != nil {
		return nil, err
	}

	return &Vault{
		provider: provider,
		secrets:  secrets,
		sealer:   sealer,
	}, nil
}

// Availability probes the device's biometric capability.
func (v *Vault) Availability(ctx context.Context) (Availability, error) {
	return v.provider.Availability(ctx)
}

// Save seals the credential pair into the single slot, overwriting any
// prior value.
func (v *Vault) Save(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errors.New("email and password required")
	}

	plaintext, err := json.Marshal(Credential{
		Email:    email,
		Password: password,
		SavedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	sealed, err := v.sealer.Seal(plaintext)
	if err != nil {
		return err
	}
	return v.secrets.PutCredential(ctx, sealed)
}

// HasCredential reports whether the slot is occupied. Store errors are
// treated as "no credential" so availability probes stay best-effort.
func (v *Vault) HasCredential(ctx context.Context) bool {
	_, err := v.secrets.GetCredential(ctx)
	return err == nil
}

// AuthenticateAndRetrieve runs the availability gate and the OS biometric
// prompt, then releases the cached credential. A cancelled or failed prompt
// never releases the credential. Biometric success is not an authenticated
// session; callers feed the result back through the normal login pipeline.
func (v *Vault) AuthenticateAndRetrieve(ctx context.Context, reason string) (*Credential, error) {
	avail, err := v.provider.Availability(ctx)
	if err != nil {
		return nil, err
	}
	if !avail.HasHardware {
		return nil, ErrNoHardware
	}
	if !avail.Enrolled {
		return nil, ErrNotEnrolled
	}

	if err := v.provider.Authenticate(ctx, reason); err != nil {
		return nil, err
	}

	sealed, err := v.secrets.GetCredential(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return nil, ErrNoCredential
		}
		return nil, err
	}

	plaintext, err := v.sealer.Open(sealed)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, ErrSealCorrupt
	}
	return &cred, nil
}

// Purge empties the slot. Disabling biometric login calls this so no
// residual secret outlives the preference flag.
func (v *Vault) Purge(ctx context.Context) error {
	return v.secrets.DeleteCredential(ctx)
}
