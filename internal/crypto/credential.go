package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Credential is a loaded signing key. Its presence switches the execution
// gate from simulation to live evaluation.
type Credential struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// LoadCredential resolves cfg into a Credential. It returns nil and no error
// when no key source is configured.
func LoadCredential(cfg KeyConfig) (*Credential, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	hexKey, err := LoadKey(cfg)
	if err != nil {
		return nil, err
	}
	key, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse private key: %w", err)
	}
	return &Credential{
		Address: ethcrypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// Sign signs a 32-byte digest and returns the 65-byte [R || S || V] signature.
func (c *Credential) Sign(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("crypto: digest must be 32 bytes, got %d", len(digest))
	}
	return ethcrypto.Sign(digest, c.key)
}

// String never prints the key.
func (c *Credential) String() string {
	if c == nil {
		return "<none>"
	}
	return c.Address.Hex()
}
