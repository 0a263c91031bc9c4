package ethereum

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/zkvote-core/util"
)

const (
	// SigningPrefix is prepended to every message before hashing, as
	// wallets do for personal_sign.
	SigningPrefix = "\x19Ethereum Signed Message:\n"
	// SignatureLength is the length of a [R || S || V] signature.
	SignatureLength = ethcrypto.SignatureLength
)

// SignKeys holds a secp256k1 key pair.
type SignKeys struct {
	Public  ecdsa.PublicKey
	Private ecdsa.PrivateKey
}

// NewSignKeys returns an empty key holder, use Generate or AddHexKey.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate creates a fresh key pair.
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// AddHexKey imports a hex encoded private key.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return fmt.Errorf("cannot import key: %w", err)
	}
	k.Private = *key
	k.Public = key.PublicKey
	return nil
}

// HexString returns the compressed public key and the private key, hex encoded.
func (k *SignKeys) HexString() (string, string) {
	if k.Private.D == nil {
		return "", ""
	}
	pub := hex.EncodeToString(ethcrypto.CompressPubkey(&k.Public))
	priv := hex.EncodeToString(ethcrypto.FromECDSA(&k.Private))
	return pub, priv
}

// PublicKey returns the compressed public key.
func (k *SignKeys) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&k.Public)
}

// Address returns the Ethereum address of the key pair.
func (k *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(k.Public)
}

func (k *SignKeys) AddressString() string {
	return k.Address().String()
}

// SignEthereum signs message with the Ethereum signed message prefix.
func (k *SignKeys) SignEthereum(message []byte) ([]byte, error) {
	if k.Private.D == nil {
		return nil, errors.New("no private key available")
	}
	return ethcrypto.Sign(Hash(message), &k.Private)
}

// Hash returns keccak256 of message with the Ethereum signed message prefix.
func Hash(message []byte) []byte {
	return HashRaw([]byte(fmt.Sprintf("%s%d%s", SigningPrefix, len(message), message)))
}

// HashRaw returns keccak256 of data.
func HashRaw(data ...[]byte) []byte {
	return ethcrypto.Keccak256(data...)
}

// AddrFromPublicKey returns the address of a compressed or uncompressed key.
func AddrFromPublicKey(pub []byte) (common.Address, error) {
	var key *ecdsa.PublicKey
	var err error
	if len(pub) == 33 {
		key, err = ethcrypto.DecompressPubkey(pub)
	} else {
		key, err = ethcrypto.UnmarshalPubkey(pub)
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*key), nil
}

// AddrFromSignature recovers the signer address of a SignEthereum signature.
// Both raw (v in {0,1}) and wallet style (v in {27,28}) recovery ids are
// accepted.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(signature))
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(Hash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot recover signer: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
