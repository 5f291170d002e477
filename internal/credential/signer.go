package credential

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"arb-client/pkg/address"
	"arb-client/pkg/bip32"
	"arb-client/pkg/bip39"
	"arb-client/pkg/config"
	"arb-client/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the sending account's secret. Callers only ever see the address.
type Signer interface {
	Address() common.Address
	SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

// KeySigner signs with a raw secp256k1 key using EIP-155 replay protection.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// FromHex parses a 32-byte hex private key, with or without 0x / 0X.
func FromHex(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimSpace(hexKey)
	if strings.HasPrefix(hexKey, "0x") || strings.HasPrefix(hexKey, "0X") {
		hexKey = hexKey[2:]
	}
	if hexKey == "" {
		return nil, errno.New(errno.ErrConfiguration, "private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// 不要把 key 本身放进错误信息
		return nil, errno.New(errno.ErrConfiguration, "private key is not a valid secp256k1 hex key")
	}
	return FromECDSA(key)
}

// FromMnemonic derives the key at path (bip32.EthereumPath when empty).
func FromMnemonic(mnemonic, path string) (*KeySigner, error) {
	if path == "" {
		path = bip32.EthereumPath
	}
	seed, err := bip39.NewMnemonicService().SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, errno.New(errno.ErrConfiguration, "mnemonic failed BIP-39 validation")
	}
	wallet, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, errno.Wrap(errno.ErrConfiguration, err, "master key")
	}
	child, err := wallet.DerivePath(path)
	if err != nil {
		return nil, errno.Wrap(errno.ErrConfiguration, err, "derivation path %q", path)
	}
	key, err := child.ECDSA()
	if err != nil {
		return nil, errno.Wrap(errno.ErrConfiguration, err, "derivation path %q", path)
	}
	return FromECDSA(key)
}

func FromECDSA(key *ecdsa.PrivateKey) (*KeySigner, error) {
	addr, err := address.PubKeyToAddress(crypto.FromECDSAPub(&key.PublicKey))
	if err != nil {
		return nil, errno.Wrap(errno.ErrConfiguration, err, "public key")
	}
	return &KeySigner{key: key, addr: addr}, nil
}

func (s *KeySigner) Address() common.Address {
	return s.addr
}

func (s *KeySigner) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), s.key)
	if err != nil {
		return nil, errno.Wrap(errno.ErrSigning, err, "sign transaction")
	}
	return signed, nil
}

// String keeps the key out of logs and %v output.
func (s *KeySigner) String() string {
	return "KeySigner(" + s.addr.Hex() + ")"
}

func (s *KeySigner) GoString() string {
	return s.String()
}

// Load picks the credential from configuration: PRIVATE_KEY wins over MNEMONIC.
func Load(cfg config.WalletConfig) (*KeySigner, error) {
	switch {
	case strings.TrimSpace(cfg.PrivateKey) != "":
		return FromHex(cfg.PrivateKey)
	case strings.TrimSpace(cfg.Mnemonic) != "":
		return FromMnemonic(cfg.Mnemonic, cfg.DerivationPath)
	default:
		return nil, ErrMissing
	}
}

// ErrMissing is returned when neither PRIVATE_KEY nor MNEMONIC is set.
var ErrMissing = errno.New(errno.ErrConfiguration, "PRIVATE_KEY is not set")

// Instructions is what the CLI prints when no credential is configured.
const Instructions = `PRIVATE_KEY is not set.

Create a .env file in the working directory:

    PRIVATE_KEY=<your testnet private key, hex, 0x optional>

or export it in your shell:

    export PRIVATE_KEY=<your testnet private key>

A BIP-39 phrase can be used instead through MNEMONIC (path m/44'/60'/0'/0/0,
override with DERIVATION_PATH). Use a throwaway testnet account only.`
