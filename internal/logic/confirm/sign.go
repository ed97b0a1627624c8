package confirm

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// messageBytes interprets a personal_sign message: hex-encoded payloads are
// decoded, anything else is signed as raw UTF-8 bytes.
func messageBytes(message string) []byte {
	if strings.HasPrefix(message, "0x") {
		if b, err := hexutil.Decode(message); err == nil {
			return b
		}
	}
	return []byte(message)
}

// signText produces an EIP-191 personal signature over message.
func signText(message string, key *ecdsa.PrivateKey) (string, error) {
	hash := accounts.TextHash(messageBytes(message))
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	// 链上恢复签名要求 v 为 27/28
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// signTypedData produces an EIP-712 signature over the typed data payload.
func signTypedData(typed apitypes.TypedData, key *ecdsa.PrivateKey) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return "", fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign typed data: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
