// Package secrets seals and opens webhook credential tokens.
//
// # Overview
//
// Tokens are encrypted with AES-256-GCM using a process-wide 32-byte key.
// Every call to Encrypt draws a fresh 12-byte nonce from crypto/rand. The
// stored form is:
//
//	base64(nonce || ciphertext || tag)
//
// using the standard (padded) base64 alphabet. No associated data is bound.
//
// # Usage Example
//
//	codec, err := secrets.NewCodec(cfg.Webhooks.EncryptionKey)
//	if err != nil {
//		return err
//	}
//	stored, err := codec.Encrypt("s3cr3t")
//	...
//	plain, err := codec.Decrypt(stored)
//
// # Errors
//
// All failures are returned as *CryptoError. Use IsKind to branch on the
// failure class:
//
//	if secrets.IsKind(err, secrets.KindAuthenticationFailure) {
//		// tampered ciphertext or rotated key
//	}
package secrets
