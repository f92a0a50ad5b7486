// Package encryption implements the optional encryption of whole snapshot
// files when --encrypt is set, using filippo.io/age X25519 key pairs with a
// passphrase-protected private key.
package encryption

import "io"

// Encryptor encrypts plaintext streams using a stored public key and can
// unlock the matching private key given a passphrase.
type Encryptor interface {
	Setup(passphrase string) error
	Encrypt(r io.Reader, w io.Writer) error
	Unlock(passphrase string) (DecryptionContext, error)
	IsConfigured() bool
}

// DecryptionContext holds an unlocked identity capable of decrypting streams
// that were encrypted against the matching public key.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
