package encryption

import (
	"fmt"
	"io"
	"os"

	"fsarc-go/internal/archive"
)

// magicPrefix is the header filippo.io/age writes at the start of every
// ciphertext stream it produces.
const magicPrefix = "age-encryption.org/v1"

// Opener wraps an archive.Opener, transparently decrypting a whole snapshot
// file on OpenRead when it carries the age header, and encrypting the whole
// finished file on Create/Close when Enabled is set. A predecessor archive that was
// encrypted under an earlier run still needs an unlocked identity to chain
// against, independent of whether the current run is itself writing an
// encrypted snapshot.
type Opener struct {
	Inner     archive.Opener
	Encryptor Encryptor
	Unlocked  DecryptionContext
	Enabled   bool
}

var _ archive.Opener = (*Opener)(nil)

func (o *Opener) OpenRead(path string) (archive.Container, error) {
	encrypted, err := isEncrypted(path)
	if err != nil {
		return nil, err
	}
	if !encrypted {
		return o.Inner.OpenRead(path)
	}
	if o.Unlocked == nil {
		return nil, fmt.Errorf("%s is encrypted: a passphrase is required to unlock it", path)
	}

	tmp, err := os.CreateTemp("", "fsarc-dec-*.zip")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	src, err := os.Open(path)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	decErr := o.Unlocked.Decrypt(src, tmp)
	src.Close()
	tmp.Close()
	if decErr != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("decrypting %s: %w", path, decErr)
	}

	inner, err := o.Inner.OpenRead(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	return &decryptingContainer{Container: inner, tmpPath: tmpPath}, nil
}

func (o *Opener) Create(path string, opts archive.Options) (archive.Container, error) {
	if !o.Enabled || o.Encryptor == nil || !o.Encryptor.IsConfigured() {
		return o.Inner.Create(path, opts)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, archive.ErrAlreadyExists
	}

	tmp, err := os.CreateTemp("", "fsarc-enc-*.zip")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath)

	inner, err := o.Inner.Create(tmpPath, opts)
	if err != nil {
		return nil, err
	}
	return &encryptingContainer{Container: inner, encryptor: o.Encryptor, tmpPath: tmpPath, destPath: path}, nil
}

// isEncrypted peeks at path's leading bytes for the age header without
// fully reading the file.
func isEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(magicPrefix))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return n == len(magicPrefix) && string(head) == magicPrefix, nil
}

// decryptingContainer wraps a Container opened against a decrypted temp
// copy, removing the copy once the container is closed.
type decryptingContainer struct {
	archive.Container
	tmpPath string
}

func (d *decryptingContainer) Close() error {
	err := d.Container.Close()
	os.Remove(d.tmpPath)
	return err
}

// encryptingContainer wraps a Container writing into a plaintext temp file;
// on Close it commits the underlying container, then encrypts the temp
// file's bytes into destPath.
type encryptingContainer struct {
	archive.Container
	encryptor Encryptor
	tmpPath   string
	destPath  string
}

func (e *encryptingContainer) Close() error {
	if err := e.Container.Close(); err != nil {
		os.Remove(e.tmpPath)
		return err
	}
	defer os.Remove(e.tmpPath)

	src, err := os.Open(e.tmpPath)
	if err != nil {
		return fmt.Errorf("opening plaintext snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(e.destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", e.destPath, err)
	}
	defer dst.Close()

	if err := e.encryptor.Encrypt(src, dst); err != nil {
		os.Remove(e.destPath)
		return fmt.Errorf("encrypting %s: %w", e.destPath, err)
	}
	return nil
}
