package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

const hostKeyBits = 2048

// Initialize creates a configuration directory at dir. Existing files are
// left untouched so it is safe to run more than once.
func Initialize(dir string, logger *log.Logger) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %q: %w", dir, err)
	}
	configFs := afero.NewBasePathFs(afero.NewOsFs(), dir)

	if err := writeIfMissing(configFs, ConfigurationName, defaultConfigData, logger); err != nil {
		return err
	}

	cfg := defaultConfig()
	cfg.configFs = configFs
	if err := writeIfMissing(configFs, cfg.DirectoryHistory, nil, logger); err != nil {
		return err
	}

	if exists, err := afero.Exists(configFs, PrivateKeyName); err != nil || exists {
		return err
	}

	logger.Println("Generating SSH host key")
	keyPem, err := generateHostKey()
	if err != nil {
		return err
	}
	signer, err := ssh.ParsePrivateKey(keyPem)
	if err != nil {
		return fmt.Errorf("generated key is invalid: %w", err)
	}
	if err := afero.WriteFile(configFs, PrivateKeyName, keyPem, 0600); err != nil {
		return err
	}
	logger.Printf("Host key fingerprint: %s\n", ssh.FingerprintSHA256(signer.PublicKey()))
	return nil
}

func writeIfMissing(fs afero.Fs, name string, contents []byte, logger *log.Logger) error {
	exists, err := afero.Exists(fs, name)
	if err != nil || exists {
		return err
	}

	logger.Printf("Creating %s\n", name)
	return afero.WriteFile(fs, name, contents, 0600)
}

func generateHostKey() ([]byte, error) {
	key, err := rsa.GenerateKey(rand.Reader, hostKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), nil
}
