package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/imamik/hubnet/internal/config"
	"github.com/imamik/hubnet/internal/crypto/ipsec"
	"github.com/imamik/hubnet/internal/util/keygen"
)

// adminKeyComment is the comment of generated admin SSH keys.
const adminKeyComment = "hubnet-admin"

// Keygen prints a fresh VPN shared key as a dotenv fragment that --env-file
// accepts. With sshKeyPath set it also writes an admin SSH key pair to
// sshKeyPath and sshKeyPath.pub and adds the public key to the fragment.
// Existing key files are never overwritten.
func Keygen(sshKeyPath, algorithm string) error {
	key, err := generateSharedKey(ipsec.DefaultKeyBytes)
	if err != nil {
		return err
	}
	env := map[string]string{config.EnvSharedKey: key}

	if sshKeyPath != "" {
		pub, err := writeKeyPair(sshKeyPath, keygen.Algorithm(algorithm))
		if err != nil {
			return err
		}
		env[config.EnvAdminSSHKey] = pub
	}

	out, err := godotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode env: %w", err)
	}
	fmt.Fprintln(stdout, out)
	return nil
}

func writeKeyPair(path string, alg keygen.Algorithm) (string, error) {
	for _, p := range []string{path, path + ".pub"} {
		if _, err := os.Stat(p); err == nil {
			return "", fmt.Errorf("refusing to overwrite %s", p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	kp, err := generateKeyPair(alg, adminKeyComment)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, kp.PrivateKey, 0o600); err != nil {
		return "", fmt.Errorf("failed to write private key: %w", err)
	}
	if err := writeFile(path+".pub", []byte(kp.PublicKey+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write public key: %w", err)
	}
	return kp.PublicKey, nil
}
