package config

import "os"

// EnvIdentitySecret is the environment variable that overrides
// identity.secret without committing it to the config file.
const EnvIdentitySecret = "MAIDNODE_IDENTITY_SECRET"

// InitConfig writes a fresh config file, with a freshly generated node id
// and signing secret, to the default location. It refuses to overwrite an
// existing file unless force is true.
func InitConfig(force bool) (string, error) {
	return InitConfigToPath(GetDefaultConfigPath(), force)
}

// InitConfigToPath writes a fresh config file to path.
func InitConfigToPath(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", os.ErrExist
		}
	}

	cfg := GetDefaultConfig()
	if err := SaveConfig(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}
