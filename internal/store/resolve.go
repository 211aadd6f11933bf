package store

import (
	"os"

	"github.com/cockroachdb/errors"
)

// EnvModel is the environment variable naming the active model.
const EnvModel = "CANC_MODEL"

// ResolveModel determines the model ID to use.
// Priority: explicit > CANC_MODEL env > "default".
func ResolveModel(explicit string) (string, error) {
	if explicit != "" {
		if err := ValidateModelID(explicit); err != nil {
			return "", errors.Wrapf(err, "invalid model ID %q", explicit)
		}
		return explicit, nil
	}

	if env := os.Getenv(EnvModel); env != "" {
		if err := ValidateModelID(env); err != nil {
			return "", errors.Wrapf(err, "invalid %s %q", EnvModel, env)
		}
		return env, nil
	}

	return DefaultModelID, nil
}
