package xrtc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xrtc-org/xrtc-go/internal/dotenv"
)

// Environment variables and the default credentials file consulted by
// [ResolveCredentials].
const (
	// EnvAccountID names the environment variable holding the account id.
	EnvAccountID = "ACCOUNT_ID"

	// EnvAPIKey names the environment variable holding the API key.
	EnvAPIKey = "API_KEY"

	// DefaultCredentialsFile is consulted when no file is named
	// explicitly, and only if it exists in the working directory.
	DefaultCredentialsFile = "xrtc.env"
)

// Credentials authenticate a session with the service.
//
// Credentials are immutable after resolution. Both fields are always
// non-empty; [ResolveCredentials] fails rather than produce a partial
// pair.
type Credentials struct {
	accountID string
	apiKey    string
}

// AccountID returns the resolved account identifier.
func (c Credentials) AccountID() string {
	return c.accountID
}

// APIKey returns the resolved API key.
func (c Credentials) APIKey() string {
	return c.apiKey
}

// ResolveCredentials resolves the credential pair from three sources,
// applied per field with the highest-priority source winning:
//
//  1. the explicit accountID and apiKey arguments
//  2. the credentials file (KEY=VALUE lines; see [DefaultCredentialsFile])
//  3. the process environment ([EnvAccountID], [EnvAPIKey])
//
// If file is non-empty it must exist; a missing named file is an error.
// If file is empty, [DefaultCredentialsFile] participates only when it
// exists. Resolution never mutates the process environment.
//
// Returns [ErrMissingCredentials] if either field remains unresolved.
func ResolveCredentials(accountID, apiKey, file string) (Credentials, error) {
	vars, err := readCredentialFile(file)
	if err != nil {
		return Credentials{}, err
	}
	return resolveCredentials(accountID, apiKey, vars)
}

// resolveCredentials applies the per-field precedence over an already
// loaded file var map.
func resolveCredentials(accountID, apiKey string, fileVars map[string]string) (Credentials, error) {
	id := firstNonEmpty(accountID, fileVars[EnvAccountID], os.Getenv(EnvAccountID))
	key := firstNonEmpty(apiKey, fileVars[EnvAPIKey], os.Getenv(EnvAPIKey))

	if id == "" || key == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return Credentials{accountID: id, apiKey: key}, nil
}

// readCredentialFile loads the dotenv assignments participating in
// resolution. A named file must exist; the default file is optional.
func readCredentialFile(file string) (map[string]string, error) {
	if file != "" {
		vars, err := dotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("credentials file %q: %w", file, err)
		}
		return vars, nil
	}

	vars, err := dotenv.Read(DefaultCredentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("credentials file %q: %w", DefaultCredentialsFile, err)
	}
	return vars, nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
