package workspace

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables holding service principal credentials.
const (
	EnvServicePrincipalID       = "HIML_SERVICE_PRINCIPAL_ID"
	EnvTenantID                 = "HIML_TENANT_ID"
	EnvServicePrincipalPassword = "HIML_SERVICE_PRINCIPAL_PASSWORD"
)

// SecretFromEnvironment returns the value of the environment variable
// called name, upper-cased. A missing value is an error unless
// allowMissing is set, in which case "" is returned.
func SecretFromEnvironment(name string, allowMissing bool) (string, error) {
	value := os.Getenv(strings.ToUpper(name))
	if value == "" && !allowMissing {
		return "", fmt.Errorf("there is no value stored for the secret named %q", name)
	}
	return value, nil
}

// ServicePrincipal holds non-interactive credentials.
type ServicePrincipal struct {
	ID       string
	TenantID string
	Password string
}

// ServicePrincipalFromEnvironment returns the service principal from the
// HIML_* variables. ok is false when the ID is not set; callers then fall
// back to interactive authentication.
func ServicePrincipalFromEnvironment() (sp *ServicePrincipal, ok bool, err error) {
	id, _ := SecretFromEnvironment(EnvServicePrincipalID, true)
	if id == "" {
		return nil, false, nil
	}
	tenant, err := SecretFromEnvironment(EnvTenantID, false)
	if err != nil {
		return nil, false, err
	}
	password, err := SecretFromEnvironment(EnvServicePrincipalPassword, false)
	if err != nil {
		return nil, false, err
	}
	return &ServicePrincipal{ID: id, TenantID: tenant, Password: password}, true, nil
}
