package session

import (
	"cleanops/common"
	"encoding/json"
	"errors"
	"net/http"
	"os"
)

// HttpIdentityVerifier asks the external identity provider to resolve a
// bearer credential into a {subject, role} pair. A 401/403/404 answer means
// "unknown credential", not a failure.
type HttpIdentityVerifier struct {
	VerifyURL string
}

func NewHttpIdentityVerifierFromEnv() (*HttpIdentityVerifier, error) {
	url := os.ExpandEnv(os.Getenv("IDENTITY_VERIFY_URL"))
	if url == "" {
		return nil, errors.New("environment variable IDENTITY_VERIFY_URL is not set")
	}
	return &HttpIdentityVerifier{VerifyURL: url}, nil
}

func (v *HttpIdentityVerifier) Verify(credential string) (*Identity, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+credential)

	respBody, err := common.HttpInvokeJson(http.MethodGet, v.VerifyURL, headers, "")
	if err != nil {
		var invokeErr *common.ErrHttpInvoke
		if errors.As(err, &invokeErr) {
			switch invokeErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
				return nil, nil
			}
		}
		return nil, err
	}

	identity := Identity{}
	if err := json.Unmarshal([]byte(respBody), &identity); err != nil {
		return nil, err
	}
	if identity.Subject == "" || (identity.Role != RoleWorker && identity.Role != RoleAdmin) {
		return nil, nil
	}
	return &identity, nil
}
