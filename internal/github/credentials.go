package github

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	credentialService = "hubview"
	// Key for GitHub Personal Access Token
	githubTokenKey = "github_pat"
)

// Environment variables that override the stored token, checked in order.
var tokenEnvVars = []string{"HUBVIEW_TOKEN", "GITHUB_TOKEN"}

// CredentialManager handles secure storage and retrieval of the GitHub token.
// The token lives in the OS credential store; an environment variable
// override takes precedence so CI and one-off runs never touch the keyring.
type CredentialManager struct {
	service string
}

// NewCredentialManager creates a new credential manager instance
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		service: credentialService,
	}
}

// ResolveToken returns the token to use for API calls: an environment
// override if present, otherwise the stored token.
func (cm *CredentialManager) ResolveToken() (string, error) {
	for _, name := range tokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	return cm.GetToken()
}

// StoreToken validates and stores a GitHub Personal Access Token in the OS
// credential store.
func (cm *CredentialManager) StoreToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := validateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}

	return nil
}

// GetToken retrieves the stored GitHub Personal Access Token.
func (cm *CredentialManager) GetToken() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no GitHub token found - run 'hubview auth set' or export GITHUB_TOKEN")
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}

	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty - run 'hubview auth set' again")
	}

	return token, nil
}

// DeleteToken removes the stored token. Useful for token rotation; deleting
// a token that does not exist is not an error.
func (cm *CredentialManager) DeleteToken() error {
	err := keyring.Delete(cm.service, githubTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasToken checks whether a token is stored without retrieving it.
func (cm *CredentialManager) HasToken() bool {
	_, err := keyring.Get(cm.service, githubTokenKey)
	return err == nil
}

// validateTokenFormat validates that the token matches GitHub PAT format
// expectations. GitHub tokens carry a type-specific prefix:
//   - Classic PATs: ghp_*
//   - Fine-grained PATs: github_pat_*
//   - OAuth tokens: gho_*
//   - User-to-server tokens: ghu_*
//   - Server-to-server tokens: ghs_*
func validateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	// GitHub PATs are typically 40+ characters
	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}

	validPrefixes := []string{
		"ghp_",
		"github_pat_",
		"gho_",
		"ghu_",
		"ghs_",
	}

	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	// Older tokens or GitHub Enterprise tokens may not follow these patterns,
	// but rejecting them beats silently storing a pasted password.
	return fmt.Errorf("token does not match expected GitHub PAT format (should start with ghp_ or github_pat_)")
}
