package services

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/runclub/backend/internal/config"
)

type LDAPService struct {
	config *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	if cfg == nil {
		cfg = &config.LDAPConfig{}
	}
	return &LDAPService{config: cfg}
}

func (s *LDAPService) IsEnabled() bool {
	return s.config.Enabled && s.config.Host != ""
}

// filter builds the search filter for username. Filters without a %s verb
// are ANDed with a uid match.
func (s *LDAPService) filter(username string) string {
	escaped := ldap.EscapeFilter(username)
	if s.config.UserFilter == "" {
		return fmt.Sprintf("(uid=%s)", escaped)
	}
	if !strings.Contains(s.config.UserFilter, "%s") {
		return fmt.Sprintf("(&%s(uid=%s))", s.config.UserFilter, escaped)
	}
	return strings.ReplaceAll(s.config.UserFilter, "%s", escaped)
}

// Authenticate authenticates a user against LDAP
func (s *LDAPService) Authenticate(username, password string) (*LDAPUser, error) {
	if !s.IsEnabled() {
		return nil, ErrLDAPDisabled
	}
	if password == "" {
		// An empty password would be an unauthenticated bind.
		return nil, ErrInvalidCredentials
	}

	// Connect to LDAP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var conn *ldap.Conn
	var err error

	if s.config.UseSSL {
		conn, err = ldap.DialTLS("tcp", addr, &tls.Config{ServerName: s.config.Host})
	} else {
		conn, err = ldap.Dial("tcp", addr)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	// Bind with service account (if configured)
	if s.config.BindDN != "" {
		err = conn.Bind(s.config.BindDN, s.config.BindPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	// Search for user
	searchFilter := s.filter(username)
	searchRequest := ldap.NewSearchRequest(
		s.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		searchFilter,
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}

	if len(result.Entries) == 0 {
		return nil, ErrInvalidCredentials
	}

	if len(result.Entries) > 1 {
		return nil, fmt.Errorf("multiple users found in LDAP")
	}

	userDN := result.Entries[0].DN

	// Bind as user to verify password
	err = conn.Bind(userDN, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Extract user info
	entry := result.Entries[0]
	user := &LDAPUser{
		DN:       userDN,
		Username: entry.GetAttributeValue("uid"),
		Email:    entry.GetAttributeValue("mail"),
		Nickname: entry.GetAttributeValue("cn"),
	}

	// Try sAMAccountName if uid is empty (Active Directory)
	if user.Username == "" {
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}

	return user, nil
}

type LDAPUser struct {
	DN       string
	Username string
	Email    string
	Nickname string
}
