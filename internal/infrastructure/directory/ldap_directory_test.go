package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/pkg/config"
)

type fakeConn struct {
	bindUser string
	bindErr  error
	entries  []*ldap.Entry
	filter   string
}

func (f *fakeConn) Bind(u, _ string) error { f.bindUser = u; return f.bindErr }
func (f *fakeConn) Close() error           { return nil }
func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.filter = req.Filter
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func newTestDirectory(c *fakeConn, dialErr error) *Directory {
	d := NewDirectory(config.LDAPConfig{
		URL: "ldap://ad.local", Domain: "empresa.local", BaseDN: "DC=empresa,DC=local",
		UserFilter: "(sAMAccountName=%s)", Timeout: time.Second,
	})
	d.dial = func(string, time.Duration, bool) (conn, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return c, nil
	}
	return d
}

func TestAuthenticate_LeAtributos(t *testing.T) {
	c := &fakeConn{entries: []*ldap.Entry{ldap.NewEntry("CN=Ana", map[string][]string{
		"givenName": {"Ana"}, "sn": {"Souza"}, "mail": {"ana@empresa.com"},
	})}}
	u, err := newTestDirectory(c, nil).Authenticate(context.Background(), "Ana.Souza", "segredo")
	require.NoError(t, err)

	assert.Equal(t, "Ana.Souza@empresa.local", c.bindUser)
	assert.Equal(t, "(sAMAccountName=Ana.Souza)", c.filter)
	assert.Equal(t, "ana.souza", u.Username)
	assert.Equal(t, "Souza", u.LastName)
	assert.Equal(t, "ana@empresa.com", u.Email)
}

func TestAuthenticate_CredenciaisInvalidas(t *testing.T) {
	c := &fakeConn{bindErr: ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("49"))}
	_, err := newTestDirectory(c, nil).Authenticate(context.Background(), "ana", "errada")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_SenhaVaziaNaoFazBind(t *testing.T) {
	c := &fakeConn{}
	_, err := newTestDirectory(c, nil).Authenticate(context.Background(), "ana", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, c.bindUser)
}

func TestAuthenticate_ServidorForaDoAr(t *testing.T) {
	_, err := newTestDirectory(nil, errors.New("connection refused")).Authenticate(context.Background(), "ana", "x")
	assert.ErrorIs(t, err, domain.ErrDirectoryOffline)
}
