// Package directory autentica usuarios del portal contra Active Directory.
package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/pkg/config"
)

var _ ports.Directory = (*Directory)(nil)

// Directory bind simple <usuario>@<dominio> y lectura de nombre/e-mail.
type Directory struct {
	cfg  config.LDAPConfig
	dial func(url string, timeout time.Duration, startTLS bool) (conn, error)
}

// conn subconjunto de *ldap.Conn usado aquí.
type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// NewDirectory construye el adaptador.
func NewDirectory(cfg config.LDAPConfig) *Directory {
	return &Directory{cfg: cfg, dial: dialLDAP}
}

func dialLDAP(url string, timeout time.Duration, startTLS bool) (conn, error) {
	c, err := ldap.DialURL(url, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, err
	}
	c.SetTimeout(timeout)
	if startTLS {
		if err := c.StartTLS(&tls.Config{MinVersion: tls.VersionTLS12}); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Authenticate valida las credenciales. Contraseña vacía nunca autentica (evita el bind anónimo).
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*ports.DirectoryUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := d.dial(d.cfg.URL, d.cfg.Timeout, d.cfg.StartTLS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryOffline, err)
	}
	defer c.Close()

	if err := c.Bind(d.principal(username), password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, domain.ErrUnauthorized
		}
		if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
			return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryOffline, err)
		}
		return nil, fmt.Errorf("ldap bind: %w", err)
	}

	user := &ports.DirectoryUser{Username: strings.ToLower(username)}
	if d.cfg.BaseDN == "" {
		return user, nil
	}

	filter := d.cfg.UserFilter
	if filter == "" {
		filter = "(sAMAccountName=%s)"
	}
	res, err := c.Search(ldap.NewSearchRequest(
		d.cfg.BaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, int(d.cfg.Timeout.Seconds()), false,
		fmt.Sprintf(filter, ldap.EscapeFilter(username)),
		[]string{"givenName", "sn", "mail"},
		nil,
	))
	// sin permiso de lectura el login sigue valiendo, sólo sin atributos
	if err != nil || len(res.Entries) == 0 {
		return user, nil
	}
	e := res.Entries[0]
	user.FirstName = e.GetAttributeValue("givenName")
	user.LastName = e.GetAttributeValue("sn")
	user.Email = e.GetAttributeValue("mail")
	return user, nil
}

func (d *Directory) principal(username string) string {
	if strings.ContainsAny(username, "@\\") || d.cfg.Domain == "" {
		return username
	}
	return username + "@" + d.cfg.Domain
}
