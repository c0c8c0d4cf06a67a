package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/pkg/errors"

	"github.com/carelink/care-auth-server/credentials"
	"github.com/carelink/care-auth-server/principals"
)

// InitialiseSystem ensures a super admin account exists so the administrative
// surface is reachable on a fresh deployment. When no ADMIN_PASSWORD is
// configured, a random password is generated and printed once.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	adminUsername := s.config.GetAdminUsername()

	if _, err := s.directory.GetByUsername(ctx, adminUsername); err == nil {
		return nil // Super admin already exists
	} else if !errors.Is(err, principals.ErrNotFound) {
		return errors.Wrap(err, "[Server InitialiseSystem] directory lookup")
	}

	password := s.config.GetAdminPassword()
	generated := false
	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return errors.Wrap(err, "[Server InitialiseSystem] failed to generate password")
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generated = true
	}

	passwordHash, err := credentials.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[Server InitialiseSystem] failed to hash password")
	}

	admin, err := s.directory.Create(ctx, &principals.Record{
		Username:       adminUsername,
		Name:           "System Administrator",
		Role:           principals.RoleSuperAdmin,
		CredentialHash: passwordHash,
	})
	if err != nil {
		return errors.Wrap(err, "[Server InitialiseSystem] failed to create super admin")
	}

	log.Printf("Bootstrap: created super admin %q (id %d)", admin.Username, admin.ID)
	if generated {
		log.Printf("Super Admin Credentials:")
		log.Printf("   Username:  %s", admin.Username)
		log.Printf("   Password:  %s", password)
		log.Printf("   SAVE THIS PASSWORD - it will not be displayed again")
		fmt.Println()
	}
	return nil
}
