package services

import (
	"context"
	"errors"
	"strings"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// User is the authenticated identity before a role is resolved.
type User struct {
	ID             uuid.UUID
	Email          string
	SignupRoleHint string
}

// NormalizeAllowlist lower-cases and trims emails, dropping blanks.
func NormalizeAllowlist(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = normalizeEmail(e)
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveRole applies the single role precedence used by every caller:
// admin allowlist, then the stored profile role, then the signup hint, then
// customer.
func ResolveRole(email string, allowlist map[string]struct{}, profileRole, signupHint string) models.Role {
	if e := normalizeEmail(email); e != "" {
		if _, ok := allowlist[e]; ok {
			return models.RoleAdmin
		}
	}
	if role, ok := models.ParseUserRole(profileRole); ok {
		return role
	}
	if role, ok := models.ParseUserRole(signupHint); ok {
		return role
	}
	return models.RoleCustomer
}

type RoleResolver struct {
	allowlist map[string]struct{}
	profiles  repository.ProfileRepository
	logger    *zap.Logger
}

func NewRoleResolver(adminEmails []string, profiles repository.ProfileRepository, logger *zap.Logger) *RoleResolver {
	return &RoleResolver{
		allowlist: NormalizeAllowlist(adminEmails),
		profiles:  profiles,
		logger:    logger,
	}
}

func (r *RoleResolver) IsAllowlisted(email string) bool {
	_, ok := r.allowlist[normalizeEmail(email)]
	return ok
}

// Resolve loads the profile and applies ResolveRole. An allowlisted user whose
// profile does not yet say admin is upgraded in place; a failed upgrade is
// logged and does not change the answer. When the profile store fails only the
// allowlist is trusted; the signup hint is ignored and the user is a customer.
func (r *RoleResolver) Resolve(ctx context.Context, user User) models.Role {
	var profileRole string
	hint := user.SignupRoleHint
	profile, err := r.profiles.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		profileRole = string(profile.Role)
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = nil
	default:
		r.logger.Warn("Profile lookup failed during role resolution",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		profile = nil
		hint = ""
	}

	role := ResolveRole(user.Email, r.allowlist, profileRole, hint)

	if role == models.RoleAdmin && r.IsAllowlisted(user.Email) && profile != nil && profile.Role != models.RoleAdmin {
		if err := r.profiles.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
			r.logger.Warn("Failed to persist admin role upgrade",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		} else {
			r.logger.Info("Profile upgraded to admin from allowlist",
				zap.String("user_id", user.ID.String()))
		}
	}
	return role
}
