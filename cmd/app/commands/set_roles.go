package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	identityUsecase "github.com/allisson/passvault/internal/identity/usecase"
)

// RunSetRoles replaces a user's role list. Role changes take effect for new
// access tokens only; outstanding tokens keep their embedded roles until they
// expire.
//
// Requirements: Database must be migrated and accessible.
func RunSetRoles(
	ctx context.Context,
	userRepo identityUsecase.UserRepository,
	logger *slog.Logger,
	writer io.Writer,
	email string,
	rolesCSV string,
	format string,
) error {
	roles, err := parseRoles(rolesCSV)
	if err != nil {
		return err
	}

	user, err := userRepo.GetByEmail(ctx, identityDomain.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	user.Roles = roles
	user.UpdatedAt = time.Now().UTC()

	if err := userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user roles: %w", err)
	}

	if format == "json" {
		outputSetRolesJSON(writer, user)
	} else {
		outputSetRolesText(writer, user)
	}

	logger.Info("user roles updated",
		slog.String("user_id", user.ID.String()),
		slog.Any("roles", user.Roles),
	)

	return nil
}

// parseRoles converts a comma-separated role list into validated roles,
// dropping duplicates.
func parseRoles(rolesCSV string) ([]authzDomain.Role, error) {
	var roles []authzDomain.Role
	seen := make(map[authzDomain.Role]bool)

	for _, part := range strings.Split(rolesCSV, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		role, err := authzDomain.ParseRole(name)
		if err != nil {
			return nil, err
		}
		if seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}

	if len(roles) == 0 {
		return nil, fmt.Errorf("at least one role is required")
	}
	return roles, nil
}

// outputSetRolesText outputs the result in human-readable text format.
func outputSetRolesText(writer io.Writer, user *identityDomain.User) {
	names := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		names[i] = string(role)
	}
	fmt.Fprintf(writer, "Updated roles for %s: %s\n", user.Email, strings.Join(names, ", "))
}

// outputSetRolesJSON outputs the result in JSON format for machine consumption.
func outputSetRolesJSON(writer io.Writer, user *identityDomain.User) {
	result := map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"roles":   user.Roles,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(writer, string(jsonBytes))
}
