package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"garageleadly/internal/auth"
	"garageleadly/internal/config"
	"garageleadly/internal/rbac"
)

// issue-token mints an access/refresh pair for staff and contractor accounts.
// Credentials live in the identity provider; this is for operations and local runs.
func main() {
	userID := flag.String("user", "", "user id (required)")
	role := flag.String("role", rbac.RoleOperator, "contractor, operator or super_admin")
	contractorID := flag.String("contractor", "", "contractor id, required for the contractor role")
	flag.Parse()

	if err := run(*userID, *role, *contractorID); err != nil {
		fmt.Fprintln(os.Stderr, "issue-token:", err)
		os.Exit(1)
	}
}

func run(userID, role, contractorID string) error {
	if userID == "" {
		return errors.New("-user is required")
	}
	if !rbac.IsKnownRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if role == rbac.RoleContractor && contractorID == "" {
		return errors.New("-contractor is required for the contractor role")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	m, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return err
	}
	pair, err := m.IssuePair(time.Now(), auth.Identity{UserID: userID, ContractorID: contractorID, Role: role})
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(pair)
}
