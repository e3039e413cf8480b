package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/utils"

	"github.com/spf13/cobra"
)

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token <hostname>",
	Short: "Mint a subscriber export token for one hostname",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig("")
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is required")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl == 0 {
			ttl = cfg.AdminTokenTTL
		}
		manager := utils.JWTManager{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, TokenTTL: ttl}
		token, _, err := manager.IssueAdminToken(args[0], time.Now())
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	adminTokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default ADMIN_TOKEN_TTL)")
}
