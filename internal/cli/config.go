package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/todo/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage todo configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			secret := ""
			if cfg.Server.JWTSecret != "" {
				secret = "<set>"
			}
			doc := map[string]any{
				"api_url":     cfg.APIURL,
				"data_dir":    cfg.DataDir,
				"storage_key": cfg.StorageKey,
				"log_level":   cfg.LogLevel,
				"theme":       cfg.Theme,
				"server": map[string]any{
					"addr":       cfg.Server.Addr,
					"db_path":    cfg.Server.DBPath,
					"jwt_secret": secret,
					"token_ttl":  cfg.Server.TokenTTL.String(),
					"redis_url":  cfg.Server.RedisURL,
					"cache_ttl":  cfg.Server.CacheTTL.String(),
				},
			}
			data, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# Merged configuration (file + TODO_* environment)")
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:   %s\n", path)
			fmt.Fprintf(out, "Database: %s\n", cfg.ClientDBPath())
			fmt.Fprintf(out, "Log:      %s\n", cfg.LogPath())
			return nil
		},
	}
}
