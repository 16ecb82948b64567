// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/common/cfgstruct"
	"storj.io/common/fpath"
	"storj.io/common/memory"
	"storj.io/common/process"
	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metaservice"
)

var (
	rootCmd = &cobra.Command{
		Use:   "tracmeta",
		Short: "Metadata catalogue server",
	}
	setupCmd = &cobra.Command{
		Use:         "setup",
		Short:       "Create config files",
		RunE:        cmdSetup,
		Annotations: map[string]string{"type": "setup"},
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the metadata catalogue",
		RunE:  cmdRun,
	}
	migrationCmd = &cobra.Command{
		Use:   "migration",
		Short: "Catalogue schema migration",
	}
	migrationRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Migrate the catalogue schema to the latest version",
		RunE:  cmdMigrationRun,
	}
	migrationStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Report the deployed and the expected schema version",
		RunE:  cmdMigrationStatus,
	}
	tenantCmd = &cobra.Command{
		Use:   "tenant",
		Short: "Tenant administration",
	}
	tenantCreateCmd = &cobra.Command{
		Use:   "create <code> [description]",
		Short: "Create a tenant or update its description",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  cmdTenantCreate,
	}
	tenantListCmd = &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		RunE:  cmdTenantList,
	}

	confDir string

	runCfg   TracMetaConf
	setupCfg TracMetaConf
)

// TracMetaConf defines the catalogue process configuration.
type TracMetaConf struct {
	DatabaseURL    string      `help:"URL to connect to the catalogue database" default:""`
	Tenants        string      `help:"comma separated tenant codes served by this process, empty serves every tenant" default:""`
	MaxPayloadSize memory.Size `help:"largest accepted definition payload" default:"16.0 MiB"`
}

func (conf TracMetaConf) serviceConfig() metaservice.Config {
	var tenants []string
	for _, code := range strings.Split(conf.Tenants, ",") {
		if code = strings.TrimSpace(code); code != "" {
			tenants = append(tenants, code)
		}
	}
	return metaservice.Config{
		Tenants:        tenants,
		MaxPayloadSize: conf.MaxPayloadSize.Int(),
	}
}

func openDB(cmd *cobra.Command, log *zap.Logger) (*metabase.DB, error) {
	ctx, _ := process.Ctx(cmd)

	if runCfg.DatabaseURL == "" {
		return nil, errs.New("database-url is required")
	}
	db, err := metabase.Open(ctx, log.Named("metabase"), runCfg.DatabaseURL, metabase.Config{
		ApplicationName: "tracmeta",
	})
	if err != nil {
		return nil, errs.New("Error creating catalogue database connection: %+v", err)
	}
	return db, nil
}

func cmdSetup(cmd *cobra.Command, args []string) (err error) {
	setupDir, err := filepath.Abs(confDir)
	if err != nil {
		return err
	}

	valid, _ := fpath.IsValidSetupDir(setupDir)
	if !valid {
		return fmt.Errorf("tracmeta configuration already exists (%v)", setupDir)
	}

	err = os.MkdirAll(setupDir, 0700)
	if err != nil {
		return err
	}

	if setupCfg.DatabaseURL == "" {
		return fmt.Errorf("database-url is required")
	}

	return process.SaveConfig(cmd, filepath.Join(setupDir, "config.yaml"))
}

func cmdRun(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	db, err := openDB(cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errs.Combine(err, db.Close())
	}()

	err = db.CheckVersion(ctx)
	if err != nil {
		return errs.New("failed catalogue version check: %+v", err)
	}

	config := runCfg.serviceConfig()
	log.Info("metadata catalogue ready",
		zap.String("database", db.Implementation().String()),
		zap.Strings("tenants", config.Tenants))

	// The transport gateway embeds the write and read services; this process
	// owns the store lifecycle and keeps a liveness probe on it.
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("metadata catalogue shutting down")
			return nil
		case <-ticker.C:
			if err := db.Ping(ctx); err != nil {
				log.Warn("catalogue liveness probe failed", zap.Error(err))
			}
		}
	}
}

func cmdMigrationRun(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	db, err := openDB(cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errs.Combine(err, db.Close())
	}()

	err = db.MigrateToLatest(ctx)
	if err != nil {
		return errs.New("Error creating tables for the catalogue database: %+v", err)
	}
	log.Info("catalogue migration complete")
	return nil
}

func cmdMigrationStatus(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	db, err := openDB(cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errs.Combine(err, db.Close())
	}()

	migration := db.Migration()
	current, err := migration.CurrentVersion(ctx, db.UnderlyingTagSQL())
	if err != nil {
		return errs.New("Error reading the deployed schema version: %+v", err)
	}
	expected := -1
	if len(migration.Steps) > 0 {
		expected = migration.Steps[len(migration.Steps)-1].Version
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "deployed\t%d\n", current)
	fmt.Fprintf(w, "expected\t%d\n", expected)
	return w.Flush()
}

func cmdTenantCreate(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	db, err := openDB(cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errs.Combine(err, db.Close())
	}()

	opts := metabase.EnsureTenant{Code: args[0]}
	if len(args) == 2 {
		opts.Description = args[1]
	}
	err = db.EnsureTenant(ctx, opts)
	if err != nil {
		return errs.New("Error creating tenant: %+v", err)
	}
	fmt.Println("tenant", opts.Code, "ready")
	return nil
}

func cmdTenantList(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	db, err := openDB(cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errs.Combine(err, db.Close())
	}()

	tenants, err := db.ListTenants(ctx)
	if err != nil {
		return errs.New("Error listing tenants: %+v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tDESCRIPTION")
	for _, tenant := range tenants {
		fmt.Fprintf(w, "%s\t%s\n", tenant.Code, tenant.Description)
	}
	return w.Flush()
}

func init() {
	defaultConfDir := fpath.ApplicationDir("storj", "tracmeta")
	cfgstruct.SetupFlag(zap.L(), rootCmd, &confDir, "config-dir", defaultConfDir, "main directory for tracmeta configuration")
	defaults := cfgstruct.DefaultsFlag(rootCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(migrationCmd)
	rootCmd.AddCommand(tenantCmd)
	migrationCmd.AddCommand(migrationRunCmd)
	migrationCmd.AddCommand(migrationStatusCmd)
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantListCmd)
	process.Bind(runCmd, &runCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(setupCmd, &setupCfg, defaults, cfgstruct.ConfDir(confDir), cfgstruct.SetupMode())
	process.Bind(migrationRunCmd, &runCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(migrationStatusCmd, &runCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(tenantCreateCmd, &runCfg, defaults, cfgstruct.ConfDir(confDir))
	process.Bind(tenantListCmd, &runCfg, defaults, cfgstruct.ConfDir(confDir))
}

func main() {
	logger, _, _ := process.NewLogger("tracmeta")
	zap.ReplaceGlobals(logger)

	process.Exec(rootCmd)
}
