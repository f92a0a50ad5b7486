// Command fsarc is the CLI entry point: a single flag-driven cobra root
// command rather than a subcommand tree, since archive/restore/list/verify
// each take a distinct set of flags on the same binary invocation.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fsarc-go/internal/app"
	"fsarc-go/internal/cli"
	"fsarc-go/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fsarc:", err)
		os.Exit(1)
	}
}

var (
	flagArchive     string
	flagRestore     string
	flagRestoreDir  string
	flagCompLevel   int
	flagNoComp      bool
	flagCompFilter  []string
	flagForceNewArc bool
	flagUseBsdiff   bool
	flagExclude     []string
	flagBuiltinExcl bool
	flagSizeFilter  string
	flagNoMetadata  bool
	flagDryRun      bool
	flagVerbose     bool
	flagList        string
	flagVerify      string
	flagEncrypt     bool
	flagEncryptInit bool
	flagPassFile    string
	flagConfigInit  bool
)

var rootCmd = &cobra.Command{
	Use:   "fsarc [roots...]",
	Short: "Incremental filesystem archiver",
	RunE:  run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagArchive, "archive", "a", "", "archive mode: <dir> is the archive directory")
	f.StringVarP(&flagRestore, "restore", "r", "", "restore mode: <file> is a snapshot archive")
	f.StringVarP(&flagRestoreDir, "restore-dir", "d", "", "redirect restore output")
	f.IntVar(&flagCompLevel, "comp-level", 0, "zip deflate level 0-9 (0 is library default)")
	f.BoolVar(&flagNoComp, "no-comp", false, "store, no compression")
	f.StringArrayVarP(&flagCompFilter, "comp-filter", "f", nil, "pattern excluded from compression and diffing (repeatable)")
	f.BoolVar(&flagForceNewArc, "force-new-arc", false, "emit a full NEW-only snapshot even if predecessors exist")
	f.BoolVarP(&flagUseBsdiff, "use-bsdiff", "b", false, "enable MOD entries via bsdiff")
	f.StringArrayVarP(&flagExclude, "exclude", "x", nil, "scanner exclusion pattern (repeatable)")
	f.BoolVarP(&flagBuiltinExcl, "builtin-excl", "X", false, "add the five builtin exclusion patterns")
	f.StringVar(&flagSizeFilter, "size-filter", "", "skip files larger than SZ (suffix k/m/g)")
	f.BoolVar(&flagNoMetadata, "no-metadata", false, "skip metadata application on restore")
	f.BoolVar(&flagDryRun, "dry-run", false, "run without writing bytes or applying metadata")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "accepted; every log level, debug included, is always written")
	f.StringVar(&flagList, "list", "", "list the snapshots in <dir>")
	f.StringVar(&flagVerify, "verify", "", "verify chain integrity of every snapshot in <dir>")
	f.BoolVar(&flagEncrypt, "encrypt", false, "write the whole new snapshot file age-encrypted")
	f.BoolVar(&flagEncryptInit, "encrypt-init", false, "generate a new age key pair for --encrypt")
	f.StringVar(&flagPassFile, "passphrase-file", "", "read the encryption passphrase from a file instead of prompting")
	f.BoolVar(&flagConfigInit, "config-init", false, "write a default config file at the standard location")
}

// modeCount reports how many of the mutually exclusive mode flags are set,
// so run can reject e.g. -a and -r given together instead of silently
// picking one by flag-check order.
func modeCount() int {
	n := 0
	for _, set := range []bool{flagEncryptInit, flagConfigInit, flagArchive != "", flagRestore != "", flagList != "", flagVerify != ""} {
		if set {
			n++
		}
	}
	return n
}

func run(cmd *cobra.Command, args []string) error {
	if modeCount() > 1 {
		return fmt.Errorf("only one of -a, -r, --list, --verify, --encrypt-init, --config-init may be given at a time")
	}

	switch {
	case flagConfigInit:
		return runConfigInit()
	case flagEncryptInit:
		return runEncryptInit()
	case flagArchive != "":
		return runArchive(cmd, args)
	case flagRestore != "":
		return runRestore()
	case flagList != "":
		return runList()
	case flagVerify != "":
		return runVerify()
	default:
		return cmd.Help()
	}
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}
	return cfg, nil
}

func newApp(cfg *config.Config, operation string, opts app.NewOptions) (*app.App, error) {
	a, err := app.New(cfg, operation, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// encryptionConfigured reports whether a key pair has already been set up,
// so restore/list/verify know to prompt for a passphrase before opening
// snapshots that may need to be decrypted for chaining.
func encryptionConfigured(cfg *config.Config) bool {
	return cfg.Encryption.PublicKeyPath != "" && cfg.Encryption.PrivateKeyPath != ""
}

// resolvePassphrase returns the passphrase for the current invocation: from
// --passphrase-file when given, otherwise an interactive hidden prompt.
func resolvePassphrase(prompt string) (string, error) {
	if flagPassFile != "" {
		return cli.ReadPassphraseFromFile(flagPassFile)
	}
	return cli.ReadPassphrase(int(os.Stdin.Fd()), os.Stdin, os.Stderr, prompt)
}

// runConfigInit writes a fresh config file with fsarc's own defaults filled
// in, refusing to overwrite one that already exists.
func runConfigInit() error {
	defaults, err := app.GetDefaults()
	if err != nil {
		return fmt.Errorf("getting defaults: %w", err)
	}

	cfg := config.NewConfig(defaults["base_dir"])
	if err := config.Init(defaults["config_path"], cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	fmt.Println("wrote", defaults["config_path"])
	return nil
}

func runEncryptInit() error {
	passphrase, err := resolvePassphrase("Set a new encryption passphrase: ")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, "encrypt-init", app.NewOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.SetupEncryption(passphrase); err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	fmt.Println("encryption key pair generated")
	return nil
}

// passphraseOptsIfNeeded builds the NewOptions for restore/list/verify,
// prompting for a passphrase only when a key pair is already configured
// (some snapshot in the chain may need decrypting).
func passphraseOptsIfNeeded(cfg *config.Config) (app.NewOptions, error) {
	if !encryptionConfigured(cfg) {
		return app.NewOptions{}, nil
	}
	passphrase, err := resolvePassphrase("Encryption passphrase: ")
	if err != nil {
		return app.NewOptions{}, err
	}
	return app.NewOptions{Passphrase: passphrase}, nil
}

// archiveSettings resolves the values runArchive hands to the engine,
// letting the config file supply a default for any flag the user didn't
// explicitly pass on the command line. An explicit flag always wins.
func archiveSettings(cmd *cobra.Command, cfg *config.Config) (useBsdiff bool, compLevel int, noComp bool, compFilter, exclude []string, builtinExcl bool, sizeFilterRaw string) {
	f := cmd.Flags()

	useBsdiff = flagUseBsdiff
	if !f.Changed("use-bsdiff") {
		useBsdiff = cfg.UseBsdiff
	}

	compLevel = flagCompLevel
	if !f.Changed("comp-level") {
		compLevel = cfg.CompLevel
	}

	noComp = flagNoComp
	if !f.Changed("no-comp") {
		noComp = cfg.NoComp
	}

	compFilter = flagCompFilter
	if !f.Changed("comp-filter") {
		compFilter = cfg.CompFilter
	}

	exclude = flagExclude
	if !f.Changed("exclude") {
		exclude = cfg.Exclude
	}

	builtinExcl = flagBuiltinExcl
	if !f.Changed("builtin-excl") {
		builtinExcl = cfg.BuiltinExcl
	}

	sizeFilterRaw = flagSizeFilter
	if !f.Changed("size-filter") {
		sizeFilterRaw = cfg.SizeFilter
	}

	return
}

func runArchive(cmd *cobra.Command, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("archive mode requires at least one input root")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	useBsdiff, compLevel, noComp, compFilter, exclude, builtinExcl, sizeFilterRaw := archiveSettings(cmd, cfg)

	sizeFilter, err := parseSizeFilter(sizeFilterRaw)
	if err != nil {
		return fmt.Errorf("parsing --size-filter: %w", err)
	}

	opts := app.NewOptions{Encrypt: flagEncrypt}
	if flagEncrypt || flagPassFile != "" {
		opts.Passphrase, err = resolvePassphrase("Encryption passphrase: ")
		if err != nil {
			return err
		}
	}

	a, err := newApp(cfg, "archive", opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Archive(flagArchive, roots, useBsdiff, compLevel, noComp,
		compFilter, exclude, builtinExcl, flagForceNewArc, sizeFilter, flagDryRun)
	if err != nil {
		return fmt.Errorf("archiving: %w", err)
	}

	fmt.Printf("%s: %d new, %d mod, %d unc, %d dir\n",
		res.SnapshotPath, res.NewCount, res.ModCount, res.UncCount, res.DirCount)
	return nil
}

func runRestore() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := passphraseOptsIfNeeded(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, "restore", opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Restore(flagRestore, flagRestoreDir, !flagNoMetadata, flagDryRun)
	if err != nil {
		return fmt.Errorf("restoring: %w", err)
	}

	fmt.Printf("restored %d file(s)\n", len(res.Written))
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return nil
}

func runList() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := passphraseOptsIfNeeded(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, "list", opts)
	if err != nil {
		return err
	}
	defer a.Close()

	summaries, err := a.List(flagList)
	if err != nil {
		return fmt.Errorf("listing: %w", err)
	}

	for _, s := range summaries {
		fmt.Printf("%s  %d entries  %d bytes\n", s.Name, s.EntryCount, s.TotalSize)
	}
	return nil
}

func runVerify() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := passphraseOptsIfNeeded(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, "verify", opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Verify(flagVerify)
	if err != nil {
		return fmt.Errorf("verifying: %w", err)
	}

	fmt.Printf("checked %d entries, %d failures\n", res.Checked, len(res.Failures))
	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "warning: %s: %s: %v\n", f.Snapshot, f.Member, f.Err)
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("verify found %d broken chain(s)", len(res.Failures))
	}
	return nil
}

// parseSizeFilter parses a positive integer optionally suffixed k/m/g
// (powers of 1024). An empty string means "no filter".
func parseSizeFilter(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}

	mult := int64(1)
	switch suffix := strings.ToLower(raw[len(raw)-1:]); suffix {
	case "k":
		mult = 1024
		raw = raw[:len(raw)-1]
	case "m":
		mult = 1024 * 1024
		raw = raw[:len(raw)-1]
	case "g":
		mult = 1024 * 1024 * 1024
		raw = raw[:len(raw)-1]
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d", n)
	}
	return n * mult, nil
}
