package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve    *ServeCommand
	Report   *ReportCommand
	Export   *ExportCommand
	Import   *ImportCommand
	Snapshot *SnapshotCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "apppulse"
	parser.LongDescription = "Interactive dashboard for exploring a catalog of mobile applications."

	b := base{globals: &globals, version: version, stdout: os.Stdout}
	cmds := &commands{
		Serve:    &ServeCommand{base: b},
		Report:   &ReportCommand{base: b},
		Export:   &ExportCommand{base: b},
		Import:   &ImportCommand{base: b},
		Snapshot: &SnapshotCommand{base: b},
	}

	parser.AddCommand("serve", "Run the dashboard", "Serve the interactive dashboard over HTTP until interrupted.", cmds.Serve)
	parser.AddCommand("report", "Print the insight report", "Print key metrics, top lists and breakdowns for a filtered view.", cmds.Report)
	parser.AddCommand("export", "Export the filtered view", "Write the filtered view to a .csv or .xlsx file with the source columns.", cmds.Export)
	parser.AddCommand("import", "Copy the dataset into a database", "Load the dataset and store it in a SQLite or PostgreSQL table.", cmds.Import)
	parser.AddCommand("snapshot", "Screenshot the dashboard", "Capture full-page PNGs of the dashboard, one per category, with headless Chrome.", cmds.Snapshot)

	return parser, &globals, cmds
}

// Run is the main entry point for the AppPulse CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("apppulse %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}
