// Package display renders verification reports and warnings for the terminal.
//
// # Reports
//
// Printer implements models.EventSink. Each event is turned into text by
// Render, which groups consecutive events of the same Category and puts one
// blank line between groups:
//
//	printer := display.NewPrinter(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))
//	validator := validation.NewValidator(executor.NewBlockExecutor(), printer)
//
// Passed, failed and skipped lines share one group. Blank events print
// nothing and do not start a new group.
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Code blocks in README.md may not be tested",
//	    Lines:      []string{"line 12: tilde fences are not executed"},
//	    Suggestion: "Use backtick fences",
//	}
//	warning.Display(os.Stderr)
//
// WarnLintIssues builds such a warning from parser lint issues.
//
// # Colors
//
// Report colors come from github.com/fatih/color and are switched per
// Printer, never globally. Warnings are always yellow.
package display
