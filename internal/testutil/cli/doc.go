// Package cli runs cobra command trees in tests.
//
// Commands in this module keep flag values in package variables and in the
// flag sets themselves, so a second Execute in the same process sees the
// first one's flags. Run resets every flag to its default before executing.
//
//	res := cli.Run(t, rootCmd, "list", "ls", "-o", "json")
//	res.AssertSuccess(t)
//	res.AssertContains(t, "Groceries")
package cli
