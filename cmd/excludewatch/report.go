package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// reportPendingActions renders the pending exclude/include actions as a
// unified diff (excluded paths as additions, included paths as removals).
// It never prompts for confirmation: unless dryRun or noConfirm is set, it
// prints "changes applied" before returning.
func reportPendingActions(add, remove []string, dryRun, noConfirm bool) error {
	if len(add) == 0 && len(remove) == 0 {
		fmt.Println("nothing to do")
		return nil
	}

	sort.Strings(add)
	sort.Strings(remove)

	var before, after []string
	for _, p := range remove {
		before = append(before, p)
	}
	for _, p := range add {
		after = append(after, p)
	}

	diff := difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: "included",
		ToFile:   "excluded",
		Context:  0,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) != "" {
		fmt.Println(text)
	} else {
		for _, p := range add {
			fmt.Printf("+ %s\n", p)
		}
		for _, p := range remove {
			fmt.Printf("- %s\n", p)
		}
	}

	if dryRun {
		fmt.Println("(dry run: no changes applied)")
		return nil
	}
	if !noConfirm {
		fmt.Println("changes applied")
	}
	return nil
}
