package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command page
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// page is the position of a command's doc page in the site navigation
type page struct {
	title    string
	navOrder int
	parent   string
}

// pages maps the base Markdown file name of each command to its page
var pages = map[string]page{
	"gcall":         {"gcall", 0, ""},
	"gcall_predict": {"predict", 0, "gcall"},
	"gcall_train":   {"train", 1, "gcall"},
	"gcall_models":  {"models", 2, "gcall"},
	"gcall_docs":    {"docs", 3, "gcall"},
}

// docsCmd writes the Markdown documentation of every command
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown documentation for every command",
	Args:   cobra.MaximumNArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "./docs"
		if len(args) > 0 {
			dir = args[0]
		}
		return doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler)
	},
}

func init() {
	RootCmd.AddCommand(docsCmd)
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	p, ok := pages[docName(filename)]
	if !ok {
		return ""
	}
	if p.parent == "" {
		return fmt.Sprintf(rootPage, p.title, p.navOrder)
	}
	return fmt.Sprintf(childPage, p.title, p.parent, p.navOrder)
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := docName(filename)
	if base == "gcall" {
		return "/"
	}
	return base
}

func docName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
