// debug_refs prints every reference of a repository, what it resolves to and
// the tip order the graph would use.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/kurobon/gitlanes/internal/git"
	"github.com/kurobon/gitlanes/internal/graph"
)

func main() {
	path := "."
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	primary := graph.DefaultPrimaryBranch
	if len(os.Args) > 2 {
		primary = os.Args[2]
	}

	if err := run(context.Background(), path, primary); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, primary string) error {
	repo, err := git.Open(path)
	if err != nil {
		return err
	}

	heading := color.New(color.Bold, color.FgCyan)
	head := color.New(color.FgGreen)
	tag := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	refs, err := repo.ListReferences(ctx)
	if err != nil {
		return err
	}
	heading.Println("--- References ---")
	for _, r := range refs {
		name := r.Name.String()
		switch {
		case r.IsHead:
			name = head.Sprint(name + " (HEAD)")
		case r.IsTag:
			name = tag.Sprint(name)
		}
		fmt.Printf("%s %s", r.Target.String()[:7], name)
		if r.AheadBehind != nil {
			dim.Printf(" ahead %d behind %d", r.AheadBehind.Ahead, r.AheadBehind.Behind)
		}
		fmt.Println()
	}

	res, err := graph.ResolveReferences(ctx, repo, primary)
	if err != nil {
		return err
	}
	heading.Println("--- Tips ---")
	for i, tip := range res.Tips {
		marker := " "
		if i == 0 {
			marker = head.Sprint("*")
		}
		fmt.Printf("%s %s %v %s\n", marker, tip.ID.String()[:7], res.Labels.Names(tip.ID), dim.Sprint(tip.Summary))
	}

	if len(res.Errors) > 0 {
		heading.Println("--- Unresolved ---")
		for _, e := range res.Errors {
			color.New(color.FgRed).Println(e)
		}
	}
	return nil
}
